package memory

// Store bundles repositories backed by one in-memory database.
type Store struct {
	Vaults       *VaultRepository
	Memberships  *MembershipRepository
	Invites      *InviteRepository
	Secrets      *SecretRepository
	Transactions *TransactionManager
}

// NewStore builds an empty in-memory store.
func NewStore() *Store {
	db := newDatabase()
	return &Store{
		Vaults:       &VaultRepository{db: db},
		Memberships:  &MembershipRepository{db: db},
		Invites:      &InviteRepository{db: db},
		Secrets:      &SecretRepository{db: db},
		Transactions: &TransactionManager{db: db},
	}
}
