package storage

import (
	"context"

	bunrepo "github.com/goliatone/go-crypta/internal/storage/bun"
	"github.com/goliatone/go-crypta/internal/storage/memory"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// Providers exposes all repositories needed by services.
type Providers struct {
	Vaults      store.VaultRepository
	Memberships store.MembershipRepository
	Invites     store.InviteRepository
	Secrets     store.SecretRepository
	Transaction store.TransactionManager
}

// Complete reports whether every repository is set.
func (p Providers) Complete() bool {
	return p.Vaults != nil && p.Memberships != nil && p.Invites != nil &&
		p.Secrets != nil && p.Transaction != nil
}

type Option func(*Providers)

// WithTransactionManager replaces the transaction manager, for hosts that
// already coordinate transactions themselves.
func WithTransactionManager(tx store.TransactionManager) Option {
	return func(p *Providers) {
		if tx != nil {
			p.Transaction = tx
		}
	}
}

// NewMemoryProviders returns repositories backed by one shared in-memory
// database with snapshot rollback.
func NewMemoryProviders(opts ...Option) Providers {
	st := memory.NewStore()
	providers := Providers{
		Vaults:      st.Vaults,
		Memberships: st.Memberships,
		Invites:     st.Invites,
		Secrets:     st.Secrets,
		Transaction: st.Transactions,
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
//
// Conflicting writes only surface as store.ErrConflict when the database
// serializes transactions instead of failing them. On sqlite open the DSN
// with _busy_timeout (e.g. "&_busy_timeout=5000") or cap the pool with
// db.SetMaxOpenConns(1); otherwise concurrent invites may fail with
// SQLITE_BUSY.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(bunrepo.Models()...)

	providers := Providers{
		Vaults:      bunrepo.NewVaultRepository(db),
		Memberships: bunrepo.NewMembershipRepository(db),
		Invites:     bunrepo.NewInviteRepository(db),
		Secrets:     bunrepo.NewSecretRepository(db),
		Transaction: bunrepo.NewTransactionManager(db),
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// CreateSchema creates the vault tables on db when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	return bunrepo.CreateSchema(ctx, db)
}
