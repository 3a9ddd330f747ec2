package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// Touch stamps the audit fields, filling CreatedAt on first use.
func (m *RecordMeta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Vault groups secrets that share one RSA key pair.
type Vault struct {
	bun.BaseModel `bun:"table:crypta_vaults,alias:v"`
	RecordMeta

	Name      string      `bun:"name,notnull" json:"name"`
	Slug      string      `bun:"slug,notnull,unique" json:"slug"`
	PublicKey []byte      `bun:"public_key,notnull" json:"-"`
	Status    VaultStatus `bun:"status,notnull,default:'active'" json:"status"`
}

// Active reports whether the vault accepts reads and writes.
func (v *Vault) Active() bool {
	return v != nil && v.Status == VaultActive
}

// Membership binds a user to a vault and holds that user's wrapped copy of
// the vault private key.
type Membership struct {
	bun.BaseModel `bun:"table:crypta_memberships,alias:m"`
	RecordMeta

	VaultID     uuid.UUID        `bun:"vault_id,notnull,type:uuid,unique:crypta_member_vault" json:"vault_id"`
	MemberID    string           `bun:"member_id,notnull,unique:crypta_member_vault" json:"member_id"`
	MemberEmail string           `bun:"member_email" json:"member_email,omitempty"`
	MemberName  string           `bun:"member_name" json:"member_name,omitempty"`
	WrappedKey  []byte           `bun:"wrapped_key,notnull" json:"-"`
	Role        Role             `bun:"role,notnull" json:"role"`
	Status      MembershipStatus `bun:"status,notnull,default:'active'" json:"status"`
	JoinedOn    time.Time        `bun:"joined_on,nullzero" json:"joined_on"`
}

// Active reports whether the membership has not been excluded.
func (m *Membership) Active() bool {
	return m != nil && m.Status == MembershipActive
}

// Ref returns the user reference held by the membership.
func (m *Membership) Ref() UserRef {
	return UserRef{ID: m.MemberID, Email: m.MemberEmail, Name: m.MemberName}
}

// Invite is a pending offer of membership carrying a temporary wrapped key.
type Invite struct {
	bun.BaseModel `bun:"table:crypta_invites,alias:i"`
	RecordMeta

	VaultID      uuid.UUID `bun:"vault_id,notnull,type:uuid,unique:crypta_vault_invitee" json:"vault_id"`
	InviterID    string    `bun:"inviter_id,notnull" json:"inviter_id"`
	InviterEmail string    `bun:"inviter_email" json:"inviter_email,omitempty"`
	InviteeID    string    `bun:"invitee_id,notnull,unique:crypta_vault_invitee" json:"invitee_id"`
	InviteeEmail string    `bun:"invitee_email" json:"invitee_email,omitempty"`
	InviteeName  string    `bun:"invitee_name" json:"invitee_name,omitempty"`
	TemporaryKey []byte    `bun:"temporary_key,nullzero" json:"-"`
	Role         Role      `bun:"role,notnull" json:"role"`
	InvitedOn    time.Time `bun:"invited_on,notnull" json:"invited_on"`
	ExpiresOn    time.Time `bun:"expires_on,notnull" json:"expires_on"`
	Accepted     bool      `bun:"accepted,notnull,default:false" json:"accepted"`
	AcceptedOn   time.Time `bun:"accepted_on,nullzero" json:"accepted_on,omitempty"`
}

// Status derives the invite state at the given instant.
func (i *Invite) Status(now time.Time) InviteStatus {
	switch {
	case i.Accepted:
		return InviteAccepted
	case now.After(i.ExpiresOn):
		return InviteExpired
	default:
		return InvitePending
	}
}

// Invitee returns the user reference of the invited user.
func (i *Invite) Invitee() UserRef {
	return UserRef{ID: i.InviteeID, Email: i.InviteeEmail, Name: i.InviteeName}
}

// Secret stores ciphertext encrypted under the vault public key.
type Secret struct {
	bun.BaseModel `bun:"table:crypta_secrets,alias:s"`
	RecordMeta

	VaultID uuid.UUID `bun:"vault_id,notnull,type:uuid" json:"vault_id"`
	Name    string    `bun:"name,notnull" json:"name"`
	Data    []byte    `bun:"data,notnull" json:"-"`
}
