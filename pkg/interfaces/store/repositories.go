package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record cannot be located.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("store: conflict")
)

// ListOptions capture pagination knobs common to repositories.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
}

// VaultFilter narrows vault listings. MemberID restricts results to vaults
// where the member holds an active membership with one of Roles (any role
// when Roles is empty). An empty Statuses matches every status.
type VaultFilter struct {
	ListOptions
	MemberID string
	Roles    []domain.Role
	Statuses []domain.VaultStatus
}

type VaultRepository interface {
	Repository[domain.Vault]
	GetBySlug(ctx context.Context, slug string) (*domain.Vault, error)
	// SlugsWithPrefix returns slugs equal to prefix or starting with prefix+"-".
	SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	List(ctx context.Context, filter VaultFilter) (ListResult[domain.Vault], error)
}

// MembershipFilter narrows membership listings. Excluded memberships are
// skipped unless IncludeExcluded is set.
type MembershipFilter struct {
	ListOptions
	VaultID         uuid.UUID
	MemberID        string
	Roles           []domain.Role
	IncludeExcluded bool
}

type MembershipRepository interface {
	Repository[domain.Membership]
	GetByMemberAndVault(ctx context.Context, memberID string, vaultID uuid.UUID) (*domain.Membership, error)
	List(ctx context.Context, filter MembershipFilter) (ListResult[domain.Membership], error)
}

// InviteFilter narrows invite listings. ManagedBy restricts results to
// vaults where the member is an active owner or admin. A non-zero PendingAt
// keeps only invites not accepted and not expired at that instant.
type InviteFilter struct {
	ListOptions
	VaultID   uuid.UUID
	InviteeID string
	ManagedBy string
	PendingAt time.Time
}

type InviteRepository interface {
	Repository[domain.Invite]
	GetByVaultAndInvitee(ctx context.Context, vaultID uuid.UUID, inviteeID string) (*domain.Invite, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter InviteFilter) (ListResult[domain.Invite], error)
}

// SecretFilter narrows secret listings.
type SecretFilter struct {
	ListOptions
	VaultID uuid.UUID
}

type SecretRepository interface {
	Repository[domain.Secret]
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter SecretFilter) (ListResult[domain.Secret], error)
}
