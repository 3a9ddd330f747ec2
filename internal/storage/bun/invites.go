package bunrepo

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type InviteRepository struct {
	base baseRepository[domain.Invite]
}

var _ store.InviteRepository = (*InviteRepository)(nil)

func NewInviteRepository(db *bun.DB) *InviteRepository {
	handlers := repository.ModelHandlers[*domain.Invite]{
		NewRecord: func() *domain.Invite { return &domain.Invite{} },
		GetID:     func(i *domain.Invite) uuid.UUID { return i.ID },
		SetID: func(i *domain.Invite, id uuid.UUID) {
			i.ID = id
		},
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(i *domain.Invite) string { return i.ID.String() },
	}
	return &InviteRepository{
		base: newBaseRepository[domain.Invite](db, handlers, func(i *domain.Invite) *domain.RecordMeta { return &i.RecordMeta }),
	}
}

func (r *InviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	return r.base.create(ctx, invite)
}

func (r *InviteRepository) Update(ctx context.Context, invite *domain.Invite) error {
	return r.base.update(ctx, invite)
}

func (r *InviteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return r.base.getByID(ctx, id)
}

func (r *InviteRepository) GetByVaultAndInvitee(ctx context.Context, vaultID uuid.UUID, inviteeID string) (*domain.Invite, error) {
	return r.base.get(ctx,
		withWhere("vault_id = ?", vaultID),
		withWhere("invitee_id = ?", inviteeID),
	)
}

func (r *InviteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.deleteByID(ctx, id)
}

func (r *InviteRepository) List(ctx context.Context, filter store.InviteFilter) (store.ListResult[domain.Invite], error) {
	criteria := []repository.SelectCriteria{}
	if filter.VaultID != uuid.Nil {
		criteria = append(criteria, withWhere("i.vault_id = ?", filter.VaultID))
	}
	if filter.InviteeID != "" {
		criteria = append(criteria, withWhere("i.invitee_id = ?", filter.InviteeID))
	}
	if filter.ManagedBy != "" {
		criteria = append(criteria, withMemberVaults(conn(ctx, r.base.db), "i.vault_id", filter.ManagedBy, domain.RoleOwner, domain.RoleAdmin))
	}
	if !filter.PendingAt.IsZero() {
		criteria = append(criteria,
			withWhere("i.accepted = ?", false),
			withWhere("i.expires_on >= ?", filter.PendingAt.UTC()),
		)
	}
	criteria = append(criteria, withPage(filter.ListOptions, "i.invited_on ASC, i.invitee_id ASC"))
	return r.base.list(ctx, criteria...)
}
