package bunrepo

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type MembershipRepository struct {
	base baseRepository[domain.Membership]
}

var _ store.MembershipRepository = (*MembershipRepository)(nil)

func NewMembershipRepository(db *bun.DB) *MembershipRepository {
	handlers := repository.ModelHandlers[*domain.Membership]{
		NewRecord: func() *domain.Membership { return &domain.Membership{} },
		GetID:     func(m *domain.Membership) uuid.UUID { return m.ID },
		SetID: func(m *domain.Membership, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(m *domain.Membership) string { return m.ID.String() },
	}
	return &MembershipRepository{
		base: newBaseRepository[domain.Membership](db, handlers, func(m *domain.Membership) *domain.RecordMeta { return &m.RecordMeta }),
	}
}

func (r *MembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	return r.base.create(ctx, membership)
}

func (r *MembershipRepository) Update(ctx context.Context, membership *domain.Membership) error {
	return r.base.update(ctx, membership)
}

func (r *MembershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Membership, error) {
	return r.base.getByID(ctx, id)
}

func (r *MembershipRepository) GetByMemberAndVault(ctx context.Context, memberID string, vaultID uuid.UUID) (*domain.Membership, error) {
	return r.base.get(ctx,
		withWhere("member_id = ?", memberID),
		withWhere("vault_id = ?", vaultID),
	)
}

func (r *MembershipRepository) List(ctx context.Context, filter store.MembershipFilter) (store.ListResult[domain.Membership], error) {
	criteria := []repository.SelectCriteria{}
	if filter.VaultID != uuid.Nil {
		criteria = append(criteria, withWhere("m.vault_id = ?", filter.VaultID))
	}
	if filter.MemberID != "" {
		criteria = append(criteria, withWhere("m.member_id = ?", filter.MemberID))
	}
	if !filter.IncludeExcluded {
		criteria = append(criteria, withWhere("m.status = ?", domain.MembershipActive))
	}
	if len(filter.Roles) > 0 {
		criteria = append(criteria, withWhere("m.role IN (?)", bun.In(filter.Roles)))
	}
	criteria = append(criteria, withPage(filter.ListOptions, "m.joined_on ASC, m.member_id ASC"))
	return r.base.list(ctx, criteria...)
}
