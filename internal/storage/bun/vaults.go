package bunrepo

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VaultRepository struct {
	base baseRepository[domain.Vault]
}

var _ store.VaultRepository = (*VaultRepository)(nil)

func NewVaultRepository(db *bun.DB) *VaultRepository {
	handlers := repository.ModelHandlers[*domain.Vault]{
		NewRecord: func() *domain.Vault { return &domain.Vault{} },
		GetID:     func(v *domain.Vault) uuid.UUID { return v.ID },
		SetID: func(v *domain.Vault, id uuid.UUID) {
			v.ID = id
		},
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(v *domain.Vault) string { return v.Slug },
	}
	return &VaultRepository{
		base: newBaseRepository[domain.Vault](db, handlers, func(v *domain.Vault) *domain.RecordMeta { return &v.RecordMeta }),
	}
}

func (r *VaultRepository) Create(ctx context.Context, vault *domain.Vault) error {
	return r.base.create(ctx, vault)
}

func (r *VaultRepository) Update(ctx context.Context, vault *domain.Vault) error {
	return r.base.update(ctx, vault)
}

func (r *VaultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error) {
	return r.base.getByID(ctx, id)
}

func (r *VaultRepository) GetBySlug(ctx context.Context, slug string) (*domain.Vault, error) {
	return r.base.get(ctx, withWhere("slug = ?", slug))
}

func (r *VaultRepository) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var slugs []string
	err := conn(ctx, r.base.db).NewSelect().
		Model((*domain.Vault)(nil)).
		Column("slug").
		Where("slug = ? OR substr(slug, 1, ?) = ?", prefix, len(prefix)+1, prefix+"-").
		OrderExpr("slug ASC").
		Scan(ctx, &slugs)
	if err != nil {
		return nil, mapError(err)
	}
	return slugs, nil
}

func (r *VaultRepository) List(ctx context.Context, filter store.VaultFilter) (store.ListResult[domain.Vault], error) {
	criteria := []repository.SelectCriteria{}
	if filter.MemberID != "" {
		criteria = append(criteria, withMemberVaults(conn(ctx, r.base.db), "v.id", filter.MemberID, filter.Roles...))
	}
	if len(filter.Statuses) > 0 {
		criteria = append(criteria, withWhere("v.status IN (?)", bun.In(filter.Statuses)))
	}
	criteria = append(criteria, withPage(filter.ListOptions, "v.name ASC, v.slug ASC"))
	return r.base.list(ctx, criteria...)
}
