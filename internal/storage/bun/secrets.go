package bunrepo

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SecretRepository struct {
	base baseRepository[domain.Secret]
}

var _ store.SecretRepository = (*SecretRepository)(nil)

func NewSecretRepository(db *bun.DB) *SecretRepository {
	handlers := repository.ModelHandlers[*domain.Secret]{
		NewRecord: func() *domain.Secret { return &domain.Secret{} },
		GetID:     func(s *domain.Secret) uuid.UUID { return s.ID },
		SetID: func(s *domain.Secret, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(s *domain.Secret) string { return s.ID.String() },
	}
	return &SecretRepository{
		base: newBaseRepository[domain.Secret](db, handlers, func(s *domain.Secret) *domain.RecordMeta { return &s.RecordMeta }),
	}
}

func (r *SecretRepository) Create(ctx context.Context, secret *domain.Secret) error {
	return r.base.create(ctx, secret)
}

func (r *SecretRepository) Update(ctx context.Context, secret *domain.Secret) error {
	return r.base.update(ctx, secret)
}

func (r *SecretRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Secret, error) {
	return r.base.getByID(ctx, id)
}

func (r *SecretRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.deleteByID(ctx, id)
}

func (r *SecretRepository) List(ctx context.Context, filter store.SecretFilter) (store.ListResult[domain.Secret], error) {
	criteria := []repository.SelectCriteria{}
	if filter.VaultID != uuid.Nil {
		criteria = append(criteria, withWhere("s.vault_id = ?", filter.VaultID))
	}
	criteria = append(criteria, withPage(filter.ListOptions, "s.name ASC, s.created_at ASC"))
	return r.base.list(ctx, criteria...)
}
