package memory

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/google/uuid"
)

type SecretRepository struct {
	db *database
}

var _ store.SecretRepository = (*SecretRepository)(nil)

func (r *SecretRepository) Create(_ context.Context, secret *domain.Secret) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stamp(&secret.RecordMeta)
	if _, exists := r.db.secrets[secret.ID]; exists {
		return store.ErrConflict
	}
	r.db.secrets[secret.ID] = *secret
	return nil
}

func (r *SecretRepository) Update(_ context.Context, secret *domain.Secret) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.secrets[secret.ID]; !ok {
		return store.ErrNotFound
	}
	stamp(&secret.RecordMeta)
	r.db.secrets[secret.ID] = *secret
	return nil
}

func (r *SecretRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Secret, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	secret, ok := r.db.secrets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &secret, nil
}

func (r *SecretRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.secrets[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.secrets, id)
	return nil
}

func (r *SecretRepository) List(_ context.Context, filter store.SecretFilter) (store.ListResult[domain.Secret], error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var items []domain.Secret
	for _, secret := range r.db.secrets {
		if filter.VaultID != uuid.Nil && secret.VaultID != filter.VaultID {
			continue
		}
		items = append(items, secret)
	}
	return paginate(items, filter.ListOptions, func(a, b *domain.Secret) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}
