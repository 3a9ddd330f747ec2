package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/google/uuid"
)

type VaultRepository struct {
	db *database
}

var _ store.VaultRepository = (*VaultRepository)(nil)

func (r *VaultRepository) Create(_ context.Context, vault *domain.Vault) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stamp(&vault.RecordMeta)
	if _, exists := r.db.vaults[vault.ID]; exists {
		return store.ErrConflict
	}
	if r.slugTaken(vault.Slug, vault.ID) {
		return store.ErrConflict
	}
	r.db.vaults[vault.ID] = *vault
	return nil
}

func (r *VaultRepository) Update(_ context.Context, vault *domain.Vault) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.vaults[vault.ID]; !ok {
		return store.ErrNotFound
	}
	if r.slugTaken(vault.Slug, vault.ID) {
		return store.ErrConflict
	}
	stamp(&vault.RecordMeta)
	r.db.vaults[vault.ID] = *vault
	return nil
}

func (r *VaultRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Vault, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	vault, ok := r.db.vaults[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &vault, nil
}

func (r *VaultRepository) GetBySlug(_ context.Context, slug string) (*domain.Vault, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, vault := range r.db.vaults {
		if vault.Slug == slug {
			return &vault, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *VaultRepository) SlugsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var slugs []string
	for _, vault := range r.db.vaults {
		if vault.Slug == prefix || strings.HasPrefix(vault.Slug, prefix+"-") {
			slugs = append(slugs, vault.Slug)
		}
	}
	slices.Sort(slugs)
	return slugs, nil
}

func (r *VaultRepository) List(_ context.Context, filter store.VaultFilter) (store.ListResult[domain.Vault], error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var allowed map[uuid.UUID]bool
	if filter.MemberID != "" {
		allowed = make(map[uuid.UUID]bool)
		for _, m := range r.db.memberships {
			if m.MemberID == filter.MemberID && m.Active() && containsRole(filter.Roles, m.Role) {
				allowed[m.VaultID] = true
			}
		}
	}

	var items []domain.Vault
	for _, vault := range r.db.vaults {
		if allowed != nil && !allowed[vault.ID] {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, vault.Status) {
			continue
		}
		items = append(items, vault)
	}
	return paginate(items, filter.ListOptions, func(a, b *domain.Vault) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Slug < b.Slug
	}), nil
}

func (r *VaultRepository) slugTaken(slug string, self uuid.UUID) bool {
	for id, vault := range r.db.vaults {
		if id != self && vault.Slug == slug {
			return true
		}
	}
	return false
}
