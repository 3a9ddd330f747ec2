package memory

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/google/uuid"
)

type MembershipRepository struct {
	db *database
}

var _ store.MembershipRepository = (*MembershipRepository)(nil)

func (r *MembershipRepository) Create(_ context.Context, membership *domain.Membership) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stamp(&membership.RecordMeta)
	if _, exists := r.db.memberships[membership.ID]; exists {
		return store.ErrConflict
	}
	if r.pairTaken(membership) {
		return store.ErrConflict
	}
	r.db.memberships[membership.ID] = *membership
	return nil
}

func (r *MembershipRepository) Update(_ context.Context, membership *domain.Membership) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.memberships[membership.ID]; !ok {
		return store.ErrNotFound
	}
	if r.pairTaken(membership) {
		return store.ErrConflict
	}
	stamp(&membership.RecordMeta)
	r.db.memberships[membership.ID] = *membership
	return nil
}

func (r *MembershipRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Membership, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	membership, ok := r.db.memberships[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &membership, nil
}

func (r *MembershipRepository) GetByMemberAndVault(_ context.Context, memberID string, vaultID uuid.UUID) (*domain.Membership, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, membership := range r.db.memberships {
		if membership.MemberID == memberID && membership.VaultID == vaultID {
			return &membership, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *MembershipRepository) List(_ context.Context, filter store.MembershipFilter) (store.ListResult[domain.Membership], error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var items []domain.Membership
	for _, membership := range r.db.memberships {
		if filter.VaultID != uuid.Nil && membership.VaultID != filter.VaultID {
			continue
		}
		if filter.MemberID != "" && membership.MemberID != filter.MemberID {
			continue
		}
		if !filter.IncludeExcluded && !membership.Active() {
			continue
		}
		if !containsRole(filter.Roles, membership.Role) {
			continue
		}
		items = append(items, membership)
	}
	return paginate(items, filter.ListOptions, func(a, b *domain.Membership) bool {
		if !a.JoinedOn.Equal(b.JoinedOn) {
			return a.JoinedOn.Before(b.JoinedOn)
		}
		return a.MemberID < b.MemberID
	}), nil
}

func (r *MembershipRepository) pairTaken(membership *domain.Membership) bool {
	for id, existing := range r.db.memberships {
		if id != membership.ID && existing.MemberID == membership.MemberID && existing.VaultID == membership.VaultID {
			return true
		}
	}
	return false
}
