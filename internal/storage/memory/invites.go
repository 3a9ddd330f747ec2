package memory

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/google/uuid"
)

type InviteRepository struct {
	db *database
}

var _ store.InviteRepository = (*InviteRepository)(nil)

func (r *InviteRepository) Create(_ context.Context, invite *domain.Invite) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stamp(&invite.RecordMeta)
	if _, exists := r.db.invites[invite.ID]; exists {
		return store.ErrConflict
	}
	if r.pairTaken(invite) {
		return store.ErrConflict
	}
	r.db.invites[invite.ID] = *invite
	return nil
}

func (r *InviteRepository) Update(_ context.Context, invite *domain.Invite) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.invites[invite.ID]; !ok {
		return store.ErrNotFound
	}
	if r.pairTaken(invite) {
		return store.ErrConflict
	}
	stamp(&invite.RecordMeta)
	r.db.invites[invite.ID] = *invite
	return nil
}

func (r *InviteRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Invite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	invite, ok := r.db.invites[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &invite, nil
}

func (r *InviteRepository) GetByVaultAndInvitee(_ context.Context, vaultID uuid.UUID, inviteeID string) (*domain.Invite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, invite := range r.db.invites {
		if invite.VaultID == vaultID && invite.InviteeID == inviteeID {
			return &invite, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *InviteRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.invites[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.invites, id)
	return nil
}

func (r *InviteRepository) List(_ context.Context, filter store.InviteFilter) (store.ListResult[domain.Invite], error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var managed map[uuid.UUID]bool
	if filter.ManagedBy != "" {
		managed = make(map[uuid.UUID]bool)
		for _, m := range r.db.memberships {
			if m.MemberID == filter.ManagedBy && m.Active() && m.Role.IsManager() {
				managed[m.VaultID] = true
			}
		}
	}

	var items []domain.Invite
	for _, invite := range r.db.invites {
		if filter.VaultID != uuid.Nil && invite.VaultID != filter.VaultID {
			continue
		}
		if filter.InviteeID != "" && invite.InviteeID != filter.InviteeID {
			continue
		}
		if managed != nil && !managed[invite.VaultID] {
			continue
		}
		if !filter.PendingAt.IsZero() && invite.Status(filter.PendingAt) != domain.InvitePending {
			continue
		}
		items = append(items, invite)
	}
	return paginate(items, filter.ListOptions, func(a, b *domain.Invite) bool {
		if !a.InvitedOn.Equal(b.InvitedOn) {
			return a.InvitedOn.Before(b.InvitedOn)
		}
		return a.InviteeID < b.InviteeID
	}), nil
}

func (r *InviteRepository) pairTaken(invite *domain.Invite) bool {
	for id, existing := range r.db.invites {
		if id != invite.ID && existing.VaultID == invite.VaultID && existing.InviteeID == invite.InviteeID {
			return true
		}
	}
	return false
}
