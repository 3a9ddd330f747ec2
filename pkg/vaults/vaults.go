package vaults

import (
	"context"
	"strings"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/goliatone/go-crypta/pkg/policy"
	"github.com/google/uuid"
)

// CreateVault creates a vault with a fresh key pair wrapped under the
// creator's password and makes the creator its owner.
func (s *Service) CreateVault(ctx context.Context, name string, creator domain.Principal, password string) (*domain.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("vault name required")
	}
	if err := checkPassword(creator, password); err != nil {
		return nil, err
	}
	ref := creator.Ref()
	if strings.TrimSpace(ref.ID) == "" {
		return nil, invalidInput("creator id required")
	}

	wrapped, public, err := s.codec.GenerateKeyPair(password)
	if err != nil {
		return nil, mapCryptoError(err)
	}

	var vault *domain.Vault
	err = s.transact(ctx, func(ctx context.Context, box *outbox) error {
		slug, err := s.UniqueSlug(ctx, name)
		if err != nil {
			return err
		}
		now := s.now()
		vault = &domain.Vault{
			Name:      name,
			Slug:      slug,
			PublicKey: public,
			Status:    domain.VaultActive,
		}
		vault.EnsureID()
		vault.Touch(now)
		if err := s.vaults.Create(ctx, vault); err != nil {
			return mapStoreError(err)
		}

		owner := &domain.Membership{
			VaultID:     vault.ID,
			MemberID:    ref.ID,
			MemberEmail: ref.Email,
			MemberName:  ref.Name,
			WrappedKey:  wrapped,
			Role:        domain.RoleOwner,
			Status:      domain.MembershipActive,
			JoinedOn:    now,
		}
		owner.EnsureID()
		owner.Touch(now)
		if err := s.memberships.Create(ctx, owner); err != nil {
			return mapStoreError(err)
		}

		box.record(activity.Event{
			Verb:       activity.VerbVaultCreated,
			ActorID:    ref.ID,
			VaultID:    vault.ID.String(),
			ObjectType: activity.ObjectVault,
			ObjectID:   vault.ID.String(),
			Metadata:   map[string]any{"name": vault.Name, "slug": vault.Slug},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("vault created",
		logger.Field{Key: "vault_id", Value: vault.ID.String()},
		logger.Field{Key: "slug", Value: vault.Slug},
	)
	return vault, nil
}

// RenameVault changes the display name. The slug is kept.
func (s *Service) RenameVault(ctx context.Context, vaultID uuid.UUID, actorID, name string) (*domain.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("vault name required")
	}
	var vault *domain.Vault
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		acc, err := s.requireAccess(ctx, vaultID, actorID, false)
		if err != nil {
			return err
		}
		if err := authorize(acc.role(), false, policy.ActionManageVault, acc.role()); err != nil {
			return err
		}
		vault = acc.vault
		previous := vault.Name
		if previous == name {
			return nil
		}
		vault.Name = name
		vault.Touch(s.now())
		if err := s.vaults.Update(ctx, vault); err != nil {
			return mapStoreError(err)
		}
		box.record(activity.Event{
			Verb:       activity.VerbVaultRenamed,
			ActorID:    actorID,
			VaultID:    vault.ID.String(),
			ObjectType: activity.ObjectVault,
			ObjectID:   vault.ID.String(),
			Metadata:   map[string]any{"name": name, "previous_name": previous},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vault, nil
}

// DeleteVault soft-deletes the vault. Deleting an excluded vault is a no-op.
func (s *Service) DeleteVault(ctx context.Context, vaultID uuid.UUID, actorID string) error {
	return s.setVaultStatus(ctx, vaultID, actorID, domain.VaultExcluded)
}

// RestoreVault reactivates a soft-deleted vault. Restoring an active vault
// is a no-op.
func (s *Service) RestoreVault(ctx context.Context, vaultID uuid.UUID, actorID string) error {
	return s.setVaultStatus(ctx, vaultID, actorID, domain.VaultActive)
}

func (s *Service) setVaultStatus(ctx context.Context, vaultID uuid.UUID, actorID string, status domain.VaultStatus) error {
	action, verb := policy.ActionDeleteVault, activity.VerbVaultExcluded
	if status == domain.VaultActive {
		action, verb = policy.ActionRestoreVault, activity.VerbVaultRestored
	}
	return s.transact(ctx, func(ctx context.Context, box *outbox) error {
		acc, err := s.requireAccess(ctx, vaultID, actorID, true)
		if err != nil {
			return err
		}
		if err := authorize(acc.role(), false, action, acc.role()); err != nil {
			return err
		}
		if acc.vault.Status == status {
			return nil
		}
		acc.vault.Status = status
		acc.vault.Touch(s.now())
		if err := s.vaults.Update(ctx, acc.vault); err != nil {
			return mapStoreError(err)
		}
		box.record(activity.Event{
			Verb:       verb,
			ActorID:    actorID,
			VaultID:    vaultID.String(),
			ObjectType: activity.ObjectVault,
			ObjectID:   vaultID.String(),
		})
		return nil
	})
}

// GetVaultBySlug returns the vault when actorID is an active member of it.
func (s *Service) GetVaultBySlug(ctx context.Context, slug, actorID string) (*domain.Vault, error) {
	vault, err := s.vaults.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, mapStoreError(err)
	}
	acc, err := s.requireAccess(ctx, vault.ID, actorID, false)
	if err != nil {
		return nil, err
	}
	return acc.vault, nil
}

// ListVaults returns vaults where memberID holds an active membership. A
// filter without statuses lists active vaults only.
func (s *Service) ListVaults(ctx context.Context, memberID string, filter store.VaultFilter) (store.ListResult[domain.Vault], error) {
	if strings.TrimSpace(memberID) == "" {
		return store.ListResult[domain.Vault]{}, invalidInput("member id required")
	}
	filter.MemberID = memberID
	if len(filter.Statuses) == 0 {
		filter.Statuses = []domain.VaultStatus{domain.VaultActive}
	}
	return s.vaults.List(ctx, filter)
}

// VaultsOwnedBy lists active vaults the member owns.
func (s *Service) VaultsOwnedBy(ctx context.Context, memberID string) ([]domain.Vault, error) {
	res, err := s.ListVaults(ctx, memberID, store.VaultFilter{Roles: []domain.Role{domain.RoleOwner}})
	return res.Items, err
}

// VaultsManagedBy lists active vaults where the member is owner or admin.
func (s *Service) VaultsManagedBy(ctx context.Context, memberID string) ([]domain.Vault, error) {
	res, err := s.ListVaults(ctx, memberID, store.VaultFilter{Roles: []domain.Role{domain.RoleOwner, domain.RoleAdmin}})
	return res.Items, err
}
