package vaults

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/policy"
	"github.com/google/uuid"
)

// rank orders roles by capability.
func rank(role domain.Role) int {
	switch role {
	case domain.RoleOwner:
		return 3
	case domain.RoleAdmin:
		return 2
	case domain.RoleMember:
		return 1
	}
	return 0
}

// ChangeRole moves a member to newRole. Setting the current role again is a
// no-op and sends nothing.
func (s *Service) ChangeRole(ctx context.Context, membershipID uuid.UUID, newRole domain.Role, actorID string) (*domain.Membership, error) {
	if !newRole.Valid() {
		return nil, invalidInput("unknown role %q", newRole)
	}
	var target *domain.Membership
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		var (
			acc *access
			err error
		)
		target, acc, err = s.manageMember(ctx, membershipID, actorID, policy.ActionChangeRole)
		if err != nil {
			return err
		}
		if !target.Active() {
			return fmt.Errorf("%w: membership excluded", ErrInvalidState)
		}
		self := target.MemberID == actorID
		if newRole == domain.RoleOwner {
			if err := authorize(acc.role(), self, policy.ActionPromoteToOwner, target.Role); err != nil {
				return err
			}
		}
		previous := target.Role
		if previous == newRole {
			return nil
		}

		target.Role = newRole
		target.Touch(s.now())
		if err := s.memberships.Update(ctx, target); err != nil {
			return mapStoreError(err)
		}

		kind := notify.KindRoleDemoted
		if rank(newRole) > rank(previous) {
			kind = notify.KindRolePromoted
		}
		box.notify(notify.Event{
			Kind:      kind,
			Recipient: target.MemberEmail,
			Data: map[string]any{
				"vault_name":    acc.vault.Name,
				"vault_slug":    acc.vault.Slug,
				"member_name":   target.Ref().DisplayName(),
				"role":          newRole.String(),
				"previous_role": previous.String(),
			},
		})
		box.record(activity.Event{
			Verb:       activity.VerbRoleChanged,
			ActorID:    actorID,
			VaultID:    target.VaultID.String(),
			ObjectType: activity.ObjectMembership,
			ObjectID:   target.ID.String(),
			Metadata: map[string]any{
				"member_id":     target.MemberID,
				"role":          newRole.String(),
				"previous_role": previous.String(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// RemoveMember excludes a member from the vault. Removing an excluded
// member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, membershipID uuid.UUID, actorID string) error {
	return s.transact(ctx, func(ctx context.Context, box *outbox) error {
		target, _, err := s.manageMember(ctx, membershipID, actorID, policy.ActionRemoveMember)
		if err != nil {
			return err
		}
		if !target.Active() {
			return nil
		}
		target.Status = domain.MembershipExcluded
		target.Touch(s.now())
		if err := s.memberships.Update(ctx, target); err != nil {
			return mapStoreError(err)
		}
		box.record(activity.Event{
			Verb:       activity.VerbMemberExcluded,
			ActorID:    actorID,
			VaultID:    target.VaultID.String(),
			ObjectType: activity.ObjectMembership,
			ObjectID:   target.ID.String(),
			Metadata:   map[string]any{"member_id": target.MemberID, "role": target.Role.String()},
		})
		return nil
	})
}

func (s *Service) manageMember(ctx context.Context, membershipID uuid.UUID, actorID string, action policy.Action) (*domain.Membership, *access, error) {
	target, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	acc, err := s.requireAccess(ctx, target.VaultID, actorID, false)
	if err != nil {
		return nil, nil, err
	}
	if err := authorize(acc.role(), target.MemberID == actorID, action, target.Role); err != nil {
		return nil, nil, err
	}
	return target, acc, nil
}

// ListMembers returns the vault memberships, optionally with excluded ones.
func (s *Service) ListMembers(ctx context.Context, vaultID uuid.UUID, actorID string, includeExcluded bool) ([]domain.Membership, error) {
	acc, err := s.requireAccess(ctx, vaultID, actorID, false)
	if err != nil {
		return nil, err
	}
	if err := authorize(acc.role(), false, policy.ActionManageVault, acc.role()); err != nil {
		return nil, err
	}
	res, err := s.memberships.List(ctx, store.MembershipFilter{VaultID: vaultID, IncludeExcluded: includeExcluded})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ChangePassword rewraps every active membership key of the principal from
// oldPassword to newPassword. It runs after the hosting application has
// changed the login password, so the principal must already accept
// newPassword. It returns the number of keys rewrapped.
func (s *Service) ChangePassword(ctx context.Context, principal domain.Principal, oldPassword, newPassword string) (int, error) {
	if err := checkPassword(principal, newPassword); err != nil {
		return 0, err
	}
	ref := principal.Ref()
	if strings.TrimSpace(ref.ID) == "" {
		return 0, invalidInput("principal id required")
	}

	count := 0
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		res, err := s.memberships.List(ctx, store.MembershipFilter{MemberID: ref.ID})
		if err != nil {
			return err
		}
		now := s.now()
		for i := range res.Items {
			membership := &res.Items[i]
			wrapped, err := s.codec.Rewrap(membership.WrappedKey, oldPassword, newPassword)
			if err != nil {
				return mapCryptoError(err)
			}
			membership.WrappedKey = wrapped
			membership.Touch(now)
			if err := s.memberships.Update(ctx, membership); err != nil {
				return mapStoreError(err)
			}
			count++
		}
		box.record(activity.Event{
			Verb:       activity.VerbPasswordChanged,
			ActorID:    ref.ID,
			ObjectType: activity.ObjectMembership,
			Metadata:   map[string]any{"rewrapped": count},
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("membership keys rewrapped",
		logger.Field{Key: "member_id", Value: ref.ID},
		logger.Field{Key: "count", Value: count},
	)
	return count, nil
}
