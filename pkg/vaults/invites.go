package vaults

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/policy"
	"github.com/goliatone/go-crypta/pkg/redact"
	"github.com/goliatone/go-crypta/pkg/tokens"
	"github.com/google/uuid"
)

// CreateInviteInput carries the fields needed to invite a user into a vault.
type CreateInviteInput struct {
	VaultID  uuid.UUID
	Inviter  domain.Principal
	Password string
	Invitee  domain.UserRef
	Role     domain.Role
}

// InviteTicket is the persisted invite plus the one-time token that opens
// its temporary key. The token is not stored anywhere.
type InviteTicket struct {
	Invite *domain.Invite
	Token  string
}

// CreateInvite offers membership to a user. The vault key is rewrapped
// under a random token which travels to the invitee out of band.
func (s *Service) CreateInvite(ctx context.Context, in CreateInviteInput) (*InviteTicket, error) {
	invitee := domain.UserRef{
		ID:     strings.TrimSpace(in.Invitee.ID),
		Email:  strings.TrimSpace(in.Invitee.Email),
		Name:   strings.TrimSpace(in.Invitee.Name),
		Locale: strings.TrimSpace(in.Invitee.Locale),
	}
	if invitee.ID == "" {
		return nil, invalidInput("invitee id required")
	}
	if !in.Role.Valid() {
		return nil, invalidInput("unknown role %q", in.Role)
	}
	if err := checkPassword(in.Inviter, in.Password); err != nil {
		return nil, err
	}
	inviter := in.Inviter.Ref()
	if invitee.ID == inviter.ID {
		return nil, invalidInput("cannot invite yourself")
	}

	var ticket *InviteTicket
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		acc, err := s.requireAccess(ctx, in.VaultID, inviter.ID, false)
		if err != nil {
			return err
		}
		if err := authorize(acc.role(), false, policy.ActionCreateInvite, in.Role); err != nil {
			return err
		}

		member, err := s.memberships.GetByMemberAndVault(ctx, invitee.ID, in.VaultID)
		switch {
		case err == nil && member.Active():
			return fmt.Errorf("%w: already a member", ErrConflict)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}

		existing, err := s.invites.GetByVaultAndInvitee(ctx, in.VaultID, invitee.ID)
		switch {
		case err == nil && !existing.Accepted:
			return fmt.Errorf("%w: invite already exists", ErrConflict)
		case err == nil:
			if err := s.invites.Delete(ctx, existing.ID); err != nil {
				return mapStoreError(err)
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		token, temporary, err := s.issueTemporaryKey(acc.membership, in.Password)
		if err != nil {
			return err
		}

		now := s.now()
		invite := &domain.Invite{
			VaultID:      in.VaultID,
			InviterID:    inviter.ID,
			InviterEmail: inviter.Email,
			InviteeID:    invitee.ID,
			InviteeEmail: invitee.Email,
			InviteeName:  invitee.Name,
			TemporaryKey: temporary,
			Role:         in.Role,
			InvitedOn:    now,
			ExpiresOn:    now.Add(s.cfg.Invites.Window()),
		}
		invite.EnsureID()
		invite.Touch(now)
		if err := s.invites.Create(ctx, invite); err != nil {
			return mapStoreError(err)
		}

		box.notify(inviteSentEvent(acc.vault, invite, inviter, token, invitee.Locale))
		box.record(inviteEvent(activity.VerbInviteCreated, inviter.ID, invite))
		ticket = &InviteTicket{Invite: invite, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invite created",
		logger.Field{Key: "invite_id", Value: ticket.Invite.ID.String()},
		logger.Field{Key: "vault_id", Value: ticket.Invite.VaultID.String()},
		logger.Field{Key: "invitee", Value: redact.Email(ticket.Invite.InviteeEmail)},
	)
	return ticket, nil
}

// AcceptInvite turns an invite into a membership whose key is wrapped under
// the invitee's password. An excluded membership is reactivated.
func (s *Service) AcceptInvite(ctx context.Context, inviteID uuid.UUID, invitee domain.Principal, token, newPassword string) (*domain.Membership, error) {
	if invitee == nil {
		return nil, invalidInput("principal required")
	}
	ref := invitee.Ref()

	var membership *domain.Membership
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		invite, err := s.invites.GetByID(ctx, inviteID)
		if err != nil {
			return mapStoreError(err)
		}
		if invite.InviteeID != ref.ID {
			return fmt.Errorf("%w: invite belongs to another user", ErrForbidden)
		}
		now := s.now()
		switch invite.Status(now) {
		case domain.InviteAccepted:
			return fmt.Errorf("%w: invite already accepted", ErrConflict)
		case domain.InviteExpired:
			return ErrExpired
		}
		vault, err := s.vaults.GetByID(ctx, invite.VaultID)
		if err != nil {
			return mapStoreError(err)
		}
		if !vault.Active() {
			return ErrVaultExcluded
		}
		if !s.codec.VerifyPassphrase(invite.TemporaryKey, token) {
			return ErrInvalidToken
		}
		if err := checkPassword(invitee, newPassword); err != nil {
			return err
		}
		wrapped, err := s.codec.Rewrap(invite.TemporaryKey, token, newPassword)
		if err != nil {
			return mapCryptoError(err)
		}

		membership, err = s.joinVault(ctx, invite, ref, wrapped, now)
		if err != nil {
			return err
		}

		invite.Accepted = true
		invite.AcceptedOn = now
		invite.TemporaryKey = nil
		invite.Touch(now)
		if err := s.invites.Update(ctx, invite); err != nil {
			return mapStoreError(err)
		}

		box.notify(notify.Event{
			Kind:        notify.KindInviteAccepted,
			Recipient:   invite.InviterEmail,
			SubjectKey:  notify.SubjectKeyInviteAccepted,
			SubjectArgs: []any{ref.DisplayName()},
			Data: map[string]any{
				"subject":       notify.AcceptedSubject(ref.DisplayName()),
				"vault_name":    vault.Name,
				"vault_slug":    vault.Slug,
				"invite_id":     invite.ID.String(),
				"invitee_name":  ref.DisplayName(),
				"invitee_email": ref.Email,
				"role":          invite.Role.String(),
			},
		})
		box.record(inviteEvent(activity.VerbInviteAccepted, ref.ID, invite))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *Service) joinVault(ctx context.Context, invite *domain.Invite, ref domain.UserRef, wrapped []byte, now time.Time) (*domain.Membership, error) {
	existing, err := s.memberships.GetByMemberAndVault(ctx, ref.ID, invite.VaultID)
	switch {
	case err == nil && existing.Active():
		return nil, fmt.Errorf("%w: already a member", ErrConflict)
	case err == nil:
		existing.WrappedKey = wrapped
		existing.Role = invite.Role
		existing.Status = domain.MembershipActive
		existing.MemberEmail = firstNonEmpty(ref.Email, existing.MemberEmail)
		existing.MemberName = firstNonEmpty(ref.Name, existing.MemberName)
		existing.JoinedOn = now
		existing.Touch(now)
		if err := s.memberships.Update(ctx, existing); err != nil {
			return nil, mapStoreError(err)
		}
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	membership := &domain.Membership{
		VaultID:     invite.VaultID,
		MemberID:    ref.ID,
		MemberEmail: firstNonEmpty(ref.Email, invite.InviteeEmail),
		MemberName:  firstNonEmpty(ref.Name, invite.InviteeName),
		WrappedKey:  wrapped,
		Role:        invite.Role,
		Status:      domain.MembershipActive,
		JoinedOn:    now,
	}
	membership.EnsureID()
	membership.Touch(now)
	if err := s.memberships.Create(ctx, membership); err != nil {
		return nil, mapStoreError(err)
	}
	return membership, nil
}

// RevokeInvite deletes a pending or expired invite.
func (s *Service) RevokeInvite(ctx context.Context, inviteID uuid.UUID, actorID string) error {
	return s.transact(ctx, func(ctx context.Context, box *outbox) error {
		invite, _, err := s.manageInvite(ctx, inviteID, actorID, policy.ActionRevokeInvite)
		if err != nil {
			return err
		}
		if err := s.invites.Delete(ctx, invite.ID); err != nil {
			return mapStoreError(err)
		}
		box.record(inviteEvent(activity.VerbInviteRevoked, actorID, invite))
		return nil
	})
}

// RenewInvite restarts the expiry window of a pending or expired invite.
func (s *Service) RenewInvite(ctx context.Context, inviteID uuid.UUID, actorID string) (*domain.Invite, error) {
	var invite *domain.Invite
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		var err error
		invite, _, err = s.manageInvite(ctx, inviteID, actorID, policy.ActionRenewInvite)
		if err != nil {
			return err
		}
		now := s.now()
		invite.ExpiresOn = now.Add(s.cfg.Invites.Window())
		invite.Touch(now)
		if err := s.invites.Update(ctx, invite); err != nil {
			return mapStoreError(err)
		}
		box.record(inviteEvent(activity.VerbInviteRenewed, actorID, invite))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// ResendInvite issues a new token and temporary key for an open invite,
// restarts its expiry window and notifies the invitee again.
func (s *Service) ResendInvite(ctx context.Context, inviteID uuid.UUID, actor domain.Principal, password string) (*InviteTicket, error) {
	if err := checkPassword(actor, password); err != nil {
		return nil, err
	}
	ref := actor.Ref()

	var ticket *InviteTicket
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		invite, acc, err := s.manageInvite(ctx, inviteID, ref.ID, policy.ActionResendInvite)
		if err != nil {
			return err
		}
		token, temporary, err := s.issueTemporaryKey(acc.membership, password)
		if err != nil {
			return err
		}
		now := s.now()
		invite.TemporaryKey = temporary
		invite.ExpiresOn = now.Add(s.cfg.Invites.Window())
		invite.Touch(now)
		if err := s.invites.Update(ctx, invite); err != nil {
			return mapStoreError(err)
		}
		box.notify(inviteSentEvent(acc.vault, invite, ref, token, ""))
		box.record(inviteEvent(activity.VerbInviteResent, ref.ID, invite))
		ticket = &InviteTicket{Invite: invite, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// manageInvite loads an open invite and checks the actor may apply action
// to it. Accepted invites are final.
func (s *Service) manageInvite(ctx context.Context, inviteID uuid.UUID, actorID string, action policy.Action) (*domain.Invite, *access, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	acc, err := s.requireAccess(ctx, invite.VaultID, actorID, false)
	if err != nil {
		return nil, nil, err
	}
	if err := authorize(acc.role(), invite.InviterID == actorID, action, invite.Role); err != nil {
		return nil, nil, err
	}
	if invite.Accepted {
		return nil, nil, fmt.Errorf("%w: invite already accepted", ErrInvalidState)
	}
	return invite, acc, nil
}

func (s *Service) issueTemporaryKey(membership *domain.Membership, password string) (string, []byte, error) {
	token, err := tokens.RandomToken(s.cfg.Invites.TokenSize)
	if err != nil {
		return "", nil, err
	}
	temporary, err := s.codec.Rewrap(membership.WrappedKey, password, token)
	if err != nil {
		return "", nil, mapCryptoError(err)
	}
	return token, temporary, nil
}

// ListInvites returns every invite of the vault.
func (s *Service) ListInvites(ctx context.Context, vaultID uuid.UUID, actorID string) ([]domain.Invite, error) {
	acc, err := s.requireAccess(ctx, vaultID, actorID, false)
	if err != nil {
		return nil, err
	}
	if err := authorize(acc.role(), false, policy.ActionManageVault, acc.role()); err != nil {
		return nil, err
	}
	res, err := s.invites.List(ctx, store.InviteFilter{VaultID: vaultID})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// PendingInvitesManagedBy lists open invites across every vault the member
// owns or administers.
func (s *Service) PendingInvitesManagedBy(ctx context.Context, memberID string) ([]domain.Invite, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, invalidInput("member id required")
	}
	res, err := s.invites.List(ctx, store.InviteFilter{ManagedBy: memberID, PendingAt: s.now()})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// InvitesFor lists pending invites addressed to the user.
func (s *Service) InvitesFor(ctx context.Context, inviteeID string) ([]domain.Invite, error) {
	if strings.TrimSpace(inviteeID) == "" {
		return nil, invalidInput("invitee id required")
	}
	res, err := s.invites.List(ctx, store.InviteFilter{InviteeID: inviteeID, PendingAt: s.now()})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func inviteSentEvent(vault *domain.Vault, invite *domain.Invite, inviter domain.UserRef, token, locale string) notify.Event {
	return notify.Event{
		Kind:       notify.KindInviteSent,
		Recipient:  invite.InviteeEmail,
		Locale:     locale,
		SubjectKey: notify.SubjectKeyInviteSent,
		Data: map[string]any{
			"subject":      notify.SubjectInviteSent,
			"vault_name":   vault.Name,
			"vault_slug":   vault.Slug,
			"invite_id":    invite.ID.String(),
			"inviter_name": inviter.DisplayName(),
			"invitee_name": invite.Invitee().DisplayName(),
			"role":         invite.Role.String(),
			"token":        token,
			"expires_on":   invite.ExpiresOn,
		},
	}
}

func inviteEvent(verb, actorID string, invite *domain.Invite) activity.Event {
	return activity.Event{
		Verb:       verb,
		ActorID:    actorID,
		VaultID:    invite.VaultID.String(),
		ObjectType: activity.ObjectInvite,
		ObjectID:   invite.ID.String(),
		Metadata: map[string]any{
			"invitee_id": invite.InviteeID,
			"role":       invite.Role.String(),
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
