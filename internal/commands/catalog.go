package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// Catalog exposes go-command compatible handlers for host transports. Only
// operations that need no password travel as commands.
type Catalog struct {
	RevokeInvite command.Commander[RevokeInvite]
	RenewInvite  command.Commander[RenewInvite]
	ChangeRole   command.Commander[ChangeRole]
	RemoveMember command.Commander[RemoveMember]
	RenameVault  command.Commander[RenameVault]
	DeleteVault  command.Commander[DeleteVault]
	RestoreVault command.Commander[RestoreVault]
	DeleteSecret command.Commander[DeleteSecret]
}

type vaultService interface {
	RevokeInvite(ctx context.Context, inviteID uuid.UUID, actorID string) error
	RenewInvite(ctx context.Context, inviteID uuid.UUID, actorID string) (*domain.Invite, error)
	ChangeRole(ctx context.Context, membershipID uuid.UUID, newRole domain.Role, actorID string) (*domain.Membership, error)
	RemoveMember(ctx context.Context, membershipID uuid.UUID, actorID string) error
	RenameVault(ctx context.Context, vaultID uuid.UUID, actorID, name string) (*domain.Vault, error)
	DeleteVault(ctx context.Context, vaultID uuid.UUID, actorID string) error
	RestoreVault(ctx context.Context, vaultID uuid.UUID, actorID string) error
	DeleteSecret(ctx context.Context, secretID uuid.UUID, actorID string) error
}

// Dependencies wires the vault service into the command catalog.
type Dependencies struct {
	Vaults vaultService
	Logger logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Vaults == nil {
		return nil, errors.New("commands: vault service is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	base := handler{svc: deps.Vaults, logger: deps.Logger}
	return &Catalog{
		RevokeInvite: revokeInviteCommand{base},
		RenewInvite:  renewInviteCommand{base},
		ChangeRole:   changeRoleCommand{base},
		RemoveMember: removeMemberCommand{base},
		RenameVault:  renameVaultCommand{base},
		DeleteVault:  deleteVaultCommand{base},
		RestoreVault: restoreVaultCommand{base},
		DeleteSecret: deleteSecretCommand{base},
	}, nil
}

type handler struct {
	svc    vaultService
	logger logger.Logger
}

func (h handler) done(name, actorID string, err error) error {
	if err != nil {
		h.logger.Debug("command failed",
			logger.Field{Key: "command", Value: name},
			logger.Field{Key: "actor_id", Value: actorID},
			logger.Field{Key: "error", Value: err},
		)
	}
	return err
}

// RevokeInvite deletes an open invite.
type RevokeInvite struct {
	InviteID string `json:"invite_id"`
	ActorID  string `json:"actor_id"`
}

type revokeInviteCommand struct{ handler }

func (c revokeInviteCommand) Execute(ctx context.Context, msg RevokeInvite) error {
	id, err := parseID("invite_id", msg.InviteID)
	if err != nil {
		return err
	}
	return c.done("revoke_invite", msg.ActorID, c.svc.RevokeInvite(ctx, id, actor(msg.ActorID)))
}

// RenewInvite restarts the expiry window of an open invite.
type RenewInvite struct {
	InviteID string `json:"invite_id"`
	ActorID  string `json:"actor_id"`
}

type renewInviteCommand struct{ handler }

func (c renewInviteCommand) Execute(ctx context.Context, msg RenewInvite) error {
	id, err := parseID("invite_id", msg.InviteID)
	if err != nil {
		return err
	}
	_, err = c.svc.RenewInvite(ctx, id, actor(msg.ActorID))
	return c.done("renew_invite", msg.ActorID, err)
}

// ChangeRole moves a membership to another role.
type ChangeRole struct {
	MembershipID string `json:"membership_id"`
	Role         string `json:"role"`
	ActorID      string `json:"actor_id"`
}

type changeRoleCommand struct{ handler }

func (c changeRoleCommand) Execute(ctx context.Context, msg ChangeRole) error {
	id, err := parseID("membership_id", msg.MembershipID)
	if err != nil {
		return err
	}
	role, err := domain.ParseRole(msg.Role)
	if err != nil {
		return fmt.Errorf("commands: %w", err)
	}
	_, err = c.svc.ChangeRole(ctx, id, role, actor(msg.ActorID))
	return c.done("change_role", msg.ActorID, err)
}

// RemoveMember excludes a membership.
type RemoveMember struct {
	MembershipID string `json:"membership_id"`
	ActorID      string `json:"actor_id"`
}

type removeMemberCommand struct{ handler }

func (c removeMemberCommand) Execute(ctx context.Context, msg RemoveMember) error {
	id, err := parseID("membership_id", msg.MembershipID)
	if err != nil {
		return err
	}
	return c.done("remove_member", msg.ActorID, c.svc.RemoveMember(ctx, id, actor(msg.ActorID)))
}

// RenameVault changes a vault display name.
type RenameVault struct {
	VaultID string `json:"vault_id"`
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
}

type renameVaultCommand struct{ handler }

func (c renameVaultCommand) Execute(ctx context.Context, msg RenameVault) error {
	id, err := parseID("vault_id", msg.VaultID)
	if err != nil {
		return err
	}
	_, err = c.svc.RenameVault(ctx, id, actor(msg.ActorID), msg.Name)
	return c.done("rename_vault", msg.ActorID, err)
}

// DeleteVault soft-deletes a vault.
type DeleteVault struct {
	VaultID string `json:"vault_id"`
	ActorID string `json:"actor_id"`
}

type deleteVaultCommand struct{ handler }

func (c deleteVaultCommand) Execute(ctx context.Context, msg DeleteVault) error {
	id, err := parseID("vault_id", msg.VaultID)
	if err != nil {
		return err
	}
	return c.done("delete_vault", msg.ActorID, c.svc.DeleteVault(ctx, id, actor(msg.ActorID)))
}

// RestoreVault reactivates a soft-deleted vault.
type RestoreVault struct {
	VaultID string `json:"vault_id"`
	ActorID string `json:"actor_id"`
}

type restoreVaultCommand struct{ handler }

func (c restoreVaultCommand) Execute(ctx context.Context, msg RestoreVault) error {
	id, err := parseID("vault_id", msg.VaultID)
	if err != nil {
		return err
	}
	return c.done("restore_vault", msg.ActorID, c.svc.RestoreVault(ctx, id, actor(msg.ActorID)))
}

// DeleteSecret removes a secret.
type DeleteSecret struct {
	SecretID string `json:"secret_id"`
	ActorID  string `json:"actor_id"`
}

type deleteSecretCommand struct{ handler }

func (c deleteSecretCommand) Execute(ctx context.Context, msg DeleteSecret) error {
	id, err := parseID("secret_id", msg.SecretID)
	if err != nil {
		return err
	}
	return c.done("delete_secret", msg.ActorID, c.svc.DeleteSecret(ctx, id, actor(msg.ActorID)))
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("commands: invalid %s: %w", field, err)
	}
	return id, nil
}

func actor(id string) string {
	return strings.TrimSpace(id)
}
