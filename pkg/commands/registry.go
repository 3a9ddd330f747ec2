package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-crypta/internal/commands"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/vaults"
)

// Re-export request types so consumers need not import internal packages.
type (
	RevokeInvite = internalcommands.RevokeInvite
	RenewInvite  = internalcommands.RenewInvite
	ChangeRole   = internalcommands.ChangeRole
	RemoveMember = internalcommands.RemoveMember
	RenameVault  = internalcommands.RenameVault
	DeleteVault  = internalcommands.DeleteVault
	RestoreVault = internalcommands.RestoreVault
	DeleteSecret = internalcommands.DeleteSecret
)

// Registry exposes go-command compatible handlers backed by the vault service.
type Registry struct {
	Catalog      *internalcommands.Catalog
	RevokeInvite command.Commander[RevokeInvite]
	RenewInvite  command.Commander[RenewInvite]
	ChangeRole   command.Commander[ChangeRole]
	RemoveMember command.Commander[RemoveMember]
	RenameVault  command.Commander[RenameVault]
	DeleteVault  command.Commander[DeleteVault]
	RestoreVault command.Commander[RestoreVault]
	DeleteSecret command.Commander[DeleteSecret]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Vaults *vaults.Service
	Logger logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	internalDeps := internalcommands.Dependencies{Logger: deps.Logger}
	if deps.Vaults != nil {
		internalDeps.Vaults = deps.Vaults
	}
	catalog, err := internalcommands.NewCatalog(internalDeps)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:      catalog,
		RevokeInvite: catalog.RevokeInvite,
		RenewInvite:  catalog.RenewInvite,
		ChangeRole:   catalog.ChangeRole,
		RemoveMember: catalog.RemoveMember,
		RenameVault:  catalog.RenameVault,
		DeleteVault:  catalog.DeleteVault,
		RestoreVault: catalog.RestoreVault,
		DeleteSecret: catalog.DeleteSecret,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.RevokeInvite,
		r.RenewInvite,
		r.ChangeRole,
		r.RemoveMember,
		r.RenameVault,
		r.DeleteVault,
		r.RestoreVault,
		r.DeleteSecret,
	}
}
