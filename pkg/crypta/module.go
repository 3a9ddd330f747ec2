// Package crypta is the entry point for hosts embedding the vault module.
package crypta

import (
	"time"

	"github.com/goliatone/go-crypta/internal/di"
	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/commands"
	"github.com/goliatone/go-crypta/pkg/config"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/storage"
	"github.com/goliatone/go-crypta/pkg/vaults"
)

// ModuleOptions configure the crypta module facade.
type ModuleOptions struct {
	Config     config.Config
	Storage    storage.Providers
	Logger     logger.Logger
	Dispatcher notify.Dispatcher
	Activity   activity.Hooks
	Codec      vaults.Codec
	Clock      func() time.Time
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// NewModule assembles repositories, the vault service, notifications and
// commands. Missing storage falls back to the in-memory store and a missing
// dispatcher to the console one.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:     opts.Config,
		Storage:    opts.Storage,
		Logger:     opts.Logger,
		Dispatcher: opts.Dispatcher,
		Activity:   opts.Activity,
		Codec:      opts.Codec,
		Clock:      opts.Clock,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Vaults returns the vault service.
func (m *Module) Vaults() *vaults.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Vaults
}

// Notifier returns the notification hook used by the service.
func (m *Module) Notifier() *notify.Notifier {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Notifier
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// Storage returns the repositories in use.
func (m *Module) Storage() storage.Providers {
	if m == nil || m.container == nil {
		return storage.Providers{}
	}
	return m.container.Storage
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}
