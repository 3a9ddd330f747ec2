package di

import (
	"reflect"
	"time"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/commands"
	"github.com/goliatone/go-crypta/pkg/config"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/storage"
	"github.com/goliatone/go-crypta/pkg/vaults"
)

// Options configure the DI container.
type Options struct {
	Config     config.Config
	Storage    storage.Providers
	Logger     logger.Logger
	Dispatcher notify.Dispatcher
	Activity   activity.Hooks
	Codec      vaults.Codec
	Clock      func() time.Time
}

// Container wires repositories, the vault service, notifications and commands.
type Container struct {
	Config   config.Config
	Storage  storage.Providers
	Notifier *notify.Notifier
	Vaults   *vaults.Service
	Commands *commands.Registry
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if !providers.Complete() {
		providers = storage.NewMemoryProviders()
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = notify.NewConsole(lgr.With(logger.Field{Key: "component", Value: "notify"}))
	}
	translator, err := notify.NewTranslator(cfg.Notifications.DefaultLocale)
	if err != nil {
		return nil, err
	}
	notifier := notify.New(dispatcher,
		notify.WithLogger(lgr),
		notify.WithTemplates(cfg.Notifications.Templates),
		notify.WithDisabled(cfg.Notifications.Disabled),
		notify.WithRetry(cfg.Notifications.MaxAttempts, nil),
		notify.WithTranslator(translator, cfg.Notifications.DefaultLocale),
	)

	vaultSvc, err := vaults.NewService(vaults.Dependencies{
		Vaults:       providers.Vaults,
		Memberships:  providers.Memberships,
		Invites:      providers.Invites,
		Secrets:      providers.Secrets,
		Transactions: providers.Transaction,
		Codec:        opts.Codec,
		Notifier:     notifier,
		Activity:     opts.Activity,
		Logger:       lgr.With(logger.Field{Key: "component", Value: "vaults"}),
		Clock:        opts.Clock,
		Config:       cfg,
	})
	if err != nil {
		return nil, err
	}

	cmdRegistry, err := commands.New(commands.Dependencies{
		Vaults: vaultSvc,
		Logger: lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:   cfg,
		Storage:  providers,
		Notifier: notifier,
		Vaults:   vaultSvc,
		Commands: cmdRegistry,
	}, nil
}
