package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"

	zerologadapter "github.com/goliatone/go-crypta/adapters/zerolog"
	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/activity/usersink"
	"github.com/goliatone/go-crypta/pkg/config"
	"github.com/goliatone/go-crypta/pkg/crypta"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/notify/render"
	"github.com/goliatone/go-crypta/pkg/notify/sesdispatcher"
	"github.com/goliatone/go-crypta/pkg/storage"
	"github.com/goliatone/go-crypta/pkg/vaults"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type demoUser struct {
	ref      domain.UserRef
	password string
}

func (u *demoUser) Ref() domain.UserRef { return u.ref }

func (u *demoUser) CheckPassword(password string) bool { return password == u.password }

type activityLog struct {
	mu      sync.Mutex
	records []types.ActivityRecord
}

func (a *activityLog) Log(_ context.Context, rec types.ActivityRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

func main() {
	ctx := context.Background()
	lgr := zerologadapter.NewConsole(os.Stderr, zerolog.InfoLevel)

	sqldb, err := sql.Open(sqliteshim.DriverName(), "file:crypta_demo?mode=memory&cache=shared&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()
	if err := storage.CreateSchema(ctx, db); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	cfg, err := config.Load(map[string]any{
		"reveal": map[string]any{"signing_key": "demo-signing-key"},
	})
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var dispatcher notify.Dispatcher = notify.NewConsole(lgr)
	if rendered, err := render.New(render.LogMailer{Logger: lgr}); err == nil {
		dispatcher = rendered
	} else {
		log.Printf("render dispatcher unavailable, using console: %v", err)
	}
	if from := os.Getenv("CRYPTA_SES_FROM"); from != "" {
		dispatcher = sesdispatcher.New(
			sesdispatcher.WithConfig(sesdispatcher.Config{
				From:   from,
				Region: os.Getenv("AWS_REGION"),
				DryRun: os.Getenv("CRYPTA_SES_DRY_RUN") != "",
			}),
			sesdispatcher.WithLogger(lgr),
		)
	}

	sink := &activityLog{}
	module, err := crypta.NewModule(crypta.ModuleOptions{
		Config:     cfg,
		Storage:    storage.NewBunProviders(db),
		Logger:     lgr,
		Dispatcher: dispatcher,
		Activity:   activity.Hooks{usersink.Hook{Sink: sink}},
	})
	if err != nil {
		log.Fatalf("module: %v", err)
	}
	svc := module.Vaults()

	alice := &demoUser{
		ref:      domain.UserRef{ID: uuid.NewString(), Email: "alice@example.com", Name: "Alice"},
		password: "alice-pw",
	}
	bob := &demoUser{
		ref:      domain.UserRef{ID: uuid.NewString(), Email: "bob@example.com", Name: "Bob"},
		password: "bob-pw",
	}

	vault, err := svc.CreateVault(ctx, "Ops Team", alice, alice.password)
	if err != nil {
		log.Fatalf("create vault: %v", err)
	}
	secret, err := svc.CreateSecret(ctx, vault.ID, alice.ref.ID, "db-password", []byte("hunter2"))
	if err != nil {
		log.Fatalf("create secret: %v", err)
	}

	ticket, err := svc.CreateInvite(ctx, vaults.CreateInviteInput{
		VaultID:  vault.ID,
		Inviter:  alice,
		Password: alice.password,
		Invitee:  bob.ref,
		Role:     domain.RoleMember,
	})
	if err != nil {
		log.Fatalf("create invite: %v", err)
	}
	if _, err := svc.AcceptInvite(ctx, ticket.Invite.ID, bob, ticket.Token, bob.password); err != nil {
		log.Fatalf("accept invite: %v", err)
	}

	plaintext, err := svc.RevealSecret(ctx, secret.ID, bob, bob.password)
	if err != nil {
		log.Fatalf("reveal secret: %v", err)
	}

	fmt.Printf("vault %s (%s)\n", vault.Name, vault.Slug)
	fmt.Printf("bob revealed %q: %d bytes\n", secret.Name, len(plaintext))
	fmt.Printf("activity records: %d\n", len(sink.records))
}
