package crypta

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-crypta/pkg/commands"
	"github.com/goliatone/go-crypta/pkg/config"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/storage"
	"github.com/goliatone/go-crypta/pkg/vaults"
)

type owner struct{}

func (owner) Ref() domain.UserRef {
	return domain.UserRef{ID: "owner", Email: "owner@example.com", Name: "Owner"}
}

func (owner) CheckPassword(password string) bool { return password == "secret" }

func TestModuleConstruction(t *testing.T) {
	module, err := NewModule(ModuleOptions{
		Logger:  &logger.Nop{},
		Storage: storage.NewMemoryProviders(),
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	if module.Vaults() == nil || module.Notifier() == nil {
		t.Fatalf("expected vault service and notifier")
	}
	if module.Commands() == nil || len(module.Commands().Commanders()) != 8 {
		t.Fatalf("expected eight commanders")
	}
	if module.Config().Invites.DaysToExpire != 30 {
		t.Fatalf("expected default config")
	}
	if !module.Storage().Complete() {
		t.Fatalf("expected complete storage")
	}
}

func TestModuleRoutesNotificationsAndCommands(t *testing.T) {
	rec := notify.NewRecorder()
	cfg := config.Defaults()
	cfg.Keys = config.KeysConfig{Time: 1, MemoryKiB: 1024, Threads: 1}
	cfg.Reveal.SigningKey = "module-test"
	cfg.Notifications.Templates = map[string]string{"invite-sent": "host.invite"}

	module, err := NewModule(ModuleOptions{
		Config:     cfg,
		Dispatcher: rec,
		Clock:      func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	ctx := context.Background()
	svc := module.Vaults()

	vault, err := svc.CreateVault(ctx, "Module", owner{}, "secret")
	if err != nil {
		t.Fatalf("create vault: %v", err)
	}
	invitee := domain.UserRef{ID: "guest", Email: "guest@example.com", Locale: "es"}
	if _, err := svc.CreateInvite(ctx, vaults.CreateInviteInput{
		VaultID:  vault.ID,
		Inviter:  owner{},
		Password: "secret",
		Invitee:  invitee,
		Role:     domain.RoleMember,
	}); err != nil {
		t.Fatalf("create invite: %v", err)
	}
	sent, ok := rec.Last("host.invite")
	if !ok {
		t.Fatalf("expected overridden template id, got %v", rec.Messages())
	}
	if sent.Data["subject"] != "¡Has recibido una invitación para unirte a una Bóveda!" {
		t.Fatalf("expected subject in the invitee locale, got %v", sent.Data["subject"])
	}

	if err := module.Commands().RenameVault.Execute(ctx, commands.RenameVault{
		VaultID: vault.ID.String(),
		ActorID: "owner",
		Name:    "Renamed",
	}); err != nil {
		t.Fatalf("rename command: %v", err)
	}
	renamed, err := svc.GetVaultBySlug(ctx, vault.Slug, "owner")
	if err != nil || renamed.Name != "Renamed" {
		t.Fatalf("expected renamed vault, got %+v (%v)", renamed, err)
	}
}
