package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/google/uuid"
)

type call struct {
	op    string
	id    uuid.UUID
	actor string
	extra string
}

type stubVaults struct {
	calls []call
	err   error
}

func (s *stubVaults) record(op string, id uuid.UUID, actor, extra string) error {
	s.calls = append(s.calls, call{op: op, id: id, actor: actor, extra: extra})
	return s.err
}

func (s *stubVaults) RevokeInvite(_ context.Context, id uuid.UUID, actor string) error {
	return s.record("revoke", id, actor, "")
}

func (s *stubVaults) RenewInvite(_ context.Context, id uuid.UUID, actor string) (*domain.Invite, error) {
	return &domain.Invite{}, s.record("renew", id, actor, "")
}

func (s *stubVaults) ChangeRole(_ context.Context, id uuid.UUID, role domain.Role, actor string) (*domain.Membership, error) {
	return &domain.Membership{}, s.record("role", id, actor, role.String())
}

func (s *stubVaults) RemoveMember(_ context.Context, id uuid.UUID, actor string) error {
	return s.record("remove", id, actor, "")
}

func (s *stubVaults) RenameVault(_ context.Context, id uuid.UUID, actor, name string) (*domain.Vault, error) {
	return &domain.Vault{}, s.record("rename", id, actor, name)
}

func (s *stubVaults) DeleteVault(_ context.Context, id uuid.UUID, actor string) error {
	return s.record("delete_vault", id, actor, "")
}

func (s *stubVaults) RestoreVault(_ context.Context, id uuid.UUID, actor string) error {
	return s.record("restore_vault", id, actor, "")
}

func (s *stubVaults) DeleteSecret(_ context.Context, id uuid.UUID, actor string) error {
	return s.record("delete_secret", id, actor, "")
}

func TestCatalogCommands(t *testing.T) {
	ctx := context.Background()
	svc := &stubVaults{}
	cat, err := NewCatalog(Dependencies{Vaults: svc})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	id := uuid.New()
	raw := id.String()

	steps := []func() error{
		func() error { return cat.RevokeInvite.Execute(ctx, RevokeInvite{InviteID: raw, ActorID: " alice "}) },
		func() error { return cat.RenewInvite.Execute(ctx, RenewInvite{InviteID: raw, ActorID: "alice"}) },
		func() error {
			return cat.ChangeRole.Execute(ctx, ChangeRole{MembershipID: raw, Role: "Admin", ActorID: "alice"})
		},
		func() error { return cat.RemoveMember.Execute(ctx, RemoveMember{MembershipID: raw, ActorID: "alice"}) },
		func() error { return cat.RenameVault.Execute(ctx, RenameVault{VaultID: raw, ActorID: "alice", Name: "Ops"}) },
		func() error { return cat.DeleteVault.Execute(ctx, DeleteVault{VaultID: raw, ActorID: "alice"}) },
		func() error { return cat.RestoreVault.Execute(ctx, RestoreVault{VaultID: raw, ActorID: "alice"}) },
		func() error { return cat.DeleteSecret.Execute(ctx, DeleteSecret{SecretID: raw, ActorID: "alice"}) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := []string{"revoke", "renew", "role", "remove", "rename", "delete_vault", "restore_vault", "delete_secret"}
	if len(svc.calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(svc.calls))
	}
	for i, c := range svc.calls {
		if c.op != want[i] || c.id != id || c.actor != "alice" {
			t.Fatalf("call %d mismatch: %+v", i, c)
		}
	}
	if svc.calls[2].extra != "admin" {
		t.Fatalf("role not normalised: %q", svc.calls[2].extra)
	}
	if svc.calls[4].extra != "Ops" {
		t.Fatalf("name not forwarded: %q", svc.calls[4].extra)
	}
}

func TestCatalogRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := &stubVaults{}
	cat, err := NewCatalog(Dependencies{Vaults: svc})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := cat.DeleteVault.Execute(ctx, DeleteVault{VaultID: "nope"}); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if err := cat.ChangeRole.Execute(ctx, ChangeRole{MembershipID: uuid.NewString(), Role: "root"}); err == nil {
		t.Fatalf("expected invalid role error")
	}
	if len(svc.calls) != 0 {
		t.Fatalf("invalid input must not reach the service")
	}

	svc.err = errors.New("forbidden")
	if err := cat.RemoveMember.Execute(ctx, RemoveMember{MembershipID: uuid.NewString()}); !errors.Is(err, svc.err) {
		t.Fatalf("expected service error, got %v", err)
	}
	if _, err := NewCatalog(Dependencies{}); err == nil {
		t.Fatalf("expected error without service")
	}
}
