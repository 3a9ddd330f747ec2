package vaults

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-crypta/internal/storage/memory"
	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/config"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/keys"
	"github.com/goliatone/go-crypta/pkg/notify"
)

var testParams = keys.Params{Time: 1, MemoryKiB: 1024, Threads: 1}

type testUser struct {
	ref      domain.UserRef
	password string
}

func newUser(id, name, password string) *testUser {
	return &testUser{
		ref:      domain.UserRef{ID: id, Email: id + "@example.com", Name: name},
		password: password,
	}
}

func (u *testUser) Ref() domain.UserRef { return u.ref }

func (u *testUser) CheckPassword(password string) bool { return password == u.password }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	svc      *Service
	store    *memory.Store
	clock    *fakeClock
	mail     *notify.Recorder
	activity *activity.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := memory.NewStore()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	mail := notify.NewRecorder()
	rec := &activity.Recorder{}

	cfg := config.Defaults()
	cfg.Reveal.SigningKey = "test-signing-key"
	cfg.Keys = config.KeysConfig{Time: testParams.Time, MemoryKiB: testParams.MemoryKiB, Threads: testParams.Threads}

	svc, err := NewService(Dependencies{
		Vaults:       st.Vaults,
		Memberships:  st.Memberships,
		Invites:      st.Invites,
		Secrets:      st.Secrets,
		Transactions: st.Transactions,
		Notifier:     notify.New(mail),
		Activity:     activity.Hooks{rec},
		Clock:        clock.Now,
		Config:       cfg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &harness{svc: svc, store: st, clock: clock, mail: mail, activity: rec}
}

func (h *harness) createVault(t *testing.T, name string, owner *testUser) *domain.Vault {
	t.Helper()
	vault, err := h.svc.CreateVault(context.Background(), name, owner, owner.password)
	if err != nil {
		t.Fatalf("create vault: %v", err)
	}
	return vault
}

// join invites user with role and accepts the invite on their behalf.
func (h *harness) join(t *testing.T, vault *domain.Vault, inviter, user *testUser, role domain.Role) *domain.Membership {
	t.Helper()
	ctx := context.Background()
	ticket, err := h.svc.CreateInvite(ctx, CreateInviteInput{
		VaultID:  vault.ID,
		Inviter:  inviter,
		Password: inviter.password,
		Invitee:  user.ref,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create invite for %s: %v", user.ref.ID, err)
	}
	membership, err := h.svc.AcceptInvite(ctx, ticket.Invite.ID, user, ticket.Token, user.password)
	if err != nil {
		t.Fatalf("accept invite for %s: %v", user.ref.ID, err)
	}
	return membership
}

func (h *harness) membershipOf(t *testing.T, vault *domain.Vault, user *testUser) *domain.Membership {
	t.Helper()
	m, err := h.store.Memberships.GetByMemberAndVault(context.Background(), user.ref.ID, vault.ID)
	if err != nil {
		t.Fatalf("membership of %s: %v", user.ref.ID, err)
	}
	return m
}
