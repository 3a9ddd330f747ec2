package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.DriverName(), fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	if err := CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newVault(name, slug string) *domain.Vault {
	return &domain.Vault{
		Name:      name,
		Slug:      slug,
		PublicKey: []byte("-----BEGIN RSA PUBLIC KEY-----"),
		Status:    domain.VaultActive,
	}
}

func newMembership(vault domain.Vault, member string, role domain.Role, joined time.Time) *domain.Membership {
	return &domain.Membership{
		VaultID:    vault.ID,
		MemberID:   member,
		WrappedKey: []byte("wrapped"),
		Role:       role,
		Status:     domain.MembershipActive,
		JoinedOn:   joined,
	}
}

func TestVaultRepositoryBun(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewVaultRepository(db)
	ctx := context.Background()

	vault := newVault("Team", "team")
	if err := repo.Create(ctx, vault); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, slug := range []string{"team-1", "team-7", "teammate"} {
		if err := repo.Create(ctx, newVault("x", slug)); err != nil {
			t.Fatalf("create %s: %v", slug, err)
		}
	}

	err := repo.Create(ctx, newVault("Team again", "team"))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate slug, got %v", err)
	}

	got, err := repo.GetBySlug(ctx, "team")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != vault.ID || got.Status != domain.VaultActive {
		t.Fatalf("unexpected vault %+v", got)
	}

	slugs, err := repo.SlugsWithPrefix(ctx, "team")
	if err != nil {
		t.Fatalf("slugs with prefix: %v", err)
	}
	if strings.Join(slugs, ",") != "team,team-1,team-7" {
		t.Fatalf("unexpected slugs %v", slugs)
	}

	got.Status = domain.VaultExcluded
	got.UpdatedAt = time.Now().UTC()
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := repo.GetByID(ctx, vault.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if reloaded.Status != domain.VaultExcluded {
		t.Fatalf("expected excluded status, got %s", reloaded.Status)
	}

	if _, err := repo.GetBySlug(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVaultListFiltersByMembership(t *testing.T) {
	db := setupSQLiteDB(t)
	vaults := NewVaultRepository(db)
	memberships := NewMembershipRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	owned := newVault("Alpha", "alpha")
	managed := newVault("Beta", "beta")
	joined := newVault("Gamma", "gamma")
	gone := newVault("Delta", "delta")
	gone.Status = domain.VaultExcluded
	for _, v := range []*domain.Vault{owned, managed, joined, gone} {
		if err := vaults.Create(ctx, v); err != nil {
			t.Fatalf("create vault: %v", err)
		}
	}
	fixtures := []*domain.Membership{
		newMembership(*owned, "alice", domain.RoleOwner, now),
		newMembership(*managed, "alice", domain.RoleAdmin, now),
		newMembership(*joined, "alice", domain.RoleMember, now),
		newMembership(*gone, "alice", domain.RoleOwner, now),
	}
	for _, m := range fixtures {
		if err := memberships.Create(ctx, m); err != nil {
			t.Fatalf("create membership: %v", err)
		}
	}

	names := func(res store.ListResult[domain.Vault]) string {
		out := make([]string, 0, len(res.Items))
		for _, v := range res.Items {
			out = append(out, v.Name)
		}
		return strings.Join(out, ",")
	}

	all, err := vaults.List(ctx, store.VaultFilter{MemberID: "alice", Statuses: []domain.VaultStatus{domain.VaultActive}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if names(all) != "Alpha,Beta,Gamma" || all.Total != 3 {
		t.Fatalf("unexpected active vaults %q (total %d)", names(all), all.Total)
	}

	managers, err := vaults.List(ctx, store.VaultFilter{
		MemberID: "alice",
		Roles:    []domain.Role{domain.RoleOwner, domain.RoleAdmin},
		Statuses: []domain.VaultStatus{domain.VaultActive},
	})
	if err != nil {
		t.Fatalf("list managed: %v", err)
	}
	if names(managers) != "Alpha,Beta" {
		t.Fatalf("unexpected managed vaults %q", names(managers))
	}

	excluded, err := vaults.List(ctx, store.VaultFilter{
		MemberID: "alice",
		Roles:    []domain.Role{domain.RoleOwner},
		Statuses: []domain.VaultStatus{domain.VaultExcluded},
	})
	if err != nil {
		t.Fatalf("list excluded: %v", err)
	}
	if names(excluded) != "Delta" {
		t.Fatalf("unexpected excluded vaults %q", names(excluded))
	}

	fixtures[2].Status = domain.MembershipExcluded
	if err := memberships.Update(ctx, fixtures[2]); err != nil {
		t.Fatalf("exclude membership: %v", err)
	}
	all, err = vaults.List(ctx, store.VaultFilter{MemberID: "alice", Statuses: []domain.VaultStatus{domain.VaultActive}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if names(all) != "Alpha,Beta" {
		t.Fatalf("expected excluded membership to hide vault, got %q", names(all))
	}
}

func TestMembershipRepositoryBun(t *testing.T) {
	db := setupSQLiteDB(t)
	vaults := NewVaultRepository(db)
	repo := NewMembershipRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	vault := newVault("Team", "team")
	if err := vaults.Create(ctx, vault); err != nil {
		t.Fatalf("create vault: %v", err)
	}
	owner := newMembership(*vault, "alice", domain.RoleOwner, now)
	if err := repo.Create(ctx, owner); err != nil {
		t.Fatalf("create membership: %v", err)
	}
	if err := repo.Create(ctx, newMembership(*vault, "alice", domain.RoleMember, now)); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate member, got %v", err)
	}
	member := newMembership(*vault, "bob", domain.RoleMember, now.Add(time.Minute))
	member.Status = domain.MembershipExcluded
	if err := repo.Create(ctx, member); err != nil {
		t.Fatalf("create second membership: %v", err)
	}

	got, err := repo.GetByMemberAndVault(ctx, "alice", vault.ID)
	if err != nil {
		t.Fatalf("get by member: %v", err)
	}
	if got.ID != owner.ID || got.Role != domain.RoleOwner || string(got.WrappedKey) != "wrapped" {
		t.Fatalf("unexpected membership %+v", got)
	}

	active, err := repo.List(ctx, store.MembershipFilter{VaultID: vault.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if active.Total != 1 || active.Items[0].MemberID != "alice" {
		t.Fatalf("expected only active memberships, got %+v", active.Items)
	}
	everyone, err := repo.List(ctx, store.MembershipFilter{VaultID: vault.ID, IncludeExcluded: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if everyone.Total != 2 || everyone.Items[1].MemberID != "bob" {
		t.Fatalf("expected both memberships ordered by join date, got %+v", everyone.Items)
	}
}

func TestInviteRepositoryBun(t *testing.T) {
	db := setupSQLiteDB(t)
	vaults := NewVaultRepository(db)
	memberships := NewMembershipRepository(db)
	repo := NewInviteRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	vault := newVault("Team", "team")
	other := newVault("Other", "other")
	for _, v := range []*domain.Vault{vault, other} {
		if err := vaults.Create(ctx, v); err != nil {
			t.Fatalf("create vault: %v", err)
		}
	}
	if err := memberships.Create(ctx, newMembership(*vault, "alice", domain.RoleAdmin, now)); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	pending := &domain.Invite{
		VaultID: vault.ID, InviterID: "alice", InviteeID: "bob",
		TemporaryKey: []byte("temp"), Role: domain.RoleMember,
		InvitedOn: now, ExpiresOn: now.Add(24 * time.Hour),
	}
	expired := &domain.Invite{
		VaultID: vault.ID, InviterID: "alice", InviteeID: "carol",
		TemporaryKey: []byte("temp"), Role: domain.RoleMember,
		InvitedOn: now.Add(-48 * time.Hour), ExpiresOn: now.Add(-time.Hour),
	}
	elsewhere := &domain.Invite{
		VaultID: other.ID, InviterID: "zed", InviteeID: "bob",
		TemporaryKey: []byte("temp"), Role: domain.RoleAdmin,
		InvitedOn: now, ExpiresOn: now.Add(24 * time.Hour),
	}
	for _, inv := range []*domain.Invite{pending, expired, elsewhere} {
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatalf("create invite: %v", err)
		}
	}
	dup := *pending
	dup.ID = uuid.Nil
	if err := repo.Create(ctx, &dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate invitee, got %v", err)
	}

	managed, err := repo.List(ctx, store.InviteFilter{ManagedBy: "alice", PendingAt: now})
	if err != nil {
		t.Fatalf("list managed: %v", err)
	}
	if managed.Total != 1 || managed.Items[0].ID != pending.ID {
		t.Fatalf("expected only the pending invite of the managed vault, got %+v", managed.Items)
	}

	forBob, err := repo.List(ctx, store.InviteFilter{InviteeID: "bob", PendingAt: now})
	if err != nil {
		t.Fatalf("list invitee: %v", err)
	}
	if forBob.Total != 2 {
		t.Fatalf("expected two invites for bob, got %d", forBob.Total)
	}

	got, err := repo.GetByVaultAndInvitee(ctx, vault.ID, "bob")
	if err != nil {
		t.Fatalf("get by invitee: %v", err)
	}
	got.Accepted = true
	got.AcceptedOn = now
	got.TemporaryKey = nil
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := repo.GetByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reloaded.Accepted || reloaded.TemporaryKey != nil {
		t.Fatalf("expected accepted invite with cleared key, got %+v", reloaded)
	}

	if err := repo.Delete(ctx, expired.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, expired.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSecretRepositoryBun(t *testing.T) {
	db := setupSQLiteDB(t)
	vaults := NewVaultRepository(db)
	repo := NewSecretRepository(db)
	ctx := context.Background()

	vault := newVault("Team", "team")
	if err := vaults.Create(ctx, vault); err != nil {
		t.Fatalf("create vault: %v", err)
	}
	for _, name := range []string{"db", "api"} {
		if err := repo.Create(ctx, &domain.Secret{VaultID: vault.ID, Name: name, Data: []byte{1, 2, 3}}); err != nil {
			t.Fatalf("create secret: %v", err)
		}
	}
	list, err := repo.List(ctx, store.SecretFilter{VaultID: vault.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 2 || list.Items[0].Name != "api" {
		t.Fatalf("unexpected secrets %+v", list.Items)
	}
	if err := repo.Delete(ctx, list.Items[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, list.Items[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransactionManagerRollsBack(t *testing.T) {
	db := setupSQLiteDB(t)
	vaults := NewVaultRepository(db)
	tx := NewTransactionManager(db)
	ctx := context.Background()

	boom := errors.New("boom")
	vault := newVault("Team", "team")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := vaults.Create(ctx, vault); err != nil {
			return err
		}
		if _, err := vaults.GetByID(ctx, vault.ID); err != nil {
			return fmt.Errorf("read inside tx: %w", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := vaults.GetByID(ctx, vault.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}

	committed := newVault("Kept", "kept")
	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return vaults.Create(ctx, committed)
		})
	})
	if err != nil {
		t.Fatalf("nested transaction: %v", err)
	}
	if _, err := vaults.GetBySlug(ctx, "kept"); err != nil {
		t.Fatalf("expected committed vault: %v", err)
	}
}
