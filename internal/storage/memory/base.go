package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/google/uuid"
)

type txKey struct{}

// database holds every table so cross-entity filters and transactional
// snapshots see a consistent view.
type database struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	vaults      map[uuid.UUID]domain.Vault
	memberships map[uuid.UUID]domain.Membership
	invites     map[uuid.UUID]domain.Invite
	secrets     map[uuid.UUID]domain.Secret
}

type snapshot struct {
	vaults      map[uuid.UUID]domain.Vault
	memberships map[uuid.UUID]domain.Membership
	invites     map[uuid.UUID]domain.Invite
	secrets     map[uuid.UUID]domain.Secret
}

func newDatabase() *database {
	return &database{
		vaults:      make(map[uuid.UUID]domain.Vault),
		memberships: make(map[uuid.UUID]domain.Membership),
		invites:     make(map[uuid.UUID]domain.Invite),
		secrets:     make(map[uuid.UUID]domain.Secret),
	}
}

func (db *database) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return snapshot{
		vaults:      maps.Clone(db.vaults),
		memberships: maps.Clone(db.memberships),
		invites:     maps.Clone(db.invites),
		secrets:     maps.Clone(db.secrets),
	}
}

func (db *database) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.vaults = s.vaults
	db.memberships = s.memberships
	db.invites = s.invites
	db.secrets = s.secrets
}

// TransactionManager serialises transactions and rolls the tables back when
// the callback fails.
type TransactionManager struct {
	db *database
}

var _ store.TransactionManager = (*TransactionManager)(nil)

func (m *TransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.db.txMu.Lock()
	defer m.db.txMu.Unlock()

	saved := m.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.db.restore(saved)
		return err
	}
	return nil
}

func stamp(meta *domain.RecordMeta) {
	meta.EnsureID()
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = meta.CreatedAt
	}
}

func paginate[T any](items []T, opts store.ListOptions, less func(a, b *T) bool) store.ListResult[T] {
	sort.SliceStable(items, func(i, j int) bool {
		return less(&items[i], &items[j])
	})

	total := len(items)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return store.ListResult[T]{
		Items: items[start:end],
		Total: total,
	}
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}
