// Package vaults implements the vault lifecycle: vaults, memberships,
// invites and encrypted secrets, each guarded by the role policy.
package vaults

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/config"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/goliatone/go-crypta/pkg/keys"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/policy"
	"github.com/goliatone/go-crypta/pkg/tokens"
	"github.com/google/uuid"
)

// Codec is the key material contract the service relies on.
type Codec interface {
	GenerateKeyPair(passphrase string) (wrapped, public []byte, err error)
	Encrypt(public, plaintext []byte) ([]byte, error)
	Decrypt(wrapped []byte, passphrase string, ciphertext []byte) ([]byte, error)
	VerifyPassphrase(wrapped []byte, passphrase string) bool
	Rewrap(wrapped []byte, oldPassphrase, newPassphrase string) ([]byte, error)
}

// RevealTokens issues and checks tokens bound to a secret's current state.
type RevealTokens interface {
	Make(state tokens.State, principalID string) string
	Check(state tokens.State, principalID, token string) bool
}

// Dependencies wires repositories and collaborators into the service.
type Dependencies struct {
	Vaults       store.VaultRepository
	Memberships  store.MembershipRepository
	Invites      store.InviteRepository
	Secrets      store.SecretRepository
	Transactions store.TransactionManager

	Codec    Codec
	Tokens   RevealTokens
	Notifier notify.Sink
	Activity activity.Hooks
	Logger   logger.Logger
	Clock    func() time.Time
	Config   config.Config
}

// Service coordinates vault operations. Every mutation runs in a single
// transaction; notifications and activity go out only after it commits.
type Service struct {
	vaults      store.VaultRepository
	memberships store.MembershipRepository
	invites     store.InviteRepository
	secrets     store.SecretRepository
	tx          store.TransactionManager

	codec    Codec
	tokens   RevealTokens
	notifier notify.Sink
	activity activity.Hooks
	logger   logger.Logger
	clock    func() time.Time
	cfg      config.Config
}

var (
	errVaultsRequired       = errors.New("vaults: vault repository is required")
	errMembershipsRequired  = errors.New("vaults: membership repository is required")
	errInvitesRequired      = errors.New("vaults: invite repository is required")
	errSecretsRequired      = errors.New("vaults: secret repository is required")
	errTransactionsRequired = errors.New("vaults: transaction manager is required")
)

// NewService constructs the vault service.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Vaults == nil:
		return nil, errVaultsRequired
	case deps.Memberships == nil:
		return nil, errMembershipsRequired
	case deps.Invites == nil:
		return nil, errInvitesRequired
	case deps.Secrets == nil:
		return nil, errSecretsRequired
	case deps.Transactions == nil:
		return nil, errTransactionsRequired
	}

	cfg := deps.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vaults: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Codec == nil {
		deps.Codec = keys.NewCodec(keys.WithParams(cfg.Keys.Params()))
	}
	if deps.Tokens == nil {
		gen, err := newRevealTokens(cfg.Reveal, deps.Clock, deps.Logger)
		if err != nil {
			return nil, err
		}
		deps.Tokens = gen
	}

	return &Service{
		vaults:      deps.Vaults,
		memberships: deps.Memberships,
		invites:     deps.Invites,
		secrets:     deps.Secrets,
		tx:          deps.Transactions,
		codec:       deps.Codec,
		tokens:      deps.Tokens,
		notifier:    deps.Notifier,
		activity:    deps.Activity,
		logger:      deps.Logger,
		clock:       deps.Clock,
		cfg:         cfg,
	}, nil
}

// newRevealTokens builds the reveal token generator. Without a configured
// signing key a random one is generated, so tokens do not survive restarts.
func newRevealTokens(cfg config.RevealConfig, clock func() time.Time, lgr logger.Logger) (*tokens.RevealTokenGenerator, error) {
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("vaults: generate signing key: %w", err)
		}
		lgr.Warn("vaults: reveal.signing_key not configured, using a per-process key")
	}
	return tokens.NewRevealTokenGenerator(key,
		tokens.WithTTL(cfg.TokenTTL),
		tokens.WithKeySalt(cfg.KeySalt),
		tokens.WithClock(clock),
	)
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// outbox collects side effects raised inside a transaction.
type outbox struct {
	notifications []notify.Event
	events        []activity.Event
}

func (o *outbox) notify(evt notify.Event) {
	o.notifications = append(o.notifications, evt)
}

func (o *outbox) record(evt activity.Event) {
	o.events = append(o.events, evt)
}

// transact runs fn in a transaction and flushes the outbox once it commits.
func (s *Service) transact(ctx context.Context, fn func(ctx context.Context, box *outbox) error) error {
	box := &outbox{}
	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return fn(txCtx, box)
	}); err != nil {
		return err
	}
	s.flush(ctx, box)
	return nil
}

func (s *Service) flush(ctx context.Context, box *outbox) {
	now := s.now()
	for _, evt := range box.events {
		if evt.OccurredAt.IsZero() {
			evt.OccurredAt = now
		}
		s.activity.Notify(ctx, evt)
	}
	for _, evt := range box.notifications {
		s.notifier.Notify(ctx, evt)
	}
}

// access is the result of the shared precondition check: the vault and the
// actor's active membership in it.
type access struct {
	vault      *domain.Vault
	membership *domain.Membership
}

func (a *access) role() domain.Role {
	return a.membership.Role
}

// requireAccess loads the vault and the actor's active membership. Excluded
// vaults are refused unless allowExcluded is set.
func (s *Service) requireAccess(ctx context.Context, vaultID uuid.UUID, actorID string, allowExcluded bool) (*access, error) {
	vault, err := s.vaults.GetByID(ctx, vaultID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !allowExcluded && !vault.Active() {
		return nil, ErrVaultExcluded
	}
	membership, err := s.memberships.GetByMemberAndVault(ctx, actorID, vaultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: not a member", ErrForbidden)
		}
		return nil, err
	}
	if !membership.Active() {
		return nil, fmt.Errorf("%w: membership excluded", ErrForbidden)
	}
	return &access{vault: vault, membership: membership}, nil
}

func authorize(actor domain.Role, self bool, action policy.Action, target domain.Role) error {
	if policy.Can(actor, self, action, target) == policy.Deny {
		return fmt.Errorf("%w: %s", ErrForbidden, action)
	}
	return nil
}

func checkPassword(principal domain.Principal, password string) error {
	if principal == nil {
		return invalidInput("principal required")
	}
	if !principal.CheckPassword(password) {
		return fmt.Errorf("%w: password mismatch", ErrCrypto)
	}
	return nil
}
