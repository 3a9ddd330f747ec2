package vaults

import (
	"context"
	"strings"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/goliatone/go-crypta/pkg/policy"
	"github.com/goliatone/go-crypta/pkg/tokens"
	"github.com/google/uuid"
)

// UpdateSecretInput replaces a secret's data. Token must be a reveal token
// issued to ActorID for the secret's current state. A non-empty Name also
// renames the secret.
type UpdateSecretInput struct {
	SecretID  uuid.UUID
	ActorID   string
	Token     string
	Name      string
	Plaintext []byte
}

// CreateSecret encrypts plaintext under the vault public key and stores it.
func (s *Service) CreateSecret(ctx context.Context, vaultID uuid.UUID, actorID, name string, plaintext []byte) (*domain.Secret, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("secret name required")
	}
	var secret *domain.Secret
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		acc, err := s.requireAccess(ctx, vaultID, actorID, false)
		if err != nil {
			return err
		}
		if err := authorize(acc.role(), false, policy.ActionWriteSecret, acc.role()); err != nil {
			return err
		}
		data, err := s.codec.Encrypt(acc.vault.PublicKey, plaintext)
		if err != nil {
			return mapCryptoError(err)
		}
		secret = &domain.Secret{VaultID: vaultID, Name: name, Data: data}
		secret.EnsureID()
		secret.Touch(s.now())
		if err := s.secrets.Create(ctx, secret); err != nil {
			return mapStoreError(err)
		}
		box.record(secretEvent(activity.VerbSecretCreated, actorID, secret))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// UpdateSecret replaces the secret data wholesale. The update bumps the
// secret's marker, invalidating every reveal token issued before it.
func (s *Service) UpdateSecret(ctx context.Context, in UpdateSecretInput) (*domain.Secret, error) {
	var secret *domain.Secret
	err := s.transact(ctx, func(ctx context.Context, box *outbox) error {
		var (
			acc *access
			err error
		)
		secret, acc, err = s.loadSecret(ctx, in.SecretID, in.ActorID)
		if err != nil {
			return err
		}
		if err := authorize(acc.role(), false, policy.ActionWriteSecret, acc.role()); err != nil {
			return err
		}
		if !s.tokens.Check(secretState(secret), in.ActorID, in.Token) {
			return ErrInvalidToken
		}
		data, err := s.codec.Encrypt(acc.vault.PublicKey, in.Plaintext)
		if err != nil {
			return mapCryptoError(err)
		}
		secret.Data = data
		if name := strings.TrimSpace(in.Name); name != "" {
			secret.Name = name
		}
		secret.Touch(s.now())
		if err := s.secrets.Update(ctx, secret); err != nil {
			return mapStoreError(err)
		}
		box.record(secretEvent(activity.VerbSecretUpdated, in.ActorID, secret))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// DeleteSecret removes the secret.
func (s *Service) DeleteSecret(ctx context.Context, secretID uuid.UUID, actorID string) error {
	return s.transact(ctx, func(ctx context.Context, box *outbox) error {
		secret, acc, err := s.loadSecret(ctx, secretID, actorID)
		if err != nil {
			return err
		}
		if err := authorize(acc.role(), false, policy.ActionWriteSecret, acc.role()); err != nil {
			return err
		}
		if err := s.secrets.Delete(ctx, secret.ID); err != nil {
			return mapStoreError(err)
		}
		box.record(secretEvent(activity.VerbSecretDeleted, actorID, secret))
		return nil
	})
}

// RevealSecret decrypts the secret with the requester's membership key.
func (s *Service) RevealSecret(ctx context.Context, secretID uuid.UUID, requester domain.Principal, password string) ([]byte, error) {
	if requester == nil {
		return nil, invalidInput("principal required")
	}
	ref := requester.Ref()
	secret, acc, err := s.loadSecret(ctx, secretID, ref.ID)
	if err != nil {
		return nil, err
	}
	if err := authorize(acc.role(), false, policy.ActionReadSecret, acc.role()); err != nil {
		return nil, err
	}
	if err := checkPassword(requester, password); err != nil {
		return nil, err
	}
	plaintext, err := s.codec.Decrypt(acc.membership.WrappedKey, password, secret.Data)
	if err != nil {
		return nil, mapCryptoError(err)
	}
	s.flush(ctx, &outbox{events: []activity.Event{secretEvent(activity.VerbSecretRevealed, ref.ID, secret)}})
	return plaintext, nil
}

// MakeRevealToken issues a reveal token for the secret's current state.
func (s *Service) MakeRevealToken(ctx context.Context, secretID uuid.UUID, requesterID string) (string, error) {
	secret, acc, err := s.loadSecret(ctx, secretID, requesterID)
	if err != nil {
		return "", err
	}
	if err := authorize(acc.role(), false, policy.ActionReadSecret, acc.role()); err != nil {
		return "", err
	}
	return s.tokens.Make(secretState(secret), requesterID), nil
}

// CheckRevealToken reports whether token is valid for requesterID and the
// secret's current state.
func (s *Service) CheckRevealToken(ctx context.Context, secretID uuid.UUID, requesterID, token string) (bool, error) {
	secret, _, err := s.loadSecret(ctx, secretID, requesterID)
	if err != nil {
		return false, err
	}
	return s.tokens.Check(secretState(secret), requesterID, token), nil
}

// ListSecrets returns the vault secrets, ciphertext included.
func (s *Service) ListSecrets(ctx context.Context, vaultID uuid.UUID, actorID string) ([]domain.Secret, error) {
	acc, err := s.requireAccess(ctx, vaultID, actorID, false)
	if err != nil {
		return nil, err
	}
	if err := authorize(acc.role(), false, policy.ActionReadSecret, acc.role()); err != nil {
		return nil, err
	}
	res, err := s.secrets.List(ctx, store.SecretFilter{VaultID: vaultID})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (s *Service) loadSecret(ctx context.Context, secretID uuid.UUID, actorID string) (*domain.Secret, *access, error) {
	secret, err := s.secrets.GetByID(ctx, secretID)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	acc, err := s.requireAccess(ctx, secret.VaultID, actorID, false)
	if err != nil {
		return nil, nil, err
	}
	return secret, acc, nil
}

func secretState(secret *domain.Secret) tokens.State {
	return tokens.State{Data: secret.Data, UpdatedAt: secret.UpdatedAt}
}

func secretEvent(verb, actorID string, secret *domain.Secret) activity.Event {
	return activity.Event{
		Verb:       verb,
		ActorID:    actorID,
		VaultID:    secret.VaultID.String(),
		ObjectType: activity.ObjectSecret,
		ObjectID:   secret.ID.String(),
		Metadata:   map[string]any{"name": secret.Name},
	}
}
