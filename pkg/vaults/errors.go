package vaults

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/goliatone/go-crypta/pkg/keys"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to service errors.
const (
	TextCodeForbidden     = "FORBIDDEN"
	TextCodeCrypto        = keys.TextCodeCrypto
	TextCodeInvalidToken  = "INVALID_TOKEN"
	TextCodeExpired       = "EXPIRED"
	TextCodeConflict      = "CONFLICT"
	TextCodeNotFound      = "NOT_FOUND"
	TextCodeVaultExcluded = "VAULT_EXCLUDED"
	TextCodeInvalidState  = "INVALID_STATE"
	TextCodeInvalidInput  = "INVALID_INPUT"
)

var (
	// ErrForbidden is returned when the actor lacks a membership or the
	// policy denies the action.
	ErrForbidden = goerrors.New("vaults: forbidden", goerrors.CategoryAuthz).WithTextCode(TextCodeForbidden)

	// ErrCrypto covers wrong passwords and key material that cannot be opened.
	ErrCrypto = goerrors.New("vaults: crypto failure", goerrors.CategoryAuth).WithTextCode(TextCodeCrypto)

	ErrInvalidToken = goerrors.New("vaults: invalid token", goerrors.CategoryAuth).WithTextCode(TextCodeInvalidToken)

	ErrExpired = goerrors.New("vaults: invite expired", goerrors.CategoryAuth).WithTextCode(TextCodeExpired)

	ErrConflict = goerrors.New("vaults: conflict", goerrors.CategoryConflict).WithTextCode(TextCodeConflict)

	ErrNotFound = goerrors.New("vaults: not found", goerrors.CategoryNotFound).WithTextCode(TextCodeNotFound)

	// ErrVaultExcluded is returned for any operation on a soft-deleted vault
	// other than restore.
	ErrVaultExcluded = goerrors.New("vaults: vault excluded", goerrors.CategoryOperation).WithTextCode(TextCodeVaultExcluded)

	ErrInvalidState = goerrors.New("vaults: invalid state", goerrors.CategoryOperation).WithTextCode(TextCodeInvalidState)

	ErrInvalidInput = goerrors.New("vaults: invalid input", goerrors.CategoryBadInput).WithTextCode(TextCodeInvalidInput)
)

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}

// mapCryptoError folds codec failures into ErrCrypto. Oversized payloads
// keep their own sentinel so callers can report the limit.
func mapCryptoError(err error) error {
	if err == nil || errors.Is(err, keys.ErrPayloadTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCrypto, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
