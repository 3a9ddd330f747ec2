package keys

import (
	goerrors "github.com/goliatone/go-errors"
)

// TextCodeCrypto tags every key codec failure.
const TextCodeCrypto = "CRYPTO_ERROR"

var (
	// ErrDecryption is returned when a wrapped key cannot be opened with the
	// supplied passphrase or a ciphertext cannot be decrypted. Both causes
	// surface as the same error.
	ErrDecryption = goerrors.New("keys: decryption failed", goerrors.CategoryAuth).
			WithTextCode(TextCodeCrypto)
	// ErrPayloadTooLarge is returned when a plaintext exceeds MaxPlaintext.
	ErrPayloadTooLarge = goerrors.New("keys: plaintext exceeds OAEP payload limit", goerrors.CategoryBadInput).
				WithTextCode(TextCodeCrypto)
	// ErrInvalidKey is returned for malformed PEM or DER key material.
	ErrInvalidKey = goerrors.New("keys: invalid key material", goerrors.CategoryBadInput).
			WithTextCode(TextCodeCrypto)
	// ErrKeyGeneration is returned when the system cannot produce a key pair.
	ErrKeyGeneration = goerrors.New("keys: key generation failed", goerrors.CategoryInternal).
				WithTextCode(TextCodeCrypto)
)
