package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeyBits is the RSA modulus size of every vault key pair.
	KeyBits = 2048
	// MaxPlaintext is the largest payload RSA-OAEP with SHA-256 accepts for
	// a KeyBits modulus.
	MaxPlaintext = KeyBits/8 - 2*sha256.Size - 2

	privateKeyBlock = "CRYPTA ENCRYPTED PRIVATE KEY"
	publicKeyBlock  = "RSA PUBLIC KEY"
	pkixKeyBlock    = "PUBLIC KEY"

	headerKDF       = "KDF"
	headerKDFParams = "KDF-Params"
	headerSalt      = "Salt"
	headerNonce     = "Nonce"
	kdfArgon2id     = "argon2id"

	saltSize = 16

	maxTime      = 16
	maxMemoryKiB = 1 << 20
	maxThreads   = 64
)

// Params tunes the argon2id derivation of wrapping keys.
type Params struct {
	Time      uint32 `json:"time" mapstructure:"time"`
	MemoryKiB uint32 `json:"memory_kib" mapstructure:"memory_kib"`
	Threads   uint8  `json:"threads" mapstructure:"threads"`
}

// DefaultParams follows the argon2id recommendation of RFC 9106 for
// memory constrained environments.
func DefaultParams() Params {
	return Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

func (p Params) String() string {
	return fmt.Sprintf("t=%d,m=%d,p=%d", p.Time, p.MemoryKiB, p.Threads)
}

// Validate rejects parameters that are unusable or unreasonably expensive.
func (p Params) Validate() error {
	if p.Time == 0 || p.Time > maxTime {
		return fmt.Errorf("keys: argon2 time must be between 1 and %d", maxTime)
	}
	if p.MemoryKiB < 8*uint32(max(p.Threads, 1)) || p.MemoryKiB > maxMemoryKiB {
		return fmt.Errorf("keys: argon2 memory must be between 8*threads and %d KiB", maxMemoryKiB)
	}
	if p.Threads == 0 || p.Threads > maxThreads {
		return fmt.Errorf("keys: argon2 threads must be between 1 and %d", maxThreads)
	}
	return nil
}

func parseParams(raw string) (Params, error) {
	var (
		t, m uint32
		p    uint8
	)
	if _, err := fmt.Sscanf(raw, "t=%d,m=%d,p=%d", &t, &m, &p); err != nil {
		return Params{}, err
	}
	params := Params{Time: t, MemoryKiB: m, Threads: p}
	return params, params.Validate()
}

// Codec generates vault key pairs, wraps private keys under passphrases and
// performs RSA-OAEP (SHA-256) encryption.
type Codec struct {
	params Params
	random io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithParams overrides the argon2id parameters used for new wrappings.
// Existing wrappings keep the parameters recorded in their headers.
func WithParams(params Params) Option {
	return func(c *Codec) {
		if params.Validate() == nil {
			c.params = params
		}
	}
}

// WithRandom injects the entropy source.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		if r != nil {
			c.random = r
		}
	}
}

// NewCodec builds a codec with default parameters.
func NewCodec(opts ...Option) *Codec {
	codec := &Codec{
		params: DefaultParams(),
		random: rand.Reader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(codec)
		}
	}
	return codec
}

// Params returns the parameters applied to new wrappings.
func (c *Codec) Params() Params {
	return c.params
}

// GenerateKeyPair creates an RSA key pair and returns the private half
// wrapped under passphrase together with the PEM encoded public half.
func (c *Codec) GenerateKeyPair(passphrase string) (wrapped, public []byte, err error) {
	key, err := rsa.GenerateKey(c.random, KeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	defer zeroKey(key)

	public = pem.EncodeToMemory(&pem.Block{
		Type:  publicKeyBlock,
		Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey),
	})
	wrapped, err = c.wrap(key, passphrase)
	if err != nil {
		return nil, nil, err
	}
	return wrapped, public, nil
}

// Encrypt seals plaintext for the holder of the private key matching public.
// Output differs on every call.
func (c *Codec) Encrypt(public, plaintext []byte) ([]byte, error) {
	pub, err := ParsePublicKey(public)
	if err != nil {
		return nil, err
	}
	if len(plaintext) > pub.Size()-2*sha256.Size-2 {
		return nil, ErrPayloadTooLarge
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), c.random, pub, plaintext, nil)
	if err != nil {
		if errors.Is(err, rsa.ErrMessageTooLong) {
			return nil, ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("keys: encrypt: %w", err)
	}
	return ciphertext, nil
}

// Decrypt unwraps the private key with passphrase and opens ciphertext.
func (c *Codec) Decrypt(wrapped []byte, passphrase string, ciphertext []byte) ([]byte, error) {
	var plaintext []byte
	err := c.WithPrivateKey(wrapped, passphrase, func(key *rsa.PrivateKey) error {
		out, err := rsa.DecryptOAEP(sha256.New(), nil, key, ciphertext, nil)
		if err != nil {
			return ErrDecryption
		}
		plaintext = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// VerifyPassphrase reports whether passphrase opens the wrapped key.
func (c *Codec) VerifyPassphrase(wrapped []byte, passphrase string) bool {
	return c.WithPrivateKey(wrapped, passphrase, func(*rsa.PrivateKey) error { return nil }) == nil
}

// Rewrap opens the wrapped key with oldPassphrase and wraps it again under
// newPassphrase with a fresh salt and nonce.
func (c *Codec) Rewrap(wrapped []byte, oldPassphrase, newPassphrase string) ([]byte, error) {
	var out []byte
	err := c.WithPrivateKey(wrapped, oldPassphrase, func(key *rsa.PrivateKey) error {
		var err error
		out, err = c.wrap(key, newPassphrase)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WithPrivateKey unwraps the private key for the duration of fn. The key is
// zeroed when fn returns, whatever the outcome.
func (c *Codec) WithPrivateKey(wrapped []byte, passphrase string, fn func(*rsa.PrivateKey) error) error {
	key, err := c.unwrap(wrapped, passphrase)
	if err != nil {
		return err
	}
	defer zeroKey(key)
	return fn(key)
}

func (c *Codec) wrap(key *rsa.PrivateKey, passphrase string) ([]byte, error) {
	der := x509.MarshalPKCS1PrivateKey(key)
	defer clear(der)

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return nil, fmt.Errorf("keys: read salt: %w", err)
	}
	kek := deriveKey(passphrase, salt, c.params)
	defer clear(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, fmt.Errorf("keys: init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("keys: read nonce: %w", err)
	}

	headers := map[string]string{
		headerKDF:       kdfArgon2id,
		headerKDFParams: c.params.String(),
		headerSalt:      hex.EncodeToString(salt),
		headerNonce:     hex.EncodeToString(nonce),
	}
	sealed := aead.Seal(nil, nonce, der, associatedData(headers))
	return pem.EncodeToMemory(&pem.Block{
		Type:    privateKeyBlock,
		Headers: headers,
		Bytes:   sealed,
	}), nil
}

func (c *Codec) unwrap(wrapped []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(wrapped)
	if block == nil || block.Type != privateKeyBlock || block.Headers[headerKDF] != kdfArgon2id {
		return nil, ErrDecryption
	}
	params, err := parseParams(block.Headers[headerKDFParams])
	if err != nil {
		return nil, ErrDecryption
	}
	salt, err := hex.DecodeString(block.Headers[headerSalt])
	if err != nil || len(salt) != saltSize {
		return nil, ErrDecryption
	}
	nonce, err := hex.DecodeString(block.Headers[headerNonce])
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrDecryption
	}

	kek := deriveKey(passphrase, salt, params)
	defer clear(kek)
	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, ErrDecryption
	}
	der, err := aead.Open(nil, nonce, block.Bytes, associatedData(block.Headers))
	if err != nil {
		return nil, ErrDecryption
	}
	defer clear(der)

	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, ErrDecryption
	}
	return key, nil
}

// ParsePublicKey decodes a PKCS#1 or PKIX PEM encoded RSA public key.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case publicKeyBlock:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, ErrInvalidKey
		}
		return pub, nil
	case pkixKeyBlock:
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, ErrInvalidKey
		}
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, ErrInvalidKey
		}
		return pub, nil
	default:
		return nil, ErrInvalidKey
	}
}

func deriveKey(passphrase string, salt []byte, params Params) []byte {
	secret := []byte(passphrase)
	defer clear(secret)
	return argon2.IDKey(secret, salt, params.Time, params.MemoryKiB, params.Threads, chacha20poly1305.KeySize)
}

// associatedData binds the envelope headers to the sealed key.
func associatedData(headers map[string]string) []byte {
	return []byte(headers[headerKDF] + "|" + headers[headerKDFParams] + "|" + headers[headerSalt] + "|" + headers[headerNonce])
}

func zeroKey(key *rsa.PrivateKey) {
	if key == nil {
		return
	}
	zeroInt(key.D)
	for _, p := range key.Primes {
		zeroInt(p)
	}
	zeroInt(key.Precomputed.Dp)
	zeroInt(key.Precomputed.Dq)
	zeroInt(key.Precomputed.Qinv)
}

func zeroInt(v *big.Int) {
	if v == nil {
		return
	}
	clear(v.Bits())
	v.SetInt64(0)
}
