package tokens

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTokenSize is the byte length of invite tokens.
	DefaultTokenSize = 16
	// DefaultTTL bounds the validity of reveal tokens.
	DefaultTTL = 180 * time.Second
	// DefaultKeySalt namespaces the HMAC key of reveal tokens.
	DefaultKeySalt = "crypta.reveal"

	markerLayout = "2006-01-02 15:04:05"
)

// epoch anchors reveal token timestamps.
var epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// RandomToken returns size bytes of crypto random data, hex encoded.
func RandomToken(size int) (string, error) {
	if size <= 0 {
		size = DefaultTokenSize
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tokens: read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// State is the mutable view of a resource a reveal token is bound to.
type State struct {
	Data      []byte
	UpdatedAt time.Time
}

// RevealTokenGenerator issues short lived tokens bound to a principal and to
// the current state of a resource. Any change to the resource data or its
// update marker invalidates previously issued tokens.
type RevealTokenGenerator struct {
	key  []byte
	salt string
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a RevealTokenGenerator.
type Option func(*RevealTokenGenerator)

// WithTTL overrides the validity window.
func WithTTL(ttl time.Duration) Option {
	return func(g *RevealTokenGenerator) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithKeySalt overrides the HMAC key salt.
func WithKeySalt(salt string) Option {
	return func(g *RevealTokenGenerator) {
		if strings.TrimSpace(salt) != "" {
			g.salt = salt
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(g *RevealTokenGenerator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewRevealTokenGenerator builds a generator signing with key.
func NewRevealTokenGenerator(key []byte, opts ...Option) (*RevealTokenGenerator, error) {
	if len(key) == 0 {
		return nil, errors.New("tokens: signing key required")
	}
	gen := &RevealTokenGenerator{
		key:  append([]byte(nil), key...),
		salt: DefaultKeySalt,
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(gen)
		}
	}
	return gen, nil
}

// TTL returns the validity window.
func (g *RevealTokenGenerator) TTL() time.Duration {
	return g.ttl
}

// Make issues a token for principalID over the given state.
func (g *RevealTokenGenerator) Make(state State, principalID string) string {
	return g.makeWithTimestamp(state, principalID, g.timestamp(g.now()))
}

// Check reports whether token was issued for principalID over the exact same
// state and is still inside the validity window.
func (g *RevealTokenGenerator) Check(state State, principalID, token string) bool {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok || tsPart == "" {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}
	expected := g.makeWithTimestamp(state, principalID, ts)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return false
	}
	age := g.timestamp(g.now()) - ts
	return age >= 0 && age < int64(g.ttl/time.Second)
}

func (g *RevealTokenGenerator) makeWithTimestamp(state State, principalID string, ts int64) string {
	mac := hmac.New(sha256.New, g.signingKey())
	mac.Write([]byte(hashValue(state, principalID, ts)))
	digest := hex.EncodeToString(mac.Sum(nil))

	stride := make([]byte, 0, len(digest)/2)
	for i := 0; i < len(digest); i += 2 {
		stride = append(stride, digest[i])
	}
	return strconv.FormatInt(ts, 36) + "-" + string(stride)
}

func (g *RevealTokenGenerator) signingKey() []byte {
	sum := sha256.Sum256(append([]byte(g.salt), g.key...))
	return sum[:]
}

func (g *RevealTokenGenerator) timestamp(t time.Time) int64 {
	return int64(t.Sub(epoch) / time.Second)
}

func hashValue(state State, principalID string, ts int64) string {
	content := sha256.Sum256(state.Data)
	marker := ""
	if !state.UpdatedAt.IsZero() {
		marker = state.UpdatedAt.UTC().Truncate(time.Second).Format(markerLayout)
	}
	return principalID + hex.EncodeToString(content[:]) + marker + strconv.FormatInt(ts, 10)
}
