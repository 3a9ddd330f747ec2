package tokens

import (
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newGenerator(t *testing.T, clock *fakeClock) *RevealTokenGenerator {
	t.Helper()
	gen, err := NewRevealTokenGenerator([]byte("signing-key"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return gen
}

func TestRandomToken(t *testing.T) {
	token, err := RandomToken(16)
	if err != nil {
		t.Fatalf("random token: %v", err)
	}
	if len(token) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("expected hex output: %v", err)
	}
	other, _ := RandomToken(16)
	if other == token {
		t.Fatalf("expected distinct tokens")
	}
	fallback, _ := RandomToken(0)
	if len(fallback) != DefaultTokenSize*2 {
		t.Fatalf("expected default size, got %d chars", len(fallback))
	}
}

func TestRevealTokenFormat(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	gen := newGenerator(t, clock)

	token := gen.Make(State{Data: []byte("cipher")}, "user-1")
	ts, mac, ok := strings.Cut(token, "-")
	if !ok {
		t.Fatalf("expected separator in %q", token)
	}
	want := strconv.FormatInt(int64(clock.now.Sub(epoch)/time.Second), 36)
	if ts != want {
		t.Fatalf("expected base36 timestamp %q, got %q", want, ts)
	}
	if len(mac) != 32 {
		t.Fatalf("expected every other hex char of a sha256 digest, got %d chars", len(mac))
	}
}

func TestRevealTokenWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	gen := newGenerator(t, clock)
	state := State{Data: []byte("cipher"), UpdatedAt: start.Add(-time.Hour)}

	token := gen.Make(state, "user-1")
	if !gen.Check(state, "user-1", token) {
		t.Fatalf("expected fresh token to be valid")
	}

	clock.now = start.Add(DefaultTTL - time.Second)
	if !gen.Check(state, "user-1", token) {
		t.Fatalf("expected token to be valid at ttl-1s")
	}

	clock.now = start.Add(DefaultTTL)
	if gen.Check(state, "user-1", token) {
		t.Fatalf("expected token to be invalid at ttl")
	}

	clock.now = start.Add(DefaultTTL + time.Second)
	if gen.Check(state, "user-1", token) {
		t.Fatalf("expected token to be invalid at ttl+1s")
	}
}

func TestRevealTokenBinding(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	gen := newGenerator(t, clock)
	state := State{Data: []byte("cipher"), UpdatedAt: start}
	token := gen.Make(state, "user-1")

	cases := map[string]struct {
		state     State
		principal string
		token     string
	}{
		"other principal": {state: state, principal: "user-2", token: token},
		"data changed":    {state: State{Data: []byte("cipher2"), UpdatedAt: start}, principal: "user-1", token: token},
		"marker changed":  {state: State{Data: []byte("cipher"), UpdatedAt: start.Add(time.Second)}, principal: "user-1", token: token},
		"garbage":         {state: state, principal: "user-1", token: "not-a-token"},
		"no separator":    {state: state, principal: "user-1", token: "abc"},
		"empty":           {state: state, principal: "user-1", token: ""},
	}
	for name, tc := range cases {
		if gen.Check(tc.state, tc.principal, tc.token) {
			t.Fatalf("%s: expected token to be rejected", name)
		}
	}

	subSecond := State{Data: []byte("cipher"), UpdatedAt: start.Add(300 * time.Millisecond)}
	if !gen.Check(subSecond, "user-1", token) {
		t.Fatalf("expected marker to be compared at second precision")
	}
}

func TestRevealTokenDifferentKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	gen := newGenerator(t, clock)
	other, err := NewRevealTokenGenerator([]byte("another-key"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	state := State{Data: []byte("cipher")}
	if other.Check(state, "user-1", gen.Make(state, "user-1")) {
		t.Fatalf("expected tokens to be bound to the signing key")
	}
	salted, _ := NewRevealTokenGenerator([]byte("signing-key"), WithClock(clock.Now), WithKeySalt("other"))
	if salted.Check(state, "user-1", gen.Make(state, "user-1")) {
		t.Fatalf("expected tokens to be bound to the key salt")
	}
}

func TestNewRevealTokenGeneratorRequiresKey(t *testing.T) {
	if _, err := NewRevealTokenGenerator(nil); err == nil {
		t.Fatalf("expected error without key")
	}
}
