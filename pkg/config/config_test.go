package config

import (
	"testing"
	"time"
)

func TestLoadFromMap(t *testing.T) {
	input := map[string]any{
		"invites": map[string]any{
			"days_to_expire": 7,
		},
		"reveal": map[string]any{
			"token_ttl":   int64(90 * time.Second),
			"signing_key": "k",
		},
		"notifications": map[string]any{
			"templates": map[string]any{"invite-sent": "custom.invite"},
		},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Invites.DaysToExpire != 7 {
		t.Fatalf("expected 7 days, got %d", cfg.Invites.DaysToExpire)
	}
	if cfg.Invites.TokenSize != 16 {
		t.Fatalf("expected default token size, got %d", cfg.Invites.TokenSize)
	}
	if cfg.Reveal.TokenTTL != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %s", cfg.Reveal.TokenTTL)
	}
	if cfg.Notifications.Templates["invite-sent"] != "custom.invite" {
		t.Fatalf("expected template override, got %v", cfg.Notifications.Templates)
	}
}

func TestLoadFromStruct(t *testing.T) {
	input := Config{
		Keys:  KeysConfig{Time: 2, MemoryKiB: 1024, Threads: 1},
		Slugs: SlugsConfig{MaxLength: 40},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Keys.Time != 2 || cfg.Keys.MemoryKiB != 1024 {
		t.Fatalf("expected key params to be kept, got %+v", cfg.Keys)
	}
	if cfg.Slugs.MaxLength != 40 {
		t.Fatalf("expected slug length 40, got %d", cfg.Slugs.MaxLength)
	}
	if cfg.Invites.DaysToExpire != 30 || cfg.Reveal.TokenTTL != 180*time.Second {
		t.Fatalf("expected defaults to fill the rest, got %+v", cfg)
	}
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Notifications.DefaultLocale != "en" {
		t.Fatalf("expected en default locale, got %q", cfg.Notifications.DefaultLocale)
	}
	if cfg.Invites.Window() != 30*24*time.Hour {
		t.Fatalf("unexpected invite window %s", cfg.Invites.Window())
	}
}

func TestValidateRejectsShortTokens(t *testing.T) {
	cfg := Defaults()
	cfg.Invites.TokenSize = 4
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
