package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-crypta/pkg/keys"
)

// Config captures module-level configuration knobs.
type Config struct {
	Invites       InvitesConfig       `mapstructure:"invites" json:"invites"`
	Reveal        RevealConfig        `mapstructure:"reveal" json:"reveal"`
	Keys          KeysConfig          `mapstructure:"keys" json:"keys"`
	Slugs         SlugsConfig         `mapstructure:"slugs" json:"slugs"`
	Notifications NotificationsConfig `mapstructure:"notifications" json:"notifications"`
}

// InvitesConfig controls invite expiry and one-time token size.
type InvitesConfig struct {
	DaysToExpire int `mapstructure:"days_to_expire" json:"days_to_expire"`
	TokenSize    int `mapstructure:"token_size" json:"token_size"`
}

// Window returns the invite validity window.
func (c InvitesConfig) Window() time.Duration {
	return time.Duration(c.DaysToExpire) * 24 * time.Hour
}

// RevealConfig configures reveal tokens. An empty SigningKey makes the
// module generate a per-process key.
type RevealConfig struct {
	TokenTTL   time.Duration `mapstructure:"token_ttl" json:"token_ttl"`
	SigningKey string        `mapstructure:"signing_key" json:"signing_key"`
	KeySalt    string        `mapstructure:"key_salt" json:"key_salt"`
}

// KeysConfig tunes the argon2id derivation used to wrap private keys.
type KeysConfig struct {
	Time      uint32 `mapstructure:"time" json:"time"`
	MemoryKiB uint32 `mapstructure:"memory_kib" json:"memory_kib"`
	Threads   uint8  `mapstructure:"threads" json:"threads"`
}

// Params converts the section into codec parameters.
func (c KeysConfig) Params() keys.Params {
	return keys.Params{Time: c.Time, MemoryKiB: c.MemoryKiB, Threads: c.Threads}
}

// SlugsConfig bounds generated vault slugs.
type SlugsConfig struct {
	MaxLength int `mapstructure:"max_length" json:"max_length"`
}

// NotificationsConfig toggles dispatch, overrides template ids per kind,
// bounds delivery retries and picks the subject locale used when a
// recipient has none.
type NotificationsConfig struct {
	Disabled      bool              `mapstructure:"disabled" json:"disabled"`
	Templates     map[string]string `mapstructure:"templates" json:"templates"`
	MaxAttempts   int               `mapstructure:"max_attempts" json:"max_attempts"`
	DefaultLocale string            `mapstructure:"default_locale" json:"default_locale"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	params := keys.DefaultParams()
	return Config{
		Invites: InvitesConfig{
			DaysToExpire: 30,
			TokenSize:    16,
		},
		Reveal: RevealConfig{
			TokenTTL: 180 * time.Second,
			KeySalt:  "crypta.reveal",
		},
		Keys: KeysConfig{
			Time:      params.Time,
			MemoryKiB: params.MemoryKiB,
			Threads:   params.Threads,
		},
		Slugs: SlugsConfig{
			MaxLength: 100,
		},
		Notifications: NotificationsConfig{
			MaxAttempts:   1,
			DefaultLocale: "en",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Invites.DaysToExpire <= 0 {
		return errors.New("invites.days_to_expire must be > 0")
	}
	if c.Invites.TokenSize < 16 {
		return fmt.Errorf("invites.token_size must be >= 16")
	}
	if c.Reveal.TokenTTL <= 0 {
		return fmt.Errorf("reveal.token_ttl must be > 0")
	}
	if c.Reveal.KeySalt == "" {
		return errors.New("reveal.key_salt is required")
	}
	if err := c.Keys.Params().Validate(); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if c.Slugs.MaxLength < 16 {
		return fmt.Errorf("slugs.max_length must be >= 16")
	}
	if c.Notifications.MaxAttempts < 1 {
		return fmt.Errorf("notifications.max_attempts must be >= 1")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// When cfgx.Build yields a zero value a lightweight decoder is used instead.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

// WithDefaults fills zero fields from Defaults.
func (c Config) WithDefaults() Config {
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Invites.DaysToExpire == 0 {
		c.Invites.DaysToExpire = defaults.Invites.DaysToExpire
	}
	if c.Invites.TokenSize == 0 {
		c.Invites.TokenSize = defaults.Invites.TokenSize
	}
	if c.Reveal.TokenTTL == 0 {
		c.Reveal.TokenTTL = defaults.Reveal.TokenTTL
	}
	if c.Reveal.KeySalt == "" {
		c.Reveal.KeySalt = defaults.Reveal.KeySalt
	}
	if c.Keys == (KeysConfig{}) {
		c.Keys = defaults.Keys
	}
	if c.Slugs.MaxLength == 0 {
		c.Slugs.MaxLength = defaults.Slugs.MaxLength
	}
	if c.Notifications.MaxAttempts == 0 {
		c.Notifications.MaxAttempts = defaults.Notifications.MaxAttempts
	}
	if c.Notifications.DefaultLocale == "" {
		c.Notifications.DefaultLocale = defaults.Notifications.DefaultLocale
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	if reveal, ok := input["reveal"].(map[string]any); ok {
		if raw, ok := reveal["token_ttl"].(string); ok {
			ttl, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("reveal.token_ttl: %w", err)
			}
			reveal["token_ttl"] = int64(ttl)
		}
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
