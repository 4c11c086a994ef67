package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pkalnins/earshot/internal/skill"
)

const (
	DefaultConfigFile    = "config.yaml"
	DefaultOwner         = "default"
	DefaultStoragePath   = ".earshot/earshot.db"
	DefaultRateRequests  = 1
	DefaultRateWindow    = 15 * time.Minute
	DefaultWatchInterval = 15 * time.Minute
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Owner     string            `yaml:"owner"`
	Storage   StorageConfig     `yaml:"storage"`
	Twitter   TwitterConfig     `yaml:"twitter"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Skills    map[string]string `yaml:"skills"`
	Feed      FeedConfig        `yaml:"feed"`
	Watch     WatchConfig       `yaml:"watch"`
	Privacy   PrivacyConfig     `yaml:"privacy"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type TwitterConfig struct {
	BearerTokenEnv string `yaml:"bearer_token_env"`
	AccessTokenEnv string `yaml:"access_token_env"`
	UserID         string `yaml:"user_id"`
	Username       string `yaml:"username"`

	// Resolved from env vars at load time.
	BearerToken string `yaml:"-"`
	AccessToken string `yaml:"-"`
}

type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

type FeedConfig struct {
	URL string `yaml:"url"`
}

type WatchConfig struct {
	Interval Duration `yaml:"interval"`
}

type PrivacyConfig struct {
	Redact RedactConfig `yaml:"redact"`
}

type RedactConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Patterns []string `yaml:"patterns"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars,
// and validates. Unknown keys anywhere in the file fail the load.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Owner == "" {
		cfg.Owner = DefaultOwner
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = DefaultRateRequests
	}
	if cfg.RateLimit.Window.Duration == 0 {
		cfg.RateLimit.Window.Duration = DefaultRateWindow
	}
	if cfg.Watch.Interval.Duration == 0 {
		cfg.Watch.Interval.Duration = DefaultWatchInterval
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Twitter.BearerTokenEnv != "" {
		cfg.Twitter.BearerToken = os.Getenv(cfg.Twitter.BearerTokenEnv)
	}
	if cfg.Twitter.AccessTokenEnv != "" {
		cfg.Twitter.AccessToken = os.Getenv(cfg.Twitter.AccessTokenEnv)
	}
}

func validate(cfg *Config) error {
	if len(cfg.Skills) == 0 {
		return errors.New("skills: at least one skill must be configured")
	}

	for name, state := range cfg.Skills {
		if !skill.Known(name) {
			return fmt.Errorf("skills: unknown skill %q (known: %s)", name, strings.Join(skill.Names(), ", "))
		}
		switch state {
		case skill.StateDisabled, skill.StatePublic, skill.StatePrivate:
			// valid
		default:
			return fmt.Errorf("skills.%s: invalid state %q (want disabled, public or private)", name, state)
		}
	}

	if cfg.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests: must not be negative, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window.Duration < 0 {
		return fmt.Errorf("rate_limit.window: must not be negative, got %s", cfg.RateLimit.Window.Duration)
	}
	if cfg.Watch.Interval.Duration <= 0 {
		return fmt.Errorf("watch.interval: must be positive, got %s", cfg.Watch.Interval.Duration)
	}

	return nil
}
