package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/resilience"
)

// Config is the full application configuration, loaded from a YAML file
// with environment variable expansion. Routing fields (default provider,
// fallbacks) can additionally be overridden per call via environment
// variables, see RoutingSource.
type Config struct {
	DefaultProvider   string                    `yaml:"default_provider"`
	FallbackProviders []string                  `yaml:"fallback_providers"`
	Providers         map[string]ProviderConfig `yaml:"providers"`
	Database          DatabaseConfig            `yaml:"database"`
	Server            ServerConfig              `yaml:"server"`
	Breaker           BreakerConfig             `yaml:"breaker"`
	Retry             RetryConfig               `yaml:"retry"`
	Worker            WorkerConfig              `yaml:"worker"`
}

// ProviderConfig configures a single transcription backend.
type ProviderConfig struct {
	// Type selects the executor implementation. Currently "openai" covers
	// every OpenAI-compatible transcription endpoint.
	Type    string `yaml:"type"`
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path,omitempty"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn,omitempty"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	CooldownSec      int `yaml:"cooldown_sec"`
}

// Cooldown returns the open-circuit cooldown as a duration.
func (b BreakerConfig) Cooldown() time.Duration {
	return time.Duration(b.CooldownSec) * time.Second
}

// RetryConfig is the YAML shape of the retry ladder.
type RetryConfig struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialBackoffSec int     `yaml:"initial_backoff_sec"`
	MaxBackoffSec     int     `yaml:"max_backoff_sec"`
	BackoffFactor     float64 `yaml:"backoff_factor"`
	Jitter            float64 `yaml:"jitter"`
}

// Policy converts the YAML shape into the runtime retry policy.
func (r RetryConfig) Policy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts:    r.MaxAttempts,
		InitialBackoff: time.Duration(r.InitialBackoffSec) * time.Second,
		MaxBackoff:     time.Duration(r.MaxBackoffSec) * time.Second,
		BackoffFactor:  r.BackoffFactor,
		Jitter:         r.Jitter,
	}
}

type WorkerConfig struct {
	Concurrency     int `yaml:"concurrency"`
	PollIntervalSec int `yaml:"poll_interval_sec"`
	BatchSize       int `yaml:"batch_size"`
}

// PollInterval returns the ledger poll interval as a duration.
func (w WorkerConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalSec) * time.Second
}

// Path is the config file location, set by the CLI --config flag.
var Path string

// Resolve loads the configuration from Path, from scriber.yaml in the
// working directory when present, or falls back to built-in defaults.
func Resolve() (*Config, error) {
	if Path != "" {
		return Load(Path)
	}
	if _, err := os.Stat("scriber.yaml"); err == nil {
		return Load("scriber.yaml")
	}
	return Default(), nil
}

// LoadEnv loads variables from the first .env file found near the working
// directory. Missing files are fine, system environment still applies.
func LoadEnv() error {
	for _, path := range []string{".env", ".env.local", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return apperrors.Wrapf(err, "load %s", path)
			}
			return nil
		}
	}
	return nil
}

// Load reads and validates the YAML configuration at path. ${VAR}
// references in string values are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, apperrors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes raw YAML into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.Wrap(err, "parse config")
	}
	cfg.expandEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config usable without any file, sqlite in the user
// cache directory and the built-in provider chain.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) expandEnv() {
	c.DefaultProvider = os.ExpandEnv(c.DefaultProvider)
	for i, p := range c.FallbackProviders {
		c.FallbackProviders[i] = os.ExpandEnv(p)
	}
	c.Database.DSN = os.ExpandEnv(c.Database.DSN)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	for name, p := range c.Providers {
		p.APIKey = os.ExpandEnv(p.APIKey)
		p.BaseURL = os.ExpandEnv(p.BaseURL)
		c.Providers[name] = p
	}
}

func (c *Config) applyDefaults() {
	if c.DefaultProvider == "" {
		c.DefaultProvider = "soniox"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = defaultSqlitePath()
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = 3
	}
	if c.Breaker.CooldownSec <= 0 {
		c.Breaker.CooldownSec = 60
	}
	if c.Retry == (RetryConfig{}) {
		c.Retry = RetryConfig{
			MaxAttempts:       5,
			InitialBackoffSec: 5,
			MaxBackoffSec:     600,
			BackoffFactor:     3.0,
			Jitter:            0.2,
		}
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 4
	}
	if c.Worker.PollIntervalSec <= 0 {
		c.Worker.PollIntervalSec = 15
	}
	if c.Worker.BatchSize <= 0 {
		c.Worker.BatchSize = 16
	}
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return apperrors.Wrap(apperrors.ErrInvalidConfig, "database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return apperrors.Wrap(apperrors.ErrInvalidConfig, "database.dsn is required for postgres")
		}
	default:
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "unknown database.driver %q", c.Database.Driver)
	}
	for name, p := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return apperrors.Wrap(apperrors.ErrInvalidConfig, "provider name must not be empty")
		}
		if p.Enabled && p.Type == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "provider %q has no type", name)
		}
	}
	return nil
}

// EnabledProviders returns the names of providers that are switched on,
// default provider first when it is among them.
func (c *Config) EnabledProviders() []string {
	var names []string
	if p, ok := c.Providers[c.DefaultProvider]; ok && p.Enabled {
		names = append(names, c.DefaultProvider)
	}
	for name, p := range c.Providers {
		if name == c.DefaultProvider || !p.Enabled {
			continue
		}
		names = append(names, name)
	}
	return names
}

func defaultSqlitePath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return dir + "/.scriber/jobs.db"
}
