// ABOUTME: Configuration loading and parsing for console-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete console-gateway configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Presence PresenceConfig `yaml:"presence"`
	Console  ConsoleConfig  `yaml:"console"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds SQLite database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds the activity cache connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"-"`

	SessionTTLRaw string `yaml:"session_ttl"`
}

// PresenceConfig holds presence monitor timing configuration.
type PresenceConfig struct {
	PollInterval   time.Duration `yaml:"-"`
	CountdownTick  time.Duration `yaml:"-"`
	ReconfirmDelay time.Duration `yaml:"-"`
	SnapshotTTL    time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	PollIntervalRaw   string `yaml:"poll_interval"`
	CountdownTickRaw  string `yaml:"countdown_tick"`
	ReconfirmDelayRaw string `yaml:"reconfirm_delay"`
	SnapshotTTLRaw    string `yaml:"snapshot_ttl"`
}

// ConsoleConfig holds console navigation settings.
type ConsoleConfig struct {
	AppTitle  string `yaml:"app_title"`
	HomePath  string `yaml:"home_path"`
	LoginPath string `yaml:"login_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when fields are absent.
const (
	DefaultSessionTTL     = 7 * 24 * time.Hour
	DefaultPollInterval   = 60 * time.Second
	DefaultCountdownTick  = time.Second
	DefaultReconfirmDelay = 5 * time.Second
	DefaultSnapshotTTL    = 2 * time.Minute
	DefaultAppTitle       = "RelayDesk"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	return nil
}

// applyDefaults fills in defaults for optional fields.
func (c *Config) applyDefaults() {
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.Presence.PollInterval == 0 {
		c.Presence.PollInterval = DefaultPollInterval
	}
	if c.Presence.CountdownTick == 0 {
		c.Presence.CountdownTick = DefaultCountdownTick
	}
	if c.Presence.ReconfirmDelay == 0 {
		c.Presence.ReconfirmDelay = DefaultReconfirmDelay
	}
	if c.Presence.SnapshotTTL == 0 {
		c.Presence.SnapshotTTL = DefaultSnapshotTTL
	}
	if c.Console.AppTitle == "" {
		c.Console.AppTitle = DefaultAppTitle
	}
	if c.Console.HomePath == "" {
		c.Console.HomePath = "/"
	}
	if c.Console.LoginPath == "" {
		c.Console.LoginPath = "/login"
	}
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{cfg.Auth.SessionTTLRaw, "session_ttl", &cfg.Auth.SessionTTL},
		{cfg.Presence.PollIntervalRaw, "poll_interval", &cfg.Presence.PollInterval},
		{cfg.Presence.CountdownTickRaw, "countdown_tick", &cfg.Presence.CountdownTick},
		{cfg.Presence.ReconfirmDelayRaw, "reconfirm_delay", &cfg.Presence.ReconfirmDelay},
		{cfg.Presence.SnapshotTTLRaw, "snapshot_ttl", &cfg.Presence.SnapshotTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
