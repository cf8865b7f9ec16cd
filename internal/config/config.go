package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up when --config is not given.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig locates PostgreSQL. URL wins over the individual fields.
type DatabaseConfig struct {
	URL           string `yaml:"url,omitempty"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password,omitempty"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"sslmode"`
	MaxConns      int32  `yaml:"max_conns"`
	RunMigrations bool   `yaml:"run_migrations"`
}

// LedgerConfig controls recurring processing.
type LedgerConfig struct {
	Timezone       string `yaml:"timezone"` // IANA name, "" or "Local" for the host zone
	ProcessOnStart bool   `yaml:"process_on_start"`
}

// AuthConfig holds the secret that seals security answers.
type AuthConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads a tally.yaml file from disk. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new install. The
// encryption key is left empty for the caller to generate.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			User:          "postgres",
			Name:          "tally",
			SSLMode:       "disable",
			MaxConns:      10,
			RunMigrations: true,
		},
		Ledger: LedgerConfig{
			Timezone:       "Local",
			ProcessOnStart: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnv overrides fields from TALLY_* environment variables. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TALLY_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("TALLY_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := getenv("TALLY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("TALLY_ENCRYPTION_KEY"); v != "" {
		c.Auth.EncryptionKey = v
	}
	if v := getenv("TALLY_TIMEZONE"); v != "" {
		c.Ledger.Timezone = v
	}
}

// Validate reports every problem found in the config.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %q is not a valid level", c.Log.Level))
		}
	}
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		errs = append(errs, fmt.Errorf("server.address: %w", err))
	}
	if c.Auth.EncryptionKey == "" {
		errs = append(errs, errors.New("auth.encryption_key is required"))
	}
	return errors.Join(errs...)
}

// Location resolves the ledger timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	switch c.Ledger.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ledger.timezone: %w", err)
	}
	return loc, nil
}

// DSN returns the PostgreSQL connection URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}
