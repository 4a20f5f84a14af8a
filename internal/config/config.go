package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Remote    RemoteConfig    `yaml:"remote"`
	Database  DatabaseConfig  `yaml:"database"`
	Store     StoreConfig     `yaml:"store"`
	Stats     StatsConfig     `yaml:"stats"`
	Identity  IdentityConfig  `yaml:"identity"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RemoteConfig points at the hosted data store. Absence or a placeholder
// value is a normal, handled case: the local emulator takes over.
type RemoteConfig struct {
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"service_key"`
}

// DatabaseConfig describes an optional directly-connected Postgres database.
// Leaving host empty disables the direct path.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// StoreConfig locates the local emulated store on disk.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

type StatsConfig struct {
	WeekStart string `yaml:"week_start"` // "sunday" or "monday"
}

// IdentityConfig is the development fallback identity used when no identity
// provider is in front of the server.
type IdentityConfig struct {
	Login       string `yaml:"login"`
	DisplayName string `yaml:"display_name"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Configured reports whether the direct Postgres path is set up.
func (d DatabaseConfig) Configured() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_REMOTE_URL, LIFTLOG_REMOTE_SERVICE_KEY,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_STORE_DIR, LIFTLOG_STATS_WEEK_START,
//	LIFTLOG_IDENTITY_LOGIN, LIFTLOG_IDENTITY_DISPLAY_NAME
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTLOG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTLOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_REMOTE_URL"); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv("LIFTLOG_REMOTE_SERVICE_KEY"); v != "" {
		cfg.Remote.ServiceKey = v
	}
	if v := os.Getenv("LIFTLOG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIFTLOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIFTLOG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIFTLOG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIFTLOG_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIFTLOG_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := os.Getenv("LIFTLOG_STATS_WEEK_START"); v != "" {
		cfg.Stats.WeekStart = v
	}
	if v := os.Getenv("LIFTLOG_IDENTITY_LOGIN"); v != "" {
		cfg.Identity.Login = v
	}
	if v := os.Getenv("LIFTLOG_IDENTITY_DISPLAY_NAME"); v != "" {
		cfg.Identity.DisplayName = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "data"
	}
	if cfg.Stats.WeekStart == "" {
		cfg.Stats.WeekStart = "sunday"
	}
	if cfg.Identity.Login == "" {
		cfg.Identity.Login = "local"
	}
	if cfg.Identity.DisplayName == "" {
		cfg.Identity.DisplayName = "Local Dev User"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Configured() {
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required when database.host is set")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required when database.host is set")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required when database.host is set")
		}
	}
	if c.Stats.WeekStart != "sunday" && c.Stats.WeekStart != "monday" {
		return fmt.Errorf("stats.week_start must be %q or %q", "sunday", "monday")
	}
	return nil
}

// WeekStartDay converts the configured week-start name to a time.Weekday.
// Defaults to Sunday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.Stats.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}
