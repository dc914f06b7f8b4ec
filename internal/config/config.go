package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
)

// Storage drivers.
const (
	DriverPostgres      = "postgres"
	DriverSQLite        = "sqlite"
	DriverRedis         = "redis"
	DriverElasticsearch = "elasticsearch"
)

// Config holds the scopeq service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds JWT verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"` // optional; checked when set
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds storage backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // postgres, sqlite, redis, elasticsearch (default: postgres)
	DSN              string   `yaml:"dsn"`    // postgres, sqlite
	Addrs            []string `yaml:"addrs"`  // redis, elasticsearch
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	AutoMigrate      bool     `yaml:"auto_migrate"`
}

// SearchConfig holds engine-wide and per-resource page policies.
type SearchConfig struct {
	DefaultLimit int                       `yaml:"default_limit"`
	MaxLimit     int                       `yaml:"max_limit"`
	Overflow     string                    `yaml:"overflow"` // clamp, reject
	Resources    map[string]ResourceConfig `yaml:"resources"`
}

// ResourceConfig overrides the page policy of one resource. Zero fields inherit.
type ResourceConfig struct {
	DefaultLimit int    `yaml:"default_limit"`
	MaxLimit     int    `yaml:"max_limit"`
	Overflow     string `yaml:"overflow"`
}

// AuditConfig holds audit event publishing settings.
type AuditConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	MaxRetries int      `yaml:"max_retries"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} references.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the environment name from SCOPEQ_ENV, then ENV, defaulting to "local".
func GetEnv() string {
	for _, key := range []string{"SCOPEQ_ENV", "ENV"} {
		if env := os.Getenv(key); env != "" {
			return env
		}
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Audit.Topic == "" {
		c.Audit.Topic = "scopeq.search.audit"
	}
	if c.Audit.MaxRetries <= 0 {
		c.Audit.MaxRetries = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverRedis, DriverElasticsearch:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, redis, elasticsearch, got %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if _, err := c.Search.PolicyFor("", page.DefaultPolicy()); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for name := range c.Search.Resources {
		if _, err := c.Search.PolicyFor(name, page.DefaultPolicy()); err != nil {
			return fmt.Errorf("search.resources.%s: %w", name, err)
		}
	}
	if c.Audit.Enabled && len(c.Audit.Brokers) == 0 {
		return fmt.Errorf("audit.brokers is required when audit is enabled")
	}
	return nil
}

// Overrides reports whether any page policy setting is present.
func (s SearchConfig) Overrides() bool {
	return s.DefaultLimit > 0 || s.MaxLimit > 0 || s.Overflow != "" || len(s.Resources) > 0
}

// PolicyFor layers the engine-wide settings and the override of resource name
// over base, the resource's declared policy. Unset fields keep base values.
func (s SearchConfig) PolicyFor(name string, base page.Policy) (page.Policy, error) {
	def, maxLimit, overflow := base.DefaultLimit(), base.MaxLimit(), base.Overflow()
	layers := []ResourceConfig{{DefaultLimit: s.DefaultLimit, MaxLimit: s.MaxLimit, Overflow: s.Overflow}}
	if r, ok := s.Resources[name]; ok {
		layers = append(layers, r)
	}
	for _, l := range layers {
		if l.DefaultLimit > 0 {
			def = l.DefaultLimit
		}
		if l.MaxLimit > 0 {
			maxLimit = l.MaxLimit
		}
		if l.Overflow != "" {
			overflow = page.Overflow(l.Overflow)
		}
	}
	return page.NewPolicy(def, maxLimit, overflow)
}

// findConfigPath returns the first existing <env>.yaml among the candidate
// directories, or the ./config path when none exists.
func findConfigPath(env string) string {
	filename := env + ".yaml"
	for _, dir := range configDirs() {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join("config", filename)
}

// configDirs lists SCOPEQ_CONFIG_DIR, ./config and the repository config
// directory, in lookup order.
func configDirs() []string {
	var dirs []string
	if dir := os.Getenv("SCOPEQ_CONFIG_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "config")
	if _, file, _, ok := runtime.Caller(0); ok {
		root := filepath.Dir(filepath.Dir(filepath.Dir(file)))
		dirs = append(dirs, filepath.Join(root, "config"))
	}
	return dirs
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-fallback}. An unset VAR without
// a fallback expands to the empty string.
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(match []byte) []byte {
		sub := envRef.FindSubmatch(match)
		if val, ok := os.LookupEnv(string(sub[1])); ok && val != "" {
			return []byte(val)
		}
		return sub[3]
	})
}
