package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the daemon's YAML config file.
const FileName = "domkit.yaml"

// Config is the domkitd daemon's configuration: where it serves the
// devtools HTTP/WS endpoint, how it snapshots diagnostics, and the default
// workload for its bench subcommand.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Bench       BenchConfig       `yaml:"bench"`

	path string
}

// ServerConfig configures the devtools HTTP+WS listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DiagnosticsConfig configures the periodic SQLite diagnostics snapshot.
type DiagnosticsConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	SQLitePath       string        `yaml:"sqlitePath"`
}

// BenchConfig configures the default workload for `domkitd bench`.
type BenchConfig struct {
	Handlers int `yaml:"handlers"`
	Events   int `yaml:"events"`
}

// envOverrides mirrors Config's leaf fields as pointers, so a field is only
// set here when its DOMKITD_* variable is actually present in the
// environment — letting Load apply "env wins over file" without the
// defaulting library clobbering a value the file already supplied.
type envOverrides struct {
	ServerHost       *string        `env:"DOMKITD_SERVER_HOST"`
	ServerPort       *int           `env:"DOMKITD_SERVER_PORT"`
	SnapshotInterval *time.Duration `env:"DOMKITD_SNAPSHOT_INTERVAL"`
	SQLitePath       *string        `env:"DOMKITD_SQLITE_PATH"`
	BenchHandlers    *int           `env:"DOMKITD_BENCH_HANDLERS"`
	BenchEvents      *int           `env:"DOMKITD_BENCH_EVENTS"`
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Diagnostics.SnapshotInterval == 0 {
		c.Diagnostics.SnapshotInterval = 30 * time.Second
	}
	if c.Diagnostics.SQLitePath == "" {
		c.Diagnostics.SQLitePath = "domkitd.db"
	}
	if c.Bench.Handlers == 0 {
		c.Bench.Handlers = 500
	}
	if c.Bench.Events == 0 {
		c.Bench.Events = 20000
	}
}

func (c *Config) applyOverrides(o envOverrides) {
	if o.ServerHost != nil {
		c.Server.Host = *o.ServerHost
	}
	if o.ServerPort != nil {
		c.Server.Port = *o.ServerPort
	}
	if o.SnapshotInterval != nil {
		c.Diagnostics.SnapshotInterval = *o.SnapshotInterval
	}
	if o.SQLitePath != nil {
		c.Diagnostics.SQLitePath = *o.SQLitePath
	}
	if o.BenchHandlers != nil {
		c.Bench.Handlers = *o.BenchHandlers
	}
	if o.BenchEvents != nil {
		c.Bench.Events = *o.BenchEvents
	}
}

// Default returns a Config populated with the same built-in defaults Load
// falls back to when no file or environment override is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads domkit.yaml from dir if present, loads a sibling .env file if
// present, then overlays any DOMKITD_* environment variables that are
// actually set — env wins over the file, which wins over built-in
// defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		cfg.path = path
	case os.IsNotExist(err):
		// No file is fine; env vars and defaults carry the whole config.
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	_ = godotenv.Load(filepath.Join(dir, ".env")) // optional, local dev only

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("config: applying environment overrides: %w", err)
	}
	cfg.applyOverrides(overrides)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Diagnostics.SnapshotInterval <= 0 {
		return fmt.Errorf("config: diagnostics.snapshotInterval must be positive")
	}
	if c.Bench.Handlers <= 0 || c.Bench.Events <= 0 {
		return fmt.Errorf("config: bench.handlers and bench.events must be positive")
	}
	return nil
}

// Addr returns the host:port the devtools server should listen on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Path returns the file domkit.yaml was loaded from, or "" if none existed.
func (c *Config) Path() string {
	return c.path
}
