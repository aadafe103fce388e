package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Zipline  ZiplineConfig
	Sandbox  SandboxConfig
	Download DownloadConfig
	Logging  LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090" toml:"port" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" toml:"host" yaml:"host"`
}

// ZiplineConfig holds remote file-host configuration.
// Token is the shared secret that both authenticates against the remote API
// and derives the caller's sandbox identity.
type ZiplineConfig struct {
	Endpoint string `envconfig:"ZIPLINE_ENDPOINT" default:"http://localhost:3000" toml:"endpoint" yaml:"endpoint"`
	Token    string `envconfig:"ZIPLINE_TOKEN" toml:"token" yaml:"token"`
}

// SandboxConfig holds per-identity sandbox configuration.
type SandboxConfig struct {
	BaseDir               string        `envconfig:"SANDBOX_BASE_DIR" toml:"base_dir" yaml:"base_dir"`
	DisableUserSandboxing bool          `envconfig:"DISABLE_USER_SANDBOXING" default:"false" toml:"disable_user_sandboxing" yaml:"disable_user_sandboxing"`
	SweepInterval         time.Duration `envconfig:"SANDBOX_SWEEP_INTERVAL" default:"1h" toml:"sweep_interval" yaml:"sweep_interval"`
}

// DownloadConfig holds URL download configuration.
type DownloadConfig struct {
	TimeoutMS int `envconfig:"DOWNLOAD_TIMEOUT_MS" default:"30000" toml:"timeout_ms" yaml:"timeout_ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development" yaml:"development"`
}

// Timeout returns the download timeout as a duration.
func (d DownloadConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFile loads configuration from a TOML or YAML file, then applies
// environment variable overrides on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	// Environment wins over file values. Defaults from envconfig tags must
	// not clobber file-provided settings, so only explicitly set variables
	// are overlaid.
	var env Config
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	overlayEnv(&cfg, &env)
	cfg.applyDefaults()
	return &cfg, nil
}

func overlayEnv(cfg, env *Config) {
	set := func(key string) bool {
		_, ok := os.LookupEnv(key)
		return ok
	}
	if set("PORT") {
		cfg.Server.Port = env.Server.Port
	}
	if set("HOST") {
		cfg.Server.Host = env.Server.Host
	}
	if set("ZIPLINE_ENDPOINT") {
		cfg.Zipline.Endpoint = env.Zipline.Endpoint
	}
	if set("ZIPLINE_TOKEN") {
		cfg.Zipline.Token = env.Zipline.Token
	}
	if set("SANDBOX_BASE_DIR") {
		cfg.Sandbox.BaseDir = env.Sandbox.BaseDir
	}
	if set("DISABLE_USER_SANDBOXING") {
		cfg.Sandbox.DisableUserSandboxing = env.Sandbox.DisableUserSandboxing
	}
	if set("SANDBOX_SWEEP_INTERVAL") {
		cfg.Sandbox.SweepInterval = env.Sandbox.SweepInterval
	}
	if set("DOWNLOAD_TIMEOUT_MS") {
		cfg.Download.TimeoutMS = env.Download.TimeoutMS
	}
	if set("LOG_LEVEL") {
		cfg.Logging.Level = env.Logging.Level
	}
	if set("LOG_DEV") {
		cfg.Logging.Development = env.Logging.Development
	}
	if cfg.Sandbox.SweepInterval == 0 {
		cfg.Sandbox.SweepInterval = time.Hour
	}
	if cfg.Download.TimeoutMS == 0 {
		cfg.Download.TimeoutMS = 30000
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8090"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Zipline.Endpoint == "" {
		cfg.Zipline.Endpoint = "http://localhost:3000"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Zipline: ZiplineConfig{
			Endpoint: "http://localhost:3000",
		},
		Sandbox: SandboxConfig{
			SweepInterval: time.Hour,
		},
		Download: DownloadConfig{
			TimeoutMS: 30000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Sandbox.BaseDir == "" {
		c.Sandbox.BaseDir = filepath.Join(os.TempDir(), "zipline_uploads")
	}
}
