// Package config loads rpcframe settings from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/rpcframe/codec"
	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/transport"
)

// FileName is the config file looked up in the standard locations.
const FileName = "rpcframe.toml"

// Environment overrides, applied after the file.
const (
	EnvLogLevel = "RPCFRAME_LOG_LEVEL"
	EnvAddress  = "RPCFRAME_ADDRESS"
)

// Transport modes.
const (
	ModeStdio     = "stdio"
	ModeConnect   = "connect"
	ModeListen    = "listen"
	ModeWebSocket = "websocket"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the contents of rpcframe.toml.
type Config struct {
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
}

// TransportConfig selects and tunes the connection binding.
type TransportConfig struct {
	Mode             string   `toml:"mode"`
	Address          string   `toml:"address"`
	MaxContentLength int64    `toml:"max_content_length"`
	ShutdownTimeout  Duration `toml:"shutdown_timeout"`
}

// LogConfig configures diagnostic logging. An empty File means stderr.
type LogConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when no file is found.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Mode:            ModeStdio,
			Address:         "127.0.0.1:9257",
			ShutdownTimeout: Duration{transport.DefaultShutdownTimeout},
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// StandardPaths returns the config file locations in order of priority.
func StandardPaths() []string {
	paths := []string{}

	// 1. Current directory
	paths = append(paths, FileName)

	// 2. ~/.config/rpcframe/rpcframe.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rpcframe", FileName))
	}

	return paths
}

// Load reads path over the defaults, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the first config file found in StandardPaths. With no
// file it returns Default with environment overrides, and an empty path.
func LoadDefault() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvAddress); v != "" {
		c.Transport.Address = v
	}
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case ModeStdio:
	case ModeConnect, ModeListen, ModeWebSocket:
		if c.Transport.Address == "" {
			return fmt.Errorf("%w: transport.address is required for mode %q", ErrInvalid, c.Transport.Mode)
		}
	default:
		return fmt.Errorf("%w: unknown transport.mode %q", ErrInvalid, c.Transport.Mode)
	}
	if c.Transport.MaxContentLength < 0 {
		return fmt.Errorf("%w: transport.max_content_length must not be negative", ErrInvalid)
	}
	if c.Transport.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("%w: transport.shutdown_timeout must not be negative", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.Log.MaxSizeMB < 0 {
		return fmt.Errorf("%w: log.max_size_mb must not be negative", ErrInvalid)
	}
	return nil
}

// TransportConfig converts the settings for the transport package.
func (c *Config) TransportConfig(log *logging.Logger) transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Limits = codec.Limits{MaxContentLength: c.Transport.MaxContentLength}
	if c.Transport.ShutdownTimeout.Duration > 0 {
		cfg.ShutdownTimeout = c.Transport.ShutdownTimeout.Duration
	}
	if log != nil {
		cfg.Logger = log
	}
	return cfg
}

// LogOptions converts the settings for logging.Open.
func (c *Config) LogOptions() logging.Options {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Options{
		Level:     level,
		File:      c.Log.File,
		MaxSizeMB: c.Log.MaxSizeMB,
	}
}
