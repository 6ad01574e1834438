// Package config loads symreg settings from YAML, TOML or CUE files.
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

	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Storage kinds.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindBadger = "badger"
	KindRedis  = "redis"
)

// Config is the top-level configuration.
type Config struct {
	Storage Storage `yaml:"storage" toml:"storage" json:"storage"`
	Log     Log     `yaml:"log" toml:"log" json:"log"`

	// FlushInterval is a time.ParseDuration string. Empty disables periodic
	// flushing; changes are then flushed on demand and on close.
	FlushInterval string `yaml:"flush_interval" toml:"flush_interval" json:"flush_interval"`

	// Normalize names a Unicode normal form (NFC, NFD, NFKC, NFKD) applied
	// to every name. Empty keeps names byte-exact.
	Normalize string `yaml:"normalize" toml:"normalize" json:"normalize"`

	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr" json:"metrics_addr"`
}

// Storage selects and configures the backend.
type Storage struct {
	Kind   string `yaml:"kind" toml:"kind" json:"kind"`
	Path   string `yaml:"path" toml:"path" json:"path"`
	Driver string `yaml:"driver" toml:"driver" json:"driver"`

	RedisAddr     string `yaml:"redis_addr" toml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" toml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" toml:"redis_db" json:"redis_db"`
	RedisKey      string `yaml:"redis_key" toml:"redis_key" json:"redis_key"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"` // "console" | "json"

	// File enables rotation through lumberjack. Empty logs to stderr.
	File       string `yaml:"file" toml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days" json:"max_age_days"`
}

// Default returns an in-memory configuration.
func Default() Config {
	return Config{
		Storage: Storage{Kind: KindMemory},
		Log: Log{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		FlushInterval: "1s",
		MetricsAddr:   ":9464",
	}
}

// Load reads path on top of Default. The decoder is chosen by extension.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("unknown TOML key %q", undecoded[0].String())
		}
	case ".cue":
		value := cuecontext.New().CompileBytes(data, cuecontext.Filename(path))
		if err := value.Err(); err != nil {
			return cfg, fmt.Errorf("failed to compile CUE: %w", err)
		}
		if err := value.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode CUE: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	switch c.Storage.Kind {
	case KindMemory:
	case KindSQLite, KindBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for %s", c.Storage.Kind)
		}
	case KindRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for redis")
		}
	default:
		return fmt.Errorf("unknown storage kind %q", c.Storage.Kind)
	}

	switch c.Storage.Driver {
	case "", "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unknown sqlite driver %q", c.Storage.Driver)
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	switch strings.ToUpper(c.Normalize) {
	case "", "NFC", "NFD", "NFKC", "NFKD":
	default:
		return fmt.Errorf("unknown normal form %q", c.Normalize)
	}

	if _, err := c.FlushEvery(); err != nil {
		return err
	}
	return nil
}

// FlushEvery parses FlushInterval. Zero means periodic flushing is off.
func (c Config) FlushEvery() (time.Duration, error) {
	if c.FlushInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.FlushInterval)
	if err != nil {
		return 0, fmt.Errorf("flush_interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("flush_interval must not be negative, got %s", d)
	}
	return d, nil
}

// NormalForm returns the configured Unicode form. ok is false when names
// are kept byte-exact.
func (c Config) NormalForm() (form norm.Form, ok bool) {
	switch strings.ToUpper(c.Normalize) {
	case "NFC":
		return norm.NFC, true
	case "NFD":
		return norm.NFD, true
	case "NFKC":
		return norm.NFKC, true
	case "NFKD":
		return norm.NFKD, true
	}
	return norm.NFC, false
}
