// Package config loads the translator configuration file.
//
// Example:
//
//	flavor: cosmosdb
//	encoding: text
//	procedures: ./procedures
//	watch_procedures: true
//	log_level: debug
//	cache:
//	  backend: sqlite
//	  path: ~/.cache/cyphergremlin.db
//	  ttl: 24h
//
// Unknown keys are rejected. Command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cyphergremlin/internal/cache"
	"github.com/roach88/cyphergremlin/internal/flavor"
)

// Encodings accepted by Config.Encoding.
var Encodings = []string{"text", "bytecode"}

// Config is the decoded configuration file.
type Config struct {
	Flavor          string `yaml:"flavor"`
	Encoding        string `yaml:"encoding"`
	Procedures      string `yaml:"procedures"`
	WatchProcedures bool   `yaml:"watch_procedures"`
	LogLevel        string `yaml:"log_level"`
	Cache           Cache  `yaml:"cache"`
}

// Cache configures the translation cache.
type Cache struct {
	Backend string   `yaml:"backend"`
	Path    string   `yaml:"path"`
	Size    int      `yaml:"size"`
	TTL     Duration `yaml:"ttl"`
}

// Duration is a time.Duration written as "90s" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Flavor:   flavor.Default,
		Encoding: "text",
		LogLevel: "info",
		Cache: Cache{
			Backend: cache.BackendMemory,
			Size:    cache.DefaultSize,
		},
	}
}

// Load reads the file at path over Default. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML over Default and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks names against the known flavors, encodings, cache
// backends and log levels.
func (c Config) Validate() error {
	if _, err := flavor.Lookup(c.Flavor); err != nil {
		return err
	}
	if !contains(Encodings, c.Encoding) {
		return fmt.Errorf("unknown encoding %q (known: %v)", c.Encoding, Encodings)
	}
	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendMemory:
	case cache.BackendSQLite, cache.BackendBadger:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache backend %s requires cache.path", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// CacheOptions converts the cache section for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Path:    expandHome(c.Cache.Path),
		Size:    c.Cache.Size,
		TTL:     time.Duration(c.Cache.TTL),
	}
}

// ParseLevel maps a log level name to a slog level. The empty name is
// info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
