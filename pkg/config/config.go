// Package config loads productlens settings from a TOML file.
//
// The file is optional. Without --config the CLI looks for
// $XDG_CONFIG_HOME/productlens/config.toml (or ~/.config/productlens/config.toml)
// and falls back to [Default] when it does not exist. Command-line flags
// override file values.
//
// # Example
//
//	[analysis]
//	exclude_categories = ["sandbox"]
//	include_internal = false
//
//	[render]
//	formats = ["svg", "png"]
//	exclude_nodes = ["staging.legacy"]
//
//	[render.styles.finance]
//	shape = "box"
//	color = "navy"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	session_ttl = "30m"
//	max_sessions = 32
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/productlens/pkg/cache"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/render"
	"github.com/matzehuels/productlens/pkg/render/nodelink"
	"github.com/matzehuels/productlens/pkg/session"
)

const (
	appName  = "productlens"
	fileName = "config.toml"

	// DefaultAddr is the listen address of the HTTP API.
	DefaultAddr = ":8080"
)

// Duration is a time.Duration written as a string ("30m", "24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full settings file.
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Render   Render   `toml:"render"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Analysis configures product classification.
type Analysis struct {
	ExcludeCategories []string `toml:"exclude_categories"`
	AllowedCategories []string `toml:"allowed_categories"`
	Strict            bool     `toml:"strict"`
	ExtendedKinds     bool     `toml:"extended_kinds"`
	IncludeInternal   bool     `toml:"include_internal"`
}

// Render configures diagram output.
type Render struct {
	Formats      []string                  `toml:"formats"`
	ExcludeNodes []string                  `toml:"exclude_nodes"`
	Detailed     bool                      `toml:"detailed"`
	Styles       map[string]nodelink.Style `toml:"styles"`
}

// Cache selects the artifact cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	Prefix    string   `toml:"prefix"`
	TTL       Duration `toml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr        string   `toml:"addr"`
	SessionTTL  Duration `toml:"session_ttl"`
	MaxSessions int      `toml:"max_sessions"`

	// MaxUploadBytes bounds the size of an uploaded manifest.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Render: Render{Formats: []string{pipeline.DefaultFormat}},
		Cache:  Cache{Backend: cache.BackendFile, TTL: Duration{pipeline.TTLRender}},
		Server: Server{
			Addr:           DefaultAddr,
			SessionTTL:     Duration{session.DefaultTTL},
			MaxSessions:    session.DefaultMaxSessions,
			MaxUploadBytes: 64 << 20,
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the config file at path on top of [Default].
//
// An empty path uses [Path]; a missing default file is not an error. A
// missing explicit path is FILE_NOT_FOUND.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML on top of [Default] and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if err := c.AnalysisOptions().ValidateAndSetDefaults(); err != nil {
		return err
	}
	for _, f := range c.Render.Formats {
		if err := render.ValidateFormat(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render.formats")
		}
	}
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Server.MaxSessions < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_sessions must not be negative")
	}
	return nil
}

// AnalysisOptions converts the [analysis] table to pipeline options.
func (c *Config) AnalysisOptions() pipeline.Options {
	a := c.Analysis
	return pipeline.Options{
		ExcludeCategories: a.ExcludeCategories,
		AllowedCategories: a.AllowedCategories,
		Strict:            a.Strict,
		ExtendedKinds:     a.ExtendedKinds,
		IncludeInternal:   a.IncludeInternal,
	}
}

// RenderOptions converts the [render] table to render options for a view.
func (c *Config) RenderOptions(view, product string) pipeline.RenderOptions {
	r := c.Render
	return pipeline.RenderOptions{
		View:     view,
		Product:  product,
		Formats:  append([]string(nil), r.Formats...),
		Exclude:  append([]string(nil), r.ExcludeNodes...),
		Styles:   r.Styles,
		Detailed: r.Detailed,
	}
}

// CacheConfig converts the [cache] table. An empty dir is filled with
// defaultDir.
func (c *Config) CacheConfig(defaultDir string) cache.Config {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultDir
	}
	return cache.Config{
		Backend:   c.Cache.Backend,
		Dir:       dir,
		RedisAddr: c.Cache.RedisAddr,
		Prefix:    c.Cache.Prefix,
	}
}

// SessionConfig converts the session settings of the [server] table.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		TTL:         c.Server.SessionTTL.Duration,
		MaxSessions: c.Server.MaxSessions,
	}
}
