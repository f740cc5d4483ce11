package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/productlens/pkg/cache"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/pipeline"
)

const sample = `
[analysis]
exclude_categories = ["sandbox"]
include_internal = true

[render]
formats = ["svg", "dot"]
exclude_nodes = ["staging.legacy"]

[render.styles.finance]
shape = "box"
color = "navy"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "24h"

[server]
addr = ":9090"
session_ttl = "30m"
max_sessions = 8
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}

	opts := cfg.AnalysisOptions()
	if len(opts.ExcludeCategories) != 1 || opts.ExcludeCategories[0] != "sandbox" || !opts.IncludeInternal {
		t.Errorf("AnalysisOptions() = %+v", opts)
	}

	ro := cfg.RenderOptions(pipeline.ViewProduct, "retail.orders")
	if len(ro.Formats) != 2 || ro.Exclude[0] != "staging.legacy" || ro.Product != "retail.orders" {
		t.Errorf("RenderOptions() = %+v", ro)
	}
	if s := ro.Styles["finance"]; s.Shape != "box" || s.Color != "navy" {
		t.Errorf("styles.finance = %+v", s)
	}

	cc := cfg.CacheConfig("/tmp/cache")
	if cc.Backend != cache.BackendRedis || cc.RedisAddr != "localhost:6379" || cc.Dir != "/tmp/cache" {
		t.Errorf("CacheConfig() = %+v", cc)
	}
	if cfg.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("cache.ttl = %v", cfg.Cache.TTL)
	}

	sc := cfg.SessionConfig()
	if sc.TTL != 30*time.Minute || sc.MaxSessions != 8 || cfg.Server.Addr != ":9090" {
		t.Errorf("server = %+v, session = %+v", cfg.Server, sc)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[analysis]\nstrict = false\n"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Server.Addr != def.Server.Addr || cfg.Render.Formats[0] != pipeline.DefaultFormat {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Syntax", "[analysis"},
		{"UnknownKey", "[analysis]\ncolour = 1\n"},
		{"BadFormat", "[render]\nformats = [\"gif\"]\n"},
		{"BadBackend", "[cache]\nbackend = \"memcached\"\n"},
		{"RedisWithoutAddr", "[cache]\nbackend = \"redis\"\n"},
		{"StrictWithoutAllowList", "[analysis]\nstrict = true\n"},
		{"BadDuration", "[server]\nsession_ttl = \"soon\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil || cfg.Server.Addr != DefaultAddr {
		t.Errorf("Load(\"\") without a file = %+v, %v", cfg, err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v, want FILE_NOT_FOUND", err)
	}

	path, _ := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil || cfg.Server.MaxSessions != 8 {
		t.Errorf("Load(default path) = %+v, %v", cfg, err)
	}
}
