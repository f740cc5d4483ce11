package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/productlens/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	output, err := run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if strings.TrimSpace(output) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(output), want)
	}
}

func TestCachePathCommandRedis(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "productlens.toml")
	if err := os.WriteFile(cfgPath, []byte("[cache]\nbackend = \"redis\"\nredis_addr = \"cache:6379\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := run(t, "cache", "path", "--config", cfgPath)
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(output) != "redis://cache:6379" {
		t.Errorf("cache path = %q", output)
	}
}

func TestCacheClearCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)

	fc, err := cache.NewFileCache(filepath.Join(home, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"render:a", "render:b"} {
		if err := fc.Set(ctx, key, []byte("<svg/>"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	output, err := runWithCache(t, home, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(output, "Cleared 2 cached entries") {
		t.Errorf("output:\n%s", output)
	}
	if _, ok, _ := fc.Get(ctx, "render:a"); ok {
		t.Error("entry survived cache clear")
	}
}
