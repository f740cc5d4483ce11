package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = (%v, %v, %v), want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "svg"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "svg", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "svg")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get = (%q, %v, %v)", data, hit, err)
	}
	if err := c.Delete(ctx, "svg"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "svg"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "svg"); err != nil {
		t.Errorf("deleting a missing key = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry file not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want a clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear(ctx)
	if err != nil || n != 3 {
		t.Errorf("Clear() = (%d, %v), want (3, nil)", n, err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir still has %d entries", len(entries))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		backend string
		wantErr error
	}{
		{"", nil},
		{BackendFile, nil},
		{BackendNone, nil},
		{"memcached", ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := Open(ctx, Config{Backend: tt.backend, Dir: t.TempDir()})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Open(%q) error = %v, want %v", tt.backend, err, tt.wantErr)
			}
			if c != nil {
				c.Close()
			}
		})
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr, "productlens-test:")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	defer c.Clear(ctx)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = (%q, %v, %v)", data, hit, err)
	}
	if n, err := c.Clear(ctx); err != nil || n != 1 {
		t.Errorf("Clear() = (%d, %v)", n, err)
	}
}

func TestRedisCacheEmptyAddr(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "", ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewRedisCache(\"\") = %v, want ErrUnavailable", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	svg := k.RenderKey("fp", RenderKeyOpts{View: "products", Format: "svg"})
	png := k.RenderKey("fp", RenderKeyOpts{View: "products", Format: "png"})
	if svg == png {
		t.Error("different formats should produce different keys")
	}
	if other := k.RenderKey("fp2", RenderKeyOpts{View: "products", Format: "svg"}); other == svg {
		t.Error("different fingerprints should produce different keys")
	}

	a := k.RenderKey("fp", RenderKeyOpts{Format: "svg", Exclude: []string{"b", "a"}})
	b := k.RenderKey("fp", RenderKeyOpts{Format: "svg", Exclude: []string{"a", "b"}})
	if a != b {
		t.Error("exclusion order should not change the key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "user:123:")
	key := scoped.RenderKey("fp", RenderKeyOpts{Format: "svg"})
	want := "user:123:" + NewDefaultKeyer().RenderKey("fp", RenderKeyOpts{Format: "svg"})
	if key != want {
		t.Errorf("ScopedKeyer key = %s, want %s", key, want)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errFlaky)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errFlaky.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errFlaky) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errFlaky
	})
	if err != errFlaky || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errFlaky)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errFlaky)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
