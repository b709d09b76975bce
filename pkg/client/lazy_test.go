package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLazy_ValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheType = "carrierpigeon"

	_, err := NewLazy(cfg)
	if err == nil {
		t.Fatal("expected error for unknown backend, got nil")
	}
	if KindOf(err) != KindConfiguration {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindConfiguration)
	}
}

func TestLazyClient_DefersConstruction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cacheDir := filepath.Join(t.TempDir(), "cachefiles")

	cfg := DefaultConfig()
	cfg.CacheType = "file"
	cfg.FileDir = cacheDir

	lc, err := NewLazy(cfg)
	if err != nil {
		t.Fatalf("NewLazy() failed: %v", err)
	}
	defer lc.Close()

	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatal("cache directory created before first use")
	}

	if _, err := lc.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if _, err := os.Stat(cacheDir); err != nil {
		t.Errorf("cache directory missing after first use: %v", err)
	}
}

func TestLazyClient_BuildWithoutConstruction(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cachefiles")

	cfg := DefaultConfig()
	cfg.CacheType = "file"
	cfg.FileDir = cacheDir

	lc, err := NewLazy(cfg)
	if err != nil {
		t.Fatalf("NewLazy() failed: %v", err)
	}

	req, err := lc.Build("GET", "http://example.com/items")
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if req.URL != "http://example.com/items" {
		t.Errorf("URL = %q, want %q", req.URL, "http://example.com/items")
	}

	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Error("Build should not construct the cache backend")
	}
}

func TestLazyClient_OpenConstructsEagerly(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cachefiles")

	cfg := DefaultConfig()
	cfg.CacheType = "file"
	cfg.FileDir = cacheDir

	lc, err := NewLazy(cfg)
	if err != nil {
		t.Fatalf("NewLazy() failed: %v", err)
	}
	defer lc.Close()

	if err := lc.Open(context.Background()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if _, err := os.Stat(cacheDir); err != nil {
		t.Errorf("cache directory missing after Open: %v", err)
	}
}

func TestLazyClient_UnreachableBackendSurfacesOnFirstUse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheType = "redis"
	cfg.RedisHost = "localhost"
	cfg.RedisPort = 1

	lc, err := NewLazy(cfg)
	if err != nil {
		t.Fatalf("NewLazy() failed: %v", err)
	}

	_, err = lc.Get(context.Background(), "http://example.com/")
	if KindOf(err) != KindDependencyMissing {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindDependencyMissing)
	}
}

func TestLazyClient_CloseThenReuse(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "serial=%d", requestCount)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.CacheEnabled = false

	lc, err := NewLazy(cfg)
	if err != nil {
		t.Fatalf("NewLazy() failed: %v", err)
	}
	ctx := context.Background()

	if _, err := lc.Get(ctx, server.URL); err != nil {
		t.Fatalf("first Get() failed: %v", err)
	}
	if err := lc.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Reuse after Close builds a fresh underlying client.
	resp, err := lc.Get(ctx, server.URL)
	if err != nil {
		t.Fatalf("Get() after Close failed: %v", err)
	}
	if resp.Text() != "serial=2" {
		t.Errorf("Body = %q, want %q", resp.Text(), "serial=2")
	}

	if err := lc.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}

func TestLazyClient_CloseWithoutUse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheEnabled = false

	lc, err := NewLazy(cfg)
	if err != nil {
		t.Fatalf("NewLazy() failed: %v", err)
	}
	if err := lc.Close(); err != nil {
		t.Errorf("Close() without use = %v, want nil", err)
	}
}
