package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sam-Sparxz/Portfolio/src/api/data"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	t.Run("unsupported database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "redis://localhost:6379/0")

		err := run()
		if !errors.Is(err, data.ErrUnsupportedDSN) {
			t.Fatalf("run() err = %v, want ErrUnsupportedDSN", err)
		}
		if !strings.HasPrefix(err.Error(), "database: ") {
			t.Errorf("run() err = %q, want database prefix", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_REQUESTS", "lots")

		err := run()
		if err == nil || !strings.HasPrefix(err.Error(), "config: ") {
			t.Fatalf("run() err = %v, want config error", err)
		}
	})

	t.Run("missing tls files", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("DATABASE_URL", "file:run_tls?mode=memory&cache=shared")
		t.Setenv("REDIS_URL", "")
		t.Setenv("ENABLE_SSL", "true")
		t.Setenv("SSL_CERT", filepath.Join(dir, "missing.crt"))
		t.Setenv("SSL_KEY", filepath.Join(dir, "missing.key"))

		err := run()
		if err == nil || !strings.HasPrefix(err.Error(), "tls: ") {
			t.Fatalf("run() err = %v, want tls error", err)
		}
	})
}
