package cli

import (
	"path/filepath"
	"testing"

	"github.com/pkalnins/earshot/internal/config"
)

func TestInitCreatesExampleConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	setupCLITest(t, dir)

	out, err := captureStdout(t, func() error {
		return initAction(nil, nil)
	})
	if err != nil {
		t.Fatalf("init action: %v", err)
	}
	requireContains(t, out, "created:")
	requireContains(t, out, "Initialized")

	// The generated example must load and validate cleanly.
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.Skills["get_mentions"] != "private" {
		t.Errorf("example skills = %v", cfg.Skills)
	}
	if cfg.RateLimit.Requests != 1 {
		t.Errorf("example rate_limit.requests = %d, want 1", cfg.RateLimit.Requests)
	}

	out, err = captureStdout(t, func() error {
		return initAction(nil, nil)
	})
	if err != nil {
		t.Fatalf("second init action: %v", err)
	}
	requireContains(t, out, "exists:")
	requireContains(t, out, "already initialized")
}
