package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestYAML(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test yaml: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_X_BEARER", "bearer-secret")
	t.Setenv("TEST_X_ACCESS", "access-secret")

	writeTestYAML(t, dir, DefaultConfigFile, `
owner: alice
storage:
  path: custom.db
twitter:
  bearer_token_env: TEST_X_BEARER
  access_token_env: TEST_X_ACCESS
  user_id: "12345"
  username: earshot
rate_limit:
  requests: 3
  window: 30m
skills:
  get_mentions: private
  get_timeline: public
  search_mentions: disabled
  get_feed: public
feed:
  url: https://example.com/feed.xml
watch:
  interval: 5m
privacy:
  redact:
    enabled: true
    patterns:
      - "(?i)token"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Owner != "alice" {
		t.Errorf("owner = %q, want alice", cfg.Owner)
	}
	if cfg.Storage.Path != "custom.db" {
		t.Errorf("storage path = %q, want custom.db", cfg.Storage.Path)
	}

	// Twitter
	if cfg.Twitter.BearerToken != "bearer-secret" {
		t.Errorf("bearer_token = %q, want bearer-secret", cfg.Twitter.BearerToken)
	}
	if cfg.Twitter.AccessToken != "access-secret" {
		t.Errorf("access_token = %q, want access-secret", cfg.Twitter.AccessToken)
	}
	if cfg.Twitter.UserID != "12345" {
		t.Errorf("user_id = %q, want 12345", cfg.Twitter.UserID)
	}
	if cfg.Twitter.Username != "earshot" {
		t.Errorf("username = %q, want earshot", cfg.Twitter.Username)
	}

	// Rate limit
	if cfg.RateLimit.Requests != 3 {
		t.Errorf("rate_limit.requests = %d, want 3", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window.Duration != 30*time.Minute {
		t.Errorf("rate_limit.window = %v, want 30m", cfg.RateLimit.Window.Duration)
	}

	// Skills
	if len(cfg.Skills) != 4 {
		t.Errorf("skills = %v, want 4 entries", cfg.Skills)
	}
	if cfg.Skills["get_mentions"] != "private" {
		t.Errorf("skills[get_mentions] = %q, want private", cfg.Skills["get_mentions"])
	}

	if cfg.Feed.URL != "https://example.com/feed.xml" {
		t.Errorf("feed.url = %q", cfg.Feed.URL)
	}
	if cfg.Watch.Interval.Duration != 5*time.Minute {
		t.Errorf("watch.interval = %v, want 5m", cfg.Watch.Interval.Duration)
	}

	// Privacy
	if !cfg.Privacy.Redact.Enabled {
		t.Error("redact.enabled = false, want true")
	}
	if len(cfg.Privacy.Redact.Patterns) != 1 {
		t.Errorf("redact patterns = %v", cfg.Privacy.Redact.Patterns)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: public
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Owner != DefaultOwner {
		t.Errorf("owner = %q, want %q", cfg.Owner, DefaultOwner)
	}
	if cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("storage.path = %q, want %q", cfg.Storage.Path, DefaultStoragePath)
	}
	if cfg.RateLimit.Requests != DefaultRateRequests {
		t.Errorf("rate_limit.requests = %d, want %d", cfg.RateLimit.Requests, DefaultRateRequests)
	}
	if cfg.RateLimit.Window.Duration != DefaultRateWindow {
		t.Errorf("rate_limit.window = %v, want %v", cfg.RateLimit.Window.Duration, DefaultRateWindow)
	}
	if cfg.Watch.Interval.Duration != DefaultWatchInterval {
		t.Errorf("watch.interval = %v, want %v", cfg.Watch.Interval.Duration, DefaultWatchInterval)
	}
}

func TestLoad_NoSkills(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
owner: alice
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for no skills")
	}
	if want := "at least one skill must be configured"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_UnknownSkill(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_trending: public
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for unknown skill")
	}
	if want := `unknown skill "get_trending"`; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
	if want := "get_mentions"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want listing known skill %q", err, want)
	}
}

func TestLoad_InvalidSkillState(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: sometimes
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid state")
	}
	if want := `invalid state "sometimes"`; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: public
retention: 30
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if want := "field retention not found"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: public
rate_limit:
  window: soon
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for bad duration")
	}
	if want := "parse duration"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: public
rate_limit:
  requests: -1
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for negative requests")
	}
	if want := "rate_limit.requests"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_NegativeWatchInterval(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: public
watch:
  interval: -5m
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for negative interval")
	}
	if want := "watch.interval"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if want := "read config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `{{{invalid`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
	if want := "parse config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
	if want := "config dir is required"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_EnvVarMissing(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
skills:
  get_mentions: public
twitter:
  bearer_token_env: NONEXISTENT_VAR_12345
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Twitter.BearerToken != "" {
		t.Errorf("bearer_token = %q, want empty", cfg.Twitter.BearerToken)
	}
}
