package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("MAIL_RECIPIENTS", "")

	cfg := Load()
	if cfg.Sheets.Records != "Check" || cfg.Sheets.Users != "Users" {
		t.Fatalf("unexpected sheets %+v", cfg.Sheets)
	}
	if cfg.Filter.MinWords != 600 || cfg.Filter.MaxWords != 3000 || cfg.Filter.WindowHours != 24 {
		t.Fatalf("unexpected filter defaults %+v", cfg.Filter)
	}
	if cfg.Mail.Port != 465 || cfg.Mail.SenderName != "AI News Agent" {
		t.Fatalf("unexpected mail defaults %+v", cfg.Mail)
	}
	if cfg.Schedule.RolloverHour != 18 {
		t.Fatalf("unexpected rollover hour %d", cfg.Schedule.RolloverHour)
	}
	if cfg.Tasks.Afternoon.RotationKey != "ielts" {
		t.Fatalf("unexpected rotation key %q", cfg.Tasks.Afternoon.RotationKey)
	}
}

func TestLoadMergesFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
schedule:
  timezone: UTC
  monitorInterval: 3m
filter:
  minWords: 100
  bannedTerms: ["war"]
tasks:
  evening:
    sources: ["https://example.org/rss"]
    windowHours: 48
mail:
  username: file@example.org
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv("MAIL_USERNAME", "env@example.org")
	t.Setenv("MAIL_RECIPIENTS", "a@example.org, ,b@example.org")
	t.Setenv("DEEPSEEK_API_KEY", "secret")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if cfg.Schedule.Location() != time.UTC && cfg.Schedule.Location().String() != "UTC" {
		t.Fatalf("expected UTC location, got %s", cfg.Schedule.Location())
	}
	if cfg.Schedule.MonitorInterval != 3*time.Minute {
		t.Fatalf("unexpected monitor interval %s", cfg.Schedule.MonitorInterval)
	}
	if cfg.Filter.MinWords != 100 || cfg.Filter.MaxWords != 3000 {
		t.Fatalf("unexpected merged filter %+v", cfg.Filter)
	}
	if len(cfg.Filter.BannedTerms) != 1 || cfg.Filter.BannedTerms[0] != "war" {
		t.Fatalf("unexpected banned terms %v", cfg.Filter.BannedTerms)
	}
	if cfg.Tasks.Evening.WindowHours != 48 || cfg.Tasks.Evening.PerSource != 3 {
		t.Fatalf("unexpected evening task %+v", cfg.Tasks.Evening)
	}
	if cfg.Mail.Username != "env@example.org" {
		t.Fatalf("environment should override file, got %q", cfg.Mail.Username)
	}
	if len(cfg.Mail.Recipients) != 2 || cfg.Mail.Recipients[1] != "b@example.org" {
		t.Fatalf("unexpected recipients %v", cfg.Mail.Recipients)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Fatalf("expected api key from environment")
	}
}

func TestLoadUnknownTimezoneFallsBackToUTC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("schedule:\n  timezone: Mars/Olympus\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Schedule.Location() != time.UTC {
		t.Fatalf("expected UTC fallback, got %s", cfg.Schedule.Location())
	}
}

func TestLoadBrokenFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("filter: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Filter.MinWords != 600 {
		t.Fatalf("expected defaults after parse failure, got %+v", cfg.Filter)
	}
}

func TestLoadExplicitZeroDisables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := "schedule:\n  rolloverHour: 0\nfilter:\n  windowHours: 0\n  minWords: 50\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Schedule.RolloverHour != 0 {
		t.Fatalf("explicit rolloverHour 0 ignored, got %d", cfg.Schedule.RolloverHour)
	}
	if cfg.Filter.WindowHours != 0 {
		t.Fatalf("explicit windowHours 0 ignored, got %d", cfg.Filter.WindowHours)
	}
	if cfg.Filter.MinWords != 50 {
		t.Fatalf("unexpected minWords %d", cfg.Filter.MinWords)
	}
}

func TestLoadOmittedZeroableKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Schedule.RolloverHour != 18 || cfg.Filter.WindowHours != 24 {
		t.Fatalf("defaults lost: rollover %d window %d", cfg.Schedule.RolloverHour, cfg.Filter.WindowHours)
	}
}
