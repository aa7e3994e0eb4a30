package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Readeck.BaseURL = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty readeck.baseUrl")
	}
}

func TestValidate_BadBaseURLScheme(t *testing.T) {
	cfg := Defaults()
	cfg.Readeck.BaseURL = "ftp://example.com"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for non-http baseUrl")
	}
}

func TestValidate_TelegramEnabledWithoutToken(t *testing.T) {
	cfg := Defaults()
	cfg.Channels.Telegram.Enabled = true
	cfg.Channels.Telegram.Token = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled telegram without token")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_ConcurrencyBounds(t *testing.T) {
	cfg := Defaults()
	cfg.General.MaxConcurrentMessages = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxConcurrentMessages=0")
	}

	cfg = Defaults()
	cfg.General.MaxConcurrentMessages = 101
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxConcurrentMessages=101")
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := Defaults()
	original.Readeck.BaseURL = "https://readeck.example.com"
	original.Readeck.ConfigPath = "/etc/readeck/config.toml"

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Readeck.BaseURL != "https://readeck.example.com" {
		t.Errorf("baseUrl not preserved: %s", loaded.Readeck.BaseURL)
	}
	if loaded.Readeck.ConfigPath != "/etc/readeck/config.toml" {
		t.Errorf("configPath not preserved: %s", loaded.Readeck.ConfigPath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_FlexAllowFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"channels":{"telegram":{"enabled":false,"allowFrom":["123",456]}}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := []string(cfg.Channels.Telegram.AllowFrom)
	if len(got) != 2 || got[0] != "123" || got[1] != "456" {
		t.Errorf("allowFrom = %v, want [123 456]", got)
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RDB_TEST_TOKEN", "secret")

	out := ExpandEnvVars(`{"token":"${RDB_TEST_TOKEN}"}`)
	if out != `{"token":"secret"}` {
		t.Errorf("unexpected expansion: %s", out)
	}

	out = ExpandEnvVars(`${RDB_TEST_UNSET:-fallback}`)
	if out != "fallback" {
		t.Errorf("default not applied: %s", out)
	}

	// An explicit empty default expands to nothing, not the literal pattern.
	out = ExpandEnvVars(`${RDB_TEST_UNSET:-}`)
	if out != "" {
		t.Errorf("empty default not applied: %s", out)
	}

	// Without a default the unset pattern is left as-is.
	out = ExpandEnvVars(`${RDB_TEST_UNSET}`)
	if out != "${RDB_TEST_UNSET}" {
		t.Errorf("unset var without default must stay literal: %s", out)
	}
}

// --- Accessor ---

func TestGetSetByPath(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "readeck.baseUrl", "https://rd.local"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Readeck.BaseURL != "https://rd.local" {
		t.Errorf("SetByPath did not apply: %s", cfg.Readeck.BaseURL)
	}

	val, err := GetByPath(cfg, "readeck.baseUrl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "https://rd.local" {
		t.Errorf("GetByPath = %v", val)
	}

	if _, err := GetByPath(cfg, "no.such.key"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestSanitize_MasksToken(t *testing.T) {
	cfg := Defaults()
	cfg.Channels.Telegram.Token = "1234567890:ABCDEFxyz"

	masked := Sanitize(cfg)
	if masked.Channels.Telegram.Token == cfg.Channels.Telegram.Token {
		t.Error("token not masked")
	}
	if cfg.Channels.Telegram.Token != "1234567890:ABCDEFxyz" {
		t.Error("original config mutated")
	}
}
