package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "takaro-mcp.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 4250 || cfg.Server.Host != "localhost" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Takaro.URL != "https://api.takaro.io" {
		t.Errorf("takaro url = %q", cfg.Takaro.URL)
	}
	if cfg.Spec.CacheTTLHours != 24 || cfg.Spec.FetchRetries != 3 {
		t.Errorf("spec defaults = %+v", cfg.Spec)
	}
	want := []string{"http://localhost", "http://127.0.0.1"}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, want) {
		t.Errorf("allowed origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000

[takaro]
url = "https://api.example.com"
username = "bot@example.com"

[logging]
level = "debug"
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	// Unset file keys keep their defaults.
	if cfg.Server.Host != "localhost" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if cfg.Takaro.URL != "https://api.example.com" || cfg.Takaro.Username != "bot@example.com" {
		t.Errorf("takaro = %+v", cfg.Takaro)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLaterFilesWin(t *testing.T) {
	first := writeConfig(t, "[server]\nport = 1000\nhost = \"0.0.0.0\"\n")
	second := writeConfig(t, "[server]\nport = 2000\n")

	cfg, err := LoadFromFiles(first, second)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 2000 {
		t.Errorf("later file should win, port = %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("earlier file values should persist, host = %q", cfg.Server.Host)
	}
}

func TestMissingFileFails(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TAKARO_MCP_PORT", "5001")
	t.Setenv("TAKARO_URL", "https://env.example.com")
	t.Setenv("TAKARO_PASSWORD", "env-secret")
	t.Setenv("TAKARO_MCP_ALLOWED_ORIGINS", "http://a.example.com, http://b.example.com")
	t.Setenv("TAKARO_LOG_LEVEL", "warn")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 5001 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Takaro.URL != "https://env.example.com" || cfg.Takaro.Password != "env-secret" {
		t.Errorf("takaro = %+v", cfg.Takaro)
	}
	want := []string{"http://a.example.com", "http://b.example.com"}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, want) {
		t.Errorf("allowed origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")
	t.Setenv("TAKARO_MCP_PORT", "9100")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env should override file, port = %d", cfg.Server.Port)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 0, "")
	if cfg.Server.Port != 4250 || cfg.Server.Host != "localhost" {
		t.Errorf("zero-value flags must not override, got %+v", cfg.Server)
	}

	ApplyFlagOverrides(cfg, 8080, "0.0.0.0")
	if cfg.Server.Port != 8080 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("flags should win, got %+v", cfg.Server)
	}
}
