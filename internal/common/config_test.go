package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("NIVESH_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_SyncDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if got := cfg.Sync.GetInterval(); got != 15*time.Minute {
		t.Errorf("Sync interval = %v, want 15m", got)
	}
	if got := cfg.Sync.GetFetchTimeout(); got != 20*time.Second {
		t.Errorf("Fetch timeout = %v, want 20s", got)
	}
	if cfg.Recommend.Limit != 3 {
		t.Errorf("Recommend.Limit = %d, want 3", cfg.Recommend.Limit)
	}
}

func TestConfig_InvalidDurationsFallBack(t *testing.T) {
	c := SyncConfig{Interval: "soon", FetchTimeout: "-1s"}
	if got := c.GetInterval(); got != 15*time.Minute {
		t.Errorf("GetInterval() = %v, want 15m", got)
	}
	if got := c.GetFetchTimeout(); got != 20*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 20s", got)
	}
}

func TestConfig_LoadMergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")

	if err := os.WriteFile(base, []byte("[sync]\ninterval = \"5m\"\n\n[server]\nport = 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(local, []byte("[server]\nport = 7100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(base, filepath.Join(dir, "missing.toml"), local)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100", cfg.Server.Port)
	}
	if cfg.Sync.GetInterval() != 5*time.Minute {
		t.Errorf("Sync interval = %v, want 5m", cfg.Sync.GetInterval())
	}
	if cfg.Clients.MFAPI.BaseURL != "https://api.mfapi.in/mf" {
		t.Errorf("MFAPI base URL lost defaults: %q", cfg.Clients.MFAPI.BaseURL)
	}
}

func TestConfig_LoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveAPIKey_EnvWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	key, err := ResolveAPIKey("gemini_api_key", "from-config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-env" {
		t.Errorf("key = %q, want from-env", key)
	}
}

func TestResolveAPIKey_Missing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("NIVESH_CLAUDE_API_KEY", "")

	if _, err := ResolveAPIKey("claude_api_key", ""); err == nil {
		t.Error("expected error when key is absent")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	for env, want := range map[string]bool{"prod": true, "Production": true, "development": false} {
		cfg := &Config{Environment: env}
		if got := cfg.IsProduction(); got != want {
			t.Errorf("IsProduction(%q) = %v, want %v", env, got, want)
		}
	}
}
