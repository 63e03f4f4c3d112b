package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.Timeout.Std() != 30*time.Minute {
		t.Errorf("timeout = %v, want 30m", cfg.Session.Timeout.Std())
	}
	if cfg.Board.RevealInterval.Std() != 30*time.Millisecond {
		t.Errorf("reveal interval = %v, want 30ms", cfg.Board.RevealInterval.Std())
	}
	if !cfg.Gemini.EnableAudio {
		t.Error("audio disabled by default")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Load succeeded without GEMINI_API_KEY")
	}
}

func TestLoadTomlFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "inkboard.toml")
	content := `
[server]
port = 9000

[board]
reveal_interval = "50ms"
viewport_height = 900

[gemini]
voice = "Kore"
greeting = "Welcome back!"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Board.RevealInterval.Std() != 50*time.Millisecond {
		t.Errorf("reveal interval = %v, want 50ms", cfg.Board.RevealInterval.Std())
	}
	if cfg.Board.ViewportHeight != 900 {
		t.Errorf("viewport height = %v, want 900", cfg.Board.ViewportHeight)
	}
	if cfg.Gemini.Voice != "Kore" {
		t.Errorf("voice = %q, want Kore", cfg.Gemini.Voice)
	}
	// Unset sections keep their defaults.
	if cfg.Session.MaxSessions != 100 {
		t.Errorf("max sessions = %d, want 100", cfg.Session.MaxSessions)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "7777")
	t.Setenv("MAX_SESSIONS", "5")

	path := filepath.Join(t.TempDir(), "inkboard.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, env must win over the file", cfg.Server.Port)
	}
	if cfg.Session.MaxSessions != 5 {
		t.Errorf("max sessions = %d, want 5", cfg.Session.MaxSessions)
	}
}

func TestInvalidEnvValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("Load accepted a non-numeric PORT")
	}
}
