package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/basket/jukeboxcore/internal/config"
)

func TestLoad_FromJukeboxcoreHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yamlBody := "log_level: debug\nbackend:\n  base_url: https://catalogue.test\n  timeout_seconds: 5\n"
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("JUKEBOXCORE_HOME", home)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Backend.BaseURL != "https://catalogue.test" {
		t.Fatalf("backend.base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 5 {
		t.Fatalf("backend.timeout_seconds = %d, want 5", cfg.Backend.TimeoutSeconds)
	}
}

func TestLoad_NeedsGenesisWhenNoConfig(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("JUKEBOXCORE_HOME", home)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.NeedsGenesis {
		t.Fatal("expected NeedsGenesis=true when config.yaml is absent")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("JUKEBOXCORE_HOME", home)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Playback.SampleRate != 44100 {
		t.Fatalf("sample rate = %d, want 44100", cfg.Playback.SampleRate)
	}
	if cfg.Playback.UpdateBufferSize != 16 {
		t.Fatalf("update buffer size = %d, want 16", cfg.Playback.UpdateBufferSize)
	}
	if cfg.QueueID != "default" {
		t.Fatalf("queue id = %q, want default", cfg.QueueID)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("JUKEBOXCORE_HOME", home)
	t.Setenv("JUKEBOXCORE_LOG_LEVEL", "warn")
	t.Setenv("JUKEBOXCORE_BACKEND_BASE_URL", "https://override.test")
	t.Setenv("JUKEBOXCORE_SAMPLE_RATE", "48000")
	t.Setenv("JUKEBOXCORE_QUEUE_ID", "party-mix")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q, want warn", cfg.LogLevel)
	}
	if cfg.Backend.BaseURL != "https://override.test" {
		t.Fatalf("backend base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Playback.SampleRate != 48000 {
		t.Fatalf("sample rate = %d, want 48000", cfg.Playback.SampleRate)
	}
	if cfg.QueueID != "party-mix" {
		t.Fatalf("queue id = %q, want party-mix", cfg.QueueID)
	}
}

func TestSetBackendBaseURL(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := config.SetBackendBaseURL(home, "https://new-catalogue.test"); err != nil {
		t.Fatalf("SetBackendBaseURL: %v", err)
	}

	t.Setenv("JUKEBOXCORE_HOME", home)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend.BaseURL != "https://new-catalogue.test" {
		t.Fatalf("backend base url = %q", cfg.Backend.BaseURL)
	}
}

func TestFingerprint_ChangesWithConfig(t *testing.T) {
	a := config.Config{LogLevel: "info"}
	b := config.Config{LogLevel: "debug"}
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("expected different fingerprints for different configs")
	}
}
