package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BackendConfig holds connection settings for the upstream catalogue API.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PlaybackConfig tunes the gapless playback engine.
type PlaybackConfig struct {
	SampleRate              int `yaml:"sample_rate"`
	ProgressIntervalMillis  int `yaml:"progress_interval_millis"`
	UpdateBufferSize        int `yaml:"update_buffer_size"`
	RequestBufferSize       int `yaml:"request_buffer_size"`
}

// ManagerConfig tunes the async callback manager's intake and results buffering.
type ManagerConfig struct {
	IntakeBufferSize  int `yaml:"intake_buffer_size"`
	ResultsBufferSize int `yaml:"results_buffer_size"`
}

type Config struct {
	HomeDir string `yaml:"-"`

	LogLevel string `yaml:"log_level"`

	Backend  BackendConfig  `yaml:"backend"`
	Playback PlaybackConfig `yaml:"playback"`
	Manager  ManagerConfig  `yaml:"manager"`

	QueueID string `yaml:"queue_id"`

	NeedsGenesis bool `yaml:"-"`
}

// ConfigPath returns the path to config.yaml within the given home directory.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// loadRawConfig reads config.yaml into a generic map, returning an empty map if the file doesn't exist.
func loadRawConfig(path string) (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config.yaml: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config.yaml: %w", err)
		}
	}
	return raw, nil
}

// saveRawConfig marshals and writes a generic map back to config.yaml.
func saveRawConfig(path string, raw map[string]interface{}) error {
	out, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config.yaml: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// SetBackendBaseURL updates the backend base URL in config.yaml, preserving other settings.
func SetBackendBaseURL(homeDir, baseURL string) error {
	configPath := ConfigPath(homeDir)
	raw, err := loadRawConfig(configPath)
	if err != nil {
		return err
	}
	backend, _ := raw["backend"].(map[string]interface{})
	if backend == nil {
		backend = make(map[string]interface{})
	}
	backend["base_url"] = baseURL
	raw["backend"] = backend
	return saveRawConfig(configPath, raw)
}

// Fingerprint returns a stable hash of the active config.
func (c Config) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "log=%s|backend=%s|rate=%d|progress=%d|update=%d|request=%d",
		c.LogLevel, c.Backend.BaseURL, c.Playback.SampleRate,
		c.Playback.ProgressIntervalMillis, c.Playback.UpdateBufferSize, c.Playback.RequestBufferSize)
	return fmt.Sprintf("cfg-%x", h.Sum64())
}

// ProgressInterval returns Playback.ProgressIntervalMillis as a time.Duration.
func (c Config) ProgressInterval() time.Duration {
	return time.Duration(c.Playback.ProgressIntervalMillis) * time.Millisecond
}

// BackendTimeout returns Backend.TimeoutSeconds as a time.Duration.
func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
		Backend: BackendConfig{
			BaseURL:        "https://api.example-catalogue.invalid",
			TimeoutSeconds: 15,
		},
		Playback: PlaybackConfig{
			SampleRate:             44100,
			ProgressIntervalMillis: 100,
			UpdateBufferSize:       16,
			RequestBufferSize:      32,
		},
		Manager: ManagerConfig{
			IntakeBufferSize:  64,
			ResultsBufferSize: 64,
		},
		QueueID: "default",
	}
}

func HomeDir() string {
	if override := os.Getenv("JUKEBOXCORE_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".jukeboxcore")
}

func Load() (Config, error) {
	cfg := defaultConfig()
	cfg.HomeDir = HomeDir()

	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create jukeboxcore home: %w", err)
	}

	configPath := ConfigPath(cfg.HomeDir)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.NeedsGenesis = true
		} else {
			return cfg, fmt.Errorf("read config.yaml: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		cfg.Backend.BaseURL = "https://api.example-catalogue.invalid"
	}
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 15
	}
	if cfg.Playback.SampleRate <= 0 {
		cfg.Playback.SampleRate = 44100
	}
	if cfg.Playback.ProgressIntervalMillis <= 0 {
		cfg.Playback.ProgressIntervalMillis = 100
	}
	if cfg.Playback.UpdateBufferSize <= 0 {
		cfg.Playback.UpdateBufferSize = 16
	}
	if cfg.Playback.RequestBufferSize <= 0 {
		cfg.Playback.RequestBufferSize = 32
	}
	if cfg.Manager.IntakeBufferSize <= 0 {
		cfg.Manager.IntakeBufferSize = 64
	}
	if cfg.Manager.ResultsBufferSize <= 0 {
		cfg.Manager.ResultsBufferSize = 64
	}
	if strings.TrimSpace(cfg.QueueID) == "" {
		cfg.QueueID = "default"
	}
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv("JUKEBOXCORE_LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("JUKEBOXCORE_BACKEND_BASE_URL"); raw != "" {
		cfg.Backend.BaseURL = raw
	}
	if raw := os.Getenv("JUKEBOXCORE_BACKEND_TIMEOUT_SECONDS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.Backend.TimeoutSeconds = v
		}
	}
	if raw := os.Getenv("JUKEBOXCORE_SAMPLE_RATE"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.Playback.SampleRate = v
		}
	}
	if raw := os.Getenv("JUKEBOXCORE_QUEUE_ID"); raw != "" {
		cfg.QueueID = raw
	}
}
