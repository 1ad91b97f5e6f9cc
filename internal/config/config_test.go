package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"prism/internal/config"
)

func TestLoadDefaultConfigUsesEnvJellyfinKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("JELLYFIN_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "prism")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Jellyfin.APIKey != "test-key" {
		t.Fatalf("expected Jellyfin key from env, got %q", cfg.Jellyfin.APIKey)
	}
	if cfg.Jellyfin.URL != config.Default().Jellyfin.URL {
		t.Fatalf("unexpected Jellyfin url: %q", cfg.Jellyfin.URL)
	}
	if cfg.Sync.Interval != config.Default().Sync.Interval {
		t.Fatalf("unexpected sync interval: %d", cfg.Sync.Interval)
	}
	if !cfg.Sync.Watch {
		t.Fatal("expected source watching enabled by default")
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected ntfy topic to be empty by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}

	if got := cfg.DatabasePath(); got != filepath.Join(wantData, "mirrors.db") {
		t.Fatalf("unexpected database path: %q", got)
	}
	if got := cfg.SocketPath(); got != filepath.Join(wantData, "prismd.sock") {
		t.Fatalf("unexpected socket path: %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "prism.toml")

	type payload struct {
		Jellyfin struct {
			URL    string `toml:"url"`
			APIKey string `toml:"api_key"`
		} `toml:"jellyfin"`
		Sync struct {
			Interval int `toml:"interval"`
		} `toml:"sync"`
		Classifier struct {
			ExcludeExtensions  []string `toml:"exclude_extensions"`
			ExcludeDirectories []string `toml:"exclude_directories"`
		} `toml:"classifier"`
	}
	custom := payload{}
	custom.Jellyfin.URL = "https://media.example.com/"
	custom.Jellyfin.APIKey = "abc123"
	custom.Sync.Interval = 60
	custom.Classifier.ExcludeExtensions = []string{"SRT", ".txt", ".txt"}
	custom.Classifier.ExcludeDirectories = []string{"Backdrops", "/media/theme-music"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Jellyfin.URL != "https://media.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Jellyfin.URL)
	}
	if cfg.Sync.Interval != 60 {
		t.Fatalf("unexpected sync interval: %d", cfg.Sync.Interval)
	}
	wantExts := []string{".srt", ".txt"}
	if len(cfg.Classifier.ExcludeExtensions) != len(wantExts) {
		t.Fatalf("unexpected extensions: %v", cfg.Classifier.ExcludeExtensions)
	}
	for i, ext := range wantExts {
		if cfg.Classifier.ExcludeExtensions[i] != ext {
			t.Fatalf("unexpected extensions: %v", cfg.Classifier.ExcludeExtensions)
		}
	}
	wantDirs := []string{"backdrops", "theme-music"}
	for i, dir := range wantDirs {
		if cfg.Classifier.ExcludeDirectories[i] != dir {
			t.Fatalf("unexpected directories: %v", cfg.Classifier.ExcludeDirectories)
		}
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("JELLYFIN_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "jellyfin.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsShortSyncInterval(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "prism.toml")
	body := "[jellyfin]\nurl = \"http://localhost:8096\"\napi_key = \"k\"\n[sync]\ninterval = 3\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for short sync interval")
	}
	if !strings.Contains(err.Error(), "sync.interval") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("JELLYFIN_API_KEY", "sample-key")
	tempDir := t.TempDir()
	samplePath := filepath.Join(tempDir, "config.toml")

	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(samplePath)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Jellyfin.APIKey != "sample-key" {
		t.Fatalf("expected env key fallback, got %q", cfg.Jellyfin.APIKey)
	}
	if cfg.Sync.Interval != config.Default().Sync.Interval {
		t.Fatalf("unexpected sample sync interval: %d", cfg.Sync.Interval)
	}
}
