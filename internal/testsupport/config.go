package testsupport

import (
	"path/filepath"
	"testing"

	"prism/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Jellyfin.APIKey = "test"
	cfgVal.Sync.Watch = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithJellyfin points the test config at a server, usually httptest.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jellyfin.URL = url
		if apiKey != "" {
			b.cfg.Jellyfin.APIKey = apiKey
		}
	}
}

// WithNtfyTopic sets the notification topic URL on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithClassifierRules appends extension and directory exclusions to the test config.
func WithClassifierRules(extensions, directories []string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classifier.ExcludeExtensions = append(b.cfg.Classifier.ExcludeExtensions, extensions...)
		b.cfg.Classifier.ExcludeDirectories = append(b.cfg.Classifier.ExcludeDirectories, directories...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
