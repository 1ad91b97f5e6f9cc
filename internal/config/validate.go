package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set")
	}
	if !strings.HasPrefix(c.Jellyfin.URL, "http://") && !strings.HasPrefix(c.Jellyfin.URL, "https://") {
		return fmt.Errorf("jellyfin.url must start with http:// or https:// (got %q)", c.Jellyfin.URL)
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/prism/config.toml"
		}
		return fmt.Errorf("jellyfin.api_key is required. Set JELLYFIN_API_KEY env var or edit %s (create with 'prism config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateSync() error {
	if err := ensurePositiveMap(map[string]int{
		"jellyfin.request_timeout": c.Jellyfin.RequestTimeout,
		"sync.interval":            c.Sync.Interval,
		"sync.cleanup_interval":    c.Sync.CleanupInterval,
		"sync.watch_debounce":      c.Sync.WatchDebounce,
	}); err != nil {
		return err
	}
	if c.Sync.Interval < 10 {
		return errors.New("sync.interval must be at least 10 seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
