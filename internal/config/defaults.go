package config

const (
	defaultDataDir          = "~/.local/share/prism"
	defaultLogDir           = "~/.local/share/prism/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
	defaultJellyfinURL      = "http://localhost:8096"
	defaultJellyfinTimeout  = 30
	defaultSyncInterval     = 900
	defaultCleanupInterval  = 3600
	defaultWatchDebounce    = 10
	defaultNotifyTimeout    = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Jellyfin: Jellyfin{
			URL:            defaultJellyfinURL,
			RequestTimeout: defaultJellyfinTimeout,
		},
		Sync: Sync{
			Interval:         defaultSyncInterval,
			CleanupInterval:  defaultCleanupInterval,
			Watch:            true,
			WatchDebounce:    defaultWatchDebounce,
			RefreshAfterSync: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Sync:           true,
			Cleanup:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
