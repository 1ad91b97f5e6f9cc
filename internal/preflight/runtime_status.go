package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"prism/internal/config"
)

// CheckJellyfinFromConfig evaluates Jellyfin status from config and connectivity.
// The CLI status command uses this when the daemon is not running.
func CheckJellyfinFromConfig(cfg *config.Config) Result {
	const name = "Jellyfin"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Jellyfin.URL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	if strings.TrimSpace(cfg.Jellyfin.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckJellyfin(context.Background(), cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
}

// ProbeDatabase reports whether the mirror database exists and how large it is.
func ProbeDatabase(path string) Result {
	const name = "Database"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size())))}
}
