package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
)

// CheckJellyfin verifies Jellyfin connectivity and authentication.
func CheckJellyfin(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Jellyfin"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/System/Info", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("X-Emby-Token", strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHardlink verifies that sourceDir and targetDir sit on the same
// filesystem. Hardlinks cannot cross device boundaries, so a mirror whose
// target lives on another mount can never synchronize. The target's nearest
// existing ancestor stands in when the target itself is not created yet.
func CheckHardlink(name, sourceDir, targetDir string) Result {
	var src unix.Stat_t
	if err := unix.Stat(sourceDir, &src); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat source: %v)", sourceDir, err)}
	}

	probe := nearestExisting(targetDir)
	var dst unix.Stat_t
	if err := unix.Stat(probe, &dst); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat target: %v)", probe, err)}
	}

	if src.Dev != dst.Dev {
		return Result{Name: name, Detail: fmt.Sprintf("source %s and target %s are on different filesystems", sourceDir, targetDir)}
	}
	return Result{Name: name, Passed: true, Detail: "same filesystem"}
}

// nearestExisting walks up from path to the first component that exists.
func nearestExisting(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

// RunMirrorChecks evaluates the same-filesystem requirement for every
// mirror whose source library still appears in the listing. Mirrors with a
// vanished source are skipped; the orphan cleaner owns those.
func RunMirrorChecks(mirrors []*mirror.Mirror, libraries []jellyfin.VirtualLibrary) []Result {
	byID := make(map[string]jellyfin.VirtualLibrary, len(libraries))
	for _, lib := range libraries {
		byID[lib.ID] = lib
	}

	var results []Result
	for _, m := range mirrors {
		source, ok := byID[m.SourceLibraryID]
		if !ok || len(source.Locations) == 0 {
			continue
		}
		results = append(results, CheckHardlink(m.DisplayName(), source.Locations[0], m.TargetPath))
	}
	return results
}
