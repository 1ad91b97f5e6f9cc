package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prism/internal/ipc"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
)

// resolveAlternative matches an alternative by id, name, or unique id prefix.
func resolveAlternative(cmd *cobra.Command, store *mirror.Store, value string) (*mirror.Alternative, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("alternative id or name is required")
	}

	alternatives, err := store.ListAlternatives(cmd.Context())
	if err != nil {
		return nil, err
	}

	var prefixMatches []*mirror.Alternative
	for _, alt := range alternatives {
		if alt.ID == value || strings.EqualFold(alt.Name, value) {
			return alt, nil
		}
		if strings.HasPrefix(alt.ID, value) {
			prefixMatches = append(prefixMatches, alt)
		}
	}
	switch len(prefixMatches) {
	case 1:
		return prefixMatches[0], nil
	case 0:
		return nil, fmt.Errorf("alternative %q not found", value)
	default:
		return nil, fmt.Errorf("alternative id %q is ambiguous (%d matches)", value, len(prefixMatches))
	}
}

// resolveMirror matches a mirror by id or unique id prefix.
func resolveMirror(cmd *cobra.Command, store *mirror.Store, value string) (*mirror.Mirror, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("mirror id is required")
	}

	mirrors, err := store.ListMirrors(cmd.Context())
	if err != nil {
		return nil, err
	}

	var prefixMatches []*mirror.Mirror
	for _, m := range mirrors {
		if m.ID == value {
			return m, nil
		}
		if strings.HasPrefix(m.ID, value) {
			prefixMatches = append(prefixMatches, m)
		}
	}
	switch len(prefixMatches) {
	case 1:
		return prefixMatches[0], nil
	case 0:
		return nil, fmt.Errorf("mirror %q not found", value)
	default:
		return nil, fmt.Errorf("mirror id %q is ambiguous (%d matches)", value, len(prefixMatches))
	}
}

// resolveSourceLibrary matches a host library by id first, then by name.
func resolveSourceLibrary(cmd *cobra.Command, host jellyfin.Service, value string) (*jellyfin.VirtualLibrary, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("source library id or name is required")
	}

	libraries, err := host.ListLibraries(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range libraries {
		if libraries[i].ID == value {
			return &libraries[i], nil
		}
	}
	for i := range libraries {
		if strings.EqualFold(libraries[i].Name, value) {
			return &libraries[i], nil
		}
	}
	return nil, fmt.Errorf("library %q not found on the media server", value)
}

// cliLogger reports warnings from direct engine calls on stderr without
// drowning command output.
func cliLogger() *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func mirrorStatusCell(record ipc.MirrorRecord) string {
	label := formatStatusLabel(record.Status)
	if record.Status == string(mirror.StatusSyncing) && record.ProgressPercent > 0 {
		return fmt.Sprintf("%s %.0f%%", label, record.ProgressPercent)
	}
	return label
}

func formatSyncedCell(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func formatFileCount(value *int) string {
	if value == nil {
		return "-"
	}
	return strconv.Itoa(*value)
}
