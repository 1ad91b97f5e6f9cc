package mirror

import (
	"strings"
	"time"
)

// Status represents the sync lifecycle of a mirror.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusSyncing,
	StatusSynced,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// InterruptedMessage is the progress message recorded when a sync is cut short
// by cancellation or daemon shutdown.
const InterruptedMessage = "sync interrupted"

// Alternative is a named language grouping that owns a set of mirrors.
type Alternative struct {
	ID          string
	Name        string
	LanguageTag string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// MirrorCount is populated by list queries for presentation.
	MirrorCount int
}

// Mirror links one source library to one target directory tree.
type Mirror struct {
	ID                string
	AlternativeID     string
	SourceLibraryID   string
	SourceLibraryName string
	TargetPath        string
	TargetLibraryID   string
	TargetLibraryName string
	CollectionType    string
	Status            Status
	LastError         string
	LastSyncedAt      *time.Time
	LastSyncFileCount *int
	ProgressPercent   float64
	ProgressMessage   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Registered reports whether the mirror's target library exists on the media server.
func (m *Mirror) Registered() bool {
	return m != nil && strings.TrimSpace(m.TargetLibraryID) != ""
}

// DisplayName returns a stable human-readable label for logs and tables.
func (m *Mirror) DisplayName() string {
	if m == nil {
		return ""
	}
	if m.TargetLibraryName != "" {
		return m.TargetLibraryName
	}
	if m.SourceLibraryName != "" {
		return m.SourceLibraryName
	}
	return m.ID
}

// UserLanguage assigns a media server user to a language alternative.
type UserLanguage struct {
	UserID        string
	AlternativeID string
	UpdatedAt     time.Time
}

// Summary describes aggregated mirror counts per lifecycle state.
type Summary struct {
	Total   int
	Pending int
	Syncing int
	Synced  int
	Errored int
}
