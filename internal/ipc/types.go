package ipc

import "time"

// StopRequest stops the daemon's background services.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/scheduler status information.
type StatusResponse struct {
	Running      bool      `json:"running"`
	LastError    string    `json:"last_error"`
	LastCycle    time.Time `json:"last_cycle"`
	Total        int       `json:"total"`
	Pending      int       `json:"pending"`
	Syncing      int       `json:"syncing"`
	Synced       int       `json:"synced"`
	Errored      int       `json:"errored"`
	DatabasePath string    `json:"database_path"`
	LockPath     string    `json:"lock_path"`
	PID          int       `json:"pid"`
}

// MirrorRecord is the wire representation of a mirror row.
type MirrorRecord struct {
	ID                string     `json:"id"`
	AlternativeID     string     `json:"alternative_id"`
	AlternativeName   string     `json:"alternative_name"`
	SourceLibraryID   string     `json:"source_library_id"`
	SourceLibraryName string     `json:"source_library_name"`
	TargetPath        string     `json:"target_path"`
	TargetLibraryID   string     `json:"target_library_id"`
	TargetLibraryName string     `json:"target_library_name"`
	CollectionType    string     `json:"collection_type"`
	Status            string     `json:"status"`
	ProgressPercent   float64    `json:"progress_percent"`
	ProgressMessage   string     `json:"progress_message"`
	LastError         string     `json:"last_error"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	LastSyncFileCount *int       `json:"last_sync_file_count,omitempty"`
}

// MirrorListRequest fetches all mirror records.
type MirrorListRequest struct{}

// MirrorListResponse contains mirror records.
type MirrorListResponse struct {
	Mirrors []MirrorRecord `json:"mirrors"`
}

// SyncNowRequest asks the scheduler for an immediate sync pass. An empty
// MirrorID syncs every mirror.
type SyncNowRequest struct {
	MirrorID string `json:"mirror_id"`
}

// SyncNowResponse acknowledges a sync request.
type SyncNowResponse struct {
	Message string `json:"message"`
}

// CleanupNowRequest runs orphan cleanup immediately.
type CleanupNowRequest struct{}

// CleanupNowResponse reports the cleanup outcome.
type CleanupNowResponse struct {
	Cleaned             int      `json:"cleaned"`
	Reasons             []string `json:"reasons"`
	BytesFreed          int64    `json:"bytes_freed"`
	UnmirroredSourceIDs []string `json:"unmirrored_source_ids"`
}

// LibraryRecord is the wire representation of a media server library with
// mirror annotations.
type LibraryRecord struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	CollectionType            string   `json:"collection_type"`
	Locations                 []string `json:"locations"`
	PreferredMetadataLanguage string   `json:"preferred_metadata_language,omitempty"`
	MetadataCountryCode       string   `json:"metadata_country_code,omitempty"`
	IsMirror                  bool     `json:"is_mirror"`
	MirrorID                  string   `json:"mirror_id,omitempty"`
	AlternativeID             string   `json:"alternative_id,omitempty"`
	AlternativeName           string   `json:"alternative_name,omitempty"`
}

// LibraryListRequest fetches the annotated library view.
type LibraryListRequest struct{}

// LibraryListResponse contains library records.
type LibraryListResponse struct {
	Libraries []LibraryRecord `json:"libraries"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
