package jellyfin

import "context"

// VirtualLibrary is one library ("virtual folder") on the Jellyfin server.
type VirtualLibrary struct {
	ID                        string
	Name                      string
	CollectionType            string
	Locations                 []string
	PreferredMetadataLanguage string
	MetadataCountryCode       string
}

// AddLibraryRequest describes a library to create on the server. Jellyfin is
// asked not to scan immediately; the caller seeds content first and triggers
// its own refresh.
type AddLibraryRequest struct {
	Name                      string
	CollectionType            string
	Paths                     []string
	PreferredMetadataLanguage string
	MetadataCountryCode       string
}

// RefreshMode mirrors Jellyfin's MetadataRefreshMode enum.
type RefreshMode string

const (
	RefreshNone    RefreshMode = "None"
	RefreshDefault RefreshMode = "Default"
	RefreshFull    RefreshMode = "FullRefresh"
)

// RefreshOptions selects how deep a library refresh digs.
type RefreshOptions struct {
	MetadataRefreshMode RefreshMode
	ImageRefreshMode    RefreshMode
	ReplaceAllMetadata  bool
	ReplaceAllImages    bool
}

// FullRefreshOptions returns the options used after seeding a new mirror
// library: re-fetch all metadata and images.
func FullRefreshOptions() RefreshOptions {
	return RefreshOptions{
		MetadataRefreshMode: RefreshFull,
		ImageRefreshMode:    RefreshFull,
	}
}

// SystemInfo is the subset of /System/Info used by status output.
type SystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	ID              string `json:"Id"`
	OperatingSystem string `json:"OperatingSystem"`
}

// Service defines the Jellyfin operations the mirror engine depends on.
type Service interface {
	ListLibraries(ctx context.Context) ([]VirtualLibrary, error)
	AddLibrary(ctx context.Context, req AddLibraryRequest) error
	RefreshLibrary(ctx context.Context, libraryID string, opts RefreshOptions) error
	SystemInfo(ctx context.Context) (SystemInfo, error)
}
