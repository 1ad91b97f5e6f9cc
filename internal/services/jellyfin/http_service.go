package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prism/internal/config"
	"prism/internal/services"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type httpService struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewService constructs a Jellyfin client against the given server.
func NewService(baseURL, apiKey string, client HTTPDoer) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

// NewConfiguredService builds a client from config, with the configured
// request timeout applied.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil {
		return NewService("", "", nil)
	}
	client := &http.Client{Timeout: time.Duration(cfg.Jellyfin.RequestTimeout) * time.Second}
	return NewService(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, client)
}

// virtualFolderInfo matches Jellyfin's VirtualFolderInfo DTO. The library id
// arrives as ItemId.
type virtualFolderInfo struct {
	Name           string   `json:"Name"`
	Locations      []string `json:"Locations"`
	CollectionType string   `json:"CollectionType"`
	ItemID         string   `json:"ItemId"`
	LibraryOptions struct {
		PreferredMetadataLanguage string `json:"PreferredMetadataLanguage"`
		MetadataCountryCode       string `json:"MetadataCountryCode"`
	} `json:"LibraryOptions"`
}

func (s *httpService) ListLibraries(ctx context.Context) ([]VirtualLibrary, error) {
	var folders []virtualFolderInfo
	if err := s.doJSON(ctx, http.MethodGet, "/Library/VirtualFolders", nil, nil, &folders); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "jellyfin", "list libraries", "", err)
	}
	libraries := make([]VirtualLibrary, 0, len(folders))
	for _, folder := range folders {
		libraries = append(libraries, VirtualLibrary{
			ID:                        folder.ItemID,
			Name:                      folder.Name,
			CollectionType:            folder.CollectionType,
			Locations:                 folder.Locations,
			PreferredMetadataLanguage: folder.LibraryOptions.PreferredMetadataLanguage,
			MetadataCountryCode:       folder.LibraryOptions.MetadataCountryCode,
		})
	}
	return libraries, nil
}

func (s *httpService) AddLibrary(ctx context.Context, req AddLibraryRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return services.Wrap(services.ErrValidation, "jellyfin", "add library", "library name is required", nil)
	}

	query := url.Values{}
	query.Set("name", name)
	if req.CollectionType != "" {
		query.Set("collectionType", req.CollectionType)
	}
	query.Set("refreshLibrary", "false")

	pathInfos := make([]map[string]string, 0, len(req.Paths))
	for _, path := range req.Paths {
		pathInfos = append(pathInfos, map[string]string{"Path": path})
	}
	body := map[string]any{
		"LibraryOptions": map[string]any{
			"PathInfos":                 pathInfos,
			"PreferredMetadataLanguage": req.PreferredMetadataLanguage,
			"MetadataCountryCode":       req.MetadataCountryCode,
			"EnableRealtimeMonitor":     false,
		},
	}

	if err := s.doJSON(ctx, http.MethodPost, "/Library/VirtualFolders", query, body, nil); err != nil {
		return services.Wrap(services.ErrExternalService, "jellyfin", "add library", name, err)
	}
	return nil
}

func (s *httpService) RefreshLibrary(ctx context.Context, libraryID string, opts RefreshOptions) error {
	id := strings.TrimSpace(libraryID)
	if id == "" {
		return services.Wrap(services.ErrValidation, "jellyfin", "refresh library", "library id is required", nil)
	}

	query := url.Values{}
	if opts.MetadataRefreshMode != "" {
		query.Set("metadataRefreshMode", string(opts.MetadataRefreshMode))
	}
	if opts.ImageRefreshMode != "" {
		query.Set("imageRefreshMode", string(opts.ImageRefreshMode))
	}
	query.Set("replaceAllMetadata", strconv.FormatBool(opts.ReplaceAllMetadata))
	query.Set("replaceAllImages", strconv.FormatBool(opts.ReplaceAllImages))

	path := "/Items/" + url.PathEscape(id) + "/Refresh"
	if err := s.doJSON(ctx, http.MethodPost, path, query, nil, nil); err != nil {
		return services.Wrap(services.ErrExternalService, "jellyfin", "refresh library", id, err)
	}
	return nil
}

func (s *httpService) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := s.doJSON(ctx, http.MethodGet, "/System/Info", nil, nil, &info); err != nil {
		return SystemInfo{}, services.Wrap(services.ErrExternalService, "jellyfin", "system info", "", err)
	}
	return info, nil
}

func (s *httpService) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if s.baseURL == "" {
		return fmt.Errorf("server url not configured")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	requestURL := s.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("X-Emby-Token", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		errBody := strings.TrimSpace(string(bodyBytes))
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("unauthorized: check jellyfin.api_key")
		}
		if errBody == "" {
			return fmt.Errorf("jellyfin %s %s returned %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("jellyfin %s %s returned %d: %s", method, path, resp.StatusCode, errBody)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
