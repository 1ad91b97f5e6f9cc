package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"prism/internal/config"
	"prism/internal/daemon"
	"prism/internal/ipc"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
	"prism/internal/testsupport"
)

// fakeHostServer is a minimal in-memory Jellyfin lookalike. The daemon under
// test and the CLI's own clients both talk to it over HTTP, so every code
// path exercises the real wire client.
type fakeHostServer struct {
	mu      sync.Mutex
	nextID  int
	folders []hostFolder
	server  *httptest.Server
}

type hostFolder struct {
	ID             string
	Name           string
	CollectionType string
	Locations      []string
	Language       string
	Country        string
}

type virtualFolderPayload struct {
	Name           string   `json:"Name"`
	Locations      []string `json:"Locations"`
	CollectionType string   `json:"CollectionType"`
	ItemID         string   `json:"ItemId"`
	LibraryOptions struct {
		PreferredMetadataLanguage string `json:"PreferredMetadataLanguage"`
		MetadataCountryCode       string `json:"MetadataCountryCode"`
	} `json:"LibraryOptions"`
}

func newFakeHostServer(t *testing.T) *fakeHostServer {
	t.Helper()

	f := &fakeHostServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/System/Info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ServerName":"fake","Version":"10.9.0","Id":"srv-1","OperatingSystem":"Linux"}`))
	})
	mux.HandleFunc("/Library/VirtualFolders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(f.payload())
		case http.MethodPost:
			var body struct {
				LibraryOptions struct {
					PathInfos []struct {
						Path string `json:"Path"`
					} `json:"PathInfos"`
					PreferredMetadataLanguage string `json:"PreferredMetadataLanguage"`
					MetadataCountryCode       string `json:"MetadataCountryCode"`
				} `json:"LibraryOptions"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			locations := make([]string, 0, len(body.LibraryOptions.PathInfos))
			for _, info := range body.LibraryOptions.PathInfos {
				locations = append(locations, info.Path)
			}
			f.mu.Lock()
			f.nextID++
			f.folders = append(f.folders, hostFolder{
				ID:             fmt.Sprintf("lib-%d", f.nextID),
				Name:           r.URL.Query().Get("name"),
				CollectionType: r.URL.Query().Get("collectionType"),
				Locations:      locations,
				Language:       body.LibraryOptions.PreferredMetadataLanguage,
				Country:        body.LibraryOptions.MetadataCountryCode,
			})
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/Items/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/Refresh") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeHostServer) url() string {
	return f.server.URL
}

func (f *fakeHostServer) payload() []virtualFolderPayload {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload := make([]virtualFolderPayload, 0, len(f.folders))
	for _, folder := range f.folders {
		entry := virtualFolderPayload{
			Name:           folder.Name,
			Locations:      append([]string(nil), folder.Locations...),
			CollectionType: folder.CollectionType,
			ItemID:         folder.ID,
		}
		entry.LibraryOptions.PreferredMetadataLanguage = folder.Language
		entry.LibraryOptions.MetadataCountryCode = folder.Country
		payload = append(payload, entry)
	}
	return payload
}

// addLibrary registers a folder directly, as if it already existed on the
// server, and returns its assigned id.
func (f *fakeHostServer) addLibrary(name, collectionType string, locations ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("lib-%d", f.nextID)
	f.folders = append(f.folders, hostFolder{
		ID:             id,
		Name:           name,
		CollectionType: collectionType,
		Locations:      locations,
	})
	return id
}

// removeLibrary deletes a folder, simulating an admin removing it server-side.
func (f *fakeHostServer) removeLibrary(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.folders[:0]
	for _, folder := range f.folders {
		if folder.ID != id {
			kept = append(kept, folder)
		}
	}
	f.folders = kept
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *mirror.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	host       *fakeHostServer
	socketPath string
	configPath string
	baseDir    string
	cancel     context.CancelFunc
}

// missingSocket returns a socket path nothing listens on, for exercising the
// offline fallbacks.
func (e *cliTestEnv) missingSocket() string {
	return filepath.Join(e.baseDir, "absent.sock")
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	host := newFakeHostServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(host.url(), "test"))

	configPath := filepath.Join(homeDir, ".config", "prism", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	d, err := daemon.New(cfg, store, jellyfin.NewService(host.url(), "test", nil), logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.DataDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		host:       host,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[jellyfin]\nurl = %q\napi_key = %q\n\n[sync]\nwatch = false\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Jellyfin.URL,
		cfg.Jellyfin.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
