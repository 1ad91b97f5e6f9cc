package watch_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"prism/internal/services/jellyfin"
	"prism/internal/testsupport"
	"prism/internal/watch"
)

type stubHost struct {
	libraries []jellyfin.VirtualLibrary
}

func (s *stubHost) ListLibraries(ctx context.Context) ([]jellyfin.VirtualLibrary, error) {
	return s.libraries, nil
}

func (s *stubHost) AddLibrary(ctx context.Context, req jellyfin.AddLibraryRequest) error {
	return nil
}

func (s *stubHost) RefreshLibrary(ctx context.Context, libraryID string, opts jellyfin.RefreshOptions) error {
	return nil
}

func (s *stubHost) SystemInfo(ctx context.Context) (jellyfin.SystemInfo, error) {
	return jellyfin.SystemInfo{ServerName: "stub"}, nil
}

func startWatcher(t *testing.T, source string) (string, chan string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Sync.WatchDebounce = 1
	store := testsupport.MustOpenStore(t, cfg)

	host := &stubHost{libraries: []jellyfin.VirtualLibrary{
		{ID: "lib1", Name: "Movies", Locations: []string{source}},
	}}
	alt := testsupport.NewAlternative(t, store, "French", "fr-FR")
	m := testsupport.NewMirror(t, store, alt.ID, "lib1", filepath.Join(t.TempDir(), "Films"))

	kicks := make(chan string, 8)
	w := watch.New(cfg, store, host, func(id string) { kicks <- id }, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return m.ID, kicks
}

func expectKick(t *testing.T, kicks chan string, mirrorID string) {
	t.Helper()
	select {
	case id := <-kicks:
		if id != mirrorID {
			t.Fatalf("kicked mirror %q, want %q", id, mirrorID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for kick")
	}
}

func expectQuiet(t *testing.T, kicks chan string, wait time.Duration) {
	t.Helper()
	select {
	case id := <-kicks:
		t.Fatalf("unexpected kick for mirror %q", id)
	case <-time.After(wait):
	}
}

func TestWatcherKicksAfterContentChange(t *testing.T) {
	source := t.TempDir()
	testsupport.SeedLibraryTree(t, source)
	mirrorID, kicks := startWatcher(t, source)

	testsupport.WriteFile(t, filepath.Join(source, "Movie A (2001)", "Movie A (2001).new.mkv"), 128)

	expectKick(t, kicks, mirrorID)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	source := t.TempDir()
	testsupport.SeedLibraryTree(t, source)
	mirrorID, kicks := startWatcher(t, source)

	for i := 0; i < 5; i++ {
		testsupport.WriteFile(t, filepath.Join(source, "Movie A (2001)", "part.mkv"), int64(64+i))
		time.Sleep(50 * time.Millisecond)
	}

	expectKick(t, kicks, mirrorID)
	expectQuiet(t, kicks, 2*time.Second)
}

func TestWatcherIgnoresMetadataChanges(t *testing.T) {
	source := t.TempDir()
	testsupport.SeedLibraryTree(t, source)
	_, kicks := startWatcher(t, source)

	testsupport.WriteFile(t, filepath.Join(source, "Movie A (2001)", "movie.nfo"), 64)
	testsupport.WriteFile(t, filepath.Join(source, "Movie A (2001)", "poster.jpg"), 64)

	expectQuiet(t, kicks, 3*time.Second)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	source := t.TempDir()
	testsupport.SeedLibraryTree(t, source)
	mirrorID, kicks := startWatcher(t, source)

	testsupport.WriteFile(t, filepath.Join(source, "Movie C (2020)", "Movie C (2020).mkv"), 256)

	expectKick(t, kicks, mirrorID)
}
