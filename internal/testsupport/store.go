package testsupport

import (
	"context"
	"testing"

	"prism/internal/config"
	"prism/internal/mirror"
)

// MustOpenStore opens a mirror.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *mirror.Store {
	t.Helper()

	store, err := mirror.Open(cfg)
	if err != nil {
		t.Fatalf("mirror.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewAlternative creates a language alternative for tests using the provided store.
func NewAlternative(t testing.TB, store *mirror.Store, name, languageTag string) *mirror.Alternative {
	t.Helper()

	alt, err := store.NewAlternative(context.Background(), name, languageTag)
	if err != nil {
		t.Fatalf("store.NewAlternative: %v", err)
	}
	return alt
}

// NewMirror creates a mirror row for tests using the provided store.
func NewMirror(t testing.TB, store *mirror.Store, alternativeID, sourceLibraryID, targetPath string) *mirror.Mirror {
	t.Helper()

	m, err := store.NewMirror(context.Background(), &mirror.Mirror{
		AlternativeID:   alternativeID,
		SourceLibraryID: sourceLibraryID,
		TargetPath:      targetPath,
	})
	if err != nil {
		t.Fatalf("store.NewMirror: %v", err)
	}
	return m
}
