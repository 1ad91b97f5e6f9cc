package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// SeedLibraryTree lays out a small movie library under root: two movie folders
// holding media, subtitles, and the metadata sidecars a sync should skip. It
// returns the relative paths of files a mirror is expected to carry.
func SeedLibraryTree(t testing.TB, root string) []string {
	t.Helper()

	expected := []string{
		filepath.Join("Movie A (2001)", "Movie A (2001).mkv"),
		filepath.Join("Movie A (2001)", "Movie A (2001).en.srt"),
		filepath.Join("Movie B (2004)", "Movie B (2004).mkv"),
	}
	for _, rel := range expected {
		WriteFile(t, filepath.Join(root, rel), 2048)
	}

	skipped := []string{
		filepath.Join("Movie A (2001)", "movie.nfo"),
		filepath.Join("Movie A (2001)", "poster.jpg"),
		filepath.Join("Movie B (2004)", "fanart.png"),
		filepath.Join("Movie B (2004)", ".trickplay", "tiles.bif"),
	}
	for _, rel := range skipped {
		WriteFile(t, filepath.Join(root, rel), 64)
	}

	return expected
}
