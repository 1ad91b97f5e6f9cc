package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLinkCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	dst := filepath.Join(dir, "mirror", "Movie (2001)", "Movie (2001).mkv")

	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Link(src, dst); err != nil {
		t.Fatal(err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(srcInfo, dstInfo) {
		t.Fatal("expected hardlink to share the inode")
	}
}

func TestLinkRefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	dst := filepath.Join(dir, "dst.mkv")
	for _, path := range []string{src, dst} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := Link(src, dst); err == nil {
		t.Fatal("expected error linking over an existing file")
	}
}

func TestRelinkReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	dst := filepath.Join(dir, "dst.mkv")
	if err := os.WriteFile(src, []byte("new content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Relink(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new content" {
		t.Fatalf("expected relinked content, got %q", got)
	}

	// Missing target is fine too.
	if err := os.Remove(dst); err != nil {
		t.Fatal(err)
	}
	if err := Relink(src, dst); err != nil {
		t.Fatal(err)
	}
}

func TestUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	linked := filepath.Join(dir, "linked.mkv")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Link(src, linked); err != nil {
		t.Fatal(err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	linkedInfo, err := os.Stat(linked)
	if err != nil {
		t.Fatal(err)
	}
	if !Unchanged(srcInfo, linkedInfo) {
		t.Fatal("expected same-inode files to be unchanged")
	}

	// An independent file with the same stat also counts as unchanged.
	copied := filepath.Join(dir, "copied.mkv")
	if err := os.WriteFile(copied, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(copied, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		t.Fatal(err)
	}
	copiedInfo, err := os.Stat(copied)
	if err != nil {
		t.Fatal(err)
	}
	if !Unchanged(srcInfo, copiedInfo) {
		t.Fatal("expected matching size and mtime to be unchanged")
	}

	// Different size means changed.
	grown := filepath.Join(dir, "grown.mkv")
	if err := os.WriteFile(grown, []byte("payload plus"), 0o644); err != nil {
		t.Fatal(err)
	}
	grownInfo, err := os.Stat(grown)
	if err != nil {
		t.Fatal(err)
	}
	if Unchanged(srcInfo, grownInfo) {
		t.Fatal("expected different sizes to be changed")
	}

	// Same size, different mtime means changed.
	shifted := filepath.Join(dir, "shifted.mkv")
	if err := os.WriteFile(shifted, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := srcInfo.ModTime().Add(-time.Hour)
	if err := os.Chtimes(shifted, past, past); err != nil {
		t.Fatal(err)
	}
	shiftedInfo, err := os.Stat(shifted)
	if err != nil {
		t.Fatal(err)
	}
	if Unchanged(srcInfo, shiftedInfo) {
		t.Fatal("expected different mtimes to be changed")
	}
}

func TestTreeSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.mkv"), make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.mkv"), make([]byte, 50), 0o644); err != nil {
		t.Fatal(err)
	}

	if size := TreeSize(dir); size != 150 {
		t.Fatalf("expected 150 bytes, got %d", size)
	}
	if size := TreeSize(filepath.Join(dir, "missing")); size != 0 {
		t.Fatalf("expected 0 for missing root, got %d", size)
	}
}

func TestPruneEmptyDirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "kept"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kept", "file.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneEmptyDirs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 directories removed, got %d", removed)
	}

	if _, err := os.Stat(filepath.Join(dir, "empty")); !os.IsNotExist(err) {
		t.Fatal("expected empty chain removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "kept", "file.mkv")); err != nil {
		t.Fatal("expected populated directory kept")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal("expected root kept")
	}
}
