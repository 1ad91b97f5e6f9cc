package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Link creates dst as a hardlink to src, creating parent directories with
// default permissions (0o755) as needed. It fails if dst already exists.
func Link(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return os.Link(src, dst)
}

// Relink replaces dst with a fresh hardlink to src. A missing dst is fine.
func Relink(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale target: %w", err)
	}
	return Link(src, dst)
}

// Unchanged reports whether dst still mirrors src: either both names point
// at the same inode, or size and modification time are equal. A source that
// was merely touched (same inode) never counts as changed; a replaced
// source (new inode, new stat) always does.
func Unchanged(src, dst os.FileInfo) bool {
	if src == nil || dst == nil {
		return false
	}
	if os.SameFile(src, dst) {
		return true
	}
	return src.Size() == dst.Size() && src.ModTime().Equal(dst.ModTime())
}

// TreeSize sums the sizes of all regular files under root. A missing root
// counts as zero. Unreadable entries are skipped.
func TreeSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			if info, infoErr := d.Info(); infoErr == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// PruneEmptyDirs removes directories under root that contain no files,
// deepest first. The root itself is kept. It returns the number of
// directories removed.
func PruneEmptyDirs(root string) (int, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk target: %w", err)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return len(dirs[i]) > len(dirs[j])
	})

	removed := 0
	for _, dir := range dirs {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			return removed, fmt.Errorf("read dir: %w", readErr)
		}
		if len(entries) != 0 {
			continue
		}
		if removeErr := os.Remove(dir); removeErr != nil {
			return removed, fmt.Errorf("remove empty dir: %w", removeErr)
		}
		removed++
	}
	return removed, nil
}
