package classify

import (
	"path/filepath"
	"strings"

	"prism/internal/config"
)

// Jellyfin regenerates metadata sidecars per library, so mirroring them
// would poison the target library's scan. Everything else is content.
var defaultExcludedExtensions = []string{
	".nfo",
	".jpg",
	".jpeg",
	".png",
	".gif",
	".bmp",
	".webp",
	".tbn",
	".ico",
}

var defaultExcludedDirectories = []string{
	".trickplay",
	"extrafanart",
	"extrathumbs",
	".actors",
	"metadata",
}

// Classifier decides which files and directories belong in a mirror tree.
// It is an exclusion list: anything not recognized as metadata is content.
type Classifier struct {
	extensions  map[string]struct{}
	directories map[string]struct{}
}

// New builds a classifier from the built-in rules plus any configured extras.
func New(cfg *config.Config) *Classifier {
	var extraExts, extraDirs []string
	if cfg != nil {
		extraExts = cfg.Classifier.ExcludeExtensions
		extraDirs = cfg.Classifier.ExcludeDirectories
	}
	return NewWithRules(extraExts, extraDirs)
}

// NewWithRules builds a classifier from the built-in rules plus the given
// extra extensions and directory names. Matching is case-insensitive.
func NewWithRules(extraExtensions, extraDirectories []string) *Classifier {
	c := &Classifier{
		extensions:  make(map[string]struct{}, len(defaultExcludedExtensions)+len(extraExtensions)),
		directories: make(map[string]struct{}, len(defaultExcludedDirectories)+len(extraDirectories)),
	}
	for _, ext := range defaultExcludedExtensions {
		c.extensions[ext] = struct{}{}
	}
	for _, ext := range extraExtensions {
		normalized := normalizeExtension(ext)
		if normalized != "" {
			c.extensions[normalized] = struct{}{}
		}
	}
	for _, dir := range defaultExcludedDirectories {
		c.directories[dir] = struct{}{}
	}
	for _, dir := range extraDirectories {
		normalized := strings.ToLower(strings.TrimSpace(dir))
		if normalized != "" {
			c.directories[filepath.Base(normalized)] = struct{}{}
		}
	}
	return c
}

// ShouldHardlink reports whether the file at path belongs in a mirror of
// root. It is false when the extension is excluded or when any directory
// between root and the file matches an excluded name.
func (c *Classifier) ShouldHardlink(root, path string) bool {
	if c.excludedExtension(path) {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		// Outside the root; judge by the full parent chain instead.
		rel = path
	}
	dir := filepath.Dir(rel)
	for dir != "." && dir != string(filepath.Separator) && dir != "" {
		if c.ShouldExcludeDirectory(dir) {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return true
}

// ShouldExcludeDirectory reports whether a directory's base name is excluded.
func (c *Classifier) ShouldExcludeDirectory(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	_, excluded := c.directories[name]
	return excluded
}

func (c *Classifier) excludedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, excluded := c.extensions[ext]
	return excluded
}

func normalizeExtension(ext string) string {
	normalized := strings.ToLower(strings.TrimSpace(ext))
	if normalized == "" {
		return ""
	}
	if !strings.HasPrefix(normalized, ".") {
		normalized = "." + normalized
	}
	return normalized
}
