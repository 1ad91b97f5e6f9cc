package orphan

import (
	"context"
	"fmt"
	"os"
	"sort"

	"log/slog"

	"prism/internal/fileutil"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
)

// Result aggregates one cleanup pass.
type Result struct {
	// Cleaned is the number of mirror records removed.
	Cleaned int

	// Reasons holds one line per cleaned mirror, naming it and the trigger.
	Reasons []string

	// UnmirroredSourceIDs lists source libraries that lost their last mirror
	// during this pass. Callers use it to retire per-user redirections.
	UnmirroredSourceIDs []string

	// BytesFreed counts bytes reclaimed by deleted mirror trees.
	BytesFreed int64
}

// Cleaner removes mirrors whose source or target library vanished on the host.
type Cleaner struct {
	store  *mirror.Store
	host   jellyfin.Service
	logger *slog.Logger
}

// NewCleaner constructs an orphan cleaner.
func NewCleaner(store *mirror.Store, host jellyfin.Service, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cleaner{
		store:  store,
		host:   host,
		logger: logging.NewComponentLogger(logger, "orphan"),
	}
}

// CleanupOrphanedMirrors compares every mirror record against the host's
// current library listing. A mirror whose source library disappeared loses
// its on-disk tree and its record; a mirror whose own target library was
// removed on the host loses only the record, the files stay. Each mirror is
// handled independently; a filesystem failure skips that mirror and leaves
// the record for the next run.
func (c *Cleaner) CleanupOrphanedMirrors(ctx context.Context) (*Result, error) {
	logger := logging.WithContext(ctx, c.logger)

	libraries, err := c.host.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(libraries))
	for _, lib := range libraries {
		present[lib.ID] = true
	}

	mirrors, err := c.store.ListMirrors(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	cleanedSources := make(map[string]bool)
	for _, m := range mirrors {
		switch {
		case !present[m.SourceLibraryID]:
			size := fileutil.TreeSize(m.TargetPath)
			if err := os.RemoveAll(m.TargetPath); err != nil {
				logging.WarnWithContext(logger, "mirror tree not removed", "cleanup_skipped",
					logging.Error(err),
					logging.String(logging.FieldMirrorID, m.ID),
					logging.String("target_path", m.TargetPath),
					logging.String(logging.FieldImpact, "record kept; removal retried on the next cleanup run"),
				)
				continue
			}
			if _, err := c.store.RemoveMirror(ctx, m.ID); err != nil {
				logging.ErrorWithContext(logger, "remove mirror record", "cleanup_skipped",
					logging.Error(err),
					logging.String(logging.FieldMirrorID, m.ID),
				)
				continue
			}
			result.Cleaned++
			result.BytesFreed += size
			result.Reasons = append(result.Reasons, fmt.Sprintf("%s: source deleted", m.DisplayName()))
			cleanedSources[m.SourceLibraryID] = true
			logger.Info("orphaned mirror removed",
				logging.String(logging.FieldMirrorID, m.ID),
				logging.String("reason", "source deleted"),
				logging.Int64("bytes_freed", size),
			)

		case m.Registered() && !present[m.TargetLibraryID]:
			if _, err := c.store.RemoveMirror(ctx, m.ID); err != nil {
				logging.ErrorWithContext(logger, "remove mirror record", "cleanup_skipped",
					logging.Error(err),
					logging.String(logging.FieldMirrorID, m.ID),
				)
				continue
			}
			result.Cleaned++
			result.Reasons = append(result.Reasons, fmt.Sprintf("%s: mirror deleted", m.DisplayName()))
			cleanedSources[m.SourceLibraryID] = true
			logger.Info("orphaned mirror removed",
				logging.String(logging.FieldMirrorID, m.ID),
				logging.String("reason", "mirror deleted"),
			)
		}
	}

	if len(cleanedSources) > 0 {
		remaining, err := c.store.ListMirrors(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range remaining {
			delete(cleanedSources, m.SourceLibraryID)
		}
		for id := range cleanedSources {
			result.UnmirroredSourceIDs = append(result.UnmirroredSourceIDs, id)
		}
		sort.Strings(result.UnmirroredSourceIDs)
	}
	return result, nil
}
