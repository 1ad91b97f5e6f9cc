package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"log/slog"

	"prism/internal/classify"
	"prism/internal/fileutil"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/services"
)

// ErrSyncInProgress indicates another worker already holds the mirror's claim.
var ErrSyncInProgress = errors.New("sync already in progress")

// ProgressFunc receives one call per qualifying file with a monotonically
// non-decreasing percentage that ends at exactly 100. A mirror with no
// qualifying files receives a single 100.
type ProgressFunc func(percent float64, message string)

// Syncer converges mirror trees with their source libraries.
type Syncer struct {
	store      *mirror.Store
	classifier *classify.Classifier
	logger     *slog.Logger
}

// NewSyncer constructs a syncer around the given store and classifier.
func NewSyncer(store *mirror.Store, classifier *classify.Classifier, logger *slog.Logger) *Syncer {
	if classifier == nil {
		classifier = classify.NewWithRules(nil, nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{
		store:      store,
		classifier: classifier,
		logger:     logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Synchronize claims the mirror, links qualifying source files into the
// target tree, prunes entries whose source vanished, and records the outcome.
// Per-file failures are logged and skipped; a failure at a source root marks
// the mirror errored. Cancellation releases the claim back to pending.
func (s *Syncer) Synchronize(ctx context.Context, m *mirror.Mirror, roots []string, fn ProgressFunc) error {
	if m == nil || m.ID == "" {
		return services.Wrap(services.ErrValidation, "reconcile", "synchronize", "mirror is required", nil)
	}
	if m.TargetPath == "" {
		return services.Wrap(services.ErrValidation, "reconcile", "synchronize", "mirror has no target path", nil)
	}

	claimed, err := s.store.BeginSync(ctx, m.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("%w: %s", ErrSyncInProgress, m.DisplayName())
	}

	ctx = services.WithMirrorID(ctx, m.ID)
	ctx = services.WithAlternativeID(ctx, m.AlternativeID)
	logger := logging.WithContext(ctx, s.logger)
	count, runErr := s.run(ctx, logger, m, roots, fn)
	if runErr != nil {
		// The claim must be resolved even when ctx is already dead.
		cleanupCtx := context.WithoutCancel(ctx)
		if errors.Is(runErr, context.Canceled) {
			if releaseErr := s.store.ReleaseSync(cleanupCtx, m.ID, mirror.InterruptedMessage); releaseErr != nil {
				logger.Error("release interrupted mirror", logging.Error(releaseErr))
			}
			logger.Info("sync interrupted", logging.String("mirror", m.DisplayName()))
			return runErr
		}
		if failErr := s.store.FailSync(cleanupCtx, m.ID, runErr.Error()); failErr != nil {
			logger.Error("record sync failure", logging.Error(failErr))
		}
		logging.ErrorWithContext(logger, "sync failed", "mirror_sync_failed",
			logging.String("mirror", m.DisplayName()),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, services.Hint(runErr)),
		)
		return runErr
	}

	if err := s.store.FinishSync(ctx, m.ID, count); err != nil {
		return err
	}
	logger.Info("sync complete",
		logging.String("mirror", m.DisplayName()),
		logging.Int("files", count),
	)
	return nil
}

func (s *Syncer) run(ctx context.Context, logger *slog.Logger, m *mirror.Mirror, roots []string, fn ProgressFunc) (int, error) {
	if err := os.MkdirAll(m.TargetPath, 0o755); err != nil {
		return 0, fmt.Errorf("create target root: %w", err)
	}

	files, err := s.collect(ctx, logger, roots)
	if err != nil {
		return 0, err
	}
	count := len(files)

	sampler := logging.NewProgressSampler(0)
	record := func(percent float64, phase, message string) {
		if fn != nil {
			fn(percent, message)
		}
		if !sampler.ShouldLog(percent, phase, message) {
			return
		}
		if err := s.store.SetSyncProgress(ctx, m.ID, percent, message); err != nil {
			logger.Warn("persist sync progress", logging.Error(err))
		}
		logger.Info("sync progress",
			logging.Float64(logging.FieldProgressPercent, percent),
			logging.String(logging.FieldProgressPhase, phase),
			logging.String(logging.FieldProgressMessage, message),
		)
	}

	var linked, relinked, unchanged, skipped int
	if count == 0 {
		record(100, "link", "no content files")
	} else {
		rels := make([]string, 0, count)
		for rel := range files {
			rels = append(rels, rel)
		}
		sort.Strings(rels)

		for processed, rel := range rels {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			action, fileErr := s.syncFile(files[rel], filepath.Join(m.TargetPath, rel))
			switch {
			case fileErr != nil:
				skipped++
				logging.WarnWithContext(logger, "file skipped", "sync_file_skipped",
					logging.String("path", rel),
					logging.Error(fileErr),
					logging.String(logging.FieldImpact, "file missing from mirror until next sync"),
				)
			case action == actionLinked:
				linked++
			case action == actionRelinked:
				relinked++
			default:
				unchanged++
			}
			percent := float64(processed+1) * 100 / float64(count)
			record(percent, "link", fmt.Sprintf("%s (%d/%d)", rel, processed+1, count))
		}
	}

	pruned, err := s.prune(ctx, logger, m.TargetPath, files)
	if err != nil {
		return 0, err
	}

	logger.Info("tree reconciled",
		logging.Int("linked", linked),
		logging.Int("relinked", relinked),
		logging.Int("unchanged", unchanged),
		logging.Int("skipped", skipped),
		logging.Int("pruned", pruned),
	)
	return count, nil
}

// collect walks the source roots and returns qualifying files keyed by their
// path relative to the root. Later roots win when two roots carry the same
// relative path, matching the server's merged view of multi-location
// libraries.
func (s *Syncer) collect(ctx context.Context, logger *slog.Logger, roots []string) (map[string]string, error) {
	files := make(map[string]string)
	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return fmt.Errorf("walk source root: %w", err)
				}
				logging.WarnWithContext(logger, "unreadable source entry", "sync_entry_unreadable",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "subtree missing from mirror until readable"),
				)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if cancelErr := ctx.Err(); cancelErr != nil {
					return cancelErr
				}
				if path != root && s.classifier.ShouldExcludeDirectory(path) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !s.classifier.ShouldHardlink(root, path) {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}
			files[rel] = path
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return files, nil
}

type fileAction int

const (
	actionUnchanged fileAction = iota
	actionLinked
	actionRelinked
)

func (s *Syncer) syncFile(src, dst string) (fileAction, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return actionUnchanged, fmt.Errorf("stat source: %w", err)
	}

	dstInfo, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		if linkErr := fileutil.Link(src, dst); linkErr != nil {
			return actionUnchanged, linkErr
		}
		return actionLinked, nil
	}
	if err != nil {
		return actionUnchanged, fmt.Errorf("stat target: %w", err)
	}

	if fileutil.Unchanged(srcInfo, dstInfo) {
		return actionUnchanged, nil
	}
	if err := fileutil.Relink(src, dst); err != nil {
		return actionUnchanged, err
	}
	return actionRelinked, nil
}

// prune removes target files with no qualifying source counterpart, then
// clears out directories left empty.
func (s *Syncer) prune(ctx context.Context, logger *slog.Logger, targetPath string, files map[string]string) (int, error) {
	removed := 0
	walkErr := filepath.WalkDir(targetPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == targetPath {
				return fmt.Errorf("walk target root: %w", err)
			}
			logging.WarnWithContext(logger, "unreadable target entry", "prune_entry_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale entries remain until next sync"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(targetPath, path)
		if relErr != nil {
			return nil
		}
		if _, keep := files[rel]; keep {
			return nil
		}
		if removeErr := os.Remove(path); removeErr != nil {
			logging.WarnWithContext(logger, "stale file not removed", "prune_remove_failed",
				logging.String("path", rel),
				logging.Error(removeErr),
				logging.String(logging.FieldImpact, "stale file remains until next sync"),
			)
			return nil
		}
		removed++
		return nil
	})
	if walkErr != nil {
		return removed, walkErr
	}

	if _, err := fileutil.PruneEmptyDirs(targetPath); err != nil {
		logging.WarnWithContext(logger, "empty directories not pruned", "prune_dirs_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "empty directories remain until next sync"),
		)
	}
	return removed, nil
}
