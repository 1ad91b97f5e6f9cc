package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"prism/internal/classify"
	"prism/internal/config"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
)

// settleTick is how often pending changes are checked against the debounce
// window, and rebindInterval how often the watched roots are re-resolved
// against the current mirror set.
const (
	settleTick     = 250 * time.Millisecond
	rebindInterval = 5 * time.Minute
)

// binding associates one watched source root with the mirror it feeds.
type binding struct {
	root     string
	mirrorID string
}

// Watcher observes source library roots and requests a sync for the affected
// mirror once changes settle. It is an accelerator for the scheduler's
// polling loop, not a replacement: when inotify is unavailable the daemon
// logs a warning and the interval cycle still converges every mirror.
type Watcher struct {
	store      *mirror.Store
	host       jellyfin.Service
	classifier *classify.Classifier
	kick       func(mirrorID string)
	debounce   time.Duration
	logger     *slog.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	bindings []binding
	pending  map[string]time.Time
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs a watcher that reports settled changes through kick.
func New(cfg *config.Config, store *mirror.Store, host jellyfin.Service, kick func(mirrorID string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		store:      store,
		host:       host,
		classifier: classify.New(cfg),
		kick:       kick,
		debounce:   time.Duration(cfg.Sync.WatchDebounce) * time.Second,
		logger:     logging.NewComponentLogger(logger, "watch"),
		pending:    make(map[string]time.Time),
	}
}

// Start binds the current source roots and begins event processing. A
// missing inotify facility degrades to polling: the failure is logged and
// Start returns nil with the watcher inert.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		logging.WarnWithContext(w.logger, "filesystem watching unavailable", "watch_degraded",
			logging.Error(err),
			logging.Alert("watch_degraded"),
			logging.String(logging.FieldImpact, "changes are picked up by interval polling only"),
		)
		return nil
	}
	w.watcher = fsw
	w.running = true

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	w.rebind(runCtx)
	go w.run(runCtx)
	return nil
}

// Stop terminates event processing and releases the underlying watches.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("close watcher", logging.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	settle := time.NewTicker(settleTick)
	defer settle.Stop()
	rebind := time.NewTicker(rebindInterval)
	defer rebind.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-settle.C:
			w.fireSettled()
		case <-rebind.C:
			w.rebind(ctx)
		}
	}
}

// rebind re-resolves mirrors to source roots and watches any new roots.
// Watches under removed roots stop matching any binding and their events
// are ignored; the kernel drops watches on deleted directories by itself.
func (w *Watcher) rebind(ctx context.Context) {
	logger := logging.WithContext(ctx, w.logger)

	mirrors, err := w.store.ListMirrors(ctx)
	if err != nil {
		logger.Warn("list mirrors for watch binding", logging.Error(err))
		return
	}
	libraries, err := w.host.ListLibraries(ctx)
	if err != nil {
		logger.Warn("list libraries for watch binding", logging.Error(err))
		return
	}
	byID := make(map[string]jellyfin.VirtualLibrary, len(libraries))
	for _, lib := range libraries {
		byID[lib.ID] = lib
	}

	var bindings []binding
	for _, m := range mirrors {
		source, ok := byID[m.SourceLibraryID]
		if !ok {
			continue
		}
		for _, location := range source.Locations {
			root := filepath.Clean(location)
			bindings = append(bindings, binding{root: root, mirrorID: m.ID})
			w.watchTree(logger, root)
		}
	}

	w.mu.Lock()
	w.bindings = bindings
	w.mu.Unlock()
}

// watchTree registers root and every directory below it. Adding an already
// watched directory is harmless.
func (w *Watcher) watchTree(logger *slog.Logger, root string) {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.classifier.ShouldExcludeDirectory(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logger.Debug("watch directory", logging.Error(err), logging.String("path", path))
		}
		return nil
	})
	if err != nil {
		logging.WarnWithContext(logger, "source root not watchable", "watch_degraded",
			logging.Error(err),
			logging.String("path", root),
			logging.String(logging.FieldImpact, "changes under this root are picked up by interval polling only"),
		)
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := filepath.Clean(event.Name)
	w.mu.Lock()
	var matched []binding
	for _, b := range w.bindings {
		if path == b.root || strings.HasPrefix(path, b.root+string(filepath.Separator)) {
			matched = append(matched, b)
		}
	}
	w.mu.Unlock()
	if len(matched) == 0 {
		return
	}

	// A new directory joins the watch set before its contents settle.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.watchTree(w.logger, path)
		}
	}

	now := time.Now()
	w.mu.Lock()
	for _, b := range matched {
		if !w.relevant(b.root, path) {
			continue
		}
		w.pending[b.mirrorID] = now
	}
	w.mu.Unlock()
}

// relevant filters out events for paths the classifier would never mirror,
// so metadata churn from the server does not trigger sync cycles.
func (w *Watcher) relevant(root, path string) bool {
	if path == root {
		return true
	}
	return w.classifier.ShouldHardlink(root, path)
}

func (w *Watcher) fireSettled() {
	now := time.Now()
	w.mu.Lock()
	var settled []string
	for id, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			settled = append(settled, id)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()

	for _, id := range settled {
		w.logger.Debug("change settled; sync requested", logging.String(logging.FieldMirrorID, id))
		w.kick(id)
	}
}
