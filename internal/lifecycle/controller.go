package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"prism/internal/language"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/reconcile"
	"prism/internal/services"
	"prism/internal/services/jellyfin"
)

// Controller drives mirror creation and validation against the live host.
type Controller struct {
	store  *mirror.Store
	host   jellyfin.Service
	syncer *reconcile.Syncer
	logger *slog.Logger
}

// NewController constructs a lifecycle controller.
func NewController(store *mirror.Store, host jellyfin.Service, syncer *reconcile.Syncer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		store:  store,
		host:   host,
		syncer: syncer,
		logger: logging.NewComponentLogger(logger, "lifecycle"),
	}
}

// CreateRequest describes the mirror to create.
type CreateRequest struct {
	SourceLibraryID string
	TargetPath      string

	// Name overrides the generated target library name.
	Name string
}

// Validate checks a proposed mirror configuration against the host's current
// libraries. It returns false with a human-readable reason on the first
// failed check and has no side effects.
func (c *Controller) Validate(ctx context.Context, sourceLibraryID, targetPath string) (bool, string) {
	libraries, err := c.host.ListLibraries(ctx)
	if err != nil {
		return false, fmt.Sprintf("cannot list libraries: %v", err)
	}
	return validateAgainst(libraries, sourceLibraryID, targetPath)
}

func validateAgainst(libraries []jellyfin.VirtualLibrary, sourceLibraryID, targetPath string) (bool, string) {
	source := libraryByID(libraries, sourceLibraryID)
	if source == nil {
		return false, "source library not found"
	}
	if len(source.Locations) == 0 {
		return false, "source library has no paths"
	}
	target := strings.TrimSpace(targetPath)
	if target == "" {
		return false, "target path is required"
	}
	if hasTraversal(target) {
		return false, "target path contains traversal"
	}
	cleaned := filepath.Clean(target)
	for _, location := range source.Locations {
		loc := filepath.Clean(location)
		if cleaned == loc || isSubpath(loc, cleaned) || isSubpath(cleaned, loc) {
			return false, "target path is inside or contains a source library path"
		}
	}
	return true, ""
}

func libraryByID(libraries []jellyfin.VirtualLibrary, id string) *jellyfin.VirtualLibrary {
	id = strings.TrimSpace(id)
	for i := range libraries {
		if libraries[i].ID == id {
			return &libraries[i]
		}
	}
	return nil
}

func hasTraversal(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// isSubpath reports whether child lives strictly below parent.
func isSubpath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Create validates, persists, and materializes a new mirror: the target
// library is registered with the host, its assigned id re-resolved from a
// fresh listing, the tree synchronized once, and a full metadata refresh
// queued. A refresh failure is logged, not fatal; a sync failure leaves the
// mirror errored and is returned alongside the persisted row.
func (c *Controller) Create(ctx context.Context, alternativeID string, req CreateRequest, fn reconcile.ProgressFunc) (*mirror.Mirror, error) {
	ctx = services.WithOperation(ctx, "create")
	logger := logging.WithContext(ctx, c.logger)

	alt, err := c.store.GetAlternative(ctx, alternativeID)
	if err != nil {
		return nil, err
	}
	if alt == nil {
		return nil, services.Wrap(services.ErrNotFound, "lifecycle", "create mirror", "alternative not found", nil)
	}

	libraries, err := c.host.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}
	if ok, reason := validateAgainst(libraries, req.SourceLibraryID, req.TargetPath); !ok {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "create mirror", reason, nil)
	}
	source := libraryByID(libraries, req.SourceLibraryID)

	targetPath := filepath.Clean(strings.TrimSpace(req.TargetPath))
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s (%s)", source.Name, alt.Name)
	}

	m, err := c.store.NewMirror(ctx, &mirror.Mirror{
		AlternativeID:     alt.ID,
		SourceLibraryID:   source.ID,
		SourceLibraryName: source.Name,
		TargetPath:        targetPath,
		TargetLibraryName: name,
		CollectionType:    source.CollectionType,
	})
	if err != nil {
		return nil, err
	}
	logger = logger.With(logging.String(logging.FieldMirrorID, m.ID))

	// The host refuses to register a library whose folder does not exist.
	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		c.discard(ctx, m.ID)
		return nil, fmt.Errorf("create target root: %w", err)
	}

	if err := c.host.AddLibrary(ctx, jellyfin.AddLibraryRequest{
		Name:                      name,
		CollectionType:            source.CollectionType,
		Paths:                     []string{targetPath},
		PreferredMetadataLanguage: language.ISO639_1(alt.LanguageTag),
		MetadataCountryCode:       language.Region(alt.LanguageTag),
	}); err != nil {
		c.discard(ctx, m.ID)
		return nil, err
	}
	logger.Info("target library registered",
		logging.String("name", name),
		logging.String("collection_type", source.CollectionType),
	)

	if err := c.resolveTargetID(ctx, logger, m, name, targetPath); err != nil {
		logging.WarnWithContext(logger, "target library id unresolved", "target_id_unresolved",
			logging.Error(err),
			logging.String(logging.FieldImpact, "library view will not flag this mirror until the next sync run"),
		)
	}

	syncErr := c.syncer.Synchronize(ctx, m, source.Locations, fn)
	if syncErr == nil && m.Registered() {
		if err := c.host.RefreshLibrary(ctx, m.TargetLibraryID, jellyfin.FullRefreshOptions()); err != nil {
			logging.WarnWithContext(logger, "refresh not queued", "refresh_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metadata appears after the host's own periodic scan"),
			)
		}
	}

	persisted, getErr := c.store.GetMirror(ctx, m.ID)
	if getErr != nil {
		return nil, getErr
	}
	return persisted, syncErr
}

// resolveTargetID finds the id the host assigned to the freshly registered
// library, matching by name first and seeded path second.
func (c *Controller) resolveTargetID(ctx context.Context, logger *slog.Logger, m *mirror.Mirror, name, targetPath string) error {
	libraries, err := c.host.ListLibraries(ctx)
	if err != nil {
		return err
	}

	var resolved *jellyfin.VirtualLibrary
	for i := range libraries {
		if libraries[i].Name == name {
			resolved = &libraries[i]
			break
		}
	}
	if resolved == nil {
		for i := range libraries {
			for _, location := range libraries[i].Locations {
				if filepath.Clean(location) == targetPath {
					resolved = &libraries[i]
					break
				}
			}
			if resolved != nil {
				break
			}
		}
	}
	if resolved == nil {
		return fmt.Errorf("registered library %q not present in listing", name)
	}

	m.TargetLibraryID = resolved.ID
	m.TargetLibraryName = resolved.Name
	if err := c.store.UpdateMirror(ctx, m); err != nil {
		return err
	}
	logger.Info("target library resolved", logging.String(logging.FieldLibraryID, resolved.ID))
	return nil
}

// discard removes a mirror row that never got a registered library.
func (c *Controller) discard(ctx context.Context, id string) {
	if _, err := c.store.RemoveMirror(context.WithoutCancel(ctx), id); err != nil {
		c.logger.Error("remove unregistered mirror", logging.Error(err), logging.String(logging.FieldMirrorID, id))
	}
}
