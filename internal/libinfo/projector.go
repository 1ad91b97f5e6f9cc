// Package libinfo projects the host's library listing into a view that
// flags prism-managed mirrors and the language alternative each belongs to.
package libinfo

import (
	"context"
	"sort"

	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
)

// Library is one host library annotated with mirror ownership.
type Library struct {
	ID                        string
	Name                      string
	CollectionType            string
	Locations                 []string
	PreferredMetadataLanguage string
	MetadataCountryCode       string

	// IsMirror marks libraries whose id matches a mirror's target library.
	IsMirror        bool
	MirrorID        string
	AlternativeID   string
	AlternativeName string
}

// Projector builds annotated library listings. It reads mirror records and
// the host's current listing; it never mutates either.
type Projector struct {
	store *mirror.Store
	host  jellyfin.Service
}

// NewProjector constructs a projector.
func NewProjector(store *mirror.Store, host jellyfin.Service) *Projector {
	return &Projector{store: store, host: host}
}

// List returns every host library, sorted by name, with mirror targets
// annotated. Mirrors whose target library id is still unresolved annotate
// nothing.
func (p *Projector) List(ctx context.Context) ([]Library, error) {
	libraries, err := p.host.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}
	mirrors, err := p.store.ListMirrors(ctx)
	if err != nil {
		return nil, err
	}
	alternatives, err := p.store.ListAlternatives(ctx)
	if err != nil {
		return nil, err
	}

	altNames := make(map[string]string, len(alternatives))
	for _, alt := range alternatives {
		altNames[alt.ID] = alt.Name
	}
	byTarget := make(map[string]*mirror.Mirror, len(mirrors))
	for _, m := range mirrors {
		if m.Registered() {
			byTarget[m.TargetLibraryID] = m
		}
	}

	out := make([]Library, 0, len(libraries))
	for _, lib := range libraries {
		entry := Library{
			ID:                        lib.ID,
			Name:                      lib.Name,
			CollectionType:            lib.CollectionType,
			Locations:                 lib.Locations,
			PreferredMetadataLanguage: lib.PreferredMetadataLanguage,
			MetadataCountryCode:       lib.MetadataCountryCode,
		}
		if m, ok := byTarget[lib.ID]; ok {
			entry.IsMirror = true
			entry.MirrorID = m.ID
			entry.AlternativeID = m.AlternativeID
			entry.AlternativeName = altNames[m.AlternativeID]
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
