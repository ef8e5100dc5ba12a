package cache

import (
	"context"
	"fmt"
	"sync"

	"i18n-analyzer/internal/analysis"
	"i18n-analyzer/internal/project"

	"github.com/rs/zerolog/log"
)

// maxIDAttempts bounds how often UniqueIDs redraws on collision.
const maxIDAttempts = 64

// IDSource lists the ids already stored for a version.
type IDSource interface {
	KnownIDs(ctx context.Context, ref project.VersionRef) ([]string, error)
}

// IDRegistry is the set of translatable ids in use: those found in source
// plus those known to the translation store.
type IDRegistry struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

// NewIDRegistry creates an empty registry.
func NewIDRegistry() *IDRegistry {
	return &IDRegistry{known: make(map[string]struct{})}
}

// Add registers ids. Empty ids are ignored.
func (r *IDRegistry) Add(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			r.known[id] = struct{}{}
		}
	}
}

// AddElements registers the ids of extracted elements.
func (r *IDRegistry) AddElements(elems []*analysis.TranslatableSrcElement) {
	ids := make([]string, 0, len(elems))
	for _, e := range elems {
		ids = append(ids, e.IDOrEmpty())
	}
	r.Add(ids...)
}

// Has reports whether id is in use.
func (r *IDRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[id]
	return ok
}

// Len returns the number of registered ids.
func (r *IDRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}

// Preload loads all ids stored for ref.
func (r *IDRegistry) Preload(ctx context.Context, src IDSource, ref project.VersionRef) error {
	ids, err := src.KnownIDs(ctx, ref)
	if err != nil {
		return fmt.Errorf("preload ids: %w", err)
	}
	r.Add(ids...)
	log.Info().Int("count", len(ids)).Str("version", ref.String()).Msg("Preloaded translatable ids")
	return nil
}

// UniqueIDs wraps gen so that every id it hands out is new to the registry.
// Handed out ids are registered immediately.
func (r *IDRegistry) UniqueIDs(gen analysis.IDGenerator) analysis.IDGenerator {
	return analysis.IDGeneratorFunc(func() string {
		r.mu.Lock()
		defer r.mu.Unlock()

		var id string
		for attempt := 0; attempt < maxIDAttempts; attempt++ {
			id = gen.NewID()
			if _, taken := r.known[id]; !taken {
				r.known[id] = struct{}{}
				return id
			}
		}
		log.Warn().Str("id", id).Int("attempts", maxIDAttempts).Msg("Could not generate an unused id")
		return id
	})
}
