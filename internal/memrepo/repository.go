package memrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

// Repository is a mutex-guarded, map-backed partnercache.Repository for
// tests and for runs with the database disabled.
type Repository struct {
	mu       sync.RWMutex
	partners map[string]partner.Record
}

// New creates an empty in-memory repository, optionally seeded with recs.
func New(recs ...partner.Record) *Repository {
	r := &Repository{partners: make(map[string]partner.Record, len(recs))}
	for _, rec := range recs {
		r.partners[rec.ID] = rec
	}
	return r
}

func (r *Repository) FindActive(_ context.Context) ([]partner.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]partner.Record, 0, len(r.partners))
	for _, rec := range r.partners {
		if rec.Enabled {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *Repository) FindByIDAndEnabled(_ context.Context, id string) (partner.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.partners[id]
	if !ok || !rec.Enabled {
		return partner.Record{}, false, nil
	}
	return rec, true, nil
}

func (r *Repository) Save(_ context.Context, rec partner.Record) (partner.Record, error) {
	if err := rec.Validate(); err != nil {
		return partner.Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.partners[rec.ID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.partners[rec.ID] = rec
	return rec, nil
}

func (r *Repository) SetEnabled(_ context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.partners[id]
	if !ok {
		return fmt.Errorf("memrepo: partner %s not found", id)
	}
	rec.Enabled = enabled
	rec.UpdatedAt = time.Now()
	r.partners[id] = rec
	return nil
}
