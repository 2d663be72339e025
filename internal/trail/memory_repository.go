package trail

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production should use
// PostgresRepository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	trails map[string]*Trail
}

// NewInMemoryRepository creates a new in-memory trail repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trails: make(map[string]*Trail),
	}
}

// Get retrieves a trail by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Trail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trails[id]
	if !ok {
		return nil, ErrTrailNotFound
	}

	// Trails are immutable once finalized; handing out the stored pointer
	// is safe.
	return t, nil
}

// List retrieves trails, most recent first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Trail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trails []*Trail
	for _, t := range r.trails {
		if opts.LocationID != "" && t.LocationID != opts.LocationID {
			continue
		}
		trails = append(trails, t)
	}

	sort.Slice(trails, func(a, b int) bool {
		return trails[a].CreatedAt.After(trails[b].CreatedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(trails) > limit {
		trails = trails[:limit]
	}

	return trails, nil
}

// Create stores a finalized trail.
func (r *InMemoryRepository) Create(_ context.Context, t *Trail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trails[t.ID] = t
	return nil
}

// Delete removes a trail by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trails[id]; !ok {
		return ErrTrailNotFound
	}

	delete(r.trails, id)
	return nil
}
