package trail

import "context"

// ListOptions contains options for listing trails.
type ListOptions struct {
	Limit      int
	LocationID string
}

// Repository defines the interface for finalized trail persistence.
// Trails are immutable once stored; there is no update.
type Repository interface {
	// Get retrieves a trail by ID. Returns ErrTrailNotFound if absent.
	Get(ctx context.Context, id string) (*Trail, error)

	// List retrieves trails, most recent first.
	List(ctx context.Context, opts ListOptions) ([]*Trail, error)

	// Create stores a finalized trail.
	Create(ctx context.Context, t *Trail) error

	// Delete removes a trail by ID.
	Delete(ctx context.Context, id string) error
}
