package trail

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Waypoints are stored per trail in insertion order; metrics point references
// are rebuilt from the waypoint rows on read so they keep borrowing into the
// loaded slice.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trail repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a trail by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Trail, error) {
	query := `
		SELECT id, name, location_id, type, difficulty, gpx, created_at, updated_at
		FROM trails
		WHERE id = $1
	`

	var t Trail
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.LocationID,
		&t.Type,
		&t.Difficulty,
		&t.GPX,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrailNotFound
		}
		return nil, err
	}

	if err := r.loadWaypoints(ctx, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// List retrieves trails, most recent first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Trail, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, name, location_id, type, difficulty, gpx, created_at, updated_at
		FROM trails
		WHERE ($1 = '' OR location_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, opts.LocationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trails []*Trail
	for rows.Next() {
		var t Trail
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.LocationID,
			&t.Type,
			&t.Difficulty,
			&t.GPX,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		trails = append(trails, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range trails {
		if err := r.loadWaypoints(ctx, t); err != nil {
			return nil, err
		}
	}

	return trails, nil
}

// Create stores a finalized trail and its waypoints in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, t *Trail) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO trails (
			id, name, location_id, type, difficulty,
			distance_m, elevation_gain_m, elevation_loss_m,
			gpx, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		t.ID, t.Name, t.LocationID, t.Type, t.Difficulty,
		t.Metrics.Distance, t.Metrics.ElevationGain, t.Metrics.ElevationLoss,
		t.GPX, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trail: %w", err)
	}

	for i, wp := range t.Waypoints {
		_, err = tx.Exec(ctx, `
			INSERT INTO trail_waypoints (
				trail_id, seq, lat, lon, elevation, recorded_at, accuracy_m, manual
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			t.ID, i, wp.Lat, wp.Lon, wp.Elevation, wp.Timestamp, wp.Accuracy, wp.Manual,
		)
		if err != nil {
			return fmt.Errorf("insert waypoint %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a trail and its waypoints.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trails WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrailNotFound
	}
	return nil
}

// loadWaypoints fetches a trail's waypoints in order and rebuilds the metrics
// snapshot over the loaded slice.
func (r *PostgresRepository) loadWaypoints(ctx context.Context, t *Trail) error {
	rows, err := r.pool.Query(ctx, `
		SELECT lat, lon, elevation, recorded_at, accuracy_m, manual
		FROM trail_waypoints
		WHERE trail_id = $1
		ORDER BY seq ASC
	`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var waypoints []*Waypoint
	for rows.Next() {
		var wp Waypoint
		err := rows.Scan(&wp.Lat, &wp.Lon, &wp.Elevation, &wp.Timestamp, &wp.Accuracy, &wp.Manual)
		if err != nil {
			return err
		}
		waypoints = append(waypoints, &wp)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	t.Waypoints = waypoints
	t.Metrics = RecomputeMetrics(waypoints)
	return nil
}
