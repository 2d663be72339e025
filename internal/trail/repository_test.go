package trail_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/trail"
)

func storedTrail(id, locationID string, createdAt time.Time) *trail.Trail {
	base := createdAt
	wps := []*trail.Waypoint{
		{Lat: 52.0, Lon: 4.0, Timestamp: base},
		{Lat: 52.001, Lon: 4.0, Timestamp: base.Add(time.Minute)},
	}
	return &trail.Trail{
		ID:         id,
		Name:       "Test Trail",
		LocationID: locationID,
		Type:       trail.TypeHiking,
		Difficulty: trail.DifficultyModerate,
		Waypoints:  wps,
		Metrics:    trail.RecomputeMetrics(wps),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestInMemoryRepository_CreateAndGet(t *testing.T) {
	repo := trail.NewInMemoryRepository()
	ctx := context.Background()

	stored := storedTrail("trl_1", "loc_1", time.Now())
	require.NoError(t, repo.Create(ctx, stored))

	got, err := repo.Get(ctx, "trl_1")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Len(t, got.Waypoints, 2)

	_, err = repo.Get(ctx, "trl_missing")
	assert.ErrorIs(t, err, trail.ErrTrailNotFound)
}

func TestInMemoryRepository_ListOrderAndFilter(t *testing.T) {
	repo := trail.NewInMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, storedTrail("trl_old", "loc_1", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(ctx, storedTrail("trl_new", "loc_1", base)))
	require.NoError(t, repo.Create(ctx, storedTrail("trl_other", "loc_2", base.Add(-time.Hour))))

	all, err := repo.List(ctx, trail.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "trl_new", all[0].ID)

	scoped, err := repo.List(ctx, trail.ListOptions{LocationID: "loc_2"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "trl_other", scoped[0].ID)

	limited, err := repo.List(ctx, trail.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestInMemoryRepository_Delete(t *testing.T) {
	repo := trail.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedTrail("trl_1", "loc_1", time.Now())))
	require.NoError(t, repo.Delete(ctx, "trl_1"))

	_, err := repo.Get(ctx, "trl_1")
	assert.ErrorIs(t, err, trail.ErrTrailNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "trl_1"), trail.ErrTrailNotFound)
}
