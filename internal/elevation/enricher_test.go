package elevation_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/elevation"
	"github.com/trailcap/trailcap/pkg/geo"
)

// mockProvider returns configurable elevations and can fail specific batches.
type mockProvider struct {
	limit      int
	value      float64
	failBatch  int // 1-based batch index to fail; 0 fails none, -1 fails all
	callCount  atomic.Int32
	batchSizes []int
}

func (m *mockProvider) Name() string    { return "mock" }
func (m *mockProvider) BatchLimit() int { return m.limit }

func (m *mockProvider) Lookup(_ context.Context, points []geo.Point) ([]*float64, error) {
	call := int(m.callCount.Add(1))
	m.batchSizes = append(m.batchSizes, len(points))

	if m.failBatch == -1 || m.failBatch == call {
		return nil, errors.New("provider unavailable")
	}

	values := make([]*float64, len(points))
	for i := range values {
		v := m.value + float64(i)
		values[i] = &v
	}
	return values, nil
}

func testPoints(n int) []geo.Point {
	points := make([]geo.Point, n)
	for i := range points {
		points[i] = geo.Point{Lat: 52.0 + float64(i)*0.001, Lon: 4.0}
	}
	return points
}

func newEnricher(p elevation.Provider) *elevation.Enricher {
	return elevation.NewEnricher(elevation.EnricherConfig{
		Provider: p,
		Logger:   zerolog.New(io.Discard),
	})
}

func TestEnricher_ResolvesAll(t *testing.T) {
	provider := &mockProvider{limit: 100, value: 50}
	enricher := newEnricher(provider)

	values, report := enricher.Enrich(context.Background(), testPoints(5))

	require.Len(t, values, 5)
	for _, v := range values {
		assert.NotNil(t, v)
	}
	assert.Equal(t, "mock", report.Provider)
	assert.Equal(t, 5, report.Requested)
	assert.Equal(t, 5, report.Resolved)
	assert.Zero(t, report.Failed)
	assert.NoError(t, report.Err)
	assert.False(t, report.Partial())
}

func TestEnricher_RespectsBatchLimit(t *testing.T) {
	provider := &mockProvider{limit: 4, value: 50}
	enricher := newEnricher(provider)

	_, report := enricher.Enrich(context.Background(), testPoints(10))

	assert.Equal(t, int32(3), provider.callCount.Load())
	assert.Equal(t, []int{4, 4, 2}, provider.batchSizes)
	assert.Equal(t, 10, report.Resolved)
}

func TestEnricher_FailedBatchSkipsOnlyItsSlots(t *testing.T) {
	provider := &mockProvider{limit: 4, value: 50, failBatch: 2}
	enricher := newEnricher(provider)

	values, report := enricher.Enrich(context.Background(), testPoints(10))

	// Batch 2 covers indexes 4-7; everything else resolves.
	for i, v := range values {
		if i >= 4 && i < 8 {
			assert.Nil(t, v, "index %d belongs to the failed batch", i)
		} else {
			assert.NotNil(t, v, "index %d belongs to a good batch", i)
		}
	}

	assert.Equal(t, 6, report.Resolved)
	assert.Equal(t, 4, report.Failed)
	assert.Error(t, report.Err)
	assert.True(t, report.Partial())
}

func TestEnricher_TotalFailureIsNotAnError(t *testing.T) {
	provider := &mockProvider{limit: 100, failBatch: -1}
	enricher := newEnricher(provider)

	values, report := enricher.Enrich(context.Background(), testPoints(3))

	require.Len(t, values, 3)
	for _, v := range values {
		assert.Nil(t, v)
	}
	assert.Equal(t, 3, report.Failed)
	assert.Zero(t, report.Resolved)
	assert.Error(t, report.Err)
	assert.False(t, report.Partial())
}

func TestEnricher_NoProvider(t *testing.T) {
	enricher := elevation.NewEnricher(elevation.EnricherConfig{Logger: zerolog.New(io.Discard)})

	values, report := enricher.Enrich(context.Background(), testPoints(2))

	require.Len(t, values, 2)
	assert.Equal(t, 2, report.Failed)
	assert.ErrorIs(t, report.Err, elevation.ErrNoProvider)
}

func TestEnricher_EmptyInput(t *testing.T) {
	provider := &mockProvider{limit: 100}
	enricher := newEnricher(provider)

	values, report := enricher.Enrich(context.Background(), nil)

	assert.Empty(t, values)
	assert.Zero(t, report.Requested)
	assert.Zero(t, provider.callCount.Load())
}
