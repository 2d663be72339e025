// Package elevation provides best-effort elevation enrichment for trail
// waypoints via pluggable lookup providers.
package elevation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/pkg/geo"
)

// Provider errors.
var (
	ErrNoProvider = errors.New("no elevation provider configured")
)

// Provider defines the interface for batched elevation lookup services.
type Provider interface {
	// Name identifies the provider.
	Name() string

	// BatchLimit is the maximum number of coordinates per lookup call.
	BatchLimit() int

	// Lookup returns one elevation per input point, aligned by input
	// order. A nil entry means the provider had no value for that point.
	Lookup(ctx context.Context, points []geo.Point) ([]*float64, error)
}

// Report describes the outcome of an enrichment pass. Enrichment is
// best-effort: a failed or partial pass is reported here, never as an error
// to the caller.
type Report struct {
	// Provider is the provider name, empty when enrichment was skipped.
	Provider string

	// Requested is the number of points submitted for lookup.
	Requested int

	// Resolved is the number of points that received an elevation value.
	Resolved int

	// Failed is the number of points left without a value, whether from
	// batch failures or provider gaps.
	Failed int

	// Err records the last batch failure, nil on a clean pass.
	Err error
}

// Partial reports whether some but not all requested points resolved.
func (r Report) Partial() bool {
	return r.Resolved > 0 && r.Failed > 0
}

// EnricherConfig holds configuration for the enricher.
type EnricherConfig struct {
	// Provider performs the lookups. Required.
	Provider Provider

	// Timeout bounds one whole enrichment pass across all batches.
	// Default: 10 seconds.
	Timeout time.Duration

	// Logger for enrichment operations.
	Logger zerolog.Logger
}

// Enricher batches coordinates and looks up elevations, degrading to partial
// results on provider failure.
type Enricher struct {
	provider Provider
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewEnricher creates a new enricher.
func NewEnricher(cfg EnricherConfig) *Enricher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Enricher{
		provider: cfg.Provider,
		timeout:  timeout,
		logger:   cfg.Logger,
	}
}

// Enrich looks up elevations for the given points, one result slot per
// input, aligned by order. A batch that fails leaves only its own slots nil;
// later batches still run. Enrich never returns an error alongside the
// results; failures are folded into the Report.
func (e *Enricher) Enrich(ctx context.Context, points []geo.Point) ([]*float64, Report) {
	report := Report{Requested: len(points)}
	results := make([]*float64, len(points))

	if len(points) == 0 {
		return results, report
	}
	if e.provider == nil {
		report.Failed = len(points)
		report.Err = ErrNoProvider
		return results, report
	}

	report.Provider = e.provider.Name()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	limit := e.provider.BatchLimit()
	if limit <= 0 {
		limit = len(points)
	}

	for start := 0; start < len(points); start += limit {
		end := start + limit
		if end > len(points) {
			end = len(points)
		}

		values, err := e.provider.Lookup(ctx, points[start:end])
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("provider", report.Provider).
				Int("batch_start", start).
				Int("batch_size", end-start).
				Msg("elevation batch failed")
			report.Err = err
			continue
		}

		for i, v := range values {
			if i >= end-start {
				break
			}
			results[start+i] = v
		}
	}

	for _, v := range results {
		if v != nil {
			report.Resolved++
		}
	}
	report.Failed = report.Requested - report.Resolved

	e.logger.Debug().
		Str("provider", report.Provider).
		Int("requested", report.Requested).
		Int("resolved", report.Resolved).
		Msg("elevation enrichment completed")

	return results, report
}
