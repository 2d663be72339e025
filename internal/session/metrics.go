package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/trailcap/trailcap/internal/elevation"
	"github.com/trailcap/trailcap/internal/trail"
)

const meterName = "github.com/trailcap/trailcap/internal/session"

// CaptureMetrics holds the OpenTelemetry instruments for trail capture.
// A nil *CaptureMetrics is valid and records nothing.
type CaptureMetrics struct {
	samplesAdmitted    metric.Int64Counter
	samplesRejected    metric.Int64Counter
	sessionsFinalized  metric.Int64Counter
	enrichmentDuration metric.Float64Histogram
	enrichmentResolved metric.Int64Counter
	enrichmentFailed   metric.Int64Counter
}

// NewCaptureMetrics creates a CaptureMetrics with initialized instruments.
func NewCaptureMetrics() (*CaptureMetrics, error) {
	meter := otel.Meter(meterName)

	samplesAdmitted, err := meter.Int64Counter(
		"trailcap.samples.admitted",
		metric.WithDescription("Samples admitted as waypoints"),
		metric.WithUnit("{sample}"),
	)
	if err != nil {
		return nil, err
	}

	samplesRejected, err := meter.Int64Counter(
		"trailcap.samples.rejected",
		metric.WithDescription("Samples rejected by the admission filter"),
		metric.WithUnit("{sample}"),
	)
	if err != nil {
		return nil, err
	}

	sessionsFinalized, err := meter.Int64Counter(
		"trailcap.sessions.finalized",
		metric.WithDescription("Capture sessions finalized into trails"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	enrichmentDuration, err := meter.Float64Histogram(
		"trailcap.enrichment.duration",
		metric.WithDescription("Duration of elevation enrichment passes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	enrichmentResolved, err := meter.Int64Counter(
		"trailcap.enrichment.resolved",
		metric.WithDescription("Waypoints that received an elevation value"),
		metric.WithUnit("{waypoint}"),
	)
	if err != nil {
		return nil, err
	}

	enrichmentFailed, err := meter.Int64Counter(
		"trailcap.enrichment.failed",
		metric.WithDescription("Waypoints left without an elevation value"),
		metric.WithUnit("{waypoint}"),
	)
	if err != nil {
		return nil, err
	}

	return &CaptureMetrics{
		samplesAdmitted:    samplesAdmitted,
		samplesRejected:    samplesRejected,
		sessionsFinalized:  sessionsFinalized,
		enrichmentDuration: enrichmentDuration,
		enrichmentResolved: enrichmentResolved,
		enrichmentFailed:   enrichmentFailed,
	}, nil
}

func (m *CaptureMetrics) recordAdmitted() {
	if m == nil {
		return
	}
	m.samplesAdmitted.Add(context.Background(), 1)
}

func (m *CaptureMetrics) recordRejected(reason trail.RejectReason) {
	if m == nil {
		return
	}
	m.samplesRejected.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", string(reason))))
}

func (m *CaptureMetrics) recordFinalized() {
	if m == nil {
		return
	}
	m.sessionsFinalized.Add(context.Background(), 1)
}

func (m *CaptureMetrics) recordEnrichment(d time.Duration, report elevation.Report) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", report.Provider))
	m.enrichmentDuration.Record(context.Background(), d.Seconds(), attrs)
	m.enrichmentResolved.Add(context.Background(), int64(report.Resolved), attrs)
	m.enrichmentFailed.Add(context.Background(), int64(report.Failed), attrs)
}
