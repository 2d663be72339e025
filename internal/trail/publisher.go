package trail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher hands finalized trails to the upload pipeline.
type Publisher interface {
	// Publish announces a finalized trail. The trail itself is already
	// persisted; a publish failure must not mutate or invalidate it.
	Publish(ctx context.Context, t *Trail) error
}

// NoopPublisher discards publications. Used when no upload pipeline is
// configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, *Trail) error { return nil }

// TrailMessage is the JSON payload published for a finalized trail. The
// waypoint list travels inside the GPX document rather than as JSON.
type TrailMessage struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LocationID    string    `json:"location_id"`
	Type          string    `json:"type"`
	Difficulty    string    `json:"difficulty"`
	DistanceM     float64   `json:"distance_m"`
	ElevationGain float64   `json:"elevation_gain_m"`
	ElevationLoss float64   `json:"elevation_loss_m"`
	WaypointCount int       `json:"waypoint_count"`
	GPX           string    `json:"gpx"`
	CreatedAt     time.Time `json:"created_at"`
}

// PubSubPublisherConfig holds configuration for the Pub/Sub publisher.
type PubSubPublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// PubSubPublisher publishes finalized trails to a Pub/Sub topic for the
// upload pipeline.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a new Pub/Sub trail publisher.
func NewPubSubPublisher(ctx context.Context, cfg PubSubPublisherConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		logger:    cfg.Logger,
	}, nil
}

// Publish implements Publisher.
func (p *PubSubPublisher) Publish(ctx context.Context, t *Trail) error {
	msg := TrailMessage{
		ID:            t.ID,
		Name:          t.Name,
		LocationID:    t.LocationID,
		Type:          string(t.Type),
		Difficulty:    string(t.Difficulty),
		DistanceM:     t.Metrics.Distance,
		ElevationGain: t.Metrics.ElevationGain,
		ElevationLoss: t.Metrics.ElevationLoss,
		WaypointCount: len(t.Waypoints),
		GPX:           t.GPX,
		CreatedAt:     t.CreatedAt,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling trail message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"trail_id": t.ID,
			"type":     string(t.Type),
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing trail: %w", err)
	}

	p.logger.Info().
		Str("trail_id", t.ID).
		Str("message_id", id).
		Msg("trail published")

	return nil
}

// Close stops the publisher and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
