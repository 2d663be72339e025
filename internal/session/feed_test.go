package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/session"
)

func TestFeed_FanOutAndUnsubscribe(t *testing.T) {
	feed := session.NewFeed()

	var first, second []session.Sample
	unsubFirst := feed.Subscribe(func(s session.Sample) { first = append(first, s) })
	_ = feed.Subscribe(func(s session.Sample) { second = append(second, s) })

	require.Equal(t, 2, feed.SubscriberCount())

	feed.Publish(session.Sample{Lat: 52.0, Lon: 4.0, Timestamp: time.Now()})
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)

	unsubFirst()
	assert.Equal(t, 1, feed.SubscriberCount())

	feed.Publish(session.Sample{Lat: 52.001, Lon: 4.0, Timestamp: time.Now()})
	assert.Len(t, first, 1, "unsubscribed callback must not fire")
	assert.Len(t, second, 2)
}

func TestFeed_DrivesGPSSession(t *testing.T) {
	feed := session.NewFeed()

	s, err := session.New(session.Config{
		Mode:   session.ModeGPS,
		Source: feed,
		Logger: testLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, s.Start(nil))
	require.Equal(t, 1, feed.SubscriberCount())

	base := time.Now()
	feed.Publish(session.Sample{Lat: 52.0, Lon: 4.0, Timestamp: base})
	feed.Publish(session.Sample{Lat: 52.001, Lon: 4.0, Timestamp: base.Add(2 * time.Second)})

	assert.Equal(t, 2, s.Status().WaypointCount)

	require.NoError(t, s.Pause())
	assert.Zero(t, feed.SubscriberCount(), "pause detaches from the feed")
}
