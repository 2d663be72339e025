package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailcap/trailcap/internal/api/models"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	var ts models.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2026-07-14T09:30:00Z"`), &ts))
	assert.Equal(t, time.Date(2026, 7, 14, 9, 30, 0, 0, time.UTC), ts.Time())

	var null models.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.True(t, null.Time().IsZero())
}

func TestTimestamp_UnmarshalJSONRejectsNonString(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "number", body: `{"lat":1,"lon":2,"timestamp":5}`},
		{name: "bool", body: `{"lat":1,"lon":2,"timestamp":true}`},
		{name: "object", body: `{"lat":1,"lon":2,"timestamp":{}}`},
		{name: "not a timestamp", body: `{"lat":1,"lon":2,"timestamp":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req models.SampleRequest
			assert.Error(t, json.Unmarshal([]byte(tt.body), &req))
		})
	}
}
