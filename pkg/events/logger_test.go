package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	ret := []map[string]interface{}{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		ret = append(ret, entry)
	}
	return ret
}

func TestWatermillAdapterLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWatermill(zerolog.New(&buf).Level(zerolog.TraceLevel))

	logger.Info("subscribing", watermill.LogFields{"topic": TopicNotifications})
	logger.With(watermill.LogFields{"handler": "ui"}).Error("handler failed", errors.New("boom"), nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "debug", entries[0]["level"])
	assert.Equal(t, "subscribing", entries[0]["message"])
	assert.Equal(t, TopicNotifications, entries[0]["topic"])
	assert.Equal(t, "events", entries[0]["component"])
	assert.Contains(t, entries[0], "caller")

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
	assert.Equal(t, "ui", entries[1]["handler"])
	assert.Equal(t, "events", entries[1]["component"])
}
