package conversation

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageDefaults(t *testing.T) {
	m := NewMessage("", "", "")
	assert.Equal(t, RoleAssistant, m.Role)
	assert.Equal(t, "", m.Content)
	assert.Equal(t, FeatureChat, m.FeatureType)
	assert.False(t, m.Timestamp.IsZero())
	require.NoError(t, m.Validate())

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m = NewMessage(RoleUser, "hi", FeatureGeneralAI, WithID("abc"), WithSessionID("s1"), WithTimestamp(ts))
	assert.Equal(t, "abc", m.ID)
	assert.Equal(t, "s1", m.SessionID)
	assert.Equal(t, ts, m.Timestamp)
}

func TestNewMessageID(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	id := NewMessageID(ts)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123[0-9a-z]{9}$`), id)
	assert.NotEqual(t, id, NewMessageID(ts))
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		valid   bool
		content string
	}{
		{name: "full", raw: `{"id":"m1","role":"user","content":"hello","timestamp":"2024-01-02T03:04:05Z","feature_type":"chat"}`, valid: true, content: "hello"},
		{name: "empty content", raw: `{"role":"assistant","content":""}`, valid: true, content: ""},
		{name: "null content", raw: `{"role":"assistant","content":null}`},
		{name: "missing content", raw: `{"role":"assistant"}`},
		{name: "missing role", raw: `{"content":"x"}`},
		{name: "unknown role", raw: `{"role":"robot","content":"x"}`},
		{name: "not an object", raw: `"just a string"`},
		{name: "null", raw: `null`},
		{name: "content not a string", raw: `{"role":"user","content":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeMessage(json.RawMessage(tt.raw))
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidMessage))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, m.Content)
			assert.NotEmpty(t, m.ID)
			assert.Equal(t, FeatureChat, m.FeatureType)
		})
	}
}

func TestDecodeMessageNumericIDAndNaiveTimestamp(t *testing.T) {
	m, err := DecodeMessage(json.RawMessage(`{"id":12,"role":"system","content":"x","timestamp":"2024-05-06T07:08:09.123456","feature_type":"quiz_generation"}`))
	require.NoError(t, err)
	assert.Equal(t, "12", m.ID)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC), m.Timestamp)
	assert.Equal(t, FeatureQuizGeneration, m.FeatureType)
}

func TestDecodeMessagesDropsInvalid(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"role":"user","content":"a"}`),
		json.RawMessage(`{"role":"assistant","content":null}`),
		json.RawMessage(`17`),
		json.RawMessage(`{"role":"assistant","content":"b"}`),
	}
	msgs, dropped := DecodeMessages(raw)
	require.Len(t, msgs, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "a", msgs[0].Content)
	assert.Equal(t, "b", msgs[1].Content)
}

func TestMessageCloneIsDeep(t *testing.T) {
	m := NewMessage(RoleUser, "hi", FeatureChat)
	c := m.Clone()
	c.Content = "changed"
	assert.Equal(t, "hi", m.Content)
	assert.Equal(t, m.ID, c.ID)
}

func TestMessageMarshalKeepsEmptyContent(t *testing.T) {
	b, err := json.Marshal(NewMessage(RoleAssistant, "", FeatureChat, WithID("x")))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"content":""`)
}
