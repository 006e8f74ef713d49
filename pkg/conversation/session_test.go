package conversation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionUnmarshal(t *testing.T) {
	var s Session
	err := json.Unmarshal([]byte(`{"id":"s1","title":"New Chat","created_at":"2024-02-03T04:05:06.5","pdf_filename":"old.pdf"}`), &s)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "New Chat", s.Title)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 500000000, time.UTC), s.CreatedAt)
	assert.True(t, s.HasDocument())
	assert.Equal(t, "old.pdf", s.DocumentName())

	var empty Session
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s2","title":"x"}`), &empty))
	assert.True(t, empty.CreatedAt.IsZero())
	assert.False(t, empty.HasDocument())
}

func TestFileIconAndUploadMessage(t *testing.T) {
	assert.Equal(t, "📝", FileIcon("docx"))
	assert.Equal(t, "📊", FileIcon("XLS"))
	assert.Equal(t, "📽️", FileIcon("pptx"))
	assert.Equal(t, "📄", FileIcon("rtf"))

	assert.Equal(t,
		`📈 CSV "data.csv" uploaded successfully! You can now use all features with this document.`,
		UploadMessage("data.csv", "csv"))
}

func TestFeatureMode(t *testing.T) {
	f, err := ParseFeatureMode("general_ai")
	require.NoError(t, err)
	assert.Equal(t, FeatureGeneralAI, f)
	_, err = ParseFeatureMode("nope")
	assert.Error(t, err)

	assert.Equal(t, "", FeatureChat.QueryValue())
	assert.Equal(t, "quiz_generation", FeatureQuizGeneration.QueryValue())
	assert.Equal(t, "Docs Chat", FeatureChat.Title())
	assert.Equal(t, "Upload a document to start chatting...", FeatureChat.Placeholder(false))
	assert.Equal(t, "Ask a question about your document...", FeatureChat.Placeholder(true))
	assert.Equal(t, FeatureChat, FeatureSystemHealth.Next())
}

func TestContainsMarkdown(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"", false},
		{"just a plain sentence", false},
		{"some **bold** text", true},
		{"# Title", true},
		{"- one\n- two", true},
		{"1. first\n2. second", true},
		{"use `go test`", true},
		{"```\ncode\n```", true},
		{"> quoted", true},
		{"first paragraph\n\nsecond", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsMarkdown(tt.content), tt.content)
	}
}
