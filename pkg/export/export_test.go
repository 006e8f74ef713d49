package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testTranscript() *Transcript {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	session := &conversation.Session{ID: "s1", Title: "Quarterly Report", DocumentFilename: "q1.pdf"}
	msgs := []*conversation.Message{
		conversation.NewMessage(conversation.RoleUser, "What is the revenue?", conversation.FeatureChat,
			conversation.WithID("m1"), conversation.WithTimestamp(ts)),
		conversation.NewMessage(conversation.RoleAssistant, "**42** million.", conversation.FeatureChat,
			conversation.WithID("m2"), conversation.WithTimestamp(ts.Add(time.Second))),
	}
	t := NewTranscript(session, conversation.FeatureChat, msgs)
	t.ExportedAt = ts
	return t
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testTranscript(), FormatMarkdown))
	out := buf.String()
	assert.Contains(t, out, "# Quarterly Report\n")
	assert.Contains(t, out, "- Mode: Docs Chat\n")
	assert.Contains(t, out, "- Document: q1.pdf\n")
	assert.Contains(t, out, "## You (2024-03-01 10:30:00)\n\nWhat is the revenue?\n")
	assert.Contains(t, out, "## Assistant (2024-03-01 10:30:01)\n\n**42** million.\n")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testTranscript(), FormatJSON))

	var decoded Transcript
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "s1", decoded.SessionID)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, conversation.RoleAssistant, decoded.Messages[1].Role)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testTranscript(), FormatYAML))
	assert.Contains(t, buf.String(), "title: Quarterly Report")

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "chat", decoded["feature"])
	assert.Len(t, decoded["messages"], 2)
}

func TestEmptyTranscript(t *testing.T) {
	tr := NewTranscript(nil, conversation.FeatureQuizGeneration, nil)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tr, FormatJSON))
	assert.Contains(t, buf.String(), `"messages": []`)

	buf.Reset()
	require.NoError(t, Write(&buf, tr, FormatMarkdown))
	assert.Contains(t, buf.String(), "# Untitled session\n")
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("docx")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	assert.Equal(t, FormatJSON, FormatForPath("out/chat.json"))
	assert.Equal(t, FormatMarkdown, FormatForPath("chat.txt"))
	assert.Equal(t, "quarterly-report.yaml", DefaultFilename(testTranscript(), FormatYAML))
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	require.NoError(t, Save(path, testTranscript(), ""))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "session_id: s1")
}
