package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/events"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/typewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend implements what the model drives; anything else panics.
type stubBackend struct {
	chat.Backend
	sessions []*conversation.Session
}

func (s *stubBackend) ListSessions(context.Context) ([]*conversation.Session, error) {
	return s.sessions, nil
}

func (s *stubBackend) ListMessages(context.Context, string, conversation.FeatureMode) ([]*conversation.Message, error) {
	return []*conversation.Message{}, nil
}

func (s *stubBackend) SendMessage(_ context.Context, req api.SendMessageRequest) (*api.SendMessageResponse, error) {
	return &api.SendMessageResponse{
		AIResponse: []byte(`{"id":"r1","role":"assistant","content":"Hello there","feature_type":"chat"}`),
	}, nil
}

func newTestModel(t *testing.T) (Model, *chat.Engine) {
	backend := &stubBackend{sessions: []*conversation.Session{
		{ID: "s1", Title: "Report", CreatedAt: time.Now(), DocumentFilename: "q1.pdf", DocumentType: "pdf"},
	}}
	engine := chat.NewEngine(backend)
	require.NoError(t, engine.LoadSessions(context.Background()))

	queue := notifications.NewQueue()
	queue.Init()
	t.Cleanup(queue.Dispose)

	m := NewModel(engine, queue, WithTypewriterSpeed(time.Millisecond))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), engine
}

func TestModelShowsSessions(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(RefreshMsg{})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Report")
	assert.Contains(t, view, "Docs Chat")
	assert.Contains(t, view, "q1.pdf")
}

func TestModelTypesOutFreshReply(t *testing.T) {
	m, _ := newTestModel(t)
	m.textArea.SetValue("what is in the report?")

	cmd := m.submit()
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.textArea.Value())

	done := cmd().(opDoneMsg)
	require.NoError(t, done.err)

	updated, _ := m.Update(RefreshMsg{})
	m = updated.(Model)
	assert.Equal(t, "r1", m.animatingID)
	assert.True(t, m.typewriter.Running())
	assert.Equal(t, "Hello there", m.typewriter.Target())

	// a later refresh does not restart the animation
	m.typewriter, _ = m.typewriter.Finish()
	updated, _ = m.Update(RefreshMsg{})
	m = updated.(Model)
	assert.False(t, m.typewriter.Running())

	updated, _ = m.Update(typewriter.CompletedMsg{ID: "reply"})
	m = updated.(Model)
	assert.Equal(t, "", m.animatingID)
	assert.Contains(t, m.messageView(), "Hello there")
}

func TestModelFocusChangeStopsTypewriter(t *testing.T) {
	m, engine := newTestModel(t)
	m.textArea.SetValue("hi")
	_ = m.submit()()

	updated, _ := m.Update(RefreshMsg{})
	m = updated.(Model)
	require.True(t, m.typewriter.Running())

	require.NoError(t, engine.SetFeature(context.Background(), conversation.FeatureGeneralAI))
	updated, _ = m.Update(RefreshMsg{})
	m = updated.(Model)
	assert.False(t, m.typewriter.Running())
	assert.Equal(t, "", m.animatingID)
	assert.Contains(t, m.View(), "General AI Assistant")
}

func TestModelRestoresRejectedSend(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(opDoneMsg{op: "send", err: chat.ErrSendInFlight, restore: "pending text"})
	m = updated.(Model)
	assert.Equal(t, "pending text", m.textArea.Value())
	assert.False(t, m.awaitingReply)
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestForwardFuncs(t *testing.T) {
	s := &recordingSender{}

	e, err := events.NewEvent(events.EventTypeNotificationAdded, events.NotificationPayload{ID: 1, Text: "x"})
	require.NoError(t, err)
	require.NoError(t, NotificationForwardFunc(s)(e))

	e, err = events.NewEvent(events.EventTypeConnectivityChanged, events.ConnectivityPayload{Online: false})
	require.NoError(t, err)
	require.NoError(t, ConnectivityForwardFunc(s)(e))

	assert.Equal(t, []tea.Msg{NotificationsChangedMsg{}, ConnectivityMsg{Online: false}}, s.msgs)
}

func TestConfirmWith(t *testing.T) {
	var out strings.Builder
	ok, err := ConfirmWith(strings.NewReader("y\n"), &out, "Apply fix?", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Apply fix?")

	ok, err = ConfirmWith(strings.NewReader("n\n"), &out, "Delete?", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRendererPlainAndMarkdown(t *testing.T) {
	r := newRenderer("notty")
	r.setWidth(20)
	assert.Equal(t, "one two three four\nfive", r.render("one two three four five"))

	out := r.render("# Title\n\n- item")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "item")
}
