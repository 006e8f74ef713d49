package typewriter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTypewriterRevealsAndCompletesOnce(t *testing.T) {
	tw := New()
	gen := tw.Start("AI")
	assert.Equal(t, "", tw.Text())

	changed, completed := tw.Step(gen)
	assert.True(t, changed)
	assert.False(t, completed)
	assert.Equal(t, "A", tw.Text())

	changed, completed = tw.Step(gen)
	assert.True(t, changed)
	assert.True(t, completed)
	assert.Equal(t, "AI", tw.Text())

	changed, completed = tw.Step(gen)
	assert.False(t, changed)
	assert.False(t, completed)
	assert.True(t, tw.Completed())
}

func TestTypewriterRestartDropsStaleTicks(t *testing.T) {
	tw := New()
	old := tw.Start("Hello")
	tw.Step(old)
	tw.Step(old)
	assert.Equal(t, "He", tw.Text())

	gen := tw.Start("Hi")
	assert.Equal(t, "", tw.Text())

	changed, _ := tw.Step(old)
	assert.False(t, changed)
	assert.Equal(t, "", tw.Text())

	tw.Step(gen)
	_, completed := tw.Step(gen)
	assert.True(t, completed)
	assert.Equal(t, "Hi", tw.Text())
}

func TestTypewriterStopAndFinish(t *testing.T) {
	tw := New()
	gen := tw.Start("abc")
	tw.Step(gen)
	tw.Stop()
	changed, completed := tw.Step(gen)
	assert.False(t, changed)
	assert.False(t, completed)
	assert.Equal(t, "a", tw.Text())
	assert.False(t, tw.Finish())

	tw.Start("xyz")
	assert.True(t, tw.Finish())
	assert.Equal(t, "xyz", tw.Text())
	assert.True(t, tw.Completed())
}

func TestTypewriterEmptyAndMultibyte(t *testing.T) {
	tw := New()
	gen := tw.Start("")
	changed, completed := tw.Step(gen)
	assert.False(t, changed)
	assert.True(t, completed)

	gen = tw.Start("سلام")
	tw.Step(gen)
	assert.Equal(t, "س", tw.Text())
}

func TestModelUpdate(t *testing.T) {
	m := NewModel("reply", time.Millisecond)
	m, cmd := m.Start("ok")
	require.NotNil(t, cmd)

	// ticks for other models are ignored
	m, cmd = m.Update(TickMsg{ID: "other", Gen: 1})
	assert.Nil(t, cmd)
	assert.Equal(t, "", m.View())

	m, cmd = m.Update(TickMsg{ID: "reply", Gen: 1})
	assert.Equal(t, "o", m.View())
	require.NotNil(t, cmd)

	m, cmd = m.Update(TickMsg{ID: "reply", Gen: 1})
	assert.Equal(t, "ok", m.View())
	require.NotNil(t, cmd)
	assert.Equal(t, CompletedMsg{ID: "reply"}, cmd())

	m, cmd = m.Update(TickMsg{ID: "reply", Gen: 1})
	assert.Nil(t, cmd)

	var msg tea.Msg
	m, _ = m.Start("new")
	m, cmd = m.Finish()
	msg = cmd()
	assert.Equal(t, CompletedMsg{ID: "reply"}, msg)
	assert.Equal(t, "new", m.View())
}

type runRecorder struct {
	mu        sync.Mutex
	updates   []string
	completes int
}

func (r *runRecorder) update(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *runRecorder) complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
}

func TestRunnerCompletesOnce(t *testing.T) {
	r := NewRunner(time.Millisecond)
	rec := &runRecorder{}
	r.Start(context.Background(), "AI", rec.update, rec.complete)
	r.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"A", "AI"}, rec.updates)
	assert.Equal(t, 1, rec.completes)
}

func TestRunnerRestartNeverMixesTexts(t *testing.T) {
	r := NewRunner(time.Millisecond)
	first := &runRecorder{}
	second := &runRecorder{}

	r.Start(context.Background(), strings.Repeat("x", 1000), first.update, first.complete)
	time.Sleep(5 * time.Millisecond)
	r.Start(context.Background(), "Hi", second.update, second.complete)
	r.Wait()

	first.mu.Lock()
	for _, u := range first.updates {
		assert.True(t, strings.HasPrefix(strings.Repeat("x", 1000), u))
	}
	assert.Equal(t, 0, first.completes)
	n := len(first.updates)
	first.mu.Unlock()

	second.mu.Lock()
	assert.Equal(t, []string{"H", "Hi"}, second.updates)
	assert.Equal(t, 1, second.completes)
	second.mu.Unlock()

	// the first run was stopped for good
	time.Sleep(5 * time.Millisecond)
	first.mu.Lock()
	assert.Equal(t, n, len(first.updates))
	first.mu.Unlock()
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner(time.Millisecond)
	rec := &runRecorder{}
	r.Start(context.Background(), strings.Repeat("y", 1000), rec.update, rec.complete)
	r.Stop()
	rec.mu.Lock()
	n := len(rec.updates)
	rec.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, n, len(rec.updates))
	assert.Equal(t, 0, rec.completes)
	r.Stop()
}
