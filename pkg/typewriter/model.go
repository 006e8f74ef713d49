package typewriter

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg advances the Model that scheduled it.
type TickMsg struct {
	ID  string
	Gen uint64
}

// CompletedMsg is sent once when a Model finished revealing its text.
type CompletedMsg struct {
	ID string
}

// Model is the bubbletea face of a Typewriter. ID distinguishes several
// models living in the same program.
type Model struct {
	ID    string
	Speed time.Duration
	tw    *Typewriter
}

func NewModel(id string, speed time.Duration) Model {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return Model{ID: id, Speed: speed, tw: New()}
}

// Start restarts the reveal with text and returns the first tick.
func (m Model) Start(text string) (Model, tea.Cmd) {
	gen := m.tw.Start(text)
	return m, m.tick(gen)
}

func (m Model) Stop() Model {
	m.tw.Stop()
	return m
}

// Finish reveals everything immediately.
func (m Model) Finish() (Model, tea.Cmd) {
	if m.tw.Finish() {
		return m, m.completed()
	}
	return m, nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	tick, ok := msg.(TickMsg)
	if !ok || tick.ID != m.ID {
		return m, nil
	}
	_, completed := m.tw.Step(tick.Gen)
	if completed {
		return m, m.completed()
	}
	if m.tw.Running() && tick.Gen == m.tw.Generation() {
		return m, m.tick(tick.Gen)
	}
	return m, nil
}

func (m Model) View() string {
	return m.tw.Text()
}

func (m Model) Running() bool {
	return m.tw.Running()
}

func (m Model) Target() string {
	return m.tw.Target()
}

func (m Model) tick(gen uint64) tea.Cmd {
	id := m.ID
	return tea.Tick(m.Speed, func(time.Time) tea.Msg {
		return TickMsg{ID: id, Gen: gen}
	})
}

func (m Model) completed() tea.Cmd {
	id := m.ID
	return func() tea.Msg {
		return CompletedMsg{ID: id}
	}
}
