package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/export"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/typewriter"
	"github.com/go-go-golems/docchat/pkg/voice"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Messages sent into the program from other goroutines. Update must never
// call into the engine, the queue or the voice machine directly: their
// listeners send to the program, which would block the event loop.

// RefreshMsg is sent whenever the engine state changed.
type RefreshMsg struct{}

type TranscriptMsg struct {
	Text string
}

type VoiceStatusMsg struct {
	Status voice.Status
}

type opDoneMsg struct {
	op      string
	err     error
	restore string
}

const sidebarWidth = 30

type Model struct {
	ctx    context.Context
	engine *chat.Engine
	queue  *notifications.Queue
	voice  *voice.Machine

	exportDir string

	snapshot    chat.Snapshot
	notices     []notifications.Notification
	online      bool
	voiceStatus voice.Status

	// awaitingReply is set between submitting and the reply arriving, so
	// that only fresh replies are typed out.
	awaitingReply bool
	animatingID   string
	typewriter    typewriter.Model

	viewport viewport.Model
	textArea textarea.Model
	help     help.Model
	keyMap   KeyMap
	style    *Style
	renderer *renderer

	width  int
	height int
}

type Option func(*Model)

func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

func WithVoice(v *voice.Machine) Option {
	return func(m *Model) {
		m.voice = v
	}
}

func WithExportDir(dir string) Option {
	return func(m *Model) {
		m.exportDir = dir
	}
}

func WithTypewriterSpeed(speed time.Duration) Option {
	return func(m *Model) {
		m.typewriter = typewriter.NewModel("reply", speed)
	}
}

func WithGlamourStyle(style string) Option {
	return func(m *Model) {
		m.renderer = newRenderer(style)
	}
}

func WithOnline(online bool) Option {
	return func(m *Model) {
		m.online = online
	}
}

func NewModel(engine *chat.Engine, queue *notifications.Queue, options ...Option) Model {
	ret := Model{
		ctx:         context.Background(),
		engine:      engine,
		queue:       queue,
		exportDir:   ".",
		online:      true,
		voiceStatus: voice.StatusIdle,
		typewriter:  typewriter.NewModel("reply", typewriter.DefaultSpeed),
		viewport:    viewport.New(0, 0),
		help:        help.New(),
		keyMap:      DefaultKeyMap,
		style:       DefaultStyles(),
		renderer:    newRenderer(""),
	}
	for _, o := range options {
		o(&ret)
	}

	ret.textArea = textarea.New()
	ret.textArea.ShowLineNumbers = false
	ret.textArea.KeyMap.InsertNewline = ret.keyMap.InsertNewline
	ret.textArea.SetHeight(3)
	ret.textArea.Focus()

	ret.snapshot = engine.Snapshot()
	ret.textArea.Placeholder = ret.snapshot.Feature.Placeholder(ret.snapshot.Active.HasDocument())
	ret.keyMap.ToggleVoice.SetEnabled(ret.voice != nil)

	return ret
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.run("load", func(ctx context.Context) error {
			if err := m.engine.LoadSessions(ctx); err != nil {
				return err
			}
			_, err := m.engine.LoadModels(ctx)
			return err
		}),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			m.typewriter = m.typewriter.Stop()
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.recomputeSize()

		case key.Matches(msg, m.keyMap.SubmitMessage):
			cmds = append(cmds, m.submit())

		case key.Matches(msg, m.keyMap.NewSession):
			cmds = append(cmds, m.run("create", func(ctx context.Context) error {
				_, err := m.engine.CreateSession(ctx, "")
				return err
			}))

		case key.Matches(msg, m.keyMap.DeleteSession):
			if active := m.snapshot.Active; active != nil {
				id := active.ID
				cmds = append(cmds, m.run("delete", func(ctx context.Context) error {
					return m.engine.DeleteSession(ctx, id)
				}))
			}

		case key.Matches(msg, m.keyMap.NextSession):
			cmds = append(cmds, m.selectNext(1))

		case key.Matches(msg, m.keyMap.PrevSession):
			cmds = append(cmds, m.selectNext(-1))

		case key.Matches(msg, m.keyMap.NextFeature):
			next := m.snapshot.Feature.Next()
			cmds = append(cmds, m.run("feature", func(ctx context.Context) error {
				return m.engine.SetFeature(ctx, next)
			}))

		case key.Matches(msg, m.keyMap.ToggleVoice):
			cmds = append(cmds, m.toggleVoice())

		case key.Matches(msg, m.keyMap.SkipTypewriter):
			m.typewriter, cmd = m.typewriter.Finish()
			cmds = append(cmds, cmd)

		case key.Matches(msg, m.keyMap.DismissNotice):
			if len(m.notices) > 0 {
				id := m.notices[0].ID
				cmds = append(cmds, m.run("dismiss", func(context.Context) error {
					m.queue.Dismiss(id)
					return nil
				}))
			}

		case key.Matches(msg, m.keyMap.SaveToFile):
			cmds = append(cmds, m.exportTranscript())

		case key.Matches(msg, m.keyMap.ScrollUp, m.keyMap.ScrollDown):
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)

		default:
			m.textArea, cmd = m.textArea.Update(msg)
			cmds = append(cmds, cmd)
		}

		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recomputeSize()

	case RefreshMsg:
		cmds = append(cmds, m.refresh())

	case NotificationsChangedMsg:
		m.notices = m.queue.List()
		m.recomputeSize()

	case ConnectivityMsg:
		m.online = msg.Online

	case TranscriptMsg:
		m.textArea.SetValue(msg.Text)
		m.textArea.CursorEnd()

	case VoiceStatusMsg:
		m.voiceStatus = msg.Status

	case typewriter.TickMsg:
		m.typewriter, cmd = m.typewriter.Update(msg)
		cmds = append(cmds, cmd)
		m.setContent()

	case typewriter.CompletedMsg:
		m.animatingID = ""
		m.setContent()

	case opDoneMsg:
		if msg.err != nil {
			log.Debug().Err(msg.err).Str("op", msg.op).Msg("operation finished with error")
		}
		if msg.op == "send" && isRejectedSend(msg.err) {
			m.awaitingReply = false
			if m.textArea.Value() == "" {
				m.textArea.SetValue(msg.restore)
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func isRejectedSend(err error) bool {
	return errors.Is(err, chat.ErrNothingToSend) ||
		errors.Is(err, chat.ErrNoActiveSession) ||
		errors.Is(err, chat.ErrSendInFlight)
}

// run executes f off the event loop and reports back with an opDoneMsg.
func (m Model) run(op string, f func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: f(ctx)}
	}
}

func (m *Model) submit() tea.Cmd {
	value := m.textArea.Value()
	if strings.TrimSpace(value) == "" {
		return nil
	}
	// the engine is not notified here, Send does that
	m.engine.State().SetComposer(value)
	m.textArea.Reset()
	m.awaitingReply = true

	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "send", err: m.engine.Send(ctx), restore: value}
	}
}

func (m Model) selectNext(delta int) tea.Cmd {
	return m.run("select", func(ctx context.Context) error {
		return m.engine.SelectNextSession(ctx, delta)
	})
}

func (m Model) toggleVoice() tea.Cmd {
	if m.voice == nil {
		return nil
	}
	listening := m.voiceStatus == voice.StatusListening
	return m.run("voice", func(ctx context.Context) error {
		if listening {
			m.voice.Stop()
			return nil
		}
		if !m.voice.Available() {
			m.queue.ShowError("Speech recognition is not available. Configure a voice command to use voice input.")
			return nil
		}
		m.voice.Start(ctx)
		return nil
	})
}

func (m Model) exportTranscript() tea.Cmd {
	snapshot := m.snapshot
	return m.run("export", func(context.Context) error {
		t := export.NewTranscript(snapshot.Active, snapshot.Feature, snapshot.Messages)
		path := filepath.Join(m.exportDir, export.DefaultFilename(t, export.FormatMarkdown))
		if err := export.Save(path, t, export.FormatMarkdown); err != nil {
			log.Error().Err(err).Str("path", path).Msg("could not export transcript")
			m.queue.ShowError("Failed to export transcript: " + err.Error())
			return err
		}
		m.queue.ShowSuccess("Transcript saved to " + path)
		return nil
	})
}

// refresh takes a new snapshot and starts typing out a fresh reply.
func (m *Model) refresh() tea.Cmd {
	prev := m.snapshot
	m.snapshot = m.engine.Snapshot()

	var cmd tea.Cmd
	if sessionID(prev.Active) != sessionID(m.snapshot.Active) || prev.Feature != m.snapshot.Feature {
		m.typewriter = m.typewriter.Stop()
		m.animatingID = ""
		m.awaitingReply = false
	}

	if m.awaitingReply && !m.snapshot.Sending {
		if n := len(m.snapshot.Messages); n > 0 {
			last := m.snapshot.Messages[n-1]
			if last.Role == conversation.RoleAssistant {
				m.awaitingReply = false
				m.animatingID = last.ID
				m.typewriter, cmd = m.typewriter.Start(last.Content)
			}
		}
	}

	m.textArea.Placeholder = m.snapshot.Feature.Placeholder(m.snapshot.Active.HasDocument())
	m.recomputeSize()
	return cmd
}

func sessionID(s *conversation.Session) string {
	if s == nil {
		return ""
	}
	return s.ID
}

func (m *Model) mainWidth() int {
	w := m.width - sidebarWidth
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) recomputeSize() {
	width := m.mainWidth()

	h, _ := m.style.FocusedInput.GetFrameSize()
	m.textArea.SetWidth(width - h)

	mw, _ := m.style.AssistantMsg.GetFrameSize()
	m.renderer.setWidth(width - mw)

	fixed := lipgloss.Height(m.headerView()) +
		lipgloss.Height(m.composerView()) +
		lipgloss.Height(m.help.View(m.keyMap))
	if notices := m.noticeView(); notices != "" {
		fixed += lipgloss.Height(notices)
	}

	newHeight := m.height - fixed
	if newHeight < 0 {
		newHeight = 0
	}
	m.viewport.Width = width
	m.viewport.Height = newHeight

	m.setContent()
}

func (m *Model) setContent() {
	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	parts := []string{m.snapshot.Feature.Title()}
	if m.snapshot.SelectedModel != "" {
		parts = append(parts, m.snapshot.SelectedModel)
	}
	if active := m.snapshot.Active; active != nil && active.HasDocument() {
		parts = append(parts, conversation.FileIcon(active.DocumentType)+" "+active.DocumentName())
	}
	if m.snapshot.Sending {
		parts = append(parts, "thinking...")
	}
	switch m.voiceStatus {
	case voice.StatusListening:
		parts = append(parts, "listening...")
	case voice.StatusError:
		parts = append(parts, "voice error")
	case voice.StatusIdle:
	}

	header := m.style.Header.Render(strings.Join(parts, " · "))
	if !m.online {
		header += " " + m.style.Offline.Render("offline")
	}
	return header
}

func (m Model) sidebarView() string {
	var sb strings.Builder
	sb.WriteString(m.style.Header.Render("Chats"))
	sb.WriteString("\n\n")

	if len(m.snapshot.Sessions) == 0 {
		sb.WriteString(m.style.MessageMeta.Render("No chats yet"))
		return sb.String()
	}

	activeID := sessionID(m.snapshot.Active)
	maxTitle := sidebarWidth - 6
	for _, s := range m.snapshot.Sessions {
		title := s.Title
		if s.HasDocument() {
			title = conversation.FileIcon(s.DocumentType) + " " + title
		}
		if r := []rune(title); len(r) > maxTitle {
			title = string(r[:maxTitle-1]) + "…"
		}
		if s.ID == activeID {
			sb.WriteString(m.style.ActiveSession.Render("▸ " + title))
		} else {
			sb.WriteString(m.style.Session.Render("  " + title))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) messageView() string {
	if m.snapshot.Active == nil {
		return m.style.MessageMeta.Render("No chat selected. Press ctrl+n to start one.")
	}
	if len(m.snapshot.Messages) == 0 {
		return m.style.MessageMeta.Render(m.snapshot.Feature.Placeholder(m.snapshot.Active.HasDocument()))
	}

	width := m.mainWidth()
	ret := ""
	for _, msg := range m.snapshot.Messages {
		meta := fmt.Sprintf("%s · %s", roleLabel(msg.Role), msg.Timestamp.Local().Format("15:04"))

		var v string
		switch msg.Role {
		case conversation.RoleUser:
			v = m.style.UserMessage.Width(width - 2).Render(m.renderer.plain(msg.Content))
		case conversation.RoleAssistant:
			body := m.renderer.render(msg.Content)
			if msg.ID == m.animatingID && m.typewriter.Running() {
				body = m.renderer.plain(m.typewriter.View())
			}
			v = m.style.AssistantMsg.Width(width - 2).Render(body)
		case conversation.RoleSystem:
			v = m.style.SystemMessage.Render(m.renderer.plain(msg.Content))
		}

		ret += m.style.MessageMeta.Render(meta) + "\n" + v + "\n"
	}
	return ret
}

func roleLabel(r conversation.Role) string {
	switch r {
	case conversation.RoleUser:
		return "You"
	case conversation.RoleSystem:
		return "System"
	case conversation.RoleAssistant:
	}
	return "Assistant"
}

func (m Model) noticeView() string {
	if len(m.notices) == 0 {
		return ""
	}
	notices := m.notices
	if len(notices) > 3 {
		notices = notices[len(notices)-3:]
	}
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		style, ok := m.style.Notice[n.Severity]
		if !ok {
			style = m.style.Notice[notifications.SeverityInfo]
		}
		lines = append(lines, style.Render(n.Text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) composerView() string {
	return m.style.FocusedInput.Render(m.textArea.View())
}

func (m Model) View() string {
	parts := []string{m.headerView(), m.viewport.View()}
	if notices := m.noticeView(); notices != "" {
		parts = append(parts, notices)
	}
	parts = append(parts, m.composerView(), m.help.View(m.keyMap))
	main := lipgloss.JoinVertical(lipgloss.Left, parts...)

	sidebar := m.style.Sidebar.
		Width(sidebarWidth - m.style.Sidebar.GetHorizontalFrameSize()).
		Height(m.height).
		Render(m.sidebarView())

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}
