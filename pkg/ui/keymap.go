package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	SubmitMessage key.Binding
	InsertNewline key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding

	NewSession    key.Binding
	DeleteSession key.Binding
	NextSession   key.Binding
	PrevSession   key.Binding
	NextFeature   key.Binding

	ToggleVoice    key.Binding
	SkipTypewriter key.Binding
	DismissNotice  key.Binding
	SaveToFile     key.Binding

	Help key.Binding
	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	SubmitMessage: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	InsertNewline: key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "newline")),
	ScrollUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
	ScrollDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll down")),

	NewSession:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
	DeleteSession: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "delete chat")),
	NextSession:   key.NewBinding(key.WithKeys("alt+down", "ctrl+down"), key.WithHelp("alt+↓", "next chat")),
	PrevSession:   key.NewBinding(key.WithKeys("alt+up", "ctrl+up"), key.WithHelp("alt+↑", "previous chat")),
	NextFeature:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "switch mode")),

	ToggleVoice:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "voice")),
	SkipTypewriter: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "show reply")),
	DismissNotice:  key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "dismiss")),
	SaveToFile:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "export")),

	Help: key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SubmitMessage, k.NewSession, k.NextFeature, k.ToggleVoice, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SubmitMessage, k.InsertNewline, k.ScrollUp, k.ScrollDown},
		{k.NewSession, k.DeleteSession, k.NextSession, k.PrevSession},
		{k.NextFeature, k.ToggleVoice, k.SkipTypewriter, k.DismissNotice},
		{k.SaveToFile, k.Help, k.Quit},
	}
}
