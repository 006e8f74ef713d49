package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docchat/pkg/notifications"
)

type Style struct {
	Header        lipgloss.Style
	Offline       lipgloss.Style
	Sidebar       lipgloss.Style
	Session       lipgloss.Style
	ActiveSession lipgloss.Style
	UserMessage   lipgloss.Style
	AssistantMsg  lipgloss.Style
	SystemMessage lipgloss.Style
	MessageMeta   lipgloss.Style
	FocusedInput  lipgloss.Style
	Notice        map[notifications.Severity]lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Selected   string
	Focused    string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#CCCCCC",
		Selected:   "#FFB6C1",
		Focused:    "#FFFF99",
	}

	darkModeColors := BorderColors{
		Unselected: "#444444",
		Selected:   "#DD7090",
		Focused:    "#DDDD77",
	}

	unselected := lipgloss.AdaptiveColor{Light: lightModeColors.Unselected, Dark: darkModeColors.Unselected}
	selected := lipgloss.AdaptiveColor{Light: lightModeColors.Selected, Dark: darkModeColors.Selected}
	focused := lipgloss.AdaptiveColor{Light: lightModeColors.Focused, Dark: darkModeColors.Focused}

	notice := lipgloss.NewStyle().Padding(0, 1).Bold(true)

	return &Style{
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Offline: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F")),
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(unselected).
			Padding(0, 1),
		Session:       lipgloss.NewStyle(),
		ActiveSession: lipgloss.NewStyle().Bold(true).Foreground(selected),
		UserMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(focused),
		AssistantMsg: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(selected),
		SystemMessage: lipgloss.NewStyle().Italic(true).Faint(true).Padding(0, 2),
		MessageMeta:   lipgloss.NewStyle().Faint(true),
		FocusedInput: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(focused),
		Notice: map[notifications.Severity]lipgloss.Style{
			notifications.SeverityError:   notice.Background(lipgloss.Color("#AF0000")).Foreground(lipgloss.Color("#FFFFFF")),
			notifications.SeveritySuccess: notice.Background(lipgloss.Color("#008700")).Foreground(lipgloss.Color("#FFFFFF")),
			notifications.SeverityInfo:    notice.Background(lipgloss.Color("#005FAF")).Foreground(lipgloss.Color("#FFFFFF")),
		},
	}
}
