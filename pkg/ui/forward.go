package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/docchat/pkg/events"
	"github.com/rs/zerolog/log"
)

// Sender is implemented by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// NotificationsChangedMsg asks the model to re-read the notification queue.
type NotificationsChangedMsg struct{}

type ConnectivityMsg struct {
	Online bool
}

// ForwardEvents routes the notification and connectivity topics of router
// into the program.
func ForwardEvents(router *events.EventRouter, p Sender) {
	router.AddHandler("ui-notifications", events.TopicNotifications, NotificationForwardFunc(p))
	router.AddHandler("ui-connectivity", events.TopicConnectivity, ConnectivityForwardFunc(p))
}

func NotificationForwardFunc(p Sender) func(e *events.Event) error {
	return func(e *events.Event) error {
		switch e.Type {
		case events.EventTypeNotificationAdded, events.EventTypeNotificationRemoved:
			p.Send(NotificationsChangedMsg{})
		}
		return nil
	}
}

func ConnectivityForwardFunc(p Sender) func(e *events.Event) error {
	return func(e *events.Event) error {
		if e.Type != events.EventTypeConnectivityChanged {
			return nil
		}
		var payload events.ConnectivityPayload
		if err := e.Decode(&payload); err != nil {
			// nacking would only get the same payload redelivered
			log.Error().Err(err).Msg("could not decode connectivity event")
			return nil
		}
		p.Send(ConnectivityMsg{Online: payload.Online})
		return nil
	}
}
