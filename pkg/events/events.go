package events

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type EventType string

const (
	EventTypeNotificationAdded   EventType = "notification-added"
	EventTypeNotificationRemoved EventType = "notification-removed"
	EventTypeConnectivityChanged EventType = "connectivity-changed"
)

const (
	TopicNotifications = "notifications"
	TopicConnectivity  = "connectivity"
)

// Event is the envelope for everything sent over the router. The payload is
// kept raw so that subscribers decode only what they care about.
type Event struct {
	Type    EventType       `json:"type"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEvent(type_ EventType, payload interface{}) (*Event, error) {
	ret := &Event{
		Type: type_,
		Time: time.Now(),
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "could not marshal %s payload", type_)
		}
		ret.Payload = b
	}
	return ret, nil
}

func NewEventFromJson(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal event")
	}
	if e.Type == "" {
		return nil, errors.New("event has no type")
	}
	return &e, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return errors.Errorf("event %s has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

// NotificationPayload travels with notification-added and notification-removed.
type NotificationPayload struct {
	ID        uint64        `json:"id"`
	Severity  string        `json:"severity"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Delay     time.Duration `json:"delay"`
}

type ConnectivityPayload struct {
	Online bool `json:"online"`
}

// Publisher is implemented by anything that can distribute events on a topic.
type Publisher interface {
	PublishEvent(topic string, e *Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(string, *Event) error { return nil }

var _ Publisher = NopPublisher{}
