package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventRoundTrip(t *testing.T) {
	e, err := NewEvent(EventTypeConnectivityChanged, ConnectivityPayload{Online: true})
	require.NoError(t, err)

	b, err := e.Payload.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"online":true}`, string(b))

	var p ConnectivityPayload
	require.NoError(t, e.Decode(&p))
	assert.True(t, p.Online)
}

func TestNewEventFromJsonRejectsMissingType(t *testing.T) {
	_, err := NewEventFromJson([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = NewEventFromJson([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeWithoutPayload(t *testing.T) {
	e, err := NewEvent(EventTypeNotificationRemoved, nil)
	require.NoError(t, err)
	var p NotificationPayload
	assert.Error(t, e.Decode(&p))
}

func TestEventRouterDeliversToHandler(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	received := make(chan *Event, 1)
	router.AddHandler("test", TopicNotifications, func(ev *Event) error {
		received <- ev
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- router.Run(ctx)
	}()
	<-router.Running()

	ev, err := NewEvent(EventTypeNotificationAdded, NotificationPayload{ID: 7, Severity: "info", Text: "hello"})
	require.NoError(t, err)
	require.NoError(t, router.PublishEvent(TopicNotifications, ev))

	select {
	case got := <-received:
		assert.Equal(t, EventTypeNotificationAdded, got.Type)
		var p NotificationPayload
		require.NoError(t, got.Decode(&p))
		assert.Equal(t, uint64(7), p.ID)
		assert.Equal(t, "hello", p.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	require.NoError(t, router.Close())
	cancel()
	<-done
}
