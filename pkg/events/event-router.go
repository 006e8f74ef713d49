package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"
)

// EventRouter is the in-process bus between the chat engine's services and
// whatever is rendering them (the terminal UI or the plain CLI printer).
type EventRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
	verbose    bool
	blocking   bool

	mu             sync.Mutex
	sequenceNumber uint64
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
		r.logger = NewWatermill(log.Logger)
	}
}

// WithBlockingPublish makes PublishEvent wait until a subscriber acked.
func WithBlockingPublish(blocking bool) EventRouterOption {
	return func(r *EventRouter) {
		r.blocking = blocking
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	ret := &EventRouter{
		logger: watermill.NopLogger{},
	}

	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: ret.blocking,
	}, ret.logger)
	ret.Publisher = goPubSub
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}

	ret.router = router

	return ret, nil
}

// PublishEvent serializes e and publishes it on topic, stamping a sequence
// number so subscribers can order events.
func (e *EventRouter) PublishEvent(topic string, ev *Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	e.mu.Lock()
	seq := e.sequenceNumber
	e.sequenceNumber++
	e.mu.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), b)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", seq))
	msg.Metadata.Set("event_type", string(ev.Type))

	if e.verbose {
		log.Debug().Str("topic", topic).Str("event_type", string(ev.Type)).Uint64("seq", seq).Msg("publishing event")
	}

	return e.Publisher.Publish(topic, msg)
}

// AddHandler registers f for every event arriving on topic.
func (e *EventRouter) AddHandler(name string, topic string, f func(ev *Event) error) {
	e.router.AddNoPublisherHandler(name, topic, e.Subscriber, func(msg *message.Message) error {
		ev, err := NewEventFromJson(msg.Payload)
		if err != nil {
			// a broken payload should not stop the handler
			log.Error().Err(err).Str("message_id", msg.UUID).Msg("could not parse event")
			return nil
		}
		return f(ev)
	})
}

func (e *EventRouter) Close() error {
	log.Debug().Msg("Closing publisher")
	err := e.Publisher.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close pubsub")
	}

	log.Debug().Msg("Closing router")
	err = e.router.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close router")
	}

	return nil
}

func (e *EventRouter) Running() chan struct{} {
	return e.router.Running()
}

func (e *EventRouter) Run(ctx context.Context) error {
	return e.router.Run(ctx)
}

var _ Publisher = (*EventRouter)(nil)
