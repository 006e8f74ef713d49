// Package notifications holds the transient notices shown to the user:
// errors, confirmations and informational messages that expire on their own.
package notifications

import (
	"sync"
	"time"

	"github.com/go-go-golems/docchat/pkg/events"
	"github.com/rs/zerolog/log"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notification struct {
	ID        uint64
	Severity  Severity
	Text      string
	CreatedAt time.Time
	Delay     time.Duration
}

type Config struct {
	ErrorDelay   time.Duration `yaml:"error_delay" mapstructure:"error_delay"`
	SuccessDelay time.Duration `yaml:"success_delay" mapstructure:"success_delay"`
	InfoDelay    time.Duration `yaml:"info_delay" mapstructure:"info_delay"`
}

func DefaultConfig() Config {
	return Config{
		ErrorDelay:   7 * time.Second,
		SuccessDelay: 4 * time.Second,
		InfoDelay:    4 * time.Second,
	}
}

// Notifier is what components use to raise notices.
type Notifier interface {
	ShowError(text string) uint64
	ShowSuccess(text string) uint64
	ShowInfo(text string) uint64
}

// Queue is the process-wide notification service. It must be started with
// Init and torn down with Dispose.
type Queue struct {
	mu        sync.Mutex
	cfg       Config
	publisher events.Publisher
	nextID    uint64
	items     []*Notification
	timers    map[uint64]*time.Timer
	running   bool
	now       func() time.Time
}

type Option func(*Queue)

func WithConfig(cfg Config) Option {
	return func(q *Queue) {
		q.cfg = cfg
	}
}

// WithPublisher publishes every add and remove on the notifications topic.
func WithPublisher(p events.Publisher) Option {
	return func(q *Queue) {
		q.publisher = p
	}
}

func NewQueue(options ...Option) *Queue {
	ret := &Queue{
		cfg:       DefaultConfig(),
		publisher: events.NopPublisher{},
		timers:    map[uint64]*time.Timer{},
		now:       time.Now,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (q *Queue) Init() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running = true
}

// Dispose stops every pending expiry and empties the queue.
func (q *Queue) Dispose() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.running = false
}

func (q *Queue) ShowError(text string) uint64 {
	return q.show(SeverityError, text, q.cfg.ErrorDelay)
}

func (q *Queue) ShowSuccess(text string) uint64 {
	return q.show(SeveritySuccess, text, q.cfg.SuccessDelay)
}

func (q *Queue) ShowInfo(text string) uint64 {
	return q.show(SeverityInfo, text, q.cfg.InfoDelay)
}

func (q *Queue) show(severity Severity, text string, delay time.Duration) uint64 {
	q.mu.Lock()
	q.nextID++
	n := &Notification{
		ID:        q.nextID,
		Severity:  severity,
		Text:      text,
		CreatedAt: q.now(),
		Delay:     delay,
	}
	if !q.running {
		q.mu.Unlock()
		log.Warn().Str("severity", string(severity)).Str("text", text).Msg("notification raised before queue was initialized")
		return n.ID
	}
	q.items = append(q.items, n)
	if delay > 0 {
		id := n.ID
		q.timers[id] = time.AfterFunc(delay, func() {
			q.expire(id)
		})
	}
	q.mu.Unlock()

	log.Debug().Uint64("id", n.ID).Str("severity", string(severity)).Str("text", text).Msg("notification added")
	q.publish(events.EventTypeNotificationAdded, n)
	return n.ID
}

// Dismiss removes a notification before its delay elapses. Unknown ids are ignored.
func (q *Queue) Dismiss(id uint64) {
	q.remove(id)
}

func (q *Queue) expire(id uint64) {
	q.remove(id)
}

func (q *Queue) remove(id uint64) {
	q.mu.Lock()
	var removed *Notification
	for i, n := range q.items {
		if n.ID == id {
			removed = n
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	if removed != nil {
		q.publish(events.EventTypeNotificationRemoved, removed)
	}
}

// List returns the visible notifications in the order they were raised.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	ret := make([]Notification, 0, len(q.items))
	for _, n := range q.items {
		ret = append(ret, *n)
	}
	return ret
}

func (q *Queue) publish(type_ events.EventType, n *Notification) {
	e, err := events.NewEvent(type_, events.NotificationPayload{
		ID:        n.ID,
		Severity:  string(n.Severity),
		Text:      n.Text,
		CreatedAt: n.CreatedAt,
		Delay:     n.Delay,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not build notification event")
		return
	}
	if err := q.publisher.PublishEvent(events.TopicNotifications, e); err != nil {
		log.Error().Err(err).Uint64("id", n.ID).Msg("could not publish notification event")
	}
}

var _ Notifier = (*Queue)(nil)
