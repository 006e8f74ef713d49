// Package chat is the conversation engine: sessions, the per-feature message
// log, sending, uploads and the document features, all reconciled against a
// single State.
package chat

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/retry"
	"github.com/pkg/errors"
)

// Backend is the subset of the API client the engine needs.
type Backend interface {
	ListSessions(ctx context.Context) ([]*conversation.Session, error)
	CreateSession(ctx context.Context, title string) (*conversation.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListMessages(ctx context.Context, sessionID string, feature conversation.FeatureMode) ([]*conversation.Message, error)
	SendMessage(ctx context.Context, req api.SendMessageRequest) (*api.SendMessageResponse, error)
	UploadDocument(ctx context.Context, sessionID string, filename string, content io.Reader) (*api.UploadResult, error)
	ListModels(ctx context.Context) ([]api.Model, error)
	GenerateQuestions(ctx context.Context, req api.GenerateQuestionsRequest) (api.GenerationResult, error)
	GenerateQuiz(ctx context.Context, req api.GenerateQuizRequest) (api.GenerationResult, error)
	Search(ctx context.Context, req api.SearchRequest) ([]api.SearchResult, error)
}

var _ Backend = (*api.Client)(nil)

// Config tunes the engine. ReloadDelay is how long to wait after a
// generation before loading its log.
type Config struct {
	Retry        retry.Config  `yaml:"retry" mapstructure:"retry"`
	SendRetries  int           `yaml:"send_retries" mapstructure:"send_retries"`
	DefaultModel string        `yaml:"default_model" mapstructure:"default_model"`
	SessionTitle string        `yaml:"session_title" mapstructure:"session_title"`
	ReloadDelay  time.Duration `yaml:"reload_delay" mapstructure:"reload_delay"`
}

const DefaultModel = "claude-3-opus-20240229"

func DefaultConfig() Config {
	return Config{
		Retry:        retry.DefaultConfig(),
		SendRetries:  0,
		DefaultModel: DefaultModel,
		SessionTitle: "New Chat",
		ReloadDelay:  500 * time.Millisecond,
	}
}

type Engine struct {
	backend  Backend
	state    *State
	notifier notifications.Notifier
	retry    *retry.Executor
	cfg      Config

	listenersMu sync.Mutex
	listeners   []func()
}

type Option func(*Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

func WithNotifier(n notifications.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

func WithRetryExecutor(r *retry.Executor) Option {
	return func(e *Engine) {
		e.retry = r
	}
}

// WithChangeListener registers f to be called after every state change.
// Listeners run outside the state lock.
func WithChangeListener(f func()) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, f)
	}
}

func NewEngine(backend Backend, options ...Option) *Engine {
	ret := &Engine{
		backend:  backend,
		notifier: notifications.Discard{},
		retry:    retry.NewExecutor(),
		cfg:      DefaultConfig(),
	}
	for _, o := range options {
		o(ret)
	}
	ret.state = NewState(ret.cfg.DefaultModel)
	return ret
}

func (e *Engine) State() *State {
	return e.state
}

func (e *Engine) Snapshot() Snapshot {
	return e.state.Snapshot()
}

// OnChange registers an additional change listener.
func (e *Engine) OnChange(f func()) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, f)
}

func (e *Engine) changed() {
	e.listenersMu.Lock()
	listeners := append([]func(){}, e.listeners...)
	e.listenersMu.Unlock()
	for _, f := range listeners {
		f()
	}
}

// SetComposer replaces the composer text. Voice input feeds it as well.
func (e *Engine) SetComposer(text string) {
	e.state.SetComposer(text)
	e.changed()
}

func (e *Engine) reportFailure(prefix string, err error) {
	notifications.ShowFailure(e.notifier, prefix, err)
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	ErrNothingToSend   = errors.New("nothing to send")
	ErrNoActiveSession = errors.New("no active session")
	ErrSendInFlight    = errors.New("a message is already being sent for this session")
	ErrNoDocument      = errors.New("no document uploaded")
	ErrUnknownSession  = errors.New("unknown session")
)

const (
	SendFailedMessage     = "Sorry, I encountered an error. Please try again."
	MissingContentMessage = "Response received but content is missing."
	NoSessionMessage      = "Please create a session first"
	NoDocumentMessage     = "Please upload a document first"
	SessionsLoadedMessage = "Sessions loaded successfully"
)
