// Package voice turns single-shot speech recognition into composer text.
package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusError     Status = "error"
)

const (
	ErrorNotAllowed = "not-allowed"
	ErrorNoSpeech   = "no-speech"
	ErrorAborted    = "aborted"
	ErrorAudio      = "audio-capture"
)

const DefaultLanguage = "ur-PK"

// ErrorMessage is the notice raised for a recognition error code.
func ErrorMessage(code string) string {
	switch code {
	case ErrorNotAllowed:
		return "Microphone access denied. Please allow microphone access to use voice input."
	case ErrorNoSpeech:
		return "No speech detected. Please try again."
	default:
		return fmt.Sprintf("Speech recognition error: %s", code)
	}
}

type EventKind string

const (
	EventResult EventKind = "result"
	EventError  EventKind = "error"
	EventEnd    EventKind = "end"
)

// Event is what a recognizer reports. A recognition ends with exactly one
// result or error, optionally followed by end, and then the channel closes.
type Event struct {
	Kind       EventKind
	Transcript string
	Code       string
}

type Recognizer interface {
	// Available reports whether recognition can be attempted at all.
	Available() bool
	// Recognize starts one recognition. Cancelling ctx aborts it.
	Recognize(ctx context.Context, language string) (<-chan Event, error)
}

// Machine is the voice input state machine:
// idle -> listening -> idle, and idle -> listening -> error -> idle.
type Machine struct {
	recognizer Recognizer
	language   string
	notifier   notifications.Notifier
	// onTranscript receives the recognized text, replacing the composer
	onTranscript func(string)
	onStatus     func(Status)

	mu        sync.Mutex
	status    Status
	lastError string
	current   *attempt
	wg        sync.WaitGroup
}

type Option func(*Machine)

func WithLanguage(language string) Option {
	return func(m *Machine) {
		m.language = language
	}
}

func WithNotifier(n notifications.Notifier) Option {
	return func(m *Machine) {
		m.notifier = n
	}
}

func WithTranscriptHandler(f func(string)) Option {
	return func(m *Machine) {
		m.onTranscript = f
	}
}

// WithStatusHandler is called on every status transition, outside the lock.
func WithStatusHandler(f func(Status)) Option {
	return func(m *Machine) {
		m.onStatus = f
	}
}

func NewMachine(recognizer Recognizer, options ...Option) *Machine {
	ret := &Machine{
		recognizer:   recognizer,
		language:     DefaultLanguage,
		notifier:     notifications.Discard{},
		onTranscript: func(string) {},
		onStatus:     func(Status) {},
		status:       StatusIdle,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// LastError is the code of the most recent recognition error.
func (m *Machine) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *Machine) Available() bool {
	return m.recognizer != nil && m.recognizer.Available()
}

// Start begins listening. It does nothing and returns false while already
// listening or when recognition is unavailable.
func (m *Machine) Start(ctx context.Context) bool {
	if !m.Available() {
		log.Debug().Msg("voice recognition unavailable")
		return false
	}

	m.mu.Lock()
	if m.status == StatusListening {
		m.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	events, err := m.recognizer.Recognize(ctx, m.language)
	if err != nil {
		m.mu.Unlock()
		cancel()
		log.Error().Err(err).Msg("could not start recognition")
		m.notifier.ShowError(ErrorMessage(ErrorAudio))
		return false
	}
	a := &attempt{cancel: cancel}
	m.current = a
	m.status = StatusListening
	m.wg.Add(1)
	m.mu.Unlock()
	m.onStatus(StatusListening)

	go func() {
		defer m.wg.Done()
		defer cancel()
		m.consume(a, events)
	}()
	return true
}

// attempt is one recognition. Events of an attempt that is no longer
// current are ignored.
type attempt struct {
	cancel context.CancelFunc
}

func (m *Machine) consume(a *attempt, events <-chan Event) {
	for ev := range events {
		switch ev.Kind {
		case EventResult:
			if !m.toIdle(a) {
				continue
			}
			log.Debug().Str("transcript", ev.Transcript).Msg("speech recognized")
			m.onTranscript(ev.Transcript)
		case EventError:
			if ev.Code == ErrorAborted {
				m.toIdle(a)
				continue
			}
			m.fail(a, ev.Code)
		case EventEnd:
			m.toIdle(a)
		}
		// recognition is single-shot, release the recognizer and drain
		a.cancel()
	}
	m.toIdle(a)
}

// toIdle ends attempt a and reports whether it was still listening.
func (m *Machine) toIdle(a *attempt) bool {
	m.mu.Lock()
	if m.current != a || m.status != StatusListening {
		m.mu.Unlock()
		return false
	}
	m.status = StatusIdle
	m.current = nil
	m.mu.Unlock()
	m.onStatus(StatusIdle)
	return true
}

func (m *Machine) fail(a *attempt, code string) {
	m.mu.Lock()
	if m.current != a || m.status != StatusListening {
		m.mu.Unlock()
		return
	}
	m.status = StatusError
	m.lastError = code
	m.mu.Unlock()
	m.onStatus(StatusError)

	log.Warn().Str("code", code).Msg("speech recognition failed")
	m.notifier.ShowError(ErrorMessage(code))

	m.mu.Lock()
	if m.current == a {
		m.status = StatusIdle
		m.current = nil
	}
	m.mu.Unlock()
	m.onStatus(StatusIdle)
}

// Stop aborts a running recognition. It only acts while listening.
func (m *Machine) Stop() {
	m.mu.Lock()
	a := m.current
	if m.status != StatusListening || a == nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	a.cancel()
	m.toIdle(a)
}

// Dispose stops listening and waits for the recognizer to finish.
func (m *Machine) Dispose() {
	m.Stop()
	m.wg.Wait()
}
