package chat

import (
	"sync"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/conversation"
)

// Focus is what the user is looking at. Every remote result is tagged with
// the focus it was requested for and is applied only if it still matches.
type Focus struct {
	SessionID string
	Feature   conversation.FeatureMode
}

// State is the single view of the current conversation. All fields are
// guarded by mu.
type State struct {
	mu sync.Mutex

	sessions []*conversation.Session
	activeID string
	feature  conversation.FeatureMode
	log      []*conversation.Message
	composer string
	// inFlight holds the sessions that have a send outstanding
	inFlight map[string]struct{}

	models        []api.Model
	selectedModel string
	searchResults []api.SearchResult
}

func NewState(defaultModel string) *State {
	return &State{
		feature:       conversation.FeatureChat,
		log:           []*conversation.Message{},
		inFlight:      map[string]struct{}{},
		selectedModel: defaultModel,
	}
}

// Snapshot is a deep copy of State, safe to hand to renderers.
type Snapshot struct {
	Sessions      []*conversation.Session
	Active        *conversation.Session
	Feature       conversation.FeatureMode
	Messages      []*conversation.Message
	Composer      string
	Sending       bool
	Models        []api.Model
	SelectedModel string
	SearchResults []api.SearchResult
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := Snapshot{
		Sessions:      make([]*conversation.Session, 0, len(s.sessions)),
		Feature:       s.feature,
		Messages:      make([]*conversation.Message, 0, len(s.log)),
		Composer:      s.composer,
		Models:        append([]api.Model{}, s.models...),
		SelectedModel: s.selectedModel,
		SearchResults: append([]api.SearchResult{}, s.searchResults...),
	}
	for _, sess := range s.sessions {
		ret.Sessions = append(ret.Sessions, sess.Clone())
	}
	if active := s.activeLocked(); active != nil {
		ret.Active = active.Clone()
		_, ret.Sending = s.inFlight[active.ID]
	}
	for _, m := range s.log {
		ret.Messages = append(ret.Messages, m.Clone())
	}
	return ret
}

func (s *State) Focus() Focus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusLocked()
}

func (s *State) focusLocked() Focus {
	return Focus{SessionID: s.activeID, Feature: s.feature}
}

// appendLocked appends m to the log. A timestamp older than the last
// message's, as a lagging server clock produces, is raised to it.
func (s *State) appendLocked(m *conversation.Message) {
	if n := len(s.log); n > 0 && m.Timestamp.Before(s.log[n-1].Timestamp) {
		m.Timestamp = s.log[n-1].Timestamp
	}
	s.log = append(s.log, m)
}

func (s *State) activeLocked() *conversation.Session {
	if s.activeID == "" {
		return nil
	}
	for _, sess := range s.sessions {
		if sess.ID == s.activeID {
			return sess
		}
	}
	return nil
}

func (s *State) indexLocked(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) Composer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer
}

// SetComposer replaces the pending input text.
func (s *State) SetComposer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composer = text
}

func (s *State) Messages() []*conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*conversation.Message, 0, len(s.log))
	for _, m := range s.log {
		ret = append(ret, m.Clone())
	}
	return ret
}

func (s *State) Active() *conversation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.activeLocked(); a != nil {
		return a.Clone()
	}
	return nil
}

func (s *State) Sessions() []*conversation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*conversation.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		ret = append(ret, sess.Clone())
	}
	return ret
}

func (s *State) SelectedModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedModel
}
