package chat

import (
	"context"

	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/retry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoadSessions replaces the session list with the backend's. An empty list
// gets a fresh session; otherwise the first session is activated unless the
// active one is still listed. On failure the list and active session are
// cleared.
func (e *Engine) LoadSessions(ctx context.Context) error {
	sessions, err := retry.Do(ctx, e.retry, e.cfg.Retry, e.backend.ListSessions)
	if err != nil {
		log.Error().Err(err).Msg("could not load sessions")
		e.state.mu.Lock()
		e.state.sessions = nil
		e.state.activeID = ""
		e.state.log = []*conversation.Message{}
		e.state.mu.Unlock()
		e.changed()
		e.reportFailure("Failed to load sessions", err)
		return err
	}

	e.state.mu.Lock()
	e.state.sessions = sessions
	var toLoad *Focus
	if len(sessions) > 0 && e.state.activeLocked() == nil {
		e.state.activeID = sessions[0].ID
		e.state.log = []*conversation.Message{}
		f := e.state.focusLocked()
		toLoad = &f
	}
	e.state.mu.Unlock()
	e.changed()

	e.notifier.ShowSuccess(SessionsLoadedMessage)
	log.Debug().Int("count", len(sessions)).Msg("sessions loaded")

	if len(sessions) == 0 {
		_, err := e.CreateSession(ctx, e.cfg.SessionTitle)
		return err
	}
	if toLoad != nil {
		return e.LoadMessages(ctx, toLoad.SessionID, toLoad.Feature)
	}
	return nil
}

// CreateSession creates a session, puts it first in the list and makes it
// active with an empty log.
func (e *Engine) CreateSession(ctx context.Context, title string) (*conversation.Session, error) {
	if title == "" {
		title = e.cfg.SessionTitle
	}
	sess, err := retry.Do(ctx, e.retry, retry.Config{}, func(ctx context.Context) (*conversation.Session, error) {
		return e.backend.CreateSession(ctx, title)
	})
	if err != nil {
		log.Error().Err(err).Str("title", title).Msg("could not create session")
		e.reportFailure("Failed to create session", err)
		return nil, err
	}

	e.state.mu.Lock()
	e.state.sessions = append([]*conversation.Session{sess}, e.state.sessions...)
	e.state.activeID = sess.ID
	e.state.log = []*conversation.Message{}
	e.state.mu.Unlock()
	e.changed()

	log.Info().Str("session_id", sess.ID).Msg("session created")
	return sess.Clone(), nil
}

// SelectSession activates id and loads its log for the current feature.
func (e *Engine) SelectSession(ctx context.Context, id string) error {
	e.state.mu.Lock()
	if e.state.indexLocked(id) < 0 {
		e.state.mu.Unlock()
		return ErrUnknownSession
	}
	e.state.activeID = id
	e.state.log = []*conversation.Message{}
	f := e.state.focusLocked()
	e.state.mu.Unlock()
	e.changed()

	return e.LoadMessages(ctx, f.SessionID, f.Feature)
}

// DeleteSession deletes id remotely, then locally. A session the backend no
// longer knows is removed locally too. Deleting the active session activates
// the most recently created remaining one.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	err := e.retry.ExecuteConfig(ctx, func(ctx context.Context) error {
		return e.backend.DeleteSession(ctx, id)
	}, retry.Config{})
	switch {
	case errors.Is(err, apierror.ErrNotFound):
		log.Warn().Str("session_id", id).Msg("session already gone on the backend")
	case err != nil:
		log.Error().Err(err).Str("session_id", id).Msg("could not delete session")
		e.reportFailure("Failed to delete session", err)
		return err
	}

	e.state.mu.Lock()
	wasActive := e.state.activeID == id
	if i := e.state.indexLocked(id); i >= 0 {
		e.state.sessions = append(e.state.sessions[:i:i], e.state.sessions[i+1:]...)
	}
	var toLoad *Focus
	if wasActive {
		e.state.log = []*conversation.Message{}
		e.state.activeID = ""
		if next := mostRecent(e.state.sessions); next != nil {
			e.state.activeID = next.ID
			f := e.state.focusLocked()
			toLoad = &f
		}
	}
	e.state.mu.Unlock()
	e.changed()

	log.Info().Str("session_id", id).Bool("was_active", wasActive).Msg("session deleted")
	if toLoad != nil {
		return e.LoadMessages(ctx, toLoad.SessionID, toLoad.Feature)
	}
	return nil
}

// mostRecent returns the session with the latest creation time. Earlier
// list positions win ties.
func mostRecent(sessions []*conversation.Session) *conversation.Session {
	var ret *conversation.Session
	for _, s := range sessions {
		if ret == nil || s.CreatedAt.After(ret.CreatedAt) {
			ret = s
		}
	}
	return ret
}

// AttachDocument records an uploaded document on the session entry.
func (e *Engine) AttachDocument(id string, filename string, fileType string) {
	e.state.mu.Lock()
	if i := e.state.indexLocked(id); i >= 0 {
		updated := e.state.sessions[i].Clone()
		updated.DocumentFilename = filename
		updated.DocumentType = fileType
		updated.PDFFilename = filename
		e.state.sessions[i] = updated
	}
	e.state.mu.Unlock()
	e.changed()
}

// SelectNextSession moves the active session delta positions through the
// list, wrapping around.
func (e *Engine) SelectNextSession(ctx context.Context, delta int) error {
	e.state.mu.Lock()
	n := len(e.state.sessions)
	if n == 0 {
		e.state.mu.Unlock()
		return ErrNoActiveSession
	}
	i := e.state.indexLocked(e.state.activeID)
	next := ((i+delta)%n + n) % n
	if i < 0 {
		next = 0
	}
	id := e.state.sessions[next].ID
	e.state.mu.Unlock()

	return e.SelectSession(ctx, id)
}
