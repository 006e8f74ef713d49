package chat

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/retry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoadMessages fetches the log of (sessionID, feature) and installs it if
// that pair is still in focus. A missing session yields an empty log without
// a notice, and an unauthorized load stays off the notice bar.
func (e *Engine) LoadMessages(ctx context.Context, sessionID string, feature conversation.FeatureMode) error {
	focus := Focus{SessionID: sessionID, Feature: feature}
	if sessionID == "" {
		e.applyLog(focus, []*conversation.Message{})
		return nil
	}

	msgs, err := retry.Do(ctx, e.retry, e.cfg.Retry, func(ctx context.Context) ([]*conversation.Message, error) {
		return e.backend.ListMessages(ctx, sessionID, feature)
	})
	if err != nil {
		if !e.applyLog(focus, []*conversation.Message{}) {
			return err
		}
		if errors.Is(err, apierror.ErrNotFound) {
			log.Debug().Str("session_id", sessionID).Msg("session has no messages on the backend")
			return nil
		}
		log.Error().Err(err).Str("session_id", sessionID).Str("feature", string(feature)).Msg("could not load messages")
		notifications.ReportFailure(e.notifier, "Failed to load messages", err)
		return err
	}

	e.applyLog(focus, msgs)
	return nil
}

// applyLog replaces the log if focus is current and reports whether it did.
func (e *Engine) applyLog(focus Focus, msgs []*conversation.Message) bool {
	e.state.mu.Lock()
	current := e.state.focusLocked()
	if current != focus {
		e.state.mu.Unlock()
		log.Debug().
			Str("session_id", focus.SessionID).
			Str("feature", string(focus.Feature)).
			Msg("dropping stale message log")
		return false
	}
	e.state.log = msgs
	e.state.mu.Unlock()
	e.changed()
	return true
}

// appendIfFocused appends m to the log if focus is current.
func (e *Engine) appendIfFocused(focus Focus, m *conversation.Message) bool {
	e.state.mu.Lock()
	if e.state.focusLocked() != focus {
		e.state.mu.Unlock()
		log.Debug().Str("message_id", m.ID).Msg("dropping stale message")
		return false
	}
	e.state.appendLocked(m)
	e.state.mu.Unlock()
	e.changed()
	return true
}

// Send sends the composer text as a user message. The user message is
// appended optimistically and never rolled back. The reply, or an error
// placeholder, is appended only if the focus did not move meanwhile.
func (e *Engine) Send(ctx context.Context) error {
	e.state.mu.Lock()
	content := e.state.composer
	if strings.TrimSpace(content) == "" {
		e.state.mu.Unlock()
		return ErrNothingToSend
	}
	if e.state.activeLocked() == nil {
		e.state.mu.Unlock()
		return ErrNoActiveSession
	}
	focus := e.state.focusLocked()
	if _, ok := e.state.inFlight[focus.SessionID]; ok {
		e.state.mu.Unlock()
		return ErrSendInFlight
	}

	userMessage := conversation.NewMessage(conversation.RoleUser, content, focus.Feature,
		conversation.WithSessionID(focus.SessionID))
	e.state.appendLocked(userMessage)
	e.state.composer = ""
	e.state.inFlight[focus.SessionID] = struct{}{}
	model := e.state.selectedModel
	e.state.mu.Unlock()
	e.changed()

	req := api.SendMessageRequest{
		SessionID:   focus.SessionID,
		Content:     content,
		Model:       model,
		FeatureType: focus.Feature,
	}
	cfg := retry.Config{MaxRetries: e.cfg.SendRetries, BaseDelay: e.cfg.Retry.BaseDelay}
	resp, err := retry.Do(ctx, e.retry, cfg, func(ctx context.Context) (*api.SendMessageResponse, error) {
		return e.backend.SendMessage(ctx, req)
	})

	var reply *conversation.Message
	if err != nil {
		log.Error().Err(err).Str("session_id", focus.SessionID).Msg("could not send message")
		reply = conversation.NewMessage(conversation.RoleAssistant, SendFailedMessage, focus.Feature,
			conversation.WithSessionID(focus.SessionID))
	} else {
		reply = replyFrom(resp.AIResponse, focus)
	}

	e.state.mu.Lock()
	delete(e.state.inFlight, focus.SessionID)
	e.state.mu.Unlock()

	if !e.appendIfFocused(focus, reply) {
		e.changed()
	}
	return err
}

// replyFrom validates the assistant reply. A malformed reply is replaced by
// an assistant message carrying whatever content it had.
func replyFrom(raw json.RawMessage, focus Focus) *conversation.Message {
	m, err := conversation.DecodeMessage(raw)
	if err == nil {
		if m.SessionID == "" {
			m.SessionID = focus.SessionID
		}
		return m
	}
	log.Warn().Err(err).Msg("invalid assistant reply")

	content := MissingContentMessage
	var partial struct {
		Content interface{} `json:"content"`
	}
	if json.Unmarshal(raw, &partial) == nil {
		if s, ok := partial.Content.(string); ok && s != "" {
			content = s
		}
	}
	return conversation.NewMessage(conversation.RoleAssistant, content, focus.Feature,
		conversation.WithSessionID(focus.SessionID))
}

// UploadDocument uploads a document to the active session and records it.
func (e *Engine) UploadDocument(ctx context.Context, filename string, content io.Reader) (*api.UploadResult, error) {
	active := e.state.Active()
	if active == nil {
		e.notifier.ShowError(NoSessionMessage)
		return nil, ErrNoActiveSession
	}
	focus := e.state.Focus()

	res, err := retry.Do(ctx, e.retry, retry.Config{}, func(ctx context.Context) (*api.UploadResult, error) {
		return e.backend.UploadDocument(ctx, active.ID, filename, content)
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", active.ID).Str("filename", filename).Msg("could not upload document")
		e.reportFailure("Error uploading document", err)
		return nil, err
	}

	e.AttachDocument(active.ID, res.Filename, res.FileType)
	e.appendIfFocused(focus, conversation.NewMessage(
		conversation.RoleSystem,
		conversation.UploadMessage(res.Filename, res.FileType),
		focus.Feature,
		conversation.WithSessionID(active.ID),
	))
	log.Info().Str("session_id", active.ID).Str("filename", res.Filename).Str("file_type", res.FileType).Msg("document uploaded")
	return res, nil
}
