package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func (c *Client) ListSessions(ctx context.Context) ([]*conversation.Session, error) {
	var ret []*conversation.Session
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/sessions"}, &ret); err != nil {
		return nil, err
	}
	sessions := make([]*conversation.Session, 0, len(ret))
	for _, s := range ret {
		if s == nil || s.ID == "" {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (c *Client) CreateSession(ctx context.Context, title string) (*conversation.Session, error) {
	r, err := jsonRequest(http.MethodPost, "/sessions", CreateSessionRequest{Title: title})
	if err != nil {
		return nil, err
	}
	var ret conversation.Session
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	if ret.ID == "" {
		return nil, errors.New("created session has no id")
	}
	return &ret, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: "/sessions/" + url.PathEscape(sessionID)}, nil)
}

// ListMessages loads a session's log for feature. Elements that are not valid
// messages are dropped.
func (c *Client) ListMessages(ctx context.Context, sessionID string, feature conversation.FeatureMode) ([]*conversation.Message, error) {
	r := &request{method: http.MethodGet, path: "/sessions/" + url.PathEscape(sessionID) + "/messages"}
	if v := feature.QueryValue(); v != "" {
		r.query = url.Values{"feature_type": []string{v}}
	}

	var raw []json.RawMessage
	if err := c.do(ctx, r, &raw); err != nil {
		return nil, err
	}
	msgs, dropped := conversation.DecodeMessages(raw)
	if dropped > 0 {
		log.Warn().Str("session_id", sessionID).Int("dropped", dropped).Msg("dropped invalid messages")
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	r, err := jsonRequest(http.MethodPost, "/sessions/"+url.PathEscape(req.SessionID)+"/messages", req)
	if err != nil {
		return nil, err
	}
	var ret SendMessageResponse
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// UploadDocument posts the document as the multipart field "file".
func (c *Client) UploadDocument(ctx context.Context, sessionID string, filename string, content io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, errors.Wrap(err, "could not create form file")
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.Wrapf(err, "could not read %s", filename)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "could not finish multipart body")
	}

	r := &request{
		method:      http.MethodPost,
		path:        "/sessions/" + url.PathEscape(sessionID) + "/upload-document",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}
	var ret UploadResult
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var ret struct {
		Models []Model `json:"models"`
	}
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/models"}, &ret); err != nil {
		return nil, err
	}
	if ret.Models == nil {
		return []Model{}, nil
	}
	return ret.Models, nil
}

func (c *Client) GenerateQuestions(ctx context.Context, req GenerateQuestionsRequest) (GenerationResult, error) {
	r, err := jsonRequest(http.MethodPost, "/generate-questions", req)
	if err != nil {
		return nil, err
	}
	ret := GenerationResult{}
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) GenerateQuiz(ctx context.Context, req GenerateQuizRequest) (GenerationResult, error) {
	r, err := jsonRequest(http.MethodPost, "/generate-quiz", req)
	if err != nil {
		return nil, err
	}
	ret := GenerationResult{}
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	r, err := jsonRequest(http.MethodPost, "/search", req)
	if err != nil {
		return nil, err
	}
	var ret struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	if ret.Results == nil {
		return []SearchResult{}, nil
	}
	return ret.Results, nil
}

func (c *Client) SystemHealth(ctx context.Context) (*HealthReport, error) {
	var ret HealthReport
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/system-health"}, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *Client) HealthMetrics(ctx context.Context) (MetricsReport, error) {
	ret := MetricsReport{}
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/system-health/metrics"}, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) FixIssue(ctx context.Context, issueID string) (*FixResult, error) {
	r, err := jsonRequest(http.MethodPost, "/system-health/fix", FixRequest{IssueID: issueID, ConfirmFix: true})
	if err != nil {
		return nil, err
	}
	var ret FixResult
	if err := c.do(ctx, r, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Ping hits the health endpoint. It bypasses the online check so that it can
// be used to detect that the backend came back.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
