// Package api is the typed client for the document chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBackendURL = "http://localhost:8001"
	DefaultTimeout    = 30 * time.Second
)

// OnlineChecker reports whether requests should be attempted at all.
type OnlineChecker interface {
	IsOnline() bool
}

// ConnectivityReporter learns reachability from the requests the client
// makes: false after a connection could not be established, true after any
// response.
type ConnectivityReporter interface {
	SetOnline(online bool)
}

type alwaysOnline struct{}

func (alwaysOnline) IsOnline() bool { return true }

// Client talks to "<backend>/api". The base URL is fixed at construction.
type Client struct {
	baseURL    string
	httpClient *http.Client
	online     OnlineChecker
	reporter   ConnectivityReporter
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithOnlineChecker(online OnlineChecker) Option {
	return func(c *Client) {
		c.online = online
	}
}

func WithConnectivityReporter(reporter ConnectivityReporter) Option {
	return func(c *Client) {
		c.reporter = reporter
	}
}

func NewClient(backendURL string, options ...Option) *Client {
	if backendURL == "" {
		backendURL = DefaultBackendURL
	}
	ret := &Client{
		baseURL:    strings.TrimRight(backendURL, "/") + "/api",
		httpClient: &http.Client{Timeout: DefaultTimeout},
		online:     alwaysOnline{},
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(method string, path string, body interface{}) (*request, error) {
	ret := &request{method: method, path: path}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "could not marshal %s %s body", method, path)
		}
		ret.body = bytes.NewReader(b)
		ret.contentType = "application/json"
	}
	return ret, nil
}

// do performs the request and decodes a 2xx JSON body into out (if non-nil).
// Failures are logged and returned either as a classified offline error or as
// a transport/StatusError that apierror.FromError understands.
func (c *Client) do(ctx context.Context, r *request, out interface{}) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	if !c.online.IsOnline() {
		log.Warn().Str("method", r.method).Str("url", u).Msg("skipping request while offline")
		return apierror.Classify(apierror.Failure{Offline: true})
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).
			Str("method", r.method).
			Str("url", u).
			Str("request_id", requestID).
			Msg("API request failed")
		if ctx.Err() == nil && isDialError(err) {
			c.reportOnline(false)
			return apierror.Classify(apierror.Failure{Offline: true, Cause: err})
		}
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.reportOnline(true)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("method", r.method).Str("url", u).Msg("could not read response body")
		return errors.Wrap(err, "could not read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := newStatusError(resp.StatusCode, body)
		log.Error().
			Str("method", r.method).
			Str("url", u).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("detail", statusErr.Detail).
			Msg("API request failed")
		return statusErr
	}

	log.Debug().
		Str("method", r.method).
		Str("url", u).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API request done")

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "could not decode response of %s %s", r.method, r.path)
	}
	return nil
}

func (c *Client) reportOnline(online bool) {
	if c.reporter != nil {
		c.reporter.SetOnline(online)
	}
}

// isDialError reports whether no connection to the backend could be made.
// Timeouts on an established connection are not dial errors.
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Detail     string
	Body       []byte
}

func newStatusError(statusCode int, body []byte) *StatusError {
	ret := &StatusError{StatusCode: statusCode, Body: body}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			ret.Detail = s
		} else if string(payload.Detail) != "null" {
			ret.Detail = string(payload.Detail)
		}
	}
	return ret
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

func (e *StatusError) ErrorDetail() string {
	return e.Detail
}

var _ apierror.StatusCoder = (*StatusError)(nil)
var _ apierror.Detailer = (*StatusError)(nil)
