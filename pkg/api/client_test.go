package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedOnline bool

func (f fixedOnline) IsOnline() bool { return bool(f) }

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), srv
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8001/api", NewClient("").BaseURL())
	assert.Equal(t, "https://x.example/api", NewClient("https://x.example/").BaseURL())
}

func TestListSessions(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[{"id":"a","title":"A","created_at":"2024-01-01T00:00:00"},null,{"title":"no id"},{"id":"b","title":"B"}]`)
	})

	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "b", sessions[1].ID)
}

func TestListMessagesFeatureParamAndFiltering(t *testing.T) {
	var queries []string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/messages", r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		_, _ = io.WriteString(w, `[{"role":"user","content":"hi"},{"role":"assistant","content":null},"garbage",{"role":"assistant","content":""}]`)
	})

	msgs, err := c.ListMessages(context.Background(), "s1", conversation.FeatureChat)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "", msgs[1].Content)

	_, err = c.ListMessages(context.Background(), "s1", conversation.FeatureGeneralAI)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "feature_type=general_ai"}, queries)
}

func TestStatusErrorDetail(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Unsupported file type"}`)
	})

	_, err := c.UploadDocument(context.Background(), "s1", "x.exe", strings.NewReader("bin"))
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.StatusCode)
	assert.Equal(t, "Unsupported file type", se.Detail)

	classified := apierror.FromError(err, false)
	assert.Equal(t, apierror.KindClientError, classified.Kind)
	assert.Equal(t, "Unsupported file type", apierror.UserMessage(classified))
}

func TestNotFoundClassification(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.ListMessages(context.Background(), "gone", conversation.FeatureChat)
	require.Error(t, err)
	assert.True(t, errors.Is(apierror.FromError(err, false), apierror.ErrNotFound))
}

func TestOfflineSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithOnlineChecker(fixedOnline(false)))
	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, apierror.KindOffline, apierror.KindOf(err))
}

type onlineRecorder struct {
	states []bool
}

func (o *onlineRecorder) SetOnline(online bool) {
	o.states = append(o.states, online)
}

func TestReachabilityIsReported(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	rec := &onlineRecorder{}
	c := NewClient(closedURL, WithConnectivityReporter(rec))
	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	classified := apierror.FromError(err, false)
	assert.Equal(t, apierror.KindOffline, classified.Kind)
	assert.True(t, classified.Retryable)
	assert.Equal(t, []bool{false}, rec.states)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c = NewClient(srv.URL, WithConnectivityReporter(rec))
	_, err = c.ListSessions(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierror.KindServerError, apierror.FromError(err, false).Kind)
	assert.Equal(t, []bool{false, true}, rec.states)
}

func TestTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := c.ListModels(context.Background())
	require.Error(t, err)
	classified := apierror.FromError(err, false)
	assert.Equal(t, apierror.KindTimeout, classified.Kind)
	assert.True(t, classified.Retryable)
}

func TestSendMessage(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{
			"session_id":   "s1",
			"content":      "hello",
			"model":        "m",
			"feature_type": "chat",
		}, body)
		_, _ = io.WriteString(w, `{"ai_response":{"role":"assistant","content":"hi back"}}`)
	})

	resp, err := c.SendMessage(context.Background(), SendMessageRequest{
		SessionID: "s1", Content: "hello", Model: "m", FeatureType: conversation.FeatureChat,
	})
	require.NoError(t, err)
	m, err := conversation.DecodeMessage(resp.AIResponse)
	require.NoError(t, err)
	assert.Equal(t, "hi back", m.Content)
}

func TestUploadDocumentMultipart(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/upload-document", r.URL.Path)
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "report.docx", header.Filename)
		assert.Equal(t, "content", string(b))
		_, _ = io.WriteString(w, `{"filename":"report.docx","file_type":"docx"}`)
	})

	res, err := c.UploadDocument(context.Background(), "s1", "/tmp/report.docx", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "report.docx", res.Filename)
	assert.Equal(t, "docx", res.FileType)
}

func TestModelsSearchAndHealth(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/models":
			_, _ = io.WriteString(w, `{"models":[{"id":"m1","name":"Model 1","provider":"anthropic"}]}`)
		case "/api/search":
			var req SearchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, SearchRequest{Query: "q", SearchType: "all", Limit: 20}, req)
			_, _ = io.WriteString(w, `{"results":[{"type":"pdf","filename":"a.pdf","snippet":"s"},{"type":"message","session_title":"T","content":"c"}]}`)
		case "/api/system-health":
			_, _ = io.WriteString(w, `{"overall_status":"healthy","metrics":{"error_rate":1.5},"issues":[{"id":"i1","title":"Disk"}]}`)
		case "/api/system-health/fix":
			var req FixRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.True(t, req.ConfirmFix)
			_, _ = io.WriteString(w, `{"success":true,"message":"cleaned"}`)
		case "/api/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	models, err := c.ListModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Model{{ID: "m1", Name: "Model 1", Provider: "anthropic"}}, models)

	results, err := c.Search(ctx, SearchRequest{Query: "q", SearchType: "all", Limit: 20})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.pdf", results[0].Title())
	assert.Equal(t, "s", results[0].Text())
	assert.Equal(t, "T", results[1].Title())

	report, err := c.SystemHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", report.OverallStatus)
	assert.Equal(t, 1.5, report.Metrics.ErrorRate)

	fix, err := c.FixIssue(ctx, "i1")
	require.NoError(t, err)
	assert.True(t, fix.Success)
	assert.Equal(t, "cleaned", fix.Message)

	assert.NoError(t, c.Ping(ctx))
}
