package api

import (
	"encoding/json"

	"github.com/go-go-golems/docchat/pkg/conversation"
)

type Model struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Provider string `json:"provider" yaml:"provider"`
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type SendMessageRequest struct {
	SessionID   string                   `json:"session_id"`
	Content     string                   `json:"content"`
	Model       string                   `json:"model"`
	FeatureType conversation.FeatureMode `json:"feature_type"`
}

// SendMessageResponse keeps ai_response raw: it is validated by the caller,
// which decides what to show when it is malformed.
type SendMessageResponse struct {
	AIResponse json.RawMessage `json:"ai_response"`
}

type UploadResult struct {
	Filename      string `json:"filename"`
	FileType      string `json:"file_type"`
	ContentLength int    `json:"content_length,omitempty"`
	Message       string `json:"message,omitempty"`
}

type GenerateQuestionsRequest struct {
	SessionID      string  `json:"session_id"`
	QuestionType   string  `json:"question_type"`
	ChapterSegment *string `json:"chapter_segment"`
	Model          string  `json:"model"`
}

type GenerateQuizRequest struct {
	SessionID     string `json:"session_id"`
	QuizType      string `json:"quiz_type"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
	Model         string `json:"model"`
}

// GenerationResult is the loosely typed answer of the question and quiz
// generators. The generated content is also stored in the session log.
type GenerationResult map[string]interface{}

type SearchRequest struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type"`
	Limit      int    `json:"limit"`
}

type SearchResult struct {
	Type         string  `json:"type" yaml:"type"`
	SessionID    string  `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	SessionTitle string  `json:"session_title,omitempty" yaml:"session_title,omitempty"`
	Filename     string  `json:"filename,omitempty" yaml:"filename,omitempty"`
	Snippet      string  `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Content      string  `json:"content,omitempty" yaml:"content,omitempty"`
	Score        float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Title is what identifies the hit: the document for document hits, the
// session otherwise.
func (r SearchResult) Title() string {
	if r.Type == "pdf" || r.Type == "document" {
		return r.Filename
	}
	return r.SessionTitle
}

func (r SearchResult) Text() string {
	if r.Type == "pdf" || r.Type == "document" {
		return r.Snippet
	}
	return r.Content
}

type HealthMetrics struct {
	CPUUsage       float64 `json:"cpu_usage" yaml:"cpu_usage"`
	MemoryUsage    float64 `json:"memory_usage" yaml:"memory_usage"`
	DiskUsage      float64 `json:"disk_usage" yaml:"disk_usage"`
	ResponseTime   float64 `json:"response_time" yaml:"response_time"`
	ActiveSessions int     `json:"active_sessions" yaml:"active_sessions"`
	TotalAPICalls  int     `json:"total_api_calls" yaml:"total_api_calls"`
	ErrorRate      float64 `json:"error_rate" yaml:"error_rate"`
}

type HealthIssue struct {
	ID           string `json:"id" yaml:"id"`
	IssueType    string `json:"issue_type" yaml:"issue_type"`
	Category     string `json:"category" yaml:"category"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	SuggestedFix string `json:"suggested_fix" yaml:"suggested_fix"`
	AutoFixable  bool   `json:"auto_fixable" yaml:"auto_fixable"`
	Severity     int    `json:"severity" yaml:"severity"`
	Resolved     bool   `json:"resolved" yaml:"resolved"`
}

type HealthReport struct {
	OverallStatus  string        `json:"overall_status" yaml:"overall_status"`
	BackendStatus  string        `json:"backend_status" yaml:"backend_status"`
	FrontendStatus string        `json:"frontend_status" yaml:"frontend_status"`
	DatabaseStatus string        `json:"database_status" yaml:"database_status"`
	APIStatus      string        `json:"api_status" yaml:"api_status"`
	Metrics        HealthMetrics `json:"metrics" yaml:"metrics"`
	Issues         []HealthIssue `json:"issues" yaml:"issues"`
	Uptime         float64       `json:"uptime" yaml:"uptime"`
}

// MetricsReport is the free-form payload of the metrics endpoint.
type MetricsReport map[string]interface{}

type FixRequest struct {
	IssueID    string `json:"issue_id"`
	ConfirmFix bool   `json:"confirm_fix"`
}

type FixResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
