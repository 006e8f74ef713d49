// Package health reads and repairs the backend's system health.
package health

import (
	"context"
	"fmt"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/rs/zerolog/log"
)

type Backend interface {
	SystemHealth(ctx context.Context) (*api.HealthReport, error)
	HealthMetrics(ctx context.Context) (api.MetricsReport, error)
	FixIssue(ctx context.Context, issueID string) (*api.FixResult, error)
}

var _ Backend = (*api.Client)(nil)

type Monitor struct {
	backend  Backend
	notifier notifications.Notifier
}

func NewMonitor(backend Backend, notifier notifications.Notifier) *Monitor {
	if notifier == nil {
		notifier = notifications.Discard{}
	}
	return &Monitor{backend: backend, notifier: notifier}
}

// FallbackReport is shown when the health endpoint cannot be reached.
func FallbackReport() *api.HealthReport {
	return &api.HealthReport{
		OverallStatus:  "critical",
		BackendStatus:  "unhealthy",
		FrontendStatus: "unhealthy",
		DatabaseStatus: "unknown",
		APIStatus:      "unknown",
		Metrics: api.HealthMetrics{
			ErrorRate: 100,
		},
		Issues: []api.HealthIssue{{
			ID:           "frontend-error",
			IssueType:    "critical",
			Category:     "frontend",
			Title:        "Frontend Connection Failed",
			Description:  "Cannot connect to backend health endpoint",
			SuggestedFix: "Check backend service status",
			AutoFixable:  false,
			Severity:     5,
		}},
	}
}

// Load returns the health report, or the fallback report along with the
// error if it could not be loaded.
func (m *Monitor) Load(ctx context.Context) (*api.HealthReport, error) {
	report, err := m.backend.SystemHealth(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load system health")
		return FallbackReport(), err
	}
	return report, nil
}

func (m *Monitor) Metrics(ctx context.Context) (api.MetricsReport, error) {
	metrics, err := m.backend.HealthMetrics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load health metrics")
		return nil, err
	}
	return metrics, nil
}

// Fix asks the backend to repair issueID. The caller is expected to have
// confirmed the fix with the user. On success the report is reloaded and
// returned.
func (m *Monitor) Fix(ctx context.Context, issueID string) (*api.FixResult, *api.HealthReport, error) {
	res, err := m.backend.FixIssue(ctx, issueID)
	if err != nil {
		log.Error().Err(err).Str("issue_id", issueID).Msg("could not apply fix")
		m.notifier.ShowError("Error applying fix: " + apierror.UserMessage(err))
		return nil, nil, err
	}
	if !res.Success {
		log.Warn().Str("issue_id", issueID).Str("error", res.Error).Msg("fix failed")
		m.notifier.ShowError(fmt.Sprintf("Fix failed: %s", res.Error))
		return res, nil, nil
	}

	report, _ := m.Load(ctx)
	m.notifier.ShowSuccess(fmt.Sprintf("Fix applied successfully: %s", res.Message))
	return res, report, nil
}
