package health

import (
	"context"
	"testing"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	report    *api.HealthReport
	healthErr error
	fix       *api.FixResult
	fixErr    error
	loads     int
}

func (f *fakeBackend) SystemHealth(context.Context) (*api.HealthReport, error) {
	f.loads++
	return f.report, f.healthErr
}

func (f *fakeBackend) HealthMetrics(context.Context) (api.MetricsReport, error) {
	return api.MetricsReport{"uptime": 12.5}, nil
}

func (f *fakeBackend) FixIssue(context.Context, string) (*api.FixResult, error) {
	return f.fix, f.fixErr
}

type notices struct {
	errors  []string
	success []string
}

func (n *notices) ShowError(text string) uint64 {
	n.errors = append(n.errors, text)
	return 0
}

func (n *notices) ShowSuccess(text string) uint64 {
	n.success = append(n.success, text)
	return 0
}

func (n *notices) ShowInfo(string) uint64 { return 0 }

func TestLoadFallback(t *testing.T) {
	m := NewMonitor(&fakeBackend{healthErr: errors.New("connection refused")}, nil)
	report, err := m.Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "critical", report.OverallStatus)
	assert.Equal(t, "unhealthy", report.BackendStatus)
	assert.Equal(t, "unhealthy", report.FrontendStatus)
	assert.Equal(t, float64(100), report.Metrics.ErrorRate)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "frontend-error", report.Issues[0].ID)
	assert.Equal(t, "Frontend Connection Failed", report.Issues[0].Title)
}

func TestFixOutcomes(t *testing.T) {
	b := &fakeBackend{report: &api.HealthReport{OverallStatus: "healthy"}}
	n := &notices{}
	m := NewMonitor(b, n)

	b.fix = &api.FixResult{Success: true, Message: "cache cleared"}
	res, report, err := m.Fix(context.Background(), "i1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "healthy", report.OverallStatus)
	assert.Equal(t, 1, b.loads)
	assert.Equal(t, []string{"Fix applied successfully: cache cleared"}, n.success)

	b.fix = &api.FixResult{Success: false, Error: "not fixable"}
	_, report, err = m.Fix(context.Background(), "i1")
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, []string{"Fix failed: not fixable"}, n.errors)

	b.fixErr = &api.StatusError{StatusCode: 400, Detail: "unknown issue"}
	_, _, err = m.Fix(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, "Error applying fix: unknown issue", n.errors[1])
}

func TestMetrics(t *testing.T) {
	m := NewMonitor(&fakeBackend{}, nil)
	metrics, err := m.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, metrics["uptime"])
}
