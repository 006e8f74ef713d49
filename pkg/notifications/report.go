package notifications

import (
	"github.com/go-go-golems/docchat/pkg/apierror"
)

// ReportFailure raises "<prefix>: <message>" as an error notice unless the
// failure is one the caller handles in context (not found, unauthorized).
// It reports whether a notice was raised.
func ReportFailure(n Notifier, prefix string, err error) bool {
	if err == nil || n == nil {
		return false
	}
	if apierror.Suppressed(err) {
		return false
	}
	return ShowFailure(n, prefix, err)
}

// ShowFailure raises "<prefix>: <message>" for any failure. Operations the
// user triggered explicitly use it so that not found and unauthorized still
// reach the user.
func ShowFailure(n Notifier, prefix string, err error) bool {
	if err == nil || n == nil {
		return false
	}
	n.ShowError(prefix + ": " + apierror.UserMessage(err))
	return true
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) ShowError(string) uint64   { return 0 }
func (Discard) ShowSuccess(string) uint64 { return 0 }
func (Discard) ShowInfo(string) uint64    { return 0 }
