package cmds

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/config"
	"github.com/go-go-golems/docchat/pkg/connectivity"
	"github.com/go-go-golems/docchat/pkg/events"
	"github.com/go-go-golems/docchat/pkg/health"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/retry"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// AnnotationLogFileOnly marks commands that own the terminal.
const AnnotationLogFileOnly = "log-to-file-only"

// app is the wired client stack shared by all commands.
type app struct {
	settings *config.Settings
	client   *api.Client
	checker  *connectivity.Checker
	retry    *retry.Executor
	engine   *chat.Engine
	monitor  *health.Monitor
	notifier notifications.Notifier
}

type appOption func(*appOptions)

type appOptions struct {
	notifier  notifications.Notifier
	publisher events.Publisher
}

func withNotifier(n notifications.Notifier) appOption {
	return func(o *appOptions) {
		o.notifier = n
	}
}

func withPublisher(p events.Publisher) appOption {
	return func(o *appOptions) {
		o.publisher = p
	}
}

func loadSettings() (*config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return s, nil
}

func newApp(options ...appOption) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	opts := &appOptions{
		notifier:  newPrintNotifier(os.Stderr),
		publisher: events.NopPublisher{},
	}
	for _, o := range options {
		o(opts)
	}

	ret := &app{settings: settings, notifier: opts.notifier}

	// the probe needs the client and the client asks the checker, so the
	// checker's probe goes through a closure
	var client *api.Client
	ret.checker = connectivity.NewChecker(
		connectivity.WithProbe(func(ctx context.Context) error {
			return client.Ping(ctx)
		}, settings.ProbeInterval),
		connectivity.WithNotifier(opts.notifier),
		connectivity.WithPublisher(opts.publisher),
	)
	clientOptions := []api.Option{
		api.WithTimeout(settings.Timeout),
		api.WithOnlineChecker(ret.checker),
	}
	// without a probe nothing would bring the checker back online
	if settings.ProbeInterval > 0 {
		clientOptions = append(clientOptions, api.WithConnectivityReporter(ret.checker))
	}
	client = api.NewClient(settings.BackendURL, clientOptions...)
	ret.client = client

	ret.retry = retry.NewExecutor(retry.WithClassifier(func(err error) *apierror.Error {
		return apierror.FromError(err, !ret.checker.IsOnline())
	}))

	ret.engine = chat.NewEngine(client,
		chat.WithConfig(settings.Chat),
		chat.WithNotifier(opts.notifier),
		chat.WithRetryExecutor(ret.retry),
	)
	ret.monitor = health.NewMonitor(client, opts.notifier)

	return ret, nil
}

// printNotifier shows notices on a terminal stream for one-shot commands.
type printNotifier struct {
	w      io.Writer
	id     uint64
	styles map[notifications.Severity]lipgloss.Style
}

func newPrintNotifier(w io.Writer) *printNotifier {
	return &printNotifier{
		w: w,
		styles: map[notifications.Severity]lipgloss.Style{
			notifications.SeverityError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F")),
			notifications.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")),
			notifications.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
		},
	}
}

func (p *printNotifier) show(severity notifications.Severity, text string) uint64 {
	p.id++
	_, _ = fmt.Fprintln(p.w, p.styles[severity].Render(text))
	return p.id
}

func (p *printNotifier) ShowError(text string) uint64 {
	return p.show(notifications.SeverityError, text)
}

func (p *printNotifier) ShowSuccess(text string) uint64 {
	return p.show(notifications.SeveritySuccess, text)
}

func (p *printNotifier) ShowInfo(text string) uint64 {
	return p.show(notifications.SeverityInfo, text)
}

// quietNotifier drops success and info notices so that scripted output
// stays clean.
type quietNotifier struct {
	notifications.Notifier
}

func (quietNotifier) ShowSuccess(string) uint64 { return 0 }
func (quietNotifier) ShowInfo(string) uint64    { return 0 }
