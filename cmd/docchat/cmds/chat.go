package cmds

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/docchat/pkg/events"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/ui"
	"github.com/go-go-golems/docchat/pkg/voice"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "chat",
		Short:       "Open the interactive chat",
		Annotations: map[string]string{AnnotationLogFileOnly: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			exportDir, _ := cmd.Flags().GetString("export-dir")
			glamourStyle, _ := cmd.Flags().GetString("style")
			return runChat(cmd.Context(), exportDir, glamourStyle)
		},
	}
	cmd.Flags().String("export-dir", ".", "Directory transcripts are exported to")
	cmd.Flags().String("style", "dark", "Markdown style (dark, light, notty)")
	return cmd
}

func runChat(ctx context.Context, exportDir string, glamourStyle string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router, err := events.NewEventRouter(events.WithLogger(events.NewWatermill(log.Logger)))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	queue := notifications.NewQueue(
		notifications.WithConfig(settings.Notifications),
		notifications.WithPublisher(router),
	)
	queue.Init()
	defer queue.Dispose()

	a, err := newApp(withNotifier(queue), withPublisher(router))
	if err != nil {
		return err
	}
	a.checker.Init(ctx)
	defer a.checker.Dispose()

	// p is assigned before any of these callbacks can fire
	var p *tea.Program
	send := func(msg tea.Msg) {
		if p != nil {
			p.Send(msg)
		}
	}

	var machine *voice.Machine
	if settings.Voice.Command != "" {
		machine = voice.NewMachine(
			voice.NewCommandRecognizer(settings.Voice.Command, settings.Voice.Args...),
			voice.WithLanguage(settings.Voice.Language),
			voice.WithNotifier(queue),
			voice.WithTranscriptHandler(func(text string) {
				a.engine.State().SetComposer(text)
				send(ui.TranscriptMsg{Text: text})
			}),
			voice.WithStatusHandler(func(s voice.Status) {
				send(ui.VoiceStatusMsg{Status: s})
			}),
		)
		defer machine.Dispose()
	}

	model := ui.NewModel(a.engine, queue,
		ui.WithContext(ctx),
		ui.WithVoice(machine),
		ui.WithExportDir(exportDir),
		ui.WithTypewriterSpeed(settings.Typewriter.Speed),
		ui.WithGlamourStyle(glamourStyle),
		ui.WithOnline(a.checker.IsOnline()),
	)

	options := []tea.ProgramOption{
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		options = append(options, tea.WithOutput(os.Stderr))
	} else {
		options = append(options, tea.WithAltScreen())
	}
	p = tea.NewProgram(model, options...)

	a.engine.OnChange(func() {
		send(ui.RefreshMsg{})
	})
	ui.ForwardEvents(router, p)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		<-router.Running()
		_, err := p.Run()
		return err
	})

	err = eg.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
