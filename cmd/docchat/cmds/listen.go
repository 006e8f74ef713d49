package cmds

import (
	"context"
	"os"

	"github.com/go-go-golems/docchat/pkg/voice"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewListenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Dictate with the configured speech-to-text command and print the transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			language, _ := cmd.Flags().GetString("language")
			if language == "" {
				language = settings.Voice.Language
			}
			if settings.Voice.Command == "" {
				return errors.New("no voice command configured, set voice.command in the config file")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var transcript string
			m := voice.NewMachine(
				voice.NewCommandRecognizer(settings.Voice.Command, settings.Voice.Args...),
				voice.WithLanguage(language),
				voice.WithNotifier(newPrintNotifier(os.Stderr)),
				voice.WithTranscriptHandler(func(text string) {
					transcript = text
				}),
				voice.WithStatusHandler(func(s voice.Status) {
					if s == voice.StatusIdle {
						cancel()
					}
				}),
			)

			if !m.Start(ctx) {
				return errors.New("speech recognition is not available")
			}
			printf(os.Stderr, "Listening (%s)...\n", language)
			<-ctx.Done()
			// waits for the transcript handler to have run
			m.Dispose()

			if transcript == "" {
				return errors.Errorf("no transcript: %s", m.LastError())
			}
			printf(os.Stdout, "%s\n", transcript)
			return nil
		},
	}
	cmd.Flags().StringP("language", "l", "", "Recognition language (default from config)")
	return cmd
}
