package cmds

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/typewriter"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send a message and print the reply",
		Long:  "Send a message to a session and print the assistant's reply. Reads the message from stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			if content == "" {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return errors.Wrap(err, "could not read message from stdin")
				}
				content = string(b)
			}
			if strings.TrimSpace(content) == "" {
				return errors.New("nothing to send")
			}

			sessionID, _ := cmd.Flags().GetString("session")
			model, _ := cmd.Flags().GetString("model")
			noAnimate, _ := cmd.Flags().GetBool("no-animate")
			feature, err := featureFlag(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := activate(cmd, a.engine, sessionID, feature); err != nil {
				return err
			}
			if model != "" {
				a.engine.SelectModel(model)
			}

			a.engine.SetComposer(content)
			sendErr := a.engine.Send(ctx)

			msgs := a.engine.State().Messages()
			if len(msgs) == 0 || msgs[len(msgs)-1].Role != conversation.RoleAssistant {
				return sendErr
			}
			reply := msgs[len(msgs)-1].Content

			isTerminal := isatty.IsTerminal(os.Stdout.Fd())
			if isTerminal && !noAnimate {
				typeOut(ctx, os.Stdout, reply, a.settings.Typewriter.Speed)
			} else {
				printReply(os.Stdout, reply, isTerminal)
			}
			return sendErr
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session id (default: the first session)")
	cmd.Flags().StringP("model", "m", "", "Model id")
	cmd.Flags().Bool("no-animate", false, "Print the reply at once")
	addFeatureFlag(cmd)
	return cmd
}

// typeOut reveals reply on w one rune at a time.
func typeOut(ctx context.Context, w io.Writer, reply string, speed time.Duration) {
	r := typewriter.NewRunner(speed)
	printed := 0
	r.Start(ctx, reply,
		func(s string) {
			_, _ = io.WriteString(w, s[printed:])
			printed = len(s)
		},
		func() {
			_, _ = io.WriteString(w, "\n")
		},
	)
	r.Wait()
}

func printReply(w io.Writer, reply string, isTerminal bool) {
	if isTerminal && conversation.ContainsMarkdown(reply) {
		if styled, err := glamour.Render(reply, "dark"); err == nil {
			_, _ = io.WriteString(w, styled)
			return
		}
	}
	_, _ = io.WriteString(w, reply+"\n")
}

func NewUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Attach a document to a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "could not open %s", args[0])
			}
			defer func() {
				_ = f.Close()
			}()

			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			if err := activate(cmd, a.engine, sessionID, conversation.FeatureChat); err != nil {
				return err
			}
			res, err := a.engine.UploadDocument(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			printf(os.Stdout, "%s\n", conversation.UploadMessage(res.Filename, res.FileType))
			return nil
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session id (default: the first session)")
	return cmd
}
