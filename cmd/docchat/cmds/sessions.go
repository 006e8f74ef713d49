package cmds

import (
	"os"
	"strings"

	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/retry"
	"github.com/go-go-golems/docchat/pkg/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage chat sessions",
	}
	cmd.AddCommand(newSessionsListCommand(), newSessionsCreateCommand(), newSessionsDeleteCommand())
	return cmd
}

func newSessionsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			sessions, err := retry.Do(cmd.Context(), a.retry, a.settings.Chat.Retry, a.client.ListSessions)
			if err != nil {
				a.notifier.ShowError("Failed to load sessions: " + errorMessage(err))
				return err
			}

			if ok, err := writeStructured(cmd, os.Stdout, sessions); ok {
				return err
			}
			for _, s := range sessions {
				doc := ""
				if s.HasDocument() {
					doc = "  " + conversation.FileIcon(s.DocumentType) + " " + s.DocumentName()
				}
				printf(os.Stdout, "%s  %s  %s%s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Title, doc)
			}
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newSessionsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create [title]",
		Short: "Create a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")
			s, err := a.engine.CreateSession(cmd.Context(), title)
			if err != nil {
				return err
			}
			printf(os.Stdout, "%s\n", s.ID)
			return nil
		},
	}
}

func newSessionsDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				ok, err := ui.Confirm("Delete session "+args[0]+"?", false)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			// the engine raises the failure notice itself
			if err := a.engine.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.notifier.ShowSuccess("Session deleted")
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func NewMessagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages <session-id>",
		Short: "Print a session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, err := featureFlag(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			if err := activate(cmd, a.engine, args[0], feature); err != nil {
				return err
			}
			msgs := a.engine.State().Messages()

			if ok, err := writeStructured(cmd, os.Stdout, msgs); ok {
				return err
			}
			for _, m := range msgs {
				printf(os.Stdout, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), m.Role, m.Content)
			}
			return nil
		},
	}
	addFeatureFlag(cmd)
	addOutputFlag(cmd)
	return cmd
}

func addFeatureFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("feature", "f", string(conversation.FeatureChat),
		"Feature mode (chat, general_ai, question_generation, quiz_generation, system_health)")
}

func featureFlag(cmd *cobra.Command) (conversation.FeatureMode, error) {
	s, _ := cmd.Flags().GetString("feature")
	return conversation.ParseFeatureMode(s)
}

// activate loads the session list, then focuses sessionID and feature. An
// empty sessionID keeps whatever LoadSessions selected.
func activate(cmd *cobra.Command, engine *chat.Engine, sessionID string, feature conversation.FeatureMode) error {
	ctx := cmd.Context()
	if err := engine.LoadSessions(ctx); err != nil {
		return err
	}
	if sessionID != "" && sessionID != engine.State().Focus().SessionID {
		if err := engine.SelectSession(ctx, sessionID); err != nil {
			return errors.Wrapf(err, "could not select %s", sessionID)
		}
	}
	return engine.SetFeature(ctx, feature)
}
