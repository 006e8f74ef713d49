package cmds

import (
	"os"
	"strings"

	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/spf13/cobra"
)

func NewModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the AI models offered by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			models, err := a.engine.LoadModels(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := writeStructured(cmd, os.Stdout, models); ok {
				return err
			}
			selected := a.engine.State().SelectedModel()
			for _, m := range models {
				marker := " "
				if m.ID == selected {
					marker = "*"
				}
				printf(os.Stdout, "%s %s  %s (%s)\n", marker, m.ID, m.Name, m.Provider)
			}
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search sessions and documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			results, err := a.engine.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if ok, err := writeStructured(cmd, os.Stdout, results); ok {
				return err
			}
			if len(results) == 0 {
				printf(os.Stderr, "No results\n")
				return nil
			}
			for _, r := range results {
				printf(os.Stdout, "%s  [%s] %s\n    %s\n", r.SessionID, r.Type, r.Title(), r.Text())
			}
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func NewQuestionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Generate questions about a session's document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			opts := chat.DefaultQuestionOptions()
			opts.QuestionType, _ = cmd.Flags().GetString("type")
			opts.ChapterSegment, _ = cmd.Flags().GetString("chapter")

			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			if err := activate(cmd, a.engine, sessionID, conversation.FeatureQuestionGeneration); err != nil {
				return err
			}
			if _, err := a.engine.GenerateQuestions(cmd.Context(), opts); err != nil {
				return err
			}
			return printLog(cmd, a.engine)
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session id (default: the first session)")
	cmd.Flags().String("type", chat.DefaultQuestionOptions().QuestionType, "Question type (mixed, multiple_choice, short_answer, ...)")
	cmd.Flags().String("chapter", "", "Restrict to a chapter or segment")
	addOutputFlag(cmd)
	return cmd
}

func NewQuizCommand() *cobra.Command {
	defaults := chat.DefaultQuizOptions()
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Generate a quiz from a session's document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			opts := chat.DefaultQuizOptions()
			opts.QuizType, _ = cmd.Flags().GetString("type")
			opts.Difficulty, _ = cmd.Flags().GetString("difficulty")
			opts.QuestionCount, _ = cmd.Flags().GetInt("count")

			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			if err := activate(cmd, a.engine, sessionID, conversation.FeatureQuizGeneration); err != nil {
				return err
			}
			if _, err := a.engine.GenerateQuiz(cmd.Context(), opts); err != nil {
				return err
			}
			return printLog(cmd, a.engine)
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session id (default: the first session)")
	cmd.Flags().String("type", defaults.QuizType, "Quiz type")
	cmd.Flags().String("difficulty", defaults.Difficulty, "Difficulty (easy, medium, hard)")
	cmd.Flags().Int("count", defaults.QuestionCount, "Number of questions")
	addOutputFlag(cmd)
	return cmd
}

// printLog prints the assistant messages of the focused log.
func printLog(cmd *cobra.Command, engine *chat.Engine) error {
	msgs := engine.State().Messages()
	if ok, err := writeStructured(cmd, os.Stdout, msgs); ok {
		return err
	}
	for _, m := range msgs {
		if m.Role != conversation.RoleAssistant {
			continue
		}
		printReply(os.Stdout, m.Content, false)
	}
	return nil
}
