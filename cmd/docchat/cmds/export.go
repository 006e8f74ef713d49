package cmds

import (
	"os"

	"github.com/go-go-golems/docchat/pkg/export"
	"github.com/spf13/cobra"
)

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session's log as markdown, json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, err := featureFlag(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("file")
			formatName, _ := cmd.Flags().GetString("format")

			var format export.Format
			if formatName != "" {
				format, err = export.ParseFormat(formatName)
				if err != nil {
					return err
				}
			}

			a, err := newApp(withNotifier(quietNotifier{newPrintNotifier(os.Stderr)}))
			if err != nil {
				return err
			}
			if err := activate(cmd, a.engine, args[0], feature); err != nil {
				return err
			}
			snapshot := a.engine.Snapshot()
			t := export.NewTranscript(snapshot.Active, snapshot.Feature, snapshot.Messages)

			if out == "" || out == "-" {
				if format == "" {
					format = export.FormatMarkdown
				}
				return export.Write(os.Stdout, t, format)
			}
			if err := export.Save(out, t, format); err != nil {
				return err
			}
			printf(os.Stderr, "Transcript saved to %s\n", out)
			return nil
		},
	}
	addFeatureFlag(cmd)
	cmd.Flags().String("file", "", "Output file, format guessed from the extension (default: stdout)")
	cmd.Flags().String("format", "", "Output format (markdown, json, yaml)")
	return cmd
}
