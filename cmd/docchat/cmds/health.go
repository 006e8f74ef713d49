package cmds

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/ui"
	"github.com/spf13/cobra"
)

func NewHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Inspect and repair the backend's health",
	}
	cmd.AddCommand(newHealthStatusCommand(), newHealthMetricsCommand(), newHealthFixCommand())
	return cmd
}

func newHealthStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the system health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			// a failed load still yields a report worth showing
			report, _ := a.monitor.Load(cmd.Context())
			if ok, err := writeStructured(cmd, os.Stdout, report); ok {
				return err
			}
			printReport(report)
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func printReport(r *api.HealthReport) {
	printf(os.Stdout, "overall:  %s\n", r.OverallStatus)
	printf(os.Stdout, "backend:  %s\nfrontend: %s\ndatabase: %s\napi:      %s\n",
		r.BackendStatus, r.FrontendStatus, r.DatabaseStatus, r.APIStatus)
	printf(os.Stdout, "uptime:   %.0fs\n\n", r.Uptime)

	m := r.Metrics
	printf(os.Stdout, "cpu %.1f%%  memory %.1f%%  disk %.1f%%  response %.0fms  error rate %.1f%%\n",
		m.CPUUsage, m.MemoryUsage, m.DiskUsage, m.ResponseTime, m.ErrorRate)
	printf(os.Stdout, "active sessions %d  api calls %d\n", m.ActiveSessions, m.TotalAPICalls)

	if len(r.Issues) == 0 {
		return
	}
	printf(os.Stdout, "\nissues:\n")
	for _, i := range r.Issues {
		fixable := ""
		if i.AutoFixable && !i.Resolved {
			fixable = " (auto-fixable)"
		}
		printf(os.Stdout, "  [%s] %s: %s%s\n    %s\n    fix: %s\n",
			i.IssueType, i.ID, i.Title, fixable, i.Description, i.SuggestedFix)
	}
}

func newHealthMetricsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show raw health metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			metrics, err := a.monitor.Metrics(cmd.Context())
			if err != nil {
				a.notifier.ShowError("Failed to load metrics: " + errorMessage(err))
				return err
			}
			if ok, err := writeStructured(cmd, os.Stdout, metrics); ok {
				return err
			}
			keys := make([]string, 0, len(metrics))
			for k := range metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				printf(os.Stdout, "%s: %v\n", k, metrics[k])
			}
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newHealthFixCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix <issue-id>",
		Short: "Apply the automatic fix for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				ok, err := ui.Confirm(fmt.Sprintf("Are you sure you want to apply the fix for %s?", args[0]), false)
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
			_, report, err := a.monitor.Fix(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if report != nil {
				printReport(report)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}
