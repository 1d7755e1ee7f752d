package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joescharf/itrack/internal/metrics"
	"github.com/joescharf/itrack/internal/scenario"
	"github.com/joescharf/itrack/internal/tracker"
)

var (
	runJSON    bool
	runMetrics bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Replay a scenario and print its query results",
	Long: `Replay a scenario against a fresh in-memory engine.

Each query step is printed as a table. A query with an expect list fails the
run when its result differs. With --dry-run the file is only validated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(args[0])
	},
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the run report as JSON")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "Print engine metrics in Prometheus text format")
	rootCmd.AddCommand(runCmd)
}

func runRun(path string) error {
	if dryRun {
		s, err := scenario.Load(path)
		if err != nil {
			return err
		}
		for i, st := range s.Steps {
			op, _ := st.Op()
			ui.DryRunMsg("Would run step %d: %s", i+1, op)
		}
		ui.Success("Scenario %s is valid (%d steps)", s.Name, len(s.Steps))
		return nil
	}

	reg := prometheus.NewRegistry()
	var extra []tracker.Option
	if runMetrics {
		extra = append(extra, tracker.WithRecorder(metrics.NewCollector(reg)))
	}

	r, err := replay(path, extra...)
	if err != nil {
		return err
	}

	if runJSON {
		data, err := r.Report().JSON()
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		_, _ = ui.Out.Write(data)
	} else {
		for _, q := range r.Queries {
			ui.Info("%s (%d)", q.Name, len(q.Issues))
			if len(q.Issues) == 0 {
				continue
			}
			if err := printIssueTable(r, q.Issues); err != nil {
				return err
			}
		}
		issues, users, comments := r.Engine.Len()
		ui.Success("Scenario %s: %d steps, %d issues, %d users, %d comments",
			r.Scenario.Name, len(r.Scenario.Steps), issues, users, comments)
	}

	if runMetrics {
		if err := metrics.WriteText(ui.Out, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
