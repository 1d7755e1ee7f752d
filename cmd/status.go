package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/itrack/internal/models"
	"github.com/joescharf/itrack/internal/output"
	"github.com/joescharf/itrack/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status <scenario.yaml>",
	Short: "Show issue counts per user and state",
	Long: `Replay a scenario and show a workload overview: one row per user with
their todo/in_progress/done counts, plus a row for unassigned issues.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun(args[0])
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(path string) error {
	r, err := replay(path)
	if err != nil {
		return err
	}
	e := r.Engine

	all := e.GetIssues(tracker.Filter{})
	if len(all) == 0 {
		ui.Info("No issues tracked.")
		return nil
	}

	table := ui.Table([]string{"User", "Todo/In progress/Done", "Total"})
	assigned := 0
	for _, u := range e.Users() {
		issues := e.GetIssues(tracker.Filter{}.WithUser(u.ID))
		assigned += len(issues)
		_ = table.Append([]string{
			output.Cyan(u.Name),
			formatStateCounts(issues),
			fmt.Sprintf("%d", len(issues)),
		})
	}

	var unassigned []models.IssueLight
	for _, l := range all {
		if l.UserID == nil {
			unassigned = append(unassigned, l)
		}
	}
	_ = table.Append([]string{
		output.Yellow("(unassigned)"),
		formatStateCounts(unassigned),
		fmt.Sprintf("%d", len(unassigned)),
	})

	if err := table.Render(); err != nil {
		return err
	}

	if other := len(all) - assigned - len(unassigned); other > 0 {
		ui.Warning("%d issue(s) assigned to unknown users", other)
	}
	return nil
}

func formatStateCounts(issues []models.IssueLight) string {
	if len(issues) == 0 {
		return "-"
	}
	counts := make(map[models.State]int, len(models.States))
	for _, l := range issues {
		counts[l.State]++
	}
	return fmt.Sprintf("%d/%d/%d", counts[models.StateTodo], counts[models.StateInProgress], counts[models.StateDone])
}
