package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/itrack/internal/models"
	"github.com/joescharf/itrack/internal/output"
	"github.com/joescharf/itrack/internal/scenario"
	"github.com/joescharf/itrack/internal/tracker"
)

var (
	issueState string
	issueUser  string
	issueSince string
	issueUntil string
)

var issuesCmd = &cobra.Command{
	Use:     "issues <scenario.yaml>",
	Aliases: []string{"ls"},
	Short:   "Replay a scenario and list matching issues",
	Long: `Replay a scenario, then query the resulting store.

Filters combine with AND. --user accepts a $alias bound in the scenario or a
raw user id. --since and --until take an RFC3339 time or a $alias of an issue,
meaning that issue's creation time; both bounds are inclusive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issuesRun(args[0])
	},
}

var showCmd = &cobra.Command{
	Use:   "show <scenario.yaml> <issue>",
	Short: "Replay a scenario and show one issue in full",
	Long:  "Show an issue with its state history and comments. <issue> is a $alias, a full id or a unique id prefix.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRun(args[0], args[1])
	},
}

func init() {
	issuesCmd.Flags().StringVar(&issueState, "state", "", "Filter by state: todo, in_progress, done")
	issuesCmd.Flags().StringVar(&issueUser, "user", "", "Filter by assigned user")
	issuesCmd.Flags().StringVar(&issueSince, "since", "", "Only issues created at or after this time")
	issuesCmd.Flags().StringVar(&issueUntil, "until", "", "Only issues created at or before this time")

	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(showCmd)
}

func issuesRun(path string) error {
	r, err := replay(path)
	if err != nil {
		return err
	}

	f, err := r.BuildFilter(issueState, issueUser, issueSince, issueUntil)
	if err != nil {
		return err
	}

	issues := r.Engine.GetIssues(f)
	if len(issues) == 0 {
		ui.Info("No issues found.")
		return nil
	}
	return printIssueTable(r, issues)
}

func showRun(path, ref string) error {
	r, err := replay(path)
	if err != nil {
		return err
	}

	issue, err := findIssue(r, ref)
	if err != nil {
		return err
	}

	layout := viper.GetString("time_format")

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Title)
	if alias := r.Alias(issue.ID); alias != "" {
		fmt.Fprintf(ui.Out, "  Alias:      $%s\n", alias)
	}
	fmt.Fprintf(ui.Out, "  State:      %s\n", output.StateColor(string(issue.State)))
	fmt.Fprintf(ui.Out, "  Assignee:   %s\n", output.Placeholder(userLabel(r, issue.UserID)))
	fmt.Fprintf(ui.Out, "  Created:    %s\n", issue.CreatedAt.Format(layout))
	for i, at := range issue.StateChangedAt {
		fmt.Fprintf(ui.Out, "  Change %d:   %s\n", i+1, at.Format(layout))
	}
	if issue.StateChangedComment != nil {
		fmt.Fprintf(ui.Out, "  Note:       %s\n", *issue.StateChangedComment)
	}
	for _, c := range r.Engine.CommentsForIssue(issue.ID) {
		author := c.UserID
		fmt.Fprintf(ui.Out, "  Comment:    [%s] %s: %s\n", c.CreatedAt.Format(layout), userLabel(r, &author), c.Body())
	}
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", issue.ID)

	return nil
}

// printIssueTable renders issue views as a table.
func printIssueTable(r *scenario.Result, issues []models.IssueLight) error {
	layout := viper.GetString("time_format")

	table := ui.Table([]string{"ID", "Title", "State", "Assignee", "Created"})
	for _, l := range issues {
		_ = table.Append([]string{
			shortID(l.ID),
			l.Title,
			output.StateColor(string(l.State)),
			output.Placeholder(userLabel(r, l.UserID)),
			l.CreatedAt.Format(layout),
		})
	}
	return table.Render()
}

// userLabel names a user by display name, falling back to the raw id for
// users the store does not know.
func userLabel(r *scenario.Result, userID *string) string {
	if userID == nil {
		return ""
	}
	if u, err := r.Engine.GetUser(*userID); err == nil {
		return u.Name
	}
	return *userID
}

// findIssue finds an issue by $alias, full ID or prefix match.
func findIssue(r *scenario.Result, ref string) (*models.Issue, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}

	// Try exact match first
	if issue, err := r.Engine.GetIssue(id); err == nil {
		return issue, nil
	}

	// Try prefix match
	var matches []*models.Issue
	for _, issue := range r.Engine.AllIssues() {
		if strings.HasPrefix(issue.ID, id) || strings.HasPrefix(issue.ID, strings.ToUpper(id)) {
			matches = append(matches, issue)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", tracker.ErrIssueNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous issue ID %s: matches %d issues", ref, len(matches))
	}
}

// shortID returns a truncated id for display (first 12 chars).
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
