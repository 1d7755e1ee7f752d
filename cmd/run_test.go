package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScenario = `
name: demo
start: 2024-03-01T09:00:00Z
step: 1h
steps:
  - add_user: {name: Steve, as: steve}
  - add_issue: {title: Fix login, as: login}
  - add_issue: {title: Write docs, as: docs}
  - assign: {issue: $login, user: $steve}
  - set_state: {issue: $login, state: in_progress, comment: on it}
  - comment: {issue: $login, user: $steve, text: lgtm}
  - query: {name: steve's issues, user: $steve, expect: [$login]}
  - query: {name: todo, state: todo, expect: [$docs]}
`

// writeScenario sets up a test env with sequential ids and writes doc to a file.
func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	dir := testEnv(t)
	viper.Set("id_format", "seq")

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestRunRun_Tables(t *testing.T) {
	path := writeScenario(t, testScenario)
	out, _ := captureUI(t)

	require.NoError(t, runRun(path))

	result := out.String()
	assert.Contains(t, result, "steve's issues (1)")
	assert.Contains(t, result, "todo (1)")
	assert.Contains(t, result, "Fix login")
	assert.Contains(t, result, "Write docs")
	assert.Contains(t, result, "Steve")
	assert.Contains(t, result, "Scenario demo: 8 steps, 2 issues, 1 users, 1 comments")
}

func TestRunRun_JSON(t *testing.T) {
	path := writeScenario(t, testScenario)
	out, _ := captureUI(t)

	runJSON = true
	t.Cleanup(func() { runJSON = false })

	require.NoError(t, runRun(path))
	result := out.String()
	assert.Contains(t, result, `"scenario": "demo"`)
	assert.Contains(t, result, `"alias": "login"`)
	assert.Contains(t, result, `"assignee": "steve"`)
	assert.Contains(t, result, `"created_at": "2024-03-01T10:00:00Z"`)
}

func TestRunRun_Metrics(t *testing.T) {
	path := writeScenario(t, testScenario)
	out, _ := captureUI(t)

	runMetrics = true
	t.Cleanup(func() { runMetrics = false })

	require.NoError(t, runRun(path))
	assert.Contains(t, out.String(), `itrack_mutations_total{op="add_issue"} 2`)
	assert.Contains(t, out.String(), "itrack_queries_total 2")
}

func TestRunRun_ExpectFailure(t *testing.T) {
	path := writeScenario(t, `
name: broken
steps:
  - add_issue: {title: a, as: a}
  - query: {name: none, state: done, expect: [$a]}
`)
	captureUI(t)

	err := runRun(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario broken")
	assert.Contains(t, err.Error(), "step 2 (query)")
}

func TestRunRun_StrictFromConfig(t *testing.T) {
	path := writeScenario(t, `
name: strict
steps:
  - set_state: {issue: nope, state: done}
`)
	captureUI(t)

	require.NoError(t, runRun(path))

	viper.Set("strict", true)
	err := runRun(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue not found")
}

func TestRunRun_DryRun(t *testing.T) {
	path := writeScenario(t, testScenario)
	out, errOut := captureUI(t)
	dryRun = true
	ui.DryRun = true
	t.Cleanup(func() { dryRun = false })

	require.NoError(t, runRun(path))
	assert.Contains(t, errOut.String(), "Would run step 1: add_user")
	assert.Contains(t, out.String(), "Scenario demo is valid (8 steps)")
	assert.NotContains(t, out.String(), "Fix login")
}

func TestRunRun_BadIDFormat(t *testing.T) {
	path := writeScenario(t, testScenario)
	captureUI(t)
	viper.Set("id_format", "snowflake")

	err := runRun(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown id format")
}

func TestIssuesRun_Filters(t *testing.T) {
	path := writeScenario(t, testScenario)

	tests := []struct {
		name     string
		state    string
		user     string
		since    string
		contains []string
		excludes []string
	}{
		{name: "all", contains: []string{"Fix login", "Write docs"}},
		{name: "by state", state: "in_progress", contains: []string{"Fix login"}, excludes: []string{"Write docs"}},
		{name: "by user", user: "$steve", contains: []string{"Fix login"}, excludes: []string{"Write docs"}},
		{name: "since alias", since: "$docs", contains: []string{"Write docs"}, excludes: []string{"Fix login"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := captureUI(t)
			issueState, issueUser, issueSince, issueUntil = tt.state, tt.user, tt.since, ""
			t.Cleanup(func() { issueState, issueUser, issueSince, issueUntil = "", "", "", "" })

			require.NoError(t, issuesRun(path))
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestIssuesRun_NoMatches(t *testing.T) {
	path := writeScenario(t, testScenario)
	out, _ := captureUI(t)
	issueState = "done"
	t.Cleanup(func() { issueState = "" })

	require.NoError(t, issuesRun(path))
	assert.Contains(t, out.String(), "No issues found.")
}

func TestIssuesRun_InvalidState(t *testing.T) {
	path := writeScenario(t, testScenario)
	captureUI(t)
	issueState = "blocked"
	t.Cleanup(func() { issueState = "" })

	assert.Error(t, issuesRun(path))
}

func TestShowRun(t *testing.T) {
	path := writeScenario(t, testScenario)
	out, _ := captureUI(t)

	require.NoError(t, showRun(path, "$login"))

	result := out.String()
	assert.Contains(t, result, "Fix login")
	assert.Contains(t, result, "Alias:      $login")
	assert.Contains(t, result, "in_progress")
	assert.Contains(t, result, "Assignee:   Steve")
	assert.Contains(t, result, "Created:    2024-03-01T10:00:00Z")
	assert.Contains(t, result, "Change 1:   2024-03-01T13:00:00Z")
	assert.Contains(t, result, "Note:       on it")
	assert.Contains(t, result, "Steve: lgtm")
	assert.Contains(t, result, "Full ID:    id-2")
}

func TestShowRun_ByIDAndPrefix(t *testing.T) {
	path := writeScenario(t, testScenario)

	out, _ := captureUI(t)
	require.NoError(t, showRun(path, "id-3"))
	assert.Contains(t, out.String(), "Write docs")

	// "id-" matches both issues.
	captureUI(t)
	err := showRun(path, "id-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	captureUI(t)
	err = showRun(path, "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue not found")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "id-1", shortID("id-1"))
	assert.Equal(t, "01HXYZABCDEF", shortID("01HXYZABCDEFGHJKMNPQRS"))
}

func TestVersionCommand(t *testing.T) {
	out, _ := captureUI(t)
	require.NoError(t, versionCmd.RunE(versionCmd, nil))
	assert.Contains(t, out.String(), "itrack dev")
}
