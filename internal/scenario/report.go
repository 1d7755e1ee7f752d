package scenario

import (
	"encoding/json"
	"time"

	"github.com/joescharf/itrack/internal/models"
)

// Report is the serializable summary of a run.
type Report struct {
	Scenario string        `json:"scenario"`
	Queries  []QueryReport `json:"queries"`
	Issues   []IssueView   `json:"issues"`
	Counts   Counts        `json:"counts"`
}

type QueryReport struct {
	Name   string      `json:"name"`
	Issues []IssueView `json:"issues"`
}

// IssueView is an IssueLight with aliases substituted for readability.
type IssueView struct {
	ID        string `json:"id"`
	Alias     string `json:"alias,omitempty"`
	Title     string `json:"title"`
	State     string `json:"state"`
	Assignee  string `json:"assignee,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Counts struct {
	Issues   int `json:"issues"`
	Users    int `json:"users"`
	Comments int `json:"comments"`
}

// Report summarizes the run: every query result plus the final issue list.
func (r *Result) Report() Report {
	rep := Report{
		Scenario: r.Scenario.Name,
		Queries:  make([]QueryReport, 0, len(r.Queries)),
	}
	for _, q := range r.Queries {
		rep.Queries = append(rep.Queries, QueryReport{Name: q.Name, Issues: r.views(q.Issues)})
	}

	var final []models.IssueLight
	for _, issue := range r.Engine.AllIssues() {
		final = append(final, r.Engine.ToIssueLight(issue))
	}
	rep.Issues = r.views(final)
	rep.Counts.Issues, rep.Counts.Users, rep.Counts.Comments = r.Engine.Len()
	return rep
}

// JSON renders the report as indented JSON with a trailing newline.
func (rep Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (r *Result) views(lights []models.IssueLight) []IssueView {
	out := make([]IssueView, 0, len(lights))
	for _, l := range lights {
		v := IssueView{
			ID:        l.ID,
			Alias:     r.names[l.ID],
			Title:     l.Title,
			State:     string(l.State),
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if l.UserID != nil {
			v.Assignee = r.names[*l.UserID]
			if v.Assignee == "" {
				v.Assignee = *l.UserID
			}
		}
		out = append(out, v)
	}
	return out
}
