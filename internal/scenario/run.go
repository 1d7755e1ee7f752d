package scenario

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joescharf/itrack/internal/models"
	"github.com/joescharf/itrack/internal/tracker"
)

// QueryResult is the outcome of one query step.
type QueryResult struct {
	Name   string
	Filter tracker.Filter
	Issues []models.IssueLight
}

// Result is the state left behind by a scenario run.
type Result struct {
	Scenario *Scenario
	Engine   *tracker.Engine
	Clock    *tracker.ManualClock
	Queries  []QueryResult

	aliases map[string]string // alias -> id
	names   map[string]string // id -> alias
}

// Run executes every step of s against a new engine built with opts. The
// scenario always supplies its own clock. The first failing step aborts the run.
func Run(s *Scenario, opts ...tracker.Option) (*Result, error) {
	start, err := s.start()
	if err != nil {
		return nil, err
	}
	step, err := s.step()
	if err != nil {
		return nil, err
	}

	clock := tracker.NewManualClock(start, 0)
	opts = append(slices.Clone(opts), tracker.WithClock(clock))

	r := &Result{
		Scenario: s,
		Engine:   tracker.New(opts...),
		Clock:    clock,
		aliases:  make(map[string]string),
		names:    make(map[string]string),
	}

	for i, st := range s.Steps {
		op, err := st.Op()
		if err != nil {
			return r, fmt.Errorf("step %d: %w", i+1, err)
		}
		if st.At != "" {
			at, err := time.Parse(time.RFC3339, st.At)
			if err != nil {
				return r, fmt.Errorf("step %d (%s): invalid at %q: %w", i+1, op, st.At, err)
			}
			clock.Set(at)
		}
		if err := r.apply(st); err != nil {
			return r, fmt.Errorf("step %d (%s): %w", i+1, op, err)
		}
		clock.Advance(step)
	}
	return r, nil
}

func (r *Result) apply(st Step) error {
	e := r.Engine
	switch {
	case st.AddUser != nil:
		id := e.AddUser(st.AddUser.Name)
		return r.bind(st.AddUser.As, id)

	case st.AddIssue != nil:
		id := e.AddIssue(st.AddIssue.Title)
		return r.bind(st.AddIssue.As, id)

	case st.RemoveIssue != nil:
		id, err := r.Resolve(st.RemoveIssue.Issue)
		if err != nil {
			return err
		}
		e.RemoveIssue(id)
		return nil

	case st.ClearIssues:
		e.ClearIssues()
		return nil

	case st.Assign != nil:
		issueID, err := r.Resolve(st.Assign.Issue)
		if err != nil {
			return err
		}
		var userID *string
		if st.Assign.User != "" {
			id, err := r.Resolve(st.Assign.User)
			if err != nil {
				return err
			}
			userID = &id
		}
		return e.AssignUser(userID, issueID)

	case st.SetState != nil:
		issueID, err := r.Resolve(st.SetState.Issue)
		if err != nil {
			return err
		}
		state, err := models.ParseState(st.SetState.State)
		if err != nil {
			return err
		}
		return e.SetIssueState(issueID, state, st.SetState.Comment)

	case st.Comment != nil:
		issueID, err := r.Resolve(st.Comment.Issue)
		if err != nil {
			return err
		}
		userID, err := r.Resolve(st.Comment.User)
		if err != nil {
			return err
		}
		return e.AddComment(issueID, st.Comment.Text, userID)

	case st.Query != nil:
		return r.query(st.Query)
	}
	return fmt.Errorf("step has no operation")
}

func (r *Result) query(q *Query) error {
	f, err := r.BuildFilter(q.State, q.User, q.Since, q.Until)
	if err != nil {
		return err
	}
	issues := r.Engine.GetIssues(f)
	r.Queries = append(r.Queries, QueryResult{Name: q.Name, Filter: f, Issues: issues})

	if q.Expect == nil {
		return nil
	}
	want := make([]string, 0, len(q.Expect))
	for _, ref := range q.Expect {
		id, err := r.Resolve(ref)
		if err != nil {
			return err
		}
		want = append(want, id)
	}
	got := make([]string, 0, len(issues))
	for _, l := range issues {
		got = append(got, l.ID)
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("query %q: got [%s], want [%s]", q.Name, r.labels(got), r.labels(want))
	}
	return nil
}

// BuildFilter turns textual query arguments into a tracker.Filter. Empty
// arguments leave the corresponding field unset.
func (r *Result) BuildFilter(state, user, since, until string) (tracker.Filter, error) {
	var f tracker.Filter
	if state != "" {
		s, err := models.ParseState(state)
		if err != nil {
			return f, err
		}
		f = f.WithState(s)
	}
	if user != "" {
		id, err := r.Resolve(user)
		if err != nil {
			return f, err
		}
		f = f.WithUser(id)
	}
	if since != "" {
		t, err := r.resolveTime(since)
		if err != nil {
			return f, fmt.Errorf("since: %w", err)
		}
		f = f.Since(t)
	}
	if until != "" {
		t, err := r.resolveTime(until)
		if err != nil {
			return f, fmt.Errorf("until: %w", err)
		}
		f = f.Until(t)
	}
	return f, nil
}

// Resolve maps "$alias" to the id bound by an earlier step. Anything else is
// returned unchanged as a raw id.
func (r *Result) Resolve(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, "$")
	if !ok {
		return ref, nil
	}
	id, ok := r.aliases[name]
	if !ok {
		return "", fmt.Errorf("unknown alias %q", ref)
	}
	return id, nil
}

// Alias returns the alias bound to id, if any.
func (r *Result) Alias(id string) string {
	return r.names[id]
}

func (r *Result) resolveTime(v string) (time.Time, error) {
	if strings.HasPrefix(v, "$") {
		id, err := r.Resolve(v)
		if err != nil {
			return time.Time{}, err
		}
		issue, err := r.Engine.GetIssue(id)
		if err != nil {
			return time.Time{}, err
		}
		return issue.CreatedAt, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", v, err)
	}
	return t, nil
}

func (r *Result) bind(alias, id string) error {
	if alias == "" {
		return nil
	}
	if _, exists := r.aliases[alias]; exists {
		return fmt.Errorf("alias %q already bound", alias)
	}
	r.aliases[alias] = id
	r.names[id] = alias
	return nil
}

func (r *Result) labels(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if a := r.names[id]; a != "" {
			out[i] = a
		} else {
			out[i] = id
		}
	}
	return strings.Join(out, " ")
}
