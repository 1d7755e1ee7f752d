package tracker

import (
	"time"

	"github.com/joescharf/itrack/internal/models"
)

// Filter selects issues in GetIssues. A nil field means "not filtered";
// set fields are combined with AND.
type Filter struct {
	State  *models.State
	UserID *string
	Start  *time.Time // inclusive lower bound on creation time
	End    *time.Time // inclusive upper bound on creation time
}

// IsEmpty reports whether no filter field is set.
func (f Filter) IsEmpty() bool {
	return f.State == nil && f.UserID == nil && f.Start == nil && f.End == nil
}

// WithState returns a copy of f restricted to issues in state s.
func (f Filter) WithState(s models.State) Filter {
	f.State = &s
	return f
}

// WithUser returns a copy of f restricted to issues assigned to userID.
func (f Filter) WithUser(userID string) Filter {
	f.UserID = &userID
	return f
}

// Since returns a copy of f restricted to issues created at or after t.
func (f Filter) Since(t time.Time) Filter {
	f.Start = &t
	return f
}

// Until returns a copy of f restricted to issues created at or before t.
func (f Filter) Until(t time.Time) Filter {
	f.End = &t
	return f
}

// Between returns a copy of f restricted to issues created within [start, end].
func (f Filter) Between(start, end time.Time) Filter {
	return f.Since(start).Until(end)
}

// GetIssues returns the lightweight view of every issue matching f, in
// insertion order. An empty filter returns all issues.
func (e *Engine) GetIssues(f Filter) []models.IssueLight {
	e.mu.Lock()
	lights := make([]models.IssueLight, 0, len(e.issues))
	for _, issue := range e.issues {
		lights = append(lights, issue.Light())
	}
	e.mu.Unlock()

	if !f.IsEmpty() {
		if f.UserID != nil {
			lights = filterLights(lights, byUser(*f.UserID))
		}
		if f.State != nil {
			lights = filterLights(lights, byState(*f.State))
		}
		switch {
		case f.Start != nil && f.End != nil:
			lights = filterLights(lights, between(*f.Start, *f.End))
		case f.Start != nil:
			lights = filterLights(lights, createdSince(*f.Start))
		case f.End != nil:
			lights = filterLights(lights, createdUntil(*f.End))
		}
	}

	e.rec.RecordQuery(len(lights))
	return lights
}

// ToIssueLight converts a single issue to its lightweight view.
func (e *Engine) ToIssueLight(issue *models.Issue) models.IssueLight {
	return issue.Light()
}

type predicate func(models.IssueLight) bool

// filterLights keeps the elements matching keep, preserving order.
func filterLights(in []models.IssueLight, keep predicate) []models.IssueLight {
	out := in[:0]
	for _, l := range in {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func byUser(userID string) predicate {
	return func(l models.IssueLight) bool { return l.AssignedTo(userID) }
}

func byState(s models.State) predicate {
	return func(l models.IssueLight) bool { return l.State == s }
}

func createdSince(start time.Time) predicate {
	return func(l models.IssueLight) bool { return !l.CreatedAt.Before(start) }
}

func createdUntil(end time.Time) predicate {
	return func(l models.IssueLight) bool { return !l.CreatedAt.After(end) }
}

func between(start, end time.Time) predicate {
	return func(l models.IssueLight) bool {
		return !l.CreatedAt.Before(start) && !l.CreatedAt.After(end)
	}
}
