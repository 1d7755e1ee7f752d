package models

import "time"

// Issue is a tracked work item. ID, Title and CreatedAt never change after
// creation; StateChangedAt and Comments only grow.
type Issue struct {
	ID                  string
	Title               string
	CreatedAt           time.Time
	State               State
	StateChangedAt      []time.Time // one entry per state transition
	StateChangedComment *string     // comment given with the latest transition
	UserID              *string     // nil = unassigned
	Comments            []*Comment
}

// IssueLight is the read-only view of an Issue returned by queries. It never
// carries state history or comments.
type IssueLight struct {
	ID        string
	CreatedAt time.Time
	State     State
	Title     string
	UserID    *string
}

// Light projects the issue onto its lightweight view.
func (i *Issue) Light() IssueLight {
	return IssueLight{
		ID:        i.ID,
		CreatedAt: i.CreatedAt,
		State:     i.State,
		Title:     i.Title,
		UserID:    copyString(i.UserID),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// AssignedTo reports whether the issue is assigned to userID.
func (l IssueLight) AssignedTo(userID string) bool {
	return l.UserID != nil && *l.UserID == userID
}
