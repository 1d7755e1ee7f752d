package models

import "time"

// Comment is a timestamped note a user attached to an issue.
type Comment struct {
	IssueID   string
	UserID    string
	CreatedAt time.Time
	Text      *string
}

// Body returns the comment text, or "" when the comment has none.
func (c *Comment) Body() string {
	if c.Text == nil {
		return ""
	}
	return *c.Text
}
