package tracker

import "errors"

var (
	// ErrIssueNotFound is returned when no issue has the requested ID.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrUserNotFound is returned when no user has the requested ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrCommentNotFound is returned when an issue has no comments.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidState is returned for a state outside the defined enumeration.
	ErrInvalidState = errors.New("invalid state")
)
