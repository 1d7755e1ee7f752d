// Package tracker implements the in-memory issue tracking engine: a record
// store for issues, users and comments plus a filtered issue query.
package tracker

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joescharf/itrack/internal/models"
)

// Engine owns the issue, user and comment collections. Every method call is
// applied atomically under the engine's lock. Records returned by GetIssue,
// AllIssues, Users and Comments are shared with the engine and must not be
// read while other goroutines mutate them.
type Engine struct {
	mu       sync.Mutex
	issues   []*models.Issue
	users    []*models.User
	comments []*models.Comment

	ids    IDGenerator
	clock  Clock
	log    *slog.Logger
	rec    Recorder
	strict bool
}

// New creates an Engine. Without options it generates UUIDs, reads the system
// clock and silently ignores mutations that target unknown issues.
func New(opts ...Option) *Engine {
	e := &Engine{
		ids:   UUIDGenerator{},
		clock: SystemClock{},
		log:   discardLogger(),
		rec:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rec.SetStored("issues", len(e.issues))
	e.rec.SetStored("users", len(e.users))
	e.rec.SetStored("comments", len(e.comments))
	return e
}

// Strict reports whether the engine reports unknown issues and users as errors.
func (e *Engine) Strict() bool { return e.strict }

// --- Issues ---

// AddIssue creates an issue in the default state and returns its ID. Titles
// are not deduplicated.
func (e *Engine) AddIssue(title string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	issue := &models.Issue{
		ID:        e.ids.NewID(),
		Title:     title,
		CreatedAt: e.clock.Now(),
		State:     models.DefaultState,
	}
	e.issues = append(e.issues, issue)
	e.mutated("add_issue", "issues", len(e.issues), slog.String("issue", issue.ID))
	return issue.ID
}

// InsertIssue appends a pre-built issue. A missing ID is generated, a zero
// creation time is stamped with the clock and an empty state defaults to todo.
func (e *Engine) InsertIssue(issue *models.Issue) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if issue.ID == "" {
		issue.ID = e.ids.NewID()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = e.clock.Now()
	}
	if issue.State == "" {
		issue.State = models.DefaultState
	}
	e.issues = append(e.issues, issue)
	e.mutated("insert_issue", "issues", len(e.issues), slog.String("issue", issue.ID))
}

// RemoveIssue deletes the issue with the given ID. Removing an unknown ID is
// a no-op in every mode.
func (e *Engine) RemoveIssue(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Slices previously returned by AllIssues keep their contents.
	kept := make([]*models.Issue, 0, len(e.issues))
	for _, issue := range e.issues {
		if issue.ID != id {
			kept = append(kept, issue)
		}
	}
	if len(kept) == len(e.issues) {
		e.ignored("remove_issue", slog.String("issue", id))
		return
	}
	e.issues = kept
	e.mutated("remove_issue", "issues", len(e.issues), slog.String("issue", id))
}

// ClearIssues removes every issue. Users and comments are kept.
func (e *Engine) ClearIssues() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.issues = nil
	e.mutated("clear_issues", "issues", 0)
}

// SetIssueState moves an issue to state, records the transition time and
// replaces the stored state-change comment with comment. A nil comment clears
// the previous one.
func (e *Engine) SetIssueState(id string, state models.State, comment *string) error {
	if !state.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, state)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	issue := e.findIssue(id)
	if issue == nil {
		return e.missingIssue("set_state", id)
	}
	issue.State = state
	issue.StateChangedAt = append(issue.StateChangedAt, e.clock.Now())
	issue.StateChangedComment = clone(comment)
	e.mutated("set_state", "", 0, slog.String("issue", id), slog.String("state", string(state)))
	return nil
}

// AssignUser sets the assignee of an issue. A nil userID unassigns it. The
// user is only checked for existence in strict mode.
func (e *Engine) AssignUser(userID *string, issueID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	issue := e.findIssue(issueID)
	if issue == nil {
		return e.missingIssue("assign_user", issueID)
	}
	if e.strict && userID != nil && e.findUser(*userID) == nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, *userID)
	}
	issue.UserID = clone(userID)
	e.mutated("assign_user", "", 0, slog.String("issue", issueID), slog.String("user", deref(userID)))
	return nil
}

// GetIssue returns the issue with the given ID.
func (e *Engine) GetIssue(id string) (*models.Issue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if issue := e.findIssue(id); issue != nil {
		return issue, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, id)
}

// AllIssues returns the engine's issue collection in insertion order. The
// records are shared with the engine, not copied.
func (e *Engine) AllIssues() []*models.Issue {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.issues
}

// --- Users ---

// AddUser creates a user and returns its ID.
func (e *Engine) AddUser(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	user := &models.User{ID: e.ids.NewID(), Name: name}
	e.users = append(e.users, user)
	e.mutated("add_user", "users", len(e.users), slog.String("user", user.ID))
	return user.ID
}

// InsertUser appends a pre-built user, generating its ID when missing.
func (e *Engine) InsertUser(user *models.User) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if user.ID == "" {
		user.ID = e.ids.NewID()
	}
	e.users = append(e.users, user)
	e.mutated("insert_user", "users", len(e.users), slog.String("user", user.ID))
}

// GetUser returns the user with the given ID.
func (e *Engine) GetUser(id string) (*models.User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if user := e.findUser(id); user != nil {
		return user, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
}

// Users returns the engine's user collection in insertion order.
func (e *Engine) Users() []*models.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.users
}

// --- Comments ---

// AddComment records a comment by userID on issueID. In lenient mode the
// comment is stored even when the issue does not exist; it is linked into the
// issue's comment list only when it does.
func (e *Engine) AddComment(issueID string, text *string, userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	issue := e.findIssue(issueID)
	if e.strict {
		if issue == nil {
			return e.missingIssue("add_comment", issueID)
		}
		if e.findUser(userID) == nil {
			return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
	}

	c := &models.Comment{
		IssueID:   issueID,
		UserID:    userID,
		CreatedAt: e.clock.Now(),
		Text:      clone(text),
	}
	e.comments = append(e.comments, c)
	if issue != nil {
		issue.Comments = append(issue.Comments, c)
	}
	e.mutated("add_comment", "comments", len(e.comments), slog.String("issue", issueID), slog.String("user", userID))
	return nil
}

// GetComment returns the first comment recorded for issueID. Use
// CommentsForIssue to get all of them.
func (e *Engine) GetComment(issueID string) (*models.Comment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.comments {
		if c.IssueID == issueID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: issue %s", ErrCommentNotFound, issueID)
}

// CommentsForIssue returns every comment recorded for issueID, oldest first.
func (e *Engine) CommentsForIssue(issueID string) []*models.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*models.Comment
	for _, c := range e.comments {
		if c.IssueID == issueID {
			out = append(out, c)
		}
	}
	return out
}

// Comments returns the engine's comment collection in insertion order.
func (e *Engine) Comments() []*models.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.comments
}

// Len returns the number of stored issues, users and comments.
func (e *Engine) Len() (issues, users, comments int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.issues), len(e.users), len(e.comments)
}

// --- helpers (callers hold e.mu) ---

func (e *Engine) findIssue(id string) *models.Issue {
	for _, issue := range e.issues {
		if issue.ID == id {
			return issue
		}
	}
	return nil
}

func (e *Engine) findUser(id string) *models.User {
	for _, user := range e.users {
		if user.ID == id {
			return user
		}
	}
	return nil
}

// clone copies s so later writes through the caller's pointer do not reach
// the store.
func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (e *Engine) missingIssue(op, id string) error {
	if e.strict {
		return fmt.Errorf("%w: %s", ErrIssueNotFound, id)
	}
	e.ignored(op, slog.String("issue", id))
	return nil
}

func (e *Engine) ignored(op string, attrs ...any) {
	e.rec.RecordIgnored(op)
	e.log.Debug("ignored "+op+": issue not found", attrs...)
}

// mutated records a successful mutation. kind and n update the stored-size
// gauge when kind is non-empty.
func (e *Engine) mutated(op, kind string, n int, attrs ...any) {
	e.rec.RecordMutation(op)
	if kind != "" {
		e.rec.SetStored(kind, n)
	}
	e.log.Debug(op, attrs...)
}
