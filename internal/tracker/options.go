package tracker

import (
	"io"
	"log/slog"

	"github.com/joescharf/itrack/internal/models"
)

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the generator used for new issue and user IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock sets the time source for creation and state-change timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. Mutations and ignored calls are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// WithStrict makes mutations on unknown issues or users return an error
// instead of being silently ignored.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithIssues seeds the engine with an initial issue collection. The engine
// takes ownership of the slice.
func WithIssues(issues []*models.Issue) Option {
	return func(e *Engine) { e.issues = issues }
}

// WithUsers seeds the engine with an initial user collection.
func WithUsers(users []*models.User) Option {
	return func(e *Engine) { e.users = users }
}

// WithComments seeds the engine with an initial comment collection.
func WithComments(comments []*models.Comment) Option {
	return func(e *Engine) { e.comments = comments }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Recorder receives engine activity for metrics.
type Recorder interface {
	RecordMutation(op string)
	RecordIgnored(op string)
	RecordQuery(results int)
	SetStored(kind string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string) {}
func (nopRecorder) RecordIgnored(string) {}
func (nopRecorder) RecordQuery(int) {}
func (nopRecorder) SetStored(string, int) {}
