package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/itrack/internal/models"
)

func lightTitles(lights []models.IssueLight) []string {
	out := make([]string, 0, len(lights))
	for _, l := range lights {
		out = append(out, l.Title)
	}
	return out
}

// seedQueryEngine creates four issues one hour apart:
//
//	a  todo         steve  t0
//	b  done         steve  t0+1h
//	c  todo         anna   t0+2h
//	d  in_progress  -      t0+3h
func seedQueryEngine(t *testing.T) (e *Engine, steve, anna string) {
	t.Helper()
	clock := NewManualClock(t0, 0)
	e = New(WithIDGenerator(NewSequenceGenerator("id")), WithClock(clock))

	steve = e.AddUser("Steve")
	anna = e.AddUser("Anna")

	a := e.AddIssue("a")
	clock.Advance(time.Hour)
	b := e.AddIssue("b")
	clock.Advance(time.Hour)
	c := e.AddIssue("c")
	clock.Advance(time.Hour)
	d := e.AddIssue("d")
	clock.Advance(time.Hour)

	require.NoError(t, e.AssignUser(&steve, a))
	require.NoError(t, e.AssignUser(&steve, b))
	require.NoError(t, e.AssignUser(&anna, c))
	require.NoError(t, e.SetIssueState(b, models.StateDone, ptr("shipped")))
	require.NoError(t, e.SetIssueState(d, models.StateInProgress, nil))
	require.NoError(t, e.AddComment(a, ptr("hello"), steve))
	return e, steve, anna
}

func TestGetIssues_NoFilter(t *testing.T) {
	e, _, _ := seedQueryEngine(t)

	got := e.GetIssues(Filter{})
	assert.Equal(t, []string{"a", "b", "c", "d"}, lightTitles(got))

	all := e.AllIssues()
	require.Len(t, got, len(all))
	for i, issue := range all {
		assert.Equal(t, issue.Light(), got[i])
	}
}

func TestGetIssues_ByState(t *testing.T) {
	e, _, _ := seedQueryEngine(t)

	assert.Equal(t, []string{"a", "c"}, lightTitles(e.GetIssues(Filter{}.WithState(models.StateTodo))))
	assert.Equal(t, []string{"b"}, lightTitles(e.GetIssues(Filter{}.WithState(models.StateDone))))
	assert.Equal(t, []string{"d"}, lightTitles(e.GetIssues(Filter{}.WithState(models.StateInProgress))))
}

func TestGetIssues_ByUser(t *testing.T) {
	e, steve, anna := seedQueryEngine(t)

	assert.Equal(t, []string{"a", "b"}, lightTitles(e.GetIssues(Filter{}.WithUser(steve))))
	assert.Equal(t, []string{"c"}, lightTitles(e.GetIssues(Filter{}.WithUser(anna))))
	assert.Empty(t, e.GetIssues(Filter{}.WithUser("nobody")))
}

func TestGetIssues_DateRange(t *testing.T) {
	e, _, _ := seedQueryEngine(t)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"single instant inclusive", Filter{}.Between(t0, t0), []string{"a"}},
		{"closed interval", Filter{}.Between(t1, t2), []string{"b", "c"}},
		{"since excludes earlier", Filter{}.Since(t1), []string{"b", "c", "d"}},
		{"until includes boundary", Filter{}.Until(t1), []string{"a", "b"}},
		{"inverted range", Filter{}.Between(t2, t1), []string{}},
		{"after everything", Filter{}.Since(t0.Add(24 * time.Hour)), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lightTitles(e.GetIssues(tt.filter)))
		})
	}
}

func TestGetIssues_CombinedFiltersAreConjunctive(t *testing.T) {
	e, steve, _ := seedQueryEngine(t)

	f := Filter{}.WithUser(steve).WithState(models.StateTodo)
	assert.Equal(t, []string{"a"}, lightTitles(e.GetIssues(f)))

	// Matches state and user but falls outside the date range.
	f = f.Since(t0.Add(time.Minute))
	assert.Empty(t, e.GetIssues(f))

	f = Filter{}.WithUser(steve).WithState(models.StateDone).Between(t0, t0.Add(time.Hour))
	assert.Equal(t, []string{"b"}, lightTitles(e.GetIssues(f)))
}

func TestGetIssues_DoesNotMutate(t *testing.T) {
	e, steve, _ := seedQueryEngine(t)

	e.GetIssues(Filter{}.WithUser(steve))
	assert.Equal(t, []string{"a", "b", "c", "d"}, lightTitles(e.GetIssues(Filter{})))
}

func TestGetIssues_ResultIsDetached(t *testing.T) {
	e, _, _ := seedQueryEngine(t)

	got := e.GetIssues(Filter{})
	got[0].Title = "changed"

	issue := e.AllIssues()[0]
	assert.Equal(t, "a", issue.Title)
}

func TestGetIssues_Empty(t *testing.T) {
	e := New()
	assert.Empty(t, e.GetIssues(Filter{}))
	assert.Empty(t, e.GetIssues(Filter{}.WithState(models.StateDone)))
}

func TestFilter_IsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.False(t, Filter{}.WithState(models.StateTodo).IsEmpty())
	assert.False(t, Filter{}.WithUser("").IsEmpty())
	assert.False(t, Filter{}.Since(t0).IsEmpty())
	assert.False(t, Filter{}.Until(t0).IsEmpty())
}

func TestFilter_BuildersCopy(t *testing.T) {
	base := Filter{}.WithState(models.StateTodo)
	narrowed := base.WithUser("u1")
	assert.Nil(t, base.UserID)
	require.NotNil(t, narrowed.UserID)
	assert.Equal(t, models.StateTodo, *narrowed.State)
}

func TestToIssueLight(t *testing.T) {
	e, steve, _ := seedQueryEngine(t)
	issue := e.AllIssues()[0]

	light := e.ToIssueLight(issue)
	assert.Equal(t, issue.ID, light.ID)
	assert.Equal(t, issue.Title, light.Title)
	assert.Equal(t, issue.CreatedAt, light.CreatedAt)
	assert.Equal(t, issue.State, light.State)
	assert.True(t, light.AssignedTo(steve))
}
