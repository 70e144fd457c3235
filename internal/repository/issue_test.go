package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/issuetracker/internal/domain"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "issues.db"))
	require.NoError(t, err, "failed to open db")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, EnsureSchema(ctx, db), "failed to create schema")
	return db
}

func newIssue(project, title, author string, at time.Time) domain.Issue {
	return domain.Issue{
		Project:    project,
		IssueTitle: title,
		IssueText:  title + " text",
		CreatedBy:  author,
		Open:       true,
		CreatedOn:  at,
		UpdatedOn:  at,
	}
}

func mustInsert(t *testing.T, repo *IssueRepository, issue domain.Issue) domain.Issue {
	t.Helper()
	got, err := repo.Insert(context.Background(), issue)
	require.NoError(t, err)
	return *got
}

func TestOpenSQL_UnsupportedDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), "mysql", "whatever")
	assert.Error(t, err)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, EnsureSchema(context.Background(), db))
}

func TestInsert_AssignsIDAndRoundTrips(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	now := domain.Now()

	created := mustInsert(t, repo, newIssue("apitest", "First", "alice", now))
	assert.True(t, domain.IsValidID(created.ID))

	found, err := repo.Find(context.Background(), "apitest", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)

	got := found[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "apitest", got.Project)
	assert.Equal(t, "First", got.IssueTitle)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, "", got.AssignedTo)
	assert.True(t, got.Open)
	assert.True(t, now.Equal(got.CreatedOn), "created_on = %v, want %v", got.CreatedOn, now)
	assert.True(t, got.CreatedOn.Equal(got.UpdatedOn))
}

func TestFind_UnknownProjectIsEmpty(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))

	found, err := repo.Find(context.Background(), "never-seen", nil)
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	projects, err := repo.Projects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestFind_Filters(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	ctx := context.Background()
	now := domain.Now()

	a := mustInsert(t, repo, newIssue("apitest", "A", "alice", now))
	b := mustInsert(t, repo, newIssue("apitest", "B", "bob", now.Add(time.Second)))
	closed := newIssue("apitest", "C", "alice", now.Add(2*time.Second))
	closed.Open = false
	c := mustInsert(t, repo, closed)
	mustInsert(t, repo, newIssue("other", "D", "alice", now))

	ids := func(issues []domain.Issue) []string {
		out := []string{}
		for _, i := range issues {
			out = append(out, i.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.Filter
		want   []string
	}{
		{"all", nil, []string{a.ID, b.ID, c.ID}},
		{"author", domain.Filter{{Field: "created_by", Value: "alice"}}, []string{a.ID, c.ID}},
		{"author and open", domain.Filter{
			{Field: "created_by", Value: "alice"},
			{Field: "open", Value: true},
		}, []string{a.ID}},
		{"closed", domain.Filter{{Field: "open", Value: false}}, []string{c.ID}},
		{"by id", domain.Filter{{Field: "_id", Value: b.ID}}, []string{b.ID}},
		{"unknown field", domain.Filter{{Field: "color", Value: "blue"}}, []string{}},
		{"open as text", domain.Filter{{Field: "open", Value: "yes"}}, []string{}},
		{"project is not a field", domain.Filter{{Field: "project", Value: "apitest"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.Find(ctx, "apitest", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(found))
		})
	}
}

func TestUpdateOne_PartialMerge(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	ctx := context.Background()
	created := mustInsert(t, repo, newIssue("apitest", "A", "alice", domain.Now()))

	later := created.CreatedOn.Add(time.Minute)
	n, err := repo.UpdateOne(ctx, "apitest", created.ID, domain.Changes{
		"issue_text": "changed",
		"open":       false,
		"updated_on": later,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := repo.Find(ctx, "apitest", domain.Filter{{Field: "_id", Value: created.ID}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	got := found[0]

	assert.Equal(t, "changed", got.IssueText)
	assert.False(t, got.Open)
	assert.Equal(t, "A", got.IssueTitle)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.True(t, created.CreatedOn.Equal(got.CreatedOn))
	assert.True(t, later.Equal(got.UpdatedOn))
}

func TestUpdateOne_ScopedToProject(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	created := mustInsert(t, repo, newIssue("apitest", "A", "alice", domain.Now()))

	n, err := repo.UpdateOne(context.Background(), "other", created.ID, domain.Changes{"issue_text": "x"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.UpdateOne(context.Background(), "apitest", domain.NewID(), domain.Changes{"issue_text": "x"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateOne_RejectsImmutableFields(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	created := mustInsert(t, repo, newIssue("apitest", "A", "alice", domain.Now()))

	for _, changes := range []domain.Changes{
		{"created_on": domain.Now()},
		{"_id": domain.NewID()},
		{"color": "blue"},
		{"open": "false"},
		{},
	} {
		_, err := repo.UpdateOne(context.Background(), "apitest", created.ID, changes)
		assert.Error(t, err, "changes %v", changes)
	}
}

func TestDeleteOne(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	ctx := context.Background()
	created := mustInsert(t, repo, newIssue("apitest", "A", "alice", domain.Now()))

	n, err := repo.DeleteOne(ctx, "other", created.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteOne(ctx, "apitest", created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteOne(ctx, "apitest", created.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProjects_MaterializedOnFirstInsert(t *testing.T) {
	repo := NewIssueRepository(setupTestDB(t))
	ctx := context.Background()
	now := domain.Now()

	mustInsert(t, repo, newIssue("zeta", "A", "alice", now))
	mustInsert(t, repo, newIssue("alpha", "B", "bob", now))
	mustInsert(t, repo, newIssue("zeta", "C", "carol", now.Add(time.Hour)))

	projects, err := repo.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].Name)
	assert.Equal(t, "zeta", projects[1].Name)
	assert.True(t, now.Equal(projects[1].CreatedOn))
}
