package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("68c0918b750cec281f57ecad"))
	assert.True(t, IsValidID(NewID()))

	for _, id := range []string{"", "asdsadadas", "invalidId", "68c0918b750cec281f57eca", "68c0918b750cec281f57ecadz"} {
		assert.False(t, IsValidID(id), id)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Len(t, id, 24)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestNewIssueFromFields(t *testing.T) {
	in := NewIssueFromFields(map[string]any{
		"issue_title": " Title ",
		"issue_text":  float64(42),
		"created_by":  []any{"x"},
		"status_text": nil,
		"unknown":     "ignored",
	})
	assert.Equal(t, NewIssue{IssueTitle: "Title", IssueText: "42"}, in)
}

func TestNewIssue_Open(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	issue := NewIssue{IssueTitle: "T", IssueText: "X", CreatedBy: "U"}.Open("apitest", now)

	assert.Equal(t, "apitest", issue.Project)
	assert.True(t, issue.Open)
	assert.Empty(t, issue.ID)
	assert.Equal(t, now, issue.CreatedOn)
	assert.Equal(t, now, issue.UpdatedOn)
}

func TestIssueError(t *testing.T) {
	err := NewIssueError(ErrCouldNotDelete, "abc")
	assert.ErrorIs(t, err, ErrCouldNotDelete)
	assert.Equal(t, "could not delete: abc", err.Error())
	assert.Equal(t, "missing _id", NewIssueError(ErrMissingID, "").Error())

	var issueErr *IssueError
	assert.True(t, errors.As(error(err), &issueErr))
}
