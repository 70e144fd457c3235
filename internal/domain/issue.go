package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names as they appear in request bodies, query strings and responses.
const (
	FieldID         = "_id"
	FieldIssueTitle = "issue_title"
	FieldIssueText  = "issue_text"
	FieldCreatedBy  = "created_by"
	FieldAssignedTo = "assigned_to"
	FieldStatusText = "status_text"
	FieldOpen       = "open"
	FieldCreatedOn  = "created_on"
	FieldUpdatedOn  = "updated_on"
)

// MutableFields are the fields a client may change through an update.
var MutableFields = []string{
	FieldIssueTitle,
	FieldIssueText,
	FieldCreatedBy,
	FieldAssignedTo,
	FieldStatusText,
	FieldOpen,
}

// Issue represents a tracked item within a project.
type Issue struct {
	ID         string    `json:"_id" db:"id"`
	Project    string    `json:"-" db:"project"`
	IssueTitle string    `json:"issue_title" db:"issue_title"`
	IssueText  string    `json:"issue_text" db:"issue_text"`
	CreatedBy  string    `json:"created_by" db:"created_by"`
	AssignedTo string    `json:"assigned_to" db:"assigned_to"`
	StatusText string    `json:"status_text" db:"status_text"`
	Open       bool      `json:"open" db:"open"`
	CreatedOn  time.Time `json:"created_on" db:"created_on"`
	UpdatedOn  time.Time `json:"updated_on" db:"updated_on"`
}

// NewIssue is the client-supplied part of an issue at creation time.
type NewIssue struct {
	IssueTitle string `validate:"required"`
	IssueText  string `validate:"required"`
	CreatedBy  string `validate:"required"`
	AssignedTo string
	StatusText string
}

// NewIssueFromFields reads a submission from decoded request fields.
// Missing or non-scalar values are left empty.
func NewIssueFromFields(fields map[string]any) NewIssue {
	text := func(key string) string {
		s, _ := TextValue(fields[key])
		return s
	}
	return NewIssue{
		IssueTitle: text(FieldIssueTitle),
		IssueText:  text(FieldIssueText),
		CreatedBy:  text(FieldCreatedBy),
		AssignedTo: text(FieldAssignedTo),
		StatusText: text(FieldStatusText),
	}
}

// Normalize returns a copy with every field trimmed of surrounding whitespace.
func (n NewIssue) Normalize() NewIssue {
	return NewIssue{
		IssueTitle: strings.TrimSpace(n.IssueTitle),
		IssueText:  strings.TrimSpace(n.IssueText),
		CreatedBy:  strings.TrimSpace(n.CreatedBy),
		AssignedTo: strings.TrimSpace(n.AssignedTo),
		StatusText: strings.TrimSpace(n.StatusText),
	}
}

// Open builds the issue stored for a new submission. Creation and update
// timestamps are identical.
func (n NewIssue) Open(project string, now time.Time) Issue {
	return Issue{
		Project:    project,
		IssueTitle: n.IssueTitle,
		IssueText:  n.IssueText,
		CreatedBy:  n.CreatedBy,
		AssignedTo: n.AssignedTo,
		StatusText: n.StatusText,
		Open:       true,
		CreatedOn:  now,
		UpdatedOn:  now,
	}
}

// Condition is a single equality predicate against an issue field. Value is
// a string, bool or time.Time depending on how the raw input was coerced.
type Condition struct {
	Field string
	Value any
}

// Filter is a conjunction of conditions.
type Filter []Condition

// Changes maps issue field names to their new values for a partial update.
type Changes map[string]any

// Result is the body returned for a successful update or delete.
type Result struct {
	Result string `json:"result"`
	ID     string `json:"_id"`
}

// TextValue renders a scalar request value as trimmed text. JSON numbers
// and booleans are formatted; anything else is rejected.
func TextValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64, bool:
		return fmt.Sprint(t), true
	}
	return "", false
}

// NewID returns a fresh object id in its hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id has the store's native identifier format.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// Now returns the current time at the precision every backend preserves.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
