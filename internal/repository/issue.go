package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/issuetracker/internal/domain"
)

const issueColumns = `id, project, issue_title, issue_text, created_by, assigned_to, status_text, open, created_on, updated_on`

// columnKinds maps issue field names to their SQL column and the Go type a
// condition value must have to be comparable with it.
var columnKinds = map[string]struct {
	column string
	kind   valueKind
}{
	domain.FieldID:         {"id", kindString},
	domain.FieldIssueTitle: {"issue_title", kindString},
	domain.FieldIssueText:  {"issue_text", kindString},
	domain.FieldCreatedBy:  {"created_by", kindString},
	domain.FieldAssignedTo: {"assigned_to", kindString},
	domain.FieldStatusText: {"status_text", kindString},
	domain.FieldOpen:       {"open", kindBool},
	domain.FieldCreatedOn:  {"created_on", kindTime},
	domain.FieldUpdatedOn:  {"updated_on", kindTime},
}

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindTime
)

func (k valueKind) accepts(v any) bool {
	switch v.(type) {
	case string:
		return k == kindString
	case bool:
		return k == kindBool
	case time.Time:
		return k == kindTime
	}
	return false
}

// IssueRepository handles issue data access on a SQL database.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Find returns the issues of a project matching every condition in filter.
// Conditions on unknown fields, or with a value the column cannot hold,
// match nothing.
func (r *IssueRepository) Find(ctx context.Context, project string, filter domain.Filter) ([]domain.Issue, error) {
	where := []string{"project = ?"}
	args := []any{project}
	for _, cond := range filter {
		col, ok := columnKinds[cond.Field]
		if !ok || !col.kind.accepts(cond.Value) {
			where = append(where, "1 = 0")
			continue
		}
		where = append(where, col.column+" = ?")
		args = append(args, cond.Value)
	}

	query := r.db.Rebind(`SELECT ` + issueColumns + ` FROM issues WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_on, id`)

	issues := []domain.Issue{}
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, fmt.Errorf("find issues in project %q: %w", project, err)
	}
	return issues, nil
}

// Insert stores a new issue, assigning its id, and materializes the project
// in the same transaction.
func (r *IssueRepository) Insert(ctx context.Context, issue domain.Issue) (*domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO projects (name, created_on) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`),
		issue.Project, issue.CreatedOn,
	); err != nil {
		return nil, fmt.Errorf("ensure project %q: %w", issue.Project, err)
	}

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`)
		 VALUES (:id, :project, :issue_title, :issue_text, :created_by, :assigned_to, :status_text, :open, :created_on, :updated_on)`,
		issue,
	); err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return &issue, nil
}

// UpdateOne applies changes to the issue with the given id in project and
// returns the number of matched rows.
func (r *IssueRepository) UpdateOne(ctx context.Context, project, id string, changes domain.Changes) (int64, error) {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+2)
	for _, field := range fields {
		col, ok := columnKinds[field]
		if !ok || field == domain.FieldID || field == domain.FieldCreatedOn {
			return 0, fmt.Errorf("field %q cannot be updated", field)
		}
		if !col.kind.accepts(changes[field]) {
			return 0, fmt.Errorf("field %q: unexpected value type %T", field, changes[field])
		}
		set = append(set, col.column+" = ?")
		args = append(args, changes[field])
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("no fields to update")
	}
	args = append(args, project, id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE issues SET `+strings.Join(set, ", ")+` WHERE project = ? AND id = ?`), args...)
	if err != nil {
		return 0, fmt.Errorf("update issue %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update issue %s rows: %w", id, err)
	}
	return n, nil
}

// DeleteOne removes the issue with the given id from project and returns the
// number of deleted rows.
func (r *IssueRepository) DeleteOne(ctx context.Context, project, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM issues WHERE project = ? AND id = ?`), project, id)
	if err != nil {
		return 0, fmt.Errorf("delete issue %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete issue %s rows: %w", id, err)
	}
	return n, nil
}

// Projects lists every materialized project ordered by name.
func (r *IssueRepository) Projects(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	if err := r.db.SelectContext(ctx, &projects,
		`SELECT name, created_on FROM projects ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}
