package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sumire/issuetracker/internal/domain"
)

const (
	resultUpdated = "successfully updated"
	resultDeleted = "successfully deleted"
)

var errInvalidValue = errors.New("invalid field value")

// IssueService validates and executes issue operations against the record
// set of a project.
type IssueService struct {
	projects *ProjectResolver
	validate *inputValidator
	now      func() time.Time
}

// NewIssueService creates a new IssueService.
func NewIssueService(projects *ProjectResolver) *IssueService {
	return &IssueService{
		projects: projects,
		validate: newInputValidator(),
		now:      domain.Now,
	}
}

// List returns the issues of project whose fields equal every query value.
func (s *IssueService) List(ctx context.Context, project string, query map[string]string) ([]domain.Issue, error) {
	issues, err := s.projects.Resolve(project).Find(ctx, buildFilter(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	return issues, nil
}

// Create validates the submission and stores a new open issue.
func (s *IssueService) Create(ctx context.Context, project string, in domain.NewIssue) (*domain.Issue, error) {
	in = in.Normalize()
	if err := s.validate.Validate(in); err != nil {
		return nil, domain.NewIssueError(domain.ErrRequiredFieldsMissing, "")
	}

	issue, err := s.projects.Resolve(project).Insert(ctx, in.Open(project, s.now()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}
	return issue, nil
}

// Update merges the non-empty mutable fields of body into the issue named by
// its _id. Fields sent as empty strings are left unchanged. Other non-empty
// keys count as sent but are dropped.
func (s *IssueService) Update(ctx context.Context, project string, body map[string]any) (*domain.Result, error) {
	id, _ := domain.TextValue(body[domain.FieldID])
	if id == "" {
		return nil, domain.NewIssueError(domain.ErrMissingID, "")
	}
	if !domain.IsValidID(id) {
		return nil, domain.NewIssueError(domain.ErrCouldNotUpdate, id)
	}

	changes, err := buildChanges(body)
	if err != nil {
		slog.InfoContext(ctx, "rejected issue update", "project", project, "id", id, "error", err)
		return nil, domain.NewIssueError(domain.ErrCouldNotUpdate, id)
	}
	if len(changes) == 0 && !suppliesOtherFields(body) {
		return nil, domain.NewIssueError(domain.ErrNoUpdateFields, id)
	}
	changes[domain.FieldUpdatedOn] = s.now()

	matched, err := s.projects.Resolve(project).UpdateOne(ctx, id, changes)
	if err != nil {
		slog.ErrorContext(ctx, "update issue failed", "project", project, "id", id, "error", err)
		return nil, domain.NewIssueError(domain.ErrCouldNotUpdate, id)
	}
	if matched == 0 {
		return nil, domain.NewIssueError(domain.ErrCouldNotUpdate, id)
	}
	return &domain.Result{Result: resultUpdated, ID: id}, nil
}

// Delete removes the issue with the given id from project.
func (s *IssueService) Delete(ctx context.Context, project, id string) (*domain.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewIssueError(domain.ErrMissingID, "")
	}
	if !domain.IsValidID(id) {
		return nil, domain.NewIssueError(domain.ErrCouldNotDelete, id)
	}

	deleted, err := s.projects.Resolve(project).DeleteOne(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "delete issue failed", "project", project, "id", id, "error", err)
		return nil, domain.NewIssueError(domain.ErrCouldNotDelete, id)
	}
	if deleted == 0 {
		return nil, domain.NewIssueError(domain.ErrCouldNotDelete, id)
	}
	return &domain.Result{Result: resultDeleted, ID: id}, nil
}

// Projects lists the projects that have been materialized.
func (s *IssueService) Projects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projects.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	return projects, nil
}

// buildFilter turns query parameters into equality conditions ordered by
// field name. Values that cannot be coerced to the field's type are kept as
// strings so they match nothing.
func buildFilter(query map[string]string) domain.Filter {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filter := make(domain.Filter, 0, len(keys))
	for _, k := range keys {
		var value any = query[k]
		switch k {
		case domain.FieldOpen:
			if b, ok := parseOpen(query[k]); ok {
				value = b
			}
		case domain.FieldCreatedOn, domain.FieldUpdatedOn:
			if t, err := time.Parse(time.RFC3339Nano, query[k]); err == nil {
				value = t.UTC()
			}
		}
		filter = append(filter, domain.Condition{Field: k, Value: value})
	}
	return filter
}

// buildChanges collects the mutable fields of body that carry a non-empty
// value. Unknown keys and the timestamps are ignored.
func buildChanges(body map[string]any) (domain.Changes, error) {
	changes := domain.Changes{}
	for _, field := range domain.MutableFields {
		raw, ok := body[field]
		if !ok || raw == nil {
			continue
		}

		if field == domain.FieldOpen {
			switch v := raw.(type) {
			case bool:
				changes[field] = v
			case string:
				if v == "" {
					continue
				}
				b, ok := parseOpen(v)
				if !ok {
					return nil, fmt.Errorf("%w: %s=%q", errInvalidValue, field, v)
				}
				changes[field] = b
			default:
				return nil, fmt.Errorf("%w: %s has type %T", errInvalidValue, field, raw)
			}
			continue
		}

		text, ok := domain.TextValue(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s has type %T", errInvalidValue, field, raw)
		}
		if text != "" {
			changes[field] = text
		}
	}
	return changes, nil
}

// suppliesOtherFields reports whether body carries a non-empty value under a
// key that is neither _id nor mutable. Such keys count as sent but are not
// stored, so the update only touches updated_on.
func suppliesOtherFields(body map[string]any) bool {
	for k, raw := range body {
		if k == domain.FieldID || slices.Contains(domain.MutableFields, k) {
			continue
		}
		if raw == nil {
			continue
		}
		if text, ok := domain.TextValue(raw); ok && text == "" {
			continue
		}
		return true
	}
	return false
}

// parseOpen accepts exactly "true" and "false".
func parseOpen(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
