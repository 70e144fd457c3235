package service

import (
	"context"
	"sync"

	"github.com/sumire/issuetracker/internal/domain"
)

// IssueStore defines the document store capability consumed by the issue
// engine. Issues of all projects live in one store partitioned by project.
type IssueStore interface {
	Find(ctx context.Context, project string, filter domain.Filter) ([]domain.Issue, error)
	Insert(ctx context.Context, issue domain.Issue) (*domain.Issue, error)
	UpdateOne(ctx context.Context, project, id string, changes domain.Changes) (int64, error)
	DeleteOne(ctx context.Context, project, id string) (int64, error)
	Projects(ctx context.Context) ([]domain.Project, error)
}

// RecordSet is the collection of issues belonging to one project.
type RecordSet struct {
	project string
	store   IssueStore
}

// Project returns the project name the record set is bound to.
func (rs *RecordSet) Project() string {
	return rs.project
}

func (rs *RecordSet) Find(ctx context.Context, filter domain.Filter) ([]domain.Issue, error) {
	return rs.store.Find(ctx, rs.project, filter)
}

func (rs *RecordSet) Insert(ctx context.Context, issue domain.Issue) (*domain.Issue, error) {
	issue.Project = rs.project
	return rs.store.Insert(ctx, issue)
}

func (rs *RecordSet) UpdateOne(ctx context.Context, id string, changes domain.Changes) (int64, error) {
	return rs.store.UpdateOne(ctx, rs.project, id, changes)
}

func (rs *RecordSet) DeleteOne(ctx context.Context, id string) (int64, error) {
	return rs.store.DeleteOne(ctx, rs.project, id)
}

// ProjectResolver maps project names to record sets. Handles are created on
// first use and kept for the life of the process; resolving a name never
// touches the store.
type ProjectResolver struct {
	store IssueStore
	sets  sync.Map // project name -> *RecordSet
}

// NewProjectResolver creates a new ProjectResolver over store.
func NewProjectResolver(store IssueStore) *ProjectResolver {
	return &ProjectResolver{store: store}
}

// Resolve returns the record set for project.
func (r *ProjectResolver) Resolve(project string) *RecordSet {
	if rs, ok := r.sets.Load(project); ok {
		return rs.(*RecordSet)
	}
	rs, _ := r.sets.LoadOrStore(project, &RecordSet{project: project, store: r.store})
	return rs.(*RecordSet)
}

// Projects lists every project that holds or has held an issue.
func (r *ProjectResolver) Projects(ctx context.Context) ([]domain.Project, error) {
	return r.store.Projects(ctx)
}
