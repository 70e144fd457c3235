package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sumire/issuetracker/internal/domain"
)

// DriverMongo selects the MongoDB backend.
const DriverMongo = "mongo"

const (
	issuesCollection   = "issues"
	projectsCollection = "projects"
)

type issueDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	Project    string             `bson:"project"`
	IssueTitle string             `bson:"issue_title"`
	IssueText  string             `bson:"issue_text"`
	CreatedBy  string             `bson:"created_by"`
	AssignedTo string             `bson:"assigned_to"`
	StatusText string             `bson:"status_text"`
	Open       bool               `bson:"open"`
	CreatedOn  time.Time          `bson:"created_on"`
	UpdatedOn  time.Time          `bson:"updated_on"`
}

func (d issueDocument) issue() domain.Issue {
	return domain.Issue{
		ID:         d.ID.Hex(),
		Project:    d.Project,
		IssueTitle: d.IssueTitle,
		IssueText:  d.IssueText,
		CreatedBy:  d.CreatedBy,
		AssignedTo: d.AssignedTo,
		StatusText: d.StatusText,
		Open:       d.Open,
		CreatedOn:  d.CreatedOn.UTC(),
		UpdatedOn:  d.UpdatedOn.UTC(),
	}
}

// ConnectMongo opens a client and verifies the deployment is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoIssueRepository stores issues of every project in one collection
// partitioned by the project field.
type MongoIssueRepository struct {
	issues   *mongo.Collection
	projects *mongo.Collection
}

// NewMongoIssueRepository creates a new MongoIssueRepository on db.
func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{
		issues:   db.Collection(issuesCollection),
		projects: db.Collection(projectsCollection),
	}
}

// EnsureIndexes creates the indexes queries rely on.
func (r *MongoIssueRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.issues.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project", Value: 1}, {Key: "created_on", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create issues index: %w", err)
	}
	if _, err := r.projects.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create projects index: %w", err)
	}
	return nil
}

// Find returns the issues of a project matching every condition in filter.
// Conditions are passed to the server as literal equality predicates. A
// condition on a field issues do not have matches nothing, so operator keys
// such as $where never reach the server.
func (r *MongoIssueRepository) Find(ctx context.Context, project string, filter domain.Filter) ([]domain.Issue, error) {
	query := bson.D{{Key: "project", Value: project}}
	for _, cond := range filter {
		if _, ok := columnKinds[cond.Field]; !ok {
			return []domain.Issue{}, nil
		}
		value := cond.Value
		if cond.Field == domain.FieldID {
			if s, ok := value.(string); ok && domain.IsValidID(s) {
				value, _ = primitive.ObjectIDFromHex(s)
			}
		}
		query = append(query, bson.E{Key: cond.Field, Value: value})
	}

	cur, err := r.issues.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "created_on", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find issues in project %q: %w", project, err)
	}

	var docs []issueDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode issues in project %q: %w", project, err)
	}

	issues := make([]domain.Issue, 0, len(docs))
	for _, d := range docs {
		issues = append(issues, d.issue())
	}
	return issues, nil
}

// Insert stores a new issue, assigning its id, after upserting the project.
func (r *MongoIssueRepository) Insert(ctx context.Context, issue domain.Issue) (*domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}
	oid, err := primitive.ObjectIDFromHex(issue.ID)
	if err != nil {
		return nil, fmt.Errorf("issue id %q: %w", issue.ID, err)
	}

	if _, err := r.projects.UpdateOne(ctx,
		bson.M{"name": issue.Project},
		bson.M{"$setOnInsert": domain.Project{Name: issue.Project, CreatedOn: issue.CreatedOn}},
		options.Update().SetUpsert(true),
	); err != nil {
		return nil, fmt.Errorf("ensure project %q: %w", issue.Project, err)
	}

	doc := issueDocument{
		ID:         oid,
		Project:    issue.Project,
		IssueTitle: issue.IssueTitle,
		IssueText:  issue.IssueText,
		CreatedBy:  issue.CreatedBy,
		AssignedTo: issue.AssignedTo,
		StatusText: issue.StatusText,
		Open:       issue.Open,
		CreatedOn:  issue.CreatedOn,
		UpdatedOn:  issue.UpdatedOn,
	}
	if _, err := r.issues.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	return &issue, nil
}

// UpdateOne sets changes on the issue with the given id in project and
// returns the number of matched documents.
func (r *MongoIssueRepository) UpdateOne(ctx context.Context, project, id string, changes domain.Changes) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("issue id %q: %w", id, err)
	}
	res, err := r.issues.UpdateOne(ctx,
		bson.M{"_id": oid, "project": project},
		bson.M{"$set": bson.M(changes)},
	)
	if err != nil {
		return 0, fmt.Errorf("update issue %s: %w", id, err)
	}
	return res.MatchedCount, nil
}

// DeleteOne removes the issue with the given id from project and returns the
// number of deleted documents.
func (r *MongoIssueRepository) DeleteOne(ctx context.Context, project, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("issue id %q: %w", id, err)
	}
	res, err := r.issues.DeleteOne(ctx, bson.M{"_id": oid, "project": project})
	if err != nil {
		return 0, fmt.Errorf("delete issue %s: %w", id, err)
	}
	return res.DeletedCount, nil
}

// Projects lists every materialized project ordered by name.
func (r *MongoIssueRepository) Projects(ctx context.Context) ([]domain.Project, error) {
	cur, err := r.projects.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := []domain.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	for i := range projects {
		projects[i].CreatedOn = projects[i].CreatedOn.UTC()
	}
	return projects, nil
}
