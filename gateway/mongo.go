package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civicportal-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	issuesCollection   = "issues"
	commentsCollection = "comments"
	usersCollection    = "users"
)

// NewMongo builds a gateway over the issues, comments and users collections of db.
func NewMongo(db *mongo.Database) *Gateway {
	return &Gateway{
		Issues:   &mongoIssues{col: db.Collection(issuesCollection)},
		Comments: &mongoComments{col: db.Collection(commentsCollection), issues: db.Collection(issuesCollection)},
		Users:    &mongoUsers{col: db.Collection(usersCollection)},
	}
}

// EnsureIndexes creates the indexes the gateway queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		issuesCollection: {
			{Keys: bson.D{{Key: "created_date", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "issue_id", Value: 1}, {Key: "created_date", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("creating %s indexes: %w", name, err)
		}
	}
	return nil
}

func sortOptions(sort string) *options.FindOptions {
	spec := ParseSort(sort)
	dir := 1
	if spec.Desc {
		dir = -1
	}
	return options.Find().SetSort(bson.D{{Key: spec.Field, Value: dir}})
}

// filterDoc converts an exact-field predicate into a query document. Fields ending in
// "_id" carry object ids and accept their hex form.
func filterDoc(pred Predicate) (bson.M, error) {
	filter := bson.M{}
	for key, value := range pred {
		if s, ok := value.(string); ok && (key == "_id" || strings.HasSuffix(key, "_id")) {
			oid, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				return nil, ErrInvalidID
			}
			value = oid
		}
		filter[key] = value
	}
	return filter, nil
}

type mongoIssues struct {
	col *mongo.Collection
}

func (g *mongoIssues) List(ctx context.Context, sort string) ([]models.Issue, error) {
	return g.Filter(ctx, nil, sort)
}

func (g *mongoIssues) Filter(ctx context.Context, pred Predicate, sort string) ([]models.Issue, error) {
	filter, err := filterDoc(pred)
	if err != nil {
		return nil, err
	}
	cursor, err := g.col.Find(ctx, filter, sortOptions(sort))
	if err != nil {
		return nil, fmt.Errorf("finding issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decoding issues: %w", err)
	}
	return issues, nil
}

func (g *mongoIssues) Get(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var issue models.Issue
	if err := g.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding issue: %w", err)
	}
	return &issue, nil
}

func (g *mongoIssues) Create(ctx context.Context, payload models.IssuePayload) (*models.Issue, error) {
	issue := issueFromPayload(payload, time.Now().UTC())
	issue.ID = primitive.NewObjectID()
	if _, err := g.col.InsertOne(ctx, issue); err != nil {
		return nil, fmt.Errorf("inserting issue: %w", err)
	}
	return &issue, nil
}

func (g *mongoIssues) Update(ctx context.Context, id string, patch models.IssuePatch) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	update := bson.M{"updated_date": time.Now().UTC()}
	if patch.Status != nil {
		update["status"] = *patch.Status
	}
	if patch.Department != nil {
		update["department"] = *patch.Department
	}
	if patch.ResolutionNote != nil {
		update["resolution_note"] = *patch.ResolutionNote
	}
	if patch.Upvotes != nil {
		update["upvotes"] = *patch.Upvotes
	}
	if patch.CommentsCount != nil {
		update["comments_count"] = *patch.CommentsCount
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var issue models.Issue
	err = g.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": update}, opts).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating issue: %w", err)
	}
	return &issue, nil
}

type mongoComments struct {
	col    *mongo.Collection
	issues *mongo.Collection
}

func (g *mongoComments) List(ctx context.Context, sort string) ([]models.Comment, error) {
	return g.Filter(ctx, nil, sort)
}

func (g *mongoComments) Filter(ctx context.Context, pred Predicate, sort string) ([]models.Comment, error) {
	filter, err := filterDoc(pred)
	if err != nil {
		return nil, err
	}
	cursor, err := g.col.Find(ctx, filter, sortOptions(sort))
	if err != nil {
		return nil, fmt.Errorf("finding comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := make([]models.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}
	return comments, nil
}

// Create refuses comments on issues that do not exist, like the memory adapter.
func (g *mongoComments) Create(ctx context.Context, payload models.CommentPayload) (*models.Comment, error) {
	n, err := g.issues.CountDocuments(ctx, bson.M{"_id": payload.IssueID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("checking issue: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	comment := models.Comment{
		ID:          primitive.NewObjectID(),
		IssueID:     payload.IssueID,
		Content:     payload.Content,
		UserName:    payload.UserName,
		CreatedDate: time.Now().UTC(),
	}
	if _, err := g.col.InsertOne(ctx, comment); err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}
	return &comment, nil
}

type mongoUsers struct {
	col *mongo.Collection
}

func (g *mongoUsers) Me(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrUnauthenticated
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	var user models.User
	if err := g.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &user, nil
}

func (g *mongoUsers) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	count, err := g.col.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Email:     email,
		Role:      models.RoleCitizen,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	if _, err := g.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &user, nil
}

func (g *mongoUsers) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := g.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if !user.ComparePassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// UpsertUser writes a user keyed by email. Used by the seed command.
func UpsertUser(ctx context.Context, db *mongo.Database, user models.User) error {
	col := db.Collection(usersCollection)
	opts := options.Update().SetUpsert(true)
	_, err := col.UpdateOne(ctx, bson.M{"email": user.Email}, bson.M{"$set": bson.M{
		"full_name":    user.FullName,
		"email":        user.Email,
		"role":         user.Role,
		"password":     user.Password,
		"created_date": user.CreatedAt,
		"updated_date": user.UpdatedAt,
	}}, opts)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", user.Email, err)
	}
	return nil
}
