package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"civicportal-be/models"

	jsonpatch "github.com/evanphx/json-patch"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process gateway. Updates are applied as JSON merge patches.
type Memory struct {
	mu       sync.RWMutex
	issues   map[primitive.ObjectID]models.Issue
	comments map[primitive.ObjectID]models.Comment
	users    map[primitive.ObjectID]models.User
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		issues:   make(map[primitive.ObjectID]models.Issue),
		comments: make(map[primitive.ObjectID]models.Comment),
		users:    make(map[primitive.ObjectID]models.User),
		now:      time.Now,
	}
}

// SetClock overrides the time source used for created/updated stamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Gateway exposes the store through the gateway contracts.
func (m *Memory) Gateway() *Gateway {
	return &Gateway{
		Issues:   memoryIssues{m},
		Comments: memoryComments{m},
		Users:    memoryUsers{m},
	}
}

// PutIssue stores an issue as-is, assigning an id when missing. Used by seeding and tests.
func (m *Memory) PutIssue(issue models.Issue) models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.CreatedDate.IsZero() {
		issue.CreatedDate = m.now()
	}
	m.issues[issue.ID] = issue
	return issue
}

// PutUser stores a user as-is. The password must already be hashed.
func (m *Memory) PutUser(user models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = user
	return user
}

type memoryIssues struct{ m *Memory }

func (g memoryIssues) List(ctx context.Context, sortBy string) ([]models.Issue, error) {
	return g.Filter(ctx, nil, sortBy)
}

func (g memoryIssues) Filter(_ context.Context, pred Predicate, sortBy string) ([]models.Issue, error) {
	g.m.mu.RLock()
	defer g.m.mu.RUnlock()

	out := make([]models.Issue, 0, len(g.m.issues))
	for _, issue := range g.m.issues {
		ok, err := matches(issue, pred)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, issue)
		}
	}
	order := ParseSort(sortBy)
	sort.SliceStable(out, func(i, j int) bool {
		return lessIssue(out[i], out[j], order)
	})
	return out, nil
}

func (g memoryIssues) Get(_ context.Context, id string) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	g.m.mu.RLock()
	defer g.m.mu.RUnlock()
	issue, ok := g.m.issues[oid]
	if !ok {
		return nil, ErrNotFound
	}
	return &issue, nil
}

func (g memoryIssues) Create(_ context.Context, payload models.IssuePayload) (*models.Issue, error) {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	issue := issueFromPayload(payload, g.m.now())
	issue.ID = primitive.NewObjectID()
	g.m.issues[issue.ID] = issue
	return &issue, nil
}

func (g memoryIssues) Update(_ context.Context, id string, patch models.IssuePatch) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	g.m.mu.Lock()
	defer g.m.mu.Unlock()

	current, ok := g.m.issues[oid]
	if !ok {
		return nil, ErrNotFound
	}
	original, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding issue: %w", err)
	}
	patchDoc, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	merged, err := jsonpatch.MergePatch(original, patchDoc)
	if err != nil {
		return nil, fmt.Errorf("applying patch: %w", err)
	}
	var updated models.Issue
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, fmt.Errorf("decoding patched issue: %w", err)
	}
	now := g.m.now()
	updated.ID = oid
	updated.UpdatedDate = &now
	g.m.issues[oid] = updated
	return &updated, nil
}

type memoryComments struct{ m *Memory }

func (g memoryComments) List(ctx context.Context, sortBy string) ([]models.Comment, error) {
	return g.Filter(ctx, nil, sortBy)
}

func (g memoryComments) Filter(_ context.Context, pred Predicate, sortBy string) ([]models.Comment, error) {
	g.m.mu.RLock()
	defer g.m.mu.RUnlock()

	out := make([]models.Comment, 0)
	for _, comment := range g.m.comments {
		ok, err := matches(comment, pred)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, comment)
		}
	}
	order := ParseSort(sortBy)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedDate, out[j].CreatedDate
		if order.Desc {
			return a.After(b)
		}
		return a.Before(b)
	})
	return out, nil
}

func (g memoryComments) Create(_ context.Context, payload models.CommentPayload) (*models.Comment, error) {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	if _, ok := g.m.issues[payload.IssueID]; !ok {
		return nil, ErrNotFound
	}
	comment := models.Comment{
		ID:          primitive.NewObjectID(),
		IssueID:     payload.IssueID,
		Content:     payload.Content,
		UserName:    payload.UserName,
		CreatedDate: g.m.now(),
	}
	g.m.comments[comment.ID] = comment
	return &comment, nil
}

type memoryUsers struct{ m *Memory }

func (g memoryUsers) Me(_ context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrUnauthenticated
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	g.m.mu.RLock()
	defer g.m.mu.RUnlock()
	user, ok := g.m.users[oid]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

func (g memoryUsers) Register(_ context.Context, fullName, email, password string) (*models.User, error) {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range g.m.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	now := g.m.now()
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
	g.m.users[user.ID] = user
	return &user, nil
}

func (g memoryUsers) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	g.m.mu.RLock()
	defer g.m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range g.m.users {
		if u.Email == email {
			if !u.ComparePassword(password) {
				return nil, ErrInvalidCredentials
			}
			return &u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func issueFromPayload(p models.IssuePayload, now time.Time) models.Issue {
	status := p.Status
	if status == "" {
		status = models.Pending
	}
	priority := p.Priority
	if priority == "" {
		priority = models.Medium
	}
	return models.Issue{
		Title:         p.Title,
		Description:   p.Description,
		Category:      p.Category,
		Priority:      priority,
		Status:        status,
		Location:      p.Location,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		ImageURL:      p.ImageURL,
		Upvotes:       p.Upvotes,
		CommentsCount: p.CommentsCount,
		CreatedBy:     p.CreatedBy,
		CreatedDate:   now,
	}
}

// matches compares the JSON encoding of each predicate value with the entity's field.
func matches(entity any, pred Predicate) (bool, error) {
	if len(pred) == 0 {
		return true, nil
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return false, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, err
	}
	for key, want := range pred {
		got, ok := fields[key]
		if !ok {
			return false, nil
		}
		wantRaw, err := json.Marshal(want)
		if err != nil {
			return false, fmt.Errorf("encoding predicate %q: %w", key, err)
		}
		if !bytes.Equal(got, wantRaw) {
			return false, nil
		}
	}
	return true, nil
}

func lessIssue(a, b models.Issue, order SortSpec) bool {
	var less, greater bool
	switch order.Field {
	case "upvotes":
		less, greater = a.Upvotes < b.Upvotes, a.Upvotes > b.Upvotes
	case "comments_count":
		less, greater = a.CommentsCount < b.CommentsCount, a.CommentsCount > b.CommentsCount
	case "title":
		less, greater = a.Title < b.Title, a.Title > b.Title
	case "updated_date":
		at, bt := updatedOrCreated(a), updatedOrCreated(b)
		less, greater = at.Before(bt), at.After(bt)
	default:
		less, greater = a.CreatedDate.Before(b.CreatedDate), a.CreatedDate.After(b.CreatedDate)
	}
	if order.Desc {
		return greater
	}
	return less
}

func updatedOrCreated(i models.Issue) time.Time {
	if i.UpdatedDate != nil {
		return *i.UpdatedDate
	}
	return i.CreatedDate
}
