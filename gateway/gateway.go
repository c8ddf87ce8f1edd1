// Package gateway is the entity CRUD surface every portal view reads from and writes to.
// Views never share fetched data; each call returns a fresh copy.
package gateway

import (
	"context"
	"errors"
	"strings"

	"civicportal-be/models"
)

var (
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidID          = errors.New("invalid entity id")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DefaultSort is the gateway convention for newest-first listings.
const DefaultSort = "-created_date"

// Predicate holds exact-field matches, keyed by entity field name.
type Predicate map[string]any

type IssueGateway interface {
	List(ctx context.Context, sort string) ([]models.Issue, error)
	Filter(ctx context.Context, pred Predicate, sort string) ([]models.Issue, error)
	Get(ctx context.Context, id string) (*models.Issue, error)
	Create(ctx context.Context, payload models.IssuePayload) (*models.Issue, error)
	Update(ctx context.Context, id string, patch models.IssuePatch) (*models.Issue, error)
}

type CommentGateway interface {
	List(ctx context.Context, sort string) ([]models.Comment, error)
	Filter(ctx context.Context, pred Predicate, sort string) ([]models.Comment, error)
	Create(ctx context.Context, payload models.CommentPayload) (*models.Comment, error)
}

type UserGateway interface {
	// Me returns the user behind a session. An empty id or unknown user is ErrUnauthenticated.
	Me(ctx context.Context, id string) (*models.User, error)
	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Gateway bundles the entity surfaces.
type Gateway struct {
	Issues   IssueGateway
	Comments CommentGateway
	Users    UserGateway
}

// SortSpec is a parsed sort string.
type SortSpec struct {
	Field string
	Desc  bool
}

// ParseSort turns "-created_date" into {created_date, desc}. Empty input yields DefaultSort.
func ParseSort(sort string) SortSpec {
	sort = strings.TrimSpace(sort)
	if sort == "" {
		sort = DefaultSort
	}
	if strings.HasPrefix(sort, "-") {
		return SortSpec{Field: sort[1:], Desc: true}
	}
	return SortSpec{Field: strings.TrimPrefix(sort, "+")}
}
