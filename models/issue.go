package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Infrastructure IssueCategory = "infrastructure"
	Environment    IssueCategory = "environment"
	Safety         IssueCategory = "safety"
	Utilities      IssueCategory = "utilities"
	Governance     IssueCategory = "governance"
	Transportation IssueCategory = "transportation"
	Healthcare     IssueCategory = "healthcare"
	Other          IssueCategory = "other"
)

// Categories lists every category in display order.
var Categories = []IssueCategory{
	Infrastructure, Environment, Safety, Utilities,
	Governance, Transportation, Healthcare, Other,
}

func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IssuePriority enum
type IssuePriority string

const (
	Low      IssuePriority = "low"
	Medium   IssuePriority = "medium"
	High     IssuePriority = "high"
	Critical IssuePriority = "critical"
)

var Priorities = []IssuePriority{Low, Medium, High, Critical}

func (p IssuePriority) Valid() bool {
	switch p {
	case Low, Medium, High, Critical:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	Verified   IssueStatus = "verified"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
	Closed     IssueStatus = "closed"
)

var Statuses = []IssueStatus{Pending, Verified, InProgress, Resolved, Closed}

func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, Verified, InProgress, Resolved, Closed:
		return true
	}
	return false
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Category       IssueCategory      `bson:"category" json:"category"`
	Priority       IssuePriority      `bson:"priority" json:"priority"`
	Status         IssueStatus        `bson:"status" json:"status"`
	Location       string             `bson:"location" json:"location"`
	Latitude       *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude      *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	ImageURL       string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Upvotes        int                `bson:"upvotes" json:"upvotes"`
	CommentsCount  int                `bson:"comments_count" json:"comments_count"`
	Department     string             `bson:"department,omitempty" json:"department,omitempty"`
	ResolutionNote string             `bson:"resolution_note,omitempty" json:"resolution_note,omitempty"`
	CreatedBy      string             `bson:"created_by" json:"created_by"`
	CreatedDate    time.Time          `bson:"created_date" json:"created_date"`
	UpdatedDate    *time.Time         `bson:"updated_date,omitempty" json:"updated_date,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set and usable on a map.
func (i Issue) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil && ValidCoordinates(*i.Latitude, *i.Longitude)
}

// ValidCoordinates reports whether lat/lng are finite and within ±90/±180.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// IssuePayload is the body of an Issue.create call.
type IssuePayload struct {
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Category      IssueCategory `json:"category"`
	Priority      IssuePriority `json:"priority"`
	Status        IssueStatus   `json:"status"`
	Location      string        `json:"location"`
	Latitude      *float64      `json:"latitude"`
	Longitude     *float64      `json:"longitude"`
	ImageURL      string        `json:"image_url,omitempty"`
	Upvotes       int           `json:"upvotes"`
	CommentsCount int           `json:"comments_count"`
	CreatedBy     string        `json:"created_by"`
}

// IssuePatch is the body of an Issue.update call. Nil fields are left untouched.
type IssuePatch struct {
	Status         *IssueStatus `json:"status,omitempty" binding:"omitempty,issue_status"`
	Department     *string      `json:"department,omitempty" binding:"omitempty,max=100"`
	ResolutionNote *string      `json:"resolution_note,omitempty" binding:"omitempty,max=2000"`
	Upvotes        *int         `json:"upvotes,omitempty"`
	CommentsCount  *int         `json:"comments_count,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Status == nil && p.Department == nil && p.ResolutionNote == nil &&
		p.Upvotes == nil && p.CommentsCount == nil
}
