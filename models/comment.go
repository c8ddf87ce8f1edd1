package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCommenter is used when a comment is posted without a session.
const DefaultCommenter = "Community Member"

// Comment is a community remark attached to an issue
type Comment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID     primitive.ObjectID `bson:"issue_id" json:"issue_id"`
	Content     string             `bson:"content" json:"content"`
	UserName    string             `bson:"user_name" json:"user_name"`
	CreatedDate time.Time          `bson:"created_date" json:"created_date"`
}

type CommentPayload struct {
	IssueID  primitive.ObjectID `json:"issue_id"`
	Content  string             `json:"content"`
	UserName string             `json:"user_name"`
}
