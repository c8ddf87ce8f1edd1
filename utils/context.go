package utils

import (
	"context"

	"civicportal-be/models"
)

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	ContextUserKey   contextKey = "user"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextUserIDKey).(string)
	return userID, ok && userID != ""
}

// WithUser stores the session user resolved for this request.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// CurrentUser returns the session user, or nil when the request is anonymous.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(ContextUserKey).(*models.User)
	return user
}
