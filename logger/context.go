package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record emitted with the carrying context.
type LogFields struct {
	IssueID   string
	DraftID   string
	UserID    string
	Component string // e.g. "portal.wizard"
}

// WithLogFields merges fields into ctx; non-empty new values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := GetLogFields(ctx)
	if fields.IssueID != "" {
		merged.IssueID = fields.IssueID
	}
	if fields.DraftID != "" {
		merged.DraftID = fields.DraftID
	}
	if fields.UserID != "" {
		merged.UserID = fields.UserID
	}
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}
