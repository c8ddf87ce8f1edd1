package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDraftNotFound     = errors.New("draft not found")
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrFieldNotOnStep    = errors.New("field does not belong to the current step")
	ErrValidation        = errors.New("validation failed")
	ErrAlreadySubmitted  = errors.New("issue already submitted")
	ErrEmptyComment      = errors.New("comment content is required")
	ErrLocate            = errors.New("could not determine location")
	ErrUpload            = errors.New("photo upload failed")
)

// Violation is one failed field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports the violations that blocked a wizard step.
type ValidationError struct {
	Step       int
	Violations []Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("step %d: invalid %s", e.Step, strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
