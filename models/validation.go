package models

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds the enum validators used in binding and validate tags.
func RegisterValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"issue_category": func(fl validator.FieldLevel) bool {
			return IssueCategory(fl.Field().String()).Valid()
		},
		"issue_priority": func(fl validator.FieldLevel) bool {
			return IssuePriority(fl.Field().String()).Valid()
		},
		"issue_status": func(fl validator.FieldLevel) bool {
			return IssueStatus(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
