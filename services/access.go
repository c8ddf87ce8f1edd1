package services

import (
	"context"

	"civicportal-be/models"
	"civicportal-be/utils"
)

type AccessState string

const (
	AccessChecking      AccessState = "checking"
	AccessRequiresLogin AccessState = "requires_login"
	AccessUnauthorized  AccessState = "unauthorized"
	AccessGranted       AccessState = "granted"
)

const DashboardPath = "/dashboard"

// AccessDecision is what the government portal entry page shows. It is a navigation aid only;
// dashboard routes enforce the admin role on their own.
type AccessDecision struct {
	State    AccessState  `json:"state"`
	Redirect string       `json:"redirect,omitempty"`
	User     *models.User `json:"user,omitempty"`
}

func Evaluate(user *models.User) AccessDecision {
	switch {
	case user == nil:
		return AccessDecision{State: AccessRequiresLogin}
	case !user.IsAdmin():
		return AccessDecision{State: AccessUnauthorized, User: user}
	default:
		return AccessDecision{State: AccessGranted, Redirect: DashboardPath, User: user}
	}
}

// EvaluateSession reads the session resolved for this request.
func EvaluateSession(ctx context.Context) AccessDecision {
	return Evaluate(utils.CurrentUser(ctx))
}
