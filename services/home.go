package services

import (
	"context"
	"fmt"

	"civicportal-be/gateway"
	"civicportal-be/models"
	"civicportal-be/utils"
)

const homeRecentLimit = 3

type HomeView struct {
	User   *models.User   `json:"user,omitempty"`
	Recent []models.Issue `json:"recent"`
}

type HomeService struct {
	issues gateway.IssueGateway
}

func NewHomeService(issues gateway.IssueGateway) *HomeService {
	return &HomeService{issues: issues}
}

func (s *HomeService) Load(ctx context.Context) (*HomeView, error) {
	issues, err := s.issues.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	if len(issues) > homeRecentLimit {
		issues = issues[:homeRecentLimit]
	}
	return &HomeView{User: utils.CurrentUser(ctx), Recent: issues}, nil
}
