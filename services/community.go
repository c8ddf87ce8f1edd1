package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"civicportal-be/gateway"
	"civicportal-be/models"
	"civicportal-be/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommunityView is what the community page renders after every load.
type CommunityView struct {
	Search   string           `json:"search"`
	Total    int              `json:"total"`
	Issues   []models.Issue   `json:"issues"`
	Comments []models.Comment `json:"comments"`
}

type CommunityService struct {
	gw *gateway.Gateway
}

func NewCommunityService(gw *gateway.Gateway) *CommunityService {
	return &CommunityService{gw: gw}
}

// SearchIssues keeps issues whose title, description or location contains term, ignoring case.
// Order is preserved and an empty term keeps everything.
func SearchIssues(issues []models.Issue, term string) []models.Issue {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return issues
	}
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if matchesSearch(issue, term) {
			out = append(out, issue)
		}
	}
	return out
}

func matchesSearch(issue models.Issue, lowered string) bool {
	return strings.Contains(strings.ToLower(issue.Title), lowered) ||
		strings.Contains(strings.ToLower(issue.Description), lowered) ||
		strings.Contains(strings.ToLower(issue.Location), lowered)
}

func (s *CommunityService) Load(ctx context.Context, search string) (*CommunityView, error) {
	issues, err := s.gw.Issues.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	comments, err := s.gw.Comments.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	filtered := SearchIssues(issues, search)
	return &CommunityView{
		Search:   search,
		Total:    len(issues),
		Issues:   filtered,
		Comments: comments,
	}, nil
}

// Upvote increments the stored count and reloads the view.
func (s *CommunityService) Upvote(ctx context.Context, id, search string) (*CommunityView, error) {
	issue, err := s.gw.Issues.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading issue: %w", err)
	}
	upvotes := issue.Upvotes + 1
	if _, err := s.gw.Issues.Update(ctx, id, models.IssuePatch{Upvotes: &upvotes}); err != nil {
		return nil, fmt.Errorf("upvoting issue: %w", err)
	}
	slog.InfoContext(ctx, "issue upvoted", "issue_id", id, "upvotes", upvotes)

	// mutate, then refetch
	return s.Load(ctx, search)
}

// AddComment posts a comment under the session user's name and bumps the issue's comment count.
func (s *CommunityService) AddComment(ctx context.Context, issueID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	oid, err := primitive.ObjectIDFromHex(issueID)
	if err != nil {
		return nil, gateway.ErrInvalidID
	}
	issue, err := s.gw.Issues.Get(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("loading issue: %w", err)
	}

	userName := models.DefaultCommenter
	if user := utils.CurrentUser(ctx); user != nil && user.FullName != "" {
		userName = user.FullName
	}

	comment, err := s.gw.Comments.Create(ctx, models.CommentPayload{
		IssueID:  oid,
		Content:  content,
		UserName: userName,
	})
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	// The count is bumped from the value just read; concurrent comments may drift it.
	count := issue.CommentsCount + 1
	if _, err := s.gw.Issues.Update(ctx, issueID, models.IssuePatch{CommentsCount: &count}); err != nil {
		return nil, fmt.Errorf("updating comment count: %w", err)
	}
	return comment, nil
}

// Comments lists an issue's thread, newest first.
func (s *CommunityService) Comments(ctx context.Context, issueID string) ([]models.Comment, error) {
	comments, err := s.gw.Comments.Filter(ctx, gateway.Predicate{"issue_id": issueID}, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}
