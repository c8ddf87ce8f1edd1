package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"civicportal-be/gateway"
	"civicportal-be/models"
)

const (
	// FilterAll matches every value of a filter dimension.
	FilterAll = "all"

	UnassignedDepartment = "Unassigned"
	recentWindow         = 7 * 24 * time.Hour
	topCategoryCount     = 5
)

// IssueFilter is the dashboard's composite filter. Empty or "all" dimensions match everything.
type IssueFilter struct {
	Status   string `form:"status" json:"status"`
	Category string `form:"category" json:"category"`
	Priority string `form:"priority" json:"priority"`
	Search   string `form:"search" json:"search"`
}

func (f IssueFilter) Apply(issues []models.Issue) []models.Issue {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if !wildcard(f.Status) && string(issue.Status) != f.Status {
			continue
		}
		if !wildcard(f.Category) && string(issue.Category) != f.Category {
			continue
		}
		if !wildcard(f.Priority) && string(issue.Priority) != f.Priority {
			continue
		}
		if term != "" && !matchesSearch(issue, term) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

func wildcard(v string) bool {
	return v == "" || v == FilterAll
}

type DepartmentStats struct {
	Department string `json:"department"`
	Total      int    `json:"total"`
	Resolved   int    `json:"resolved"`
	InProgress int    `json:"in_progress"`
	Pending    int    `json:"pending"`
}

type CategoryCount struct {
	Category models.IssueCategory `json:"category"`
	Label    string               `json:"label"`
	Count    int                  `json:"count"`
}

// Stats are the dashboard aggregates over the full fetched collection.
type Stats struct {
	Total          int                          `json:"total"`
	ByStatus       map[models.IssueStatus]int   `json:"by_status"`
	ByCategory     map[models.IssueCategory]int `json:"by_category"`
	ByDepartment   map[string]int               `json:"by_department"`
	Critical       int                          `json:"critical"`
	High           int                          `json:"high"`
	TotalUpvotes   int                          `json:"total_upvotes"`
	ResolutionRate string                       `json:"resolution_rate"`
	Recent         int                          `json:"recent"`
	ResolvedRecent int                          `json:"resolved_recent"`
	Departments    []DepartmentStats            `json:"departments"`
	TopCategories  []CategoryCount              `json:"top_categories"`
}

// ComputeStats reduces the issue list into dashboard aggregates. Recency windows end at now.
func ComputeStats(issues []models.Issue, now time.Time) Stats {
	stats := Stats{
		Total:        len(issues),
		ByStatus:     make(map[models.IssueStatus]int, len(models.Statuses)),
		ByCategory:   make(map[models.IssueCategory]int),
		ByDepartment: make(map[string]int),
	}
	for _, s := range models.Statuses {
		stats.ByStatus[s] = 0
	}

	weekAgo := now.Add(-recentWindow)
	depts := make(map[string]*DepartmentStats)
	var deptOrder []string

	for _, issue := range issues {
		stats.ByStatus[issue.Status]++
		stats.ByCategory[issue.Category]++
		stats.TotalUpvotes += issue.Upvotes

		switch issue.Priority {
		case models.Critical:
			stats.Critical++
		case models.High:
			stats.High++
		}

		if !issue.CreatedDate.Before(weekAgo) {
			stats.Recent++
		}
		if issue.Status == models.Resolved && !updatedOrCreated(issue).Before(weekAgo) {
			stats.ResolvedRecent++
		}

		dept := issue.Department
		if dept == "" {
			dept = UnassignedDepartment
		}
		stats.ByDepartment[dept]++
		d, ok := depts[dept]
		if !ok {
			d = &DepartmentStats{Department: dept}
			depts[dept] = d
			deptOrder = append(deptOrder, dept)
		}
		d.Total++
		switch issue.Status {
		case models.Resolved:
			d.Resolved++
		case models.InProgress:
			d.InProgress++
		case models.Pending:
			d.Pending++
		}
	}

	stats.ResolutionRate = ResolutionRate(stats.ByStatus[models.Resolved], stats.Total)

	stats.Departments = make([]DepartmentStats, 0, len(deptOrder))
	for _, name := range deptOrder {
		stats.Departments = append(stats.Departments, *depts[name])
	}
	sort.SliceStable(stats.Departments, func(i, j int) bool {
		return stats.Departments[i].Total > stats.Departments[j].Total
	})

	stats.TopCategories = topCategories(issues, topCategoryCount)
	return stats
}

// ResolutionRate is resolved/total as a percentage with one decimal, or "0" when there is nothing to rate.
func ResolutionRate(resolved, total int) string {
	if total == 0 {
		return "0"
	}
	// half-up to one decimal, so 6.25 reads 6.3
	rate := math.Round(float64(resolved)*1000/float64(total)) / 10
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

// topCategories counts categories in first-seen order and keeps the n largest.
func topCategories(issues []models.Issue, n int) []CategoryCount {
	counts := categoryCounts(issues)
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func categoryCounts(issues []models.Issue) []CategoryCount {
	index := make(map[models.IssueCategory]int)
	var counts []CategoryCount
	for _, issue := range issues {
		i, ok := index[issue.Category]
		if !ok {
			i = len(counts)
			index[issue.Category] = i
			counts = append(counts, CategoryCount{Category: issue.Category, Label: models.CategoryLabel(issue.Category)})
		}
		counts[i].Count++
	}
	return counts
}

func updatedOrCreated(issue models.Issue) time.Time {
	if issue.UpdatedDate != nil {
		return *issue.UpdatedDate
	}
	return issue.CreatedDate
}

// TriageRequest is the staff update applied from the dashboard.
type TriageRequest struct {
	Status         *models.IssueStatus `json:"status" binding:"omitempty,issue_status"`
	Department     *string             `json:"department" binding:"omitempty,max=100"`
	ResolutionNote *string             `json:"resolution_note" binding:"omitempty,max=2000"`
}

func (r TriageRequest) Patch() models.IssuePatch {
	return models.IssuePatch{
		Status:         r.Status,
		Department:     r.Department,
		ResolutionNote: r.ResolutionNote,
	}
}

type DashboardView struct {
	Filter IssueFilter    `json:"filter"`
	Issues []models.Issue `json:"issues"`
	Stats  Stats          `json:"stats"`
}

type IssueDetail struct {
	Issue    models.Issue     `json:"issue"`
	Comments []models.Comment `json:"comments"`
}

type DashboardService struct {
	gw  *gateway.Gateway
	now func() time.Time
}

func NewDashboardService(gw *gateway.Gateway) *DashboardService {
	return &DashboardService{gw: gw, now: time.Now}
}

// Load fetches every issue; stats cover the whole collection while the table is filtered.
func (s *DashboardService) Load(ctx context.Context, filter IssueFilter) (*DashboardView, error) {
	issues, err := s.gw.Issues.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	return &DashboardView{
		Filter: filter,
		Issues: filter.Apply(issues),
		Stats:  ComputeStats(issues, s.now()),
	}, nil
}

func (s *DashboardService) Detail(ctx context.Context, id string) (*IssueDetail, error) {
	issue, err := s.gw.Issues.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading issue: %w", err)
	}
	comments, err := s.gw.Comments.Filter(ctx, gateway.Predicate{"issue_id": id}, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return &IssueDetail{Issue: *issue, Comments: comments}, nil
}

// Triage applies a staff update, reloads the collection and returns the reloaded issue
// with the applied fields laid over it.
func (s *DashboardService) Triage(ctx context.Context, id string, req TriageRequest) (*models.Issue, error) {
	patch := req.Patch()
	if _, err := s.gw.Issues.Update(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("updating issue: %w", err)
	}
	slog.InfoContext(ctx, "issue triaged", "issue_id", id)

	issues, err := s.gw.Issues.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("reloading issues: %w", err)
	}
	var reloaded *models.Issue
	for i := range issues {
		if issues[i].ID.Hex() == id {
			reloaded = &issues[i]
			break
		}
	}
	if reloaded == nil {
		return nil, gateway.ErrNotFound
	}
	if patch.Status != nil {
		reloaded.Status = *patch.Status
	}
	if patch.Department != nil {
		reloaded.Department = *patch.Department
	}
	if patch.ResolutionNote != nil {
		reloaded.ResolutionNote = *patch.ResolutionNote
	}
	return reloaded, nil
}
