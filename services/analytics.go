package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"civicportal-be/gateway"
	"civicportal-be/models"
)

type CategorySlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type StatusBar struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TopIssue struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Category models.IssueCategory `json:"category"`
	Upvotes  int                  `json:"upvotes"`
}

type Analytics struct {
	Total          int             `json:"total"`
	Resolved       int             `json:"resolved"`
	Pending        int             `json:"pending"`
	InProgress     int             `json:"in_progress"`
	AvgUpvotes     int             `json:"avg_upvotes"`
	ResolutionRate string          `json:"resolution_rate"`
	Categories     []CategorySlice `json:"categories"`
	Statuses       []StatusBar     `json:"statuses"`
	Last7Days      []DailyCount    `json:"last_7_days"`
	TopVoted       []TopIssue      `json:"top_voted"`
}

// ComputeAnalytics derives the public analytics page. Slices and bars follow first-seen order.
func ComputeAnalytics(issues []models.Issue, now time.Time) Analytics {
	a := Analytics{Total: len(issues)}

	upvotes := 0
	for _, issue := range issues {
		upvotes += issue.Upvotes
		switch issue.Status {
		case models.Resolved:
			a.Resolved++
		case models.Pending:
			a.Pending++
		case models.InProgress:
			a.InProgress++
		}
	}
	if a.Total > 0 {
		a.AvgUpvotes = int(math.Round(float64(upvotes) / float64(a.Total)))
	}
	a.ResolutionRate = ResolutionRate(a.Resolved, a.Total)

	for i, c := range categoryCounts(issues) {
		a.Categories = append(a.Categories, CategorySlice{
			Name:  string(c.Category),
			Value: c.Count,
			Color: models.ChartPalette[i%len(models.ChartPalette)],
		})
	}

	statusIndex := make(map[models.IssueStatus]int)
	for _, issue := range issues {
		i, ok := statusIndex[issue.Status]
		if !ok {
			i = len(a.Statuses)
			statusIndex[issue.Status] = i
			a.Statuses = append(a.Statuses, StatusBar{Status: strings.Replace(string(issue.Status), "_", " ", 1)})
		}
		a.Statuses[i].Count++
	}

	a.Last7Days = lastSevenDays(issues, now)
	a.TopVoted = topVoted(issues, 5)
	return a
}

// lastSevenDays buckets creation dates into the seven calendar days ending today, oldest first.
func lastSevenDays(issues []models.Issue, now time.Time) []DailyCount {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]DailyCount, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		key := today.AddDate(0, 0, i-6).Format(time.DateOnly)
		days[i] = DailyCount{Date: key}
		index[key] = i
	}
	for _, issue := range issues {
		if i, ok := index[issue.CreatedDate.UTC().Format(time.DateOnly)]; ok {
			days[i].Count++
		}
	}
	return days
}

func topVoted(issues []models.Issue, n int) []TopIssue {
	sorted := make([]models.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Upvotes > sorted[j].Upvotes
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]TopIssue, 0, len(sorted))
	for _, issue := range sorted {
		out = append(out, TopIssue{
			ID:       issue.ID.Hex(),
			Title:    issue.Title,
			Category: issue.Category,
			Upvotes:  issue.Upvotes,
		})
	}
	return out
}

type AnalyticsService struct {
	issues gateway.IssueGateway
	now    func() time.Time
}

func NewAnalyticsService(issues gateway.IssueGateway) *AnalyticsService {
	return &AnalyticsService{issues: issues, now: time.Now}
}

func (s *AnalyticsService) Load(ctx context.Context) (*Analytics, error) {
	issues, err := s.issues.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	a := ComputeAnalytics(issues, s.now())
	return &a, nil
}
