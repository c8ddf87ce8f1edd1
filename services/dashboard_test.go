package services_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"civicportal-be/gateway"
	"civicportal-be/models"
	"civicportal-be/services"
)

var _ = Describe("IssueFilter", func() {
	issues := []models.Issue{
		{Title: "Leak", Status: models.Pending, Category: models.Utilities, Priority: models.High, Location: "Ward 3"},
		{Title: "Pothole", Status: models.Resolved, Category: models.Infrastructure, Priority: models.High, Location: "Ward 1"},
		{Title: "Smog", Status: models.Pending, Category: models.Environment, Priority: models.Low, Location: "Ward 3"},
	}

	It("treats empty and all as wildcards", func() {
		Expect(services.IssueFilter{}.Apply(issues)).To(HaveLen(3))
		Expect(services.IssueFilter{Status: "all", Category: "all", Priority: "all"}.Apply(issues)).To(HaveLen(3))
	})

	It("ANDs every dimension", func() {
		got := services.IssueFilter{Status: "pending", Priority: "high"}.Apply(issues)
		Expect(got).To(HaveLen(1))
		Expect(got[0].Title).To(Equal("Leak"))

		got = services.IssueFilter{Status: "pending", Search: "ward 3", Category: "environment"}.Apply(issues)
		Expect(got).To(HaveLen(1))
		Expect(got[0].Title).To(Equal("Smog"))
	})
})

var _ = Describe("ComputeStats", func() {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	It("reports a rate of 0 for an empty collection", func() {
		stats := services.ComputeStats(nil, now)
		Expect(stats.Total).To(BeZero())
		Expect(stats.ResolutionRate).To(Equal("0"))
		Expect(stats.Departments).To(BeEmpty())
	})

	It("formats the resolution rate to one decimal", func() {
		issues := []models.Issue{
			{Status: models.Resolved, CreatedDate: daysAgo(1)},
			{Status: models.Resolved, CreatedDate: daysAgo(1)},
			{Status: models.Pending, CreatedDate: daysAgo(1)},
		}
		Expect(services.ComputeStats(issues, now).ResolutionRate).To(Equal("66.7"))
	})

	DescribeTable("rounds the resolution rate half up",
		func(resolved, total int, want string) {
			Expect(services.ResolutionRate(resolved, total)).To(Equal(want))
		},
		Entry("two of three", 2, 3, "66.7"),
		Entry("one of sixteen", 1, 16, "6.3"),
		Entry("three of sixteen", 3, 16, "18.8"),
		Entry("all resolved", 4, 4, "100.0"),
		Entry("none resolved", 0, 5, "0.0"),
	)

	It("rounds half up in the dashboard stats", func() {
		issues := []models.Issue{{Status: models.Resolved, CreatedDate: daysAgo(1)}}
		for i := 0; i < 15; i++ {
			issues = append(issues, models.Issue{Status: models.Pending, CreatedDate: daysAgo(1)})
		}
		Expect(services.ComputeStats(issues, now).ResolutionRate).To(Equal("6.3"))
		Expect(services.ComputeAnalytics(issues, now).ResolutionRate).To(Equal("6.3"))
	})

	It("derives counts, recency and department breakdown", func() {
		recentUpdate := daysAgo(2)
		issues := []models.Issue{
			{Status: models.Resolved, Category: models.Safety, Priority: models.Critical, Department: "Police", Upvotes: 3, CreatedDate: daysAgo(30), UpdatedDate: &recentUpdate},
			{Status: models.InProgress, Category: models.Safety, Priority: models.High, Department: "Police", Upvotes: 2, CreatedDate: daysAgo(3)},
			{Status: models.Pending, Category: models.Environment, Priority: models.Low, Upvotes: 1, CreatedDate: daysAgo(10)},
			{Status: models.Resolved, Category: models.Utilities, Priority: models.High, Department: "Water", CreatedDate: daysAgo(20)},
		}

		stats := services.ComputeStats(issues, now)
		Expect(stats.Total).To(Equal(4))
		Expect(stats.ByStatus[models.Resolved]).To(Equal(2))
		Expect(stats.ByStatus[models.Closed]).To(BeZero())
		Expect(stats.ByCategory[models.Safety]).To(Equal(2))
		Expect(stats.Critical).To(Equal(1))
		Expect(stats.High).To(Equal(2))
		Expect(stats.TotalUpvotes).To(Equal(6))
		Expect(stats.ResolutionRate).To(Equal("50.0"))
		Expect(stats.Recent).To(Equal(1))
		Expect(stats.ResolvedRecent).To(Equal(1))
		Expect(stats.ByDepartment).To(Equal(map[string]int{"Police": 2, services.UnassignedDepartment: 1, "Water": 1}))

		Expect(stats.Departments[0]).To(Equal(services.DepartmentStats{Department: "Police", Total: 2, Resolved: 1, InProgress: 1}))
		Expect(stats.Departments[1].Department).To(Equal(services.UnassignedDepartment))
		Expect(stats.Departments[1].Pending).To(Equal(1))

		Expect(stats.TopCategories[0].Category).To(Equal(models.Safety))
		Expect(stats.TopCategories[0].Count).To(Equal(2))
	})

	It("keeps only the five largest categories", func() {
		var issues []models.Issue
		for i, c := range models.Categories {
			for n := 0; n <= i; n++ {
				issues = append(issues, models.Issue{Category: c, CreatedDate: now})
			}
		}
		top := services.ComputeStats(issues, now).TopCategories
		Expect(top).To(HaveLen(5))
		Expect(top[0].Category).To(Equal(models.Other))
		Expect(top[4].Category).To(Equal(models.Utilities))
	})
})

var _ = Describe("DashboardService", func() {
	var (
		ctx context.Context
		mem *gateway.Memory
		svc *services.DashboardService
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = gateway.NewMemory()
		svc = services.NewDashboardService(mem.Gateway())
	})

	It("filters the table but computes stats over everything", func() {
		mem.PutIssue(models.Issue{Title: "a", Status: models.Resolved})
		mem.PutIssue(models.Issue{Title: "b", Status: models.Pending})

		view, err := svc.Load(ctx, services.IssueFilter{Status: "pending"})
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Issues).To(HaveLen(1))
		Expect(view.Stats.Total).To(Equal(2))
		Expect(view.Stats.ResolutionRate).To(Equal("50.0"))
	})

	It("triages and returns the reloaded issue with the update applied", func() {
		issue := mem.PutIssue(models.Issue{Title: "Leak", Status: models.Pending, Upvotes: 7})
		status := models.InProgress
		dept := "Water Board"

		got, err := svc.Triage(ctx, issue.ID.Hex(), services.TriageRequest{Status: &status, Department: &dept})
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(models.InProgress))
		Expect(got.Department).To(Equal("Water Board"))
		Expect(got.Upvotes).To(Equal(7))
		Expect(got.UpdatedDate).NotTo(BeNil())
	})

	It("reports triage of unknown issues", func() {
		status := models.Closed
		_, err := svc.Triage(ctx, "65f0c0ffee0000000000beef", services.TriageRequest{Status: &status})
		Expect(err).To(MatchError(gateway.ErrNotFound))
	})

	It("loads an issue with its comment thread", func() {
		issue := mem.PutIssue(models.Issue{Title: "Leak"})
		_, err := mem.Gateway().Comments.Create(ctx, models.CommentPayload{IssueID: issue.ID, Content: "seen it"})
		Expect(err).NotTo(HaveOccurred())

		detail, err := svc.Detail(ctx, issue.ID.Hex())
		Expect(err).NotTo(HaveOccurred())
		Expect(detail.Issue.Title).To(Equal("Leak"))
		Expect(detail.Comments).To(HaveLen(1))
	})
})
