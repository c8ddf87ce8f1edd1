package services_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicportal-be/gateway"
	"civicportal-be/models"
	"civicportal-be/services"
	"civicportal-be/utils"
)

var _ = Describe("SearchIssues", func() {
	issues := []models.Issue{
		{Title: "Broken streetlight", Location: "Park Street"},
		{Title: "Pothole", Description: "Near the STREET market", Location: "Sector 4"},
		{Title: "Open drain", Location: "Lake View"},
	}

	It("matches title, description or location ignoring case, in order", func() {
		got := services.SearchIssues(issues, "street")
		Expect(got).To(HaveLen(2))
		Expect(got[0].Title).To(Equal("Broken streetlight"))
		Expect(got[1].Title).To(Equal("Pothole"))
	})

	It("returns everything for an empty term", func() {
		Expect(services.SearchIssues(issues, "  ")).To(Equal(issues))
	})

	It("only returns issues containing the term", func() {
		for _, term := range []string{"lake", "sector", "zzz", "o"} {
			for _, issue := range services.SearchIssues(issues, term) {
				Expect(matchesAny(issue, term)).To(BeTrue(), "term %q", term)
			}
		}
	})
})

var _ = Describe("CommunityService", func() {
	var (
		ctx   context.Context
		mem   *gateway.Memory
		svc   *services.CommunityService
		clock time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		mem = gateway.NewMemory()
		mem.SetClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		})
		svc = services.NewCommunityService(mem.Gateway())
	})

	It("loads issues newest first with every comment", func() {
		old := mem.PutIssue(models.Issue{Title: "old", CreatedDate: clock.Add(-time.Hour)})
		mem.PutIssue(models.Issue{Title: "new", CreatedDate: clock})
		_, err := mem.Gateway().Comments.Create(ctx, models.CommentPayload{IssueID: old.ID, Content: "+1"})
		Expect(err).NotTo(HaveOccurred())

		view, err := svc.Load(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Total).To(Equal(2))
		Expect(view.Issues[0].Title).To(Equal("new"))
		Expect(view.Comments).To(HaveLen(1))
	})

	It("upvotes by one and answers with the reloaded list", func() {
		issue := mem.PutIssue(models.Issue{Title: "Pothole", Upvotes: 4})

		view, err := svc.Upvote(ctx, issue.ID.Hex(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Issues).To(HaveLen(1))
		Expect(view.Issues[0].Upvotes).To(Equal(5))
	})

	It("propagates gateway failures on upvote", func() {
		issues := &mockIssueGateway{
			getFn: func(context.Context, string) (*models.Issue, error) {
				return &models.Issue{Upvotes: 1}, nil
			},
			updateFn: func(context.Context, string, models.IssuePatch) (*models.Issue, error) {
				return nil, errors.New("boom")
			},
		}
		gw := mem.Gateway()
		gw.Issues = issues
		_, err := services.NewCommunityService(gw).Upvote(ctx, primitive.NewObjectID().Hex(), "")
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	Describe("AddComment", func() {
		It("posts under the session name and bumps the count", func() {
			issue := mem.PutIssue(models.Issue{Title: "Pothole", CommentsCount: 2})
			ctx = utils.WithUser(ctx, &models.User{FullName: "Asha Rao"})

			comment, err := svc.AddComment(ctx, issue.ID.Hex(), "  Still there today  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(comment.UserName).To(Equal("Asha Rao"))
			Expect(comment.Content).To(Equal("Still there today"))

			got, err := mem.Gateway().Issues.Get(ctx, issue.ID.Hex())
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CommentsCount).To(Equal(3))

			thread, err := svc.Comments(ctx, issue.ID.Hex())
			Expect(err).NotTo(HaveOccurred())
			Expect(thread).To(HaveLen(1))
		})

		It("falls back to the community name without a session", func() {
			issue := mem.PutIssue(models.Issue{Title: "Pothole"})
			comment, err := svc.AddComment(ctx, issue.ID.Hex(), "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(comment.UserName).To(Equal(models.DefaultCommenter))
		})

		It("rejects blank comments without touching the gateway", func() {
			issue := mem.PutIssue(models.Issue{Title: "Pothole"})
			_, err := svc.AddComment(ctx, issue.ID.Hex(), "   ")
			Expect(err).To(MatchError(services.ErrEmptyComment))

			thread, _ := svc.Comments(ctx, issue.ID.Hex())
			Expect(thread).To(BeEmpty())
		})

		It("rejects malformed issue ids", func() {
			_, err := svc.AddComment(ctx, "nope", "hello")
			Expect(err).To(MatchError(gateway.ErrInvalidID))
		})
	})
})

func matchesAny(issue models.Issue, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(issue.Title), term) ||
		strings.Contains(strings.ToLower(issue.Description), term) ||
		strings.Contains(strings.ToLower(issue.Location), term)
}
