package gateway_test

import (
	"context"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicportal-be/gateway"
	"civicportal-be/models"
)

var _ = Describe("Memory gateway", func() {
	var (
		ctx   context.Context
		mem   *gateway.Memory
		gw    *gateway.Gateway
		clock time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		mem = gateway.NewMemory()
		mem.SetClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		})
		gw = mem.Gateway()
	})

	create := func(title string) *models.Issue {
		issue, err := gw.Issues.Create(ctx, models.IssuePayload{
			Title:    title,
			Category: models.Infrastructure,
			Location: "Main St",
		})
		Expect(err).NotTo(HaveOccurred())
		return issue
	}

	Describe("Issues", func() {
		It("defaults status and priority on create", func() {
			issue := create("Broken pipe")
			Expect(issue.ID.IsZero()).To(BeFalse())
			Expect(issue.Status).To(Equal(models.Pending))
			Expect(issue.Priority).To(Equal(models.Medium))
			Expect(issue.UpdatedDate).To(BeNil())
		})

		It("lists newest first with the default sort", func() {
			create("first")
			create("second")
			create("third")

			issues, err := gw.Issues.List(ctx, gateway.DefaultSort)
			Expect(err).NotTo(HaveOccurred())
			titles := []string{}
			for _, i := range issues {
				titles = append(titles, i.Title)
			}
			Expect(titles).To(Equal([]string{"third", "second", "first"}))
		})

		It("sorts ascending without a leading dash", func() {
			a := create("a")
			b := create("b")
			up := 5
			_, err := gw.Issues.Update(ctx, a.ID.Hex(), models.IssuePatch{Upvotes: &up})
			Expect(err).NotTo(HaveOccurred())

			issues, err := gw.Issues.List(ctx, "upvotes")
			Expect(err).NotTo(HaveOccurred())
			Expect(issues[0].ID).To(Equal(b.ID))
			Expect(issues[1].ID).To(Equal(a.ID))
		})

		It("filters on exact field values", func() {
			create("one")
			other := create("two")
			resolved := models.Resolved
			_, err := gw.Issues.Update(ctx, other.ID.Hex(), models.IssuePatch{Status: &resolved})
			Expect(err).NotTo(HaveOccurred())

			issues, err := gw.Issues.Filter(ctx, gateway.Predicate{"status": "resolved"}, gateway.DefaultSort)
			Expect(err).NotTo(HaveOccurred())
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Title).To(Equal("two"))
		})

		It("merges patches and stamps updated_date", func() {
			issue := create("Leaking hydrant")
			dept := "Water Board"
			updated, err := gw.Issues.Update(ctx, issue.ID.Hex(), models.IssuePatch{Department: &dept})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Department).To(Equal(dept))
			Expect(updated.Title).To(Equal("Leaking hydrant"))
			Expect(updated.Status).To(Equal(models.Pending))
			Expect(updated.UpdatedDate).NotTo(BeNil())
			Expect(updated.CreatedDate).To(Equal(issue.CreatedDate))
		})

		It("returns sentinels for bad and unknown ids", func() {
			_, err := gw.Issues.Get(ctx, "not-an-id")
			Expect(err).To(MatchError(gateway.ErrInvalidID))

			_, err = gw.Issues.Get(ctx, primitive.NewObjectID().Hex())
			Expect(err).To(MatchError(gateway.ErrNotFound))

			n := 1
			_, err = gw.Issues.Update(ctx, primitive.NewObjectID().Hex(), models.IssuePatch{Upvotes: &n})
			Expect(err).To(MatchError(gateway.ErrNotFound))
		})

		It("hands out copies", func() {
			issue := create("copy me")
			got, err := gw.Issues.Get(ctx, issue.ID.Hex())
			Expect(err).NotTo(HaveOccurred())
			got.Title = "mutated"

			again, err := gw.Issues.Get(ctx, issue.ID.Hex())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Title).To(Equal("copy me"))
		})
	})

	Describe("Comments", func() {
		It("filters a thread by issue id, newest first", func() {
			issue := create("noisy")
			other := create("quiet")
			for _, text := range []string{"first", "second"} {
				_, err := gw.Comments.Create(ctx, models.CommentPayload{IssueID: issue.ID, Content: text, UserName: "Asha"})
				Expect(err).NotTo(HaveOccurred())
			}
			_, err := gw.Comments.Create(ctx, models.CommentPayload{IssueID: other.ID, Content: "elsewhere"})
			Expect(err).NotTo(HaveOccurred())

			thread, err := gw.Comments.Filter(ctx, gateway.Predicate{"issue_id": issue.ID.Hex()}, gateway.DefaultSort)
			Expect(err).NotTo(HaveOccurred())
			Expect(thread).To(HaveLen(2))
			Expect(thread[0].Content).To(Equal("second"))
		})

		It("refuses comments on unknown issues", func() {
			_, err := gw.Comments.Create(ctx, models.CommentPayload{IssueID: primitive.NewObjectID(), Content: "hi"})
			Expect(err).To(MatchError(gateway.ErrNotFound))
		})
	})

	Describe("Users", func() {
		It("registers citizens with hashed passwords and authenticates them", func() {
			user, err := gw.Users.Register(ctx, "Asha Rao", " Asha@Example.com ", "hunter22")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("asha@example.com"))
			Expect(user.Role).To(Equal(models.RoleCitizen))
			Expect(user.Password).NotTo(Equal("hunter22"))

			got, err := gw.Users.Authenticate(ctx, "ASHA@example.com", "hunter22")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))

			_, err = gw.Users.Authenticate(ctx, "asha@example.com", "nope")
			Expect(err).To(MatchError(gateway.ErrInvalidCredentials))
		})

		It("rejects duplicate emails", func() {
			_, err := gw.Users.Register(ctx, "A", "a@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())
			_, err = gw.Users.Register(ctx, "B", "A@example.com", "secret2")
			Expect(err).To(MatchError(gateway.ErrEmailTaken))
		})

		It("answers Me with ErrUnauthenticated when there is no session", func() {
			_, err := gw.Users.Me(ctx, "")
			Expect(err).To(MatchError(gateway.ErrUnauthenticated))
			_, err = gw.Users.Me(ctx, primitive.NewObjectID().Hex())
			Expect(err).To(MatchError(gateway.ErrUnauthenticated))

			stored := mem.PutUser(models.User{FullName: "Admin", Email: "admin@example.com", Role: models.RoleAdmin})
			me, err := gw.Users.Me(ctx, stored.ID.Hex())
			Expect(err).NotTo(HaveOccurred())
			Expect(me.IsAdmin()).To(BeTrue())
		})
	})
})

var _ = Describe("ParseSort", func() {
	DescribeTable("parses sort strings",
		func(in, field string, desc bool) {
			order := gateway.ParseSort(in)
			Expect(order.Field).To(Equal(field))
			Expect(order.Desc).To(Equal(desc))
		},
		Entry("descending", "-created_date", "created_date", true),
		Entry("ascending", "upvotes", "upvotes", false),
		Entry("explicit plus", "+title", "title", false),
		Entry("empty falls back to newest first", "", "created_date", true),
	)
})

var _ = Describe("MemoryUploader", func() {
	It("stores bytes and serves them back under the public prefix", func() {
		up := gateway.NewMemoryUploader("/api/files/")
		url, err := up.Upload(context.Background(), "photo.png", "image/png", strings.NewReader("png-bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix("/api/files/"))

		file, err := up.Open(context.Background(), strings.TrimPrefix(url, "/api/files/"))
		Expect(err).NotTo(HaveOccurred())
		Expect(file.ContentType).To(Equal("image/png"))
		Expect(file.Size).To(Equal(int64(len("png-bytes"))))

		_, err = up.Open(context.Background(), "missing")
		Expect(err).To(MatchError(gateway.ErrNotFound))
	})
})
