package services_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"civicportal-be/models"
	"civicportal-be/services"
)

var _ = Describe("RedisDraftStore", func() {
	var (
		ctx    context.Context
		mr     *miniredis.Miniredis
		client *redis.Client
		store  *services.RedisDraftStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store = services.NewRedisDraftStore(client, time.Hour)
	})

	AfterEach(func() {
		client.Close()
		mr.Close()
	})

	It("round-trips a draft under the wizard key with a TTL", func() {
		draft := &services.Draft{
			ID:   "d-1",
			Step: 2,
			Form: services.IssueForm{Title: "Pothole", Category: models.Infrastructure, Priority: models.Medium},
		}
		Expect(store.Save(ctx, draft)).To(Succeed())

		Expect(mr.Exists("wizard:draft:d-1")).To(BeTrue())
		Expect(mr.TTL("wizard:draft:d-1")).To(Equal(time.Hour))

		got, err := store.Get(ctx, "d-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Step).To(Equal(2))
		Expect(got.Form.Title).To(Equal("Pothole"))
	})

	It("forgets drafts once they expire", func() {
		Expect(store.Save(ctx, &services.Draft{ID: "d-2", Step: 1})).To(Succeed())
		mr.FastForward(2 * time.Hour)

		_, err := store.Get(ctx, "d-2")
		Expect(err).To(MatchError(services.ErrDraftNotFound))
	})

	It("grants the submission claim once until released", func() {
		ok, err := store.Claim(ctx, "d-3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = store.Claim(ctx, "d-3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(store.Release(ctx, "d-3")).To(Succeed())
		ok, err = store.Claim(ctx, "d-3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("surfaces connection failures", func() {
		mr.Close()
		_, err := store.Get(ctx, "d-4")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(services.ErrDraftNotFound))
	})
})

var _ = Describe("MemoryDraftStore", func() {
	It("returns copies so callers cannot mutate stored drafts", func() {
		ctx := context.Background()
		store := services.NewMemoryDraftStore()
		Expect(store.Save(ctx, &services.Draft{ID: "m-1", Step: 1})).To(Succeed())

		got, err := store.Get(ctx, "m-1")
		Expect(err).NotTo(HaveOccurred())
		got.Step = 3

		again, err := store.Get(ctx, "m-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Step).To(Equal(1))
	})
})
