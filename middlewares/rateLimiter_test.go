package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"civicportal-be/middlewares"
)

var _ = Describe("IssueRateLimiter", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		router *gin.Engine
	)

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/wizard", nil)
		req.RemoteAddr = ip + ":4242"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

		router = gin.New()
		router.POST("/wizard", middlewares.IssueRateLimiter(client, "issue_limit", 2, 24*time.Hour), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
	})

	AfterEach(func() {
		client.Close()
		mr.Close()
	})

	It("allows up to the limit, then answers 429 with retry_after", func() {
		Expect(post("10.0.0.1").Code).To(Equal(http.StatusCreated))
		Expect(post("10.0.0.1").Code).To(Equal(http.StatusCreated))

		w := post("10.0.0.1")
		Expect(w.Code).To(Equal(http.StatusTooManyRequests))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["retry_after"]).To(BeNumerically(">", 0))
		Expect(resp["notice"]).To(HaveKeyWithValue("kind", "rate_limit"))
	})

	It("counts callers separately and sets the window on first use", func() {
		Expect(post("10.0.0.1").Code).To(Equal(http.StatusCreated))
		Expect(post("10.0.0.2").Code).To(Equal(http.StatusCreated))
		Expect(mr.TTL("issue_limit:ip:10.0.0.1")).To(Equal(24 * time.Hour))
	})

	It("resets after the window", func() {
		post("10.0.0.1")
		post("10.0.0.1")
		Expect(post("10.0.0.1").Code).To(Equal(http.StatusTooManyRequests))

		mr.FastForward(25 * time.Hour)
		Expect(post("10.0.0.1").Code).To(Equal(http.StatusCreated))
	})

	It("fails closed when redis is unreachable", func() {
		mr.Close()
		Expect(post("10.0.0.1").Code).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("UpvoteLimiter", func() {
	It("throttles bursts per client IP", func() {
		router := gin.New()
		router.POST("/upvote", middlewares.NewUpvoteLimiter(2).Middleware(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		hit := func(ip string) int {
			req := httptest.NewRequest(http.MethodPost, "/upvote", nil)
			req.RemoteAddr = ip + ":1234"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}

		Expect(hit("10.0.0.1")).To(Equal(http.StatusOK))
		Expect(hit("10.0.0.1")).To(Equal(http.StatusOK))
		Expect(hit("10.0.0.1")).To(Equal(http.StatusTooManyRequests))
		Expect(hit("10.0.0.2")).To(Equal(http.StatusOK))
	})
})
