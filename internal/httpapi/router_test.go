package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/config"
	"tweetpulse/internal/httpapi"
	"tweetpulse/internal/model"
	"tweetpulse/internal/report"
	"tweetpulse/internal/store"
)

var _ = Describe("Router", func() {
	var (
		router *gin.Engine
		mem    *store.Memory
		cfg    config.Config
	)
	now := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

	build := func() {
		e := analytics.New(mem, analytics.WithClock(func() time.Time { return now }))
		router = httpapi.NewRouter(report.New(e), cfg)
	}

	get := func(path string) (*httptest.ResponseRecorder, map[string]any) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		if w.Header().Get("Content-Type") != "" && w.Code != http.StatusNotFound {
			_ = json.Unmarshal(w.Body.Bytes(), &body)
		}
		return w, body
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		cfg = config.Default()
		cfg.Server.RPS = 1000
		cfg.Server.Burst = 1000
		mem = store.NewMemory(
			model.Document{"action": "like", "result": "Success", "username": "@alice", "name": "Ann", "date": now},
			model.Document{"action": "retweet", "result": "Failed", "rerun": "Success", "username": "@alice", "name": "Ben", "date": now.AddDate(0, 0, -2)},
			model.Document{"action": "comment", "result": "Failed", "username": "bob", "name": "Ann", "date": now},
			model.Document{"action": "like", "result": "success", "username": "@carol", "date_only": "2025-04-09"},
		)
		build()
	})

	It("answers /health", func() {
		w, body := get("/health")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("ok"))
	})

	It("exposes prometheus metrics", func() {
		get("/api/v1/summary")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("tweetpulse_api_requests_total"))
	})

	It("returns the summary", func() {
		w, body := get("/api/v1/summary")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["degraded"]).To(BeFalse())
		Expect(body["total"]).To(HaveKeyWithValue("value", BeNumerically("==", 4)))
		Expect(body["successful"]).To(HaveKeyWithValue("value", BeNumerically("==", 3)))
		Expect(body["success_ratio"]).To(HaveKeyWithValue("value", BeNumerically("==", 75)))
	})

	It("returns a gap-filled series of the requested size", func() {
		w, body := get("/api/v1/timeseries?days=3")
		Expect(w.Code).To(Equal(http.StatusOK))
		series := body["value"].([]any)
		Expect(series).To(HaveLen(3))
		Expect(series[0]).To(HaveKeyWithValue("count", BeNumerically("==", 1)))
		Expect(series[1]).To(HaveKeyWithValue("count", BeNumerically("==", 1)))
		Expect(series[2]).To(HaveKeyWithValue("count", BeNumerically("==", 2)))
	})

	DescribeTable("rejects bad parameters",
		func(path string) {
			w, body := get(path)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(body).To(HaveKey("error"))
		},
		Entry("non-numeric days", "/api/v1/timeseries?days=week"),
		Entry("zero days", "/api/v1/timeseries?days=0"),
		Entry("unknown dimension", "/api/v1/leaderboard/team"),
		Entry("oversized limit", "/api/v1/leaderboard/user?limit=1000"),
	)

	It("ranks celebrities with the handle prefix removed", func() {
		w, body := get("/api/v1/leaderboard/celebrity?limit=2")
		Expect(w.Code).To(Equal(http.StatusOK))
		entries := body["value"].([]any)
		Expect(entries).To(HaveLen(2))
		Expect(entries[0]).To(HaveKeyWithValue("actor", "alice"))
		Expect(entries[0]).To(HaveKeyWithValue("count", BeNumerically("==", 2)))
	})

	It("compares initial and rerun successes", func() {
		w, body := get("/api/v1/comparison")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["value"]).To(HaveKeyWithValue("rerun", HaveKeyWithValue("retweets", BeNumerically("==", 1))))
		Expect(body["value"]).To(HaveKeyWithValue("initial", HaveKeyWithValue("retweets", BeNumerically("==", 0))))
		Expect(body["deltas"]).To(HaveKeyWithValue("likes", BeNumerically("==", 0)))
	})

	Context("when the store is unreachable", func() {
		BeforeEach(func() {
			mem.Err = errors.New("server selection timeout")
		})

		It("still answers 200 with degraded sections", func() {
			w, body := get("/api/v1/summary")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(body["degraded"]).To(BeTrue())
			Expect(body["total"]).To(HaveKeyWithValue("value", BeNumerically("==", 0)))
			Expect(body["total"]).To(HaveKeyWithValue("error", ContainSubstring("server selection timeout")))
		})

		It("returns an empty series", func() {
			_, body := get("/api/v1/timeseries")
			Expect(body["value"]).To(BeEmpty())
			Expect(body["degraded"]).To(BeTrue())
		})

		It("marks the snapshot degraded", func() {
			w, body := get("/api/v1/snapshot")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(body["degraded"]).To(BeTrue())
		})
	})

	Context("with a tight rate limit", func() {
		BeforeEach(func() {
			cfg.Server.RPS = 0.001
			cfg.Server.Burst = 1
			build()
		})

		It("rejects requests past the burst", func() {
			w, _ := get("/api/v1/summary")
			Expect(w.Code).To(Equal(http.StatusOK))
			w, _ = get("/api/v1/summary")
			Expect(w.Code).To(Equal(http.StatusTooManyRequests))
		})

		It("never limits /health", func() {
			for range 3 {
				w, _ := get("/health")
				Expect(w.Code).To(Equal(http.StatusOK))
			}
		})
	})
})
