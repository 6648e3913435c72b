package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/config"
	"tweetpulse/internal/report"
)

// Parameter bounds.
const (
	MaxWindowDays       = 366
	MaxLeaderboardLimit = 100
)

// ReportHandler serves report sections. Store failures still answer 200
// with "degraded": true so dashboards keep rendering.
type ReportHandler struct {
	reporter *report.Reporter
	defaults config.ReportConfig
}

func NewReportHandler(r *report.Reporter, defaults config.ReportConfig) *ReportHandler {
	return &ReportHandler{reporter: r, defaults: defaults}
}

// intQuery reads an optional integer query parameter within [1, hi].
func intQuery(c *gin.Context, name string, def, hi int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > hi {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer between 1 and " + strconv.Itoa(hi)})
		return 0, false
	}
	return n, true
}

func (h *ReportHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	total := h.reporter.TotalEngagements(ctx)
	successful := h.reporter.SuccessfulEngagements(ctx)
	ratio := h.reporter.SuccessRatio(ctx)
	c.JSON(http.StatusOK, gin.H{
		"total":         total,
		"successful":    successful,
		"success_ratio": ratio,
		"degraded":      total.Degraded || successful.Degraded || ratio.Degraded,
	})
}

func (h *ReportHandler) TimeSeries(c *gin.Context) {
	days, ok := intQuery(c, "days", h.defaults.WindowDays, MaxWindowDays)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.reporter.EngagementTimeSeries(c.Request.Context(), days))
}

func (h *ReportHandler) Leaderboard(c *gin.Context) {
	dim, err := analytics.ParseDimension(c.Param("dimension"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, ok := intQuery(c, "limit", h.defaults.LeaderboardLimit, MaxLeaderboardLimit)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.reporter.Leaderboard(c.Request.Context(), dim, limit))
}

func (h *ReportHandler) Comparison(c *gin.Context) {
	o := h.reporter.RunComparison(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"value":    o.Value,
		"deltas":   o.Value.Deltas(),
		"degraded": o.Degraded,
		"error":    o.Reason(),
	})
}

func (h *ReportHandler) Snapshot(c *gin.Context) {
	s := h.reporter.Snapshot(c.Request.Context(), report.SnapshotOptions{
		WindowDays:       h.defaults.WindowDays,
		LeaderboardLimit: h.defaults.LeaderboardLimit,
	})
	c.JSON(http.StatusOK, gin.H{"snapshot": s, "degraded": s.Degraded()})
}
