// Package httpapi serves reports as JSON over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"tweetpulse/internal/config"
	"tweetpulse/internal/metrics"
	"tweetpulse/internal/report"
)

// NewRouter wires middleware and routes. /health and /metrics bypass the
// rate limiter.
func NewRouter(r *report.Reporter, cfg config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Logger())
	router.Use(Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := NewReportHandler(r, cfg.Report)
	v1 := router.Group("/api/v1", RateLimit(newLimiter(cfg.Server)))
	{
		v1.GET("/summary", h.Summary)
		v1.GET("/timeseries", h.TimeSeries)
		v1.GET("/leaderboard/:dimension", h.Leaderboard)
		v1.GET("/comparison", h.Comparison)
		v1.GET("/snapshot", h.Snapshot)
	}
	return router
}

// Serve runs the API on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "api listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "api server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "api shutdown")
	}
	slog.InfoContext(shutdownCtx, "api stopped")
	return nil
}
