package httpapi

import (
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"tweetpulse/internal/config"
)

// newLimiter builds the API token bucket from config, with env overrides if present.
func newLimiter(cfg config.ServerConfig) *rate.Limiter {
	rps := cfg.RPS
	burst := cfg.Burst
	if v := os.Getenv("REPORT_API_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	if v := os.Getenv("REPORT_API_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}
