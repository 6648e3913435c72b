package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReportCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetpulse_report_calls_total",
		Help: "Total reporting operations by name",
	}, []string{"op"})
	ReportDegraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetpulse_report_degraded_total",
		Help: "Reporting operations that fell back to defaults after a store failure",
	}, []string{"op"})
	StoreQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tweetpulse_store_query_duration_seconds",
		Help:    "Event store query duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "query"})
	RefreshRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetpulse_refresh_runs_total",
		Help: "Total report refresh runs",
	})
	RefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tweetpulse_refresh_duration_seconds",
		Help:    "Report refresh duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetpulse_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetpulse_command_errors_total",
		Help: "Total CLI command errors",
	}, []string{"command"})
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetpulse_api_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(ReportCalls, ReportDegraded, StoreQueryDuration,
		RefreshRuns, RefreshDuration, CommandRuns, CommandErrors, APIRequests)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveStoreQuery records a query duration; use with defer.
func ObserveStoreQuery(backend, query string, start time.Time) {
	StoreQueryDuration.WithLabelValues(backend, query).Observe(time.Since(start).Seconds())
}

// ObserveRefreshDuration records a refresh run duration.
func ObserveRefreshDuration(start time.Time) {
	RefreshDuration.Observe(time.Since(start).Seconds())
}

func IncReportCall(op string)     { ReportCalls.WithLabelValues(op).Inc() }
func IncReportDegraded(op string) { ReportDegraded.WithLabelValues(op).Inc() }
func IncCommandRun(cmd string)    { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string)  { CommandErrors.WithLabelValues(cmd).Inc() }
