package observability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	generationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlpilot_generations_total",
			Help: "Total number of SQL generation calls to the model.",
		},
	)
	revisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlpilot_revisions_total",
			Help: "Total number of correction rounds after a rejected statement.",
		},
	)
	queriesExecutedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlpilot_queries_executed_total",
			Help: "Total number of statements executed successfully.",
		},
	)
	queryErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlpilot_query_errors_total",
			Help: "Total number of statements rejected by the database.",
		},
	)
	generationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlpilot_generation_duration_seconds",
			Help:    "Latency of SQL generation calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationsTotal,
		revisionsTotal,
		queriesExecutedTotal,
		queryErrorsTotal,
		generationDurationSeconds,
	)
}

func ObserveGeneration(elapsed time.Duration) {
	generationsTotal.Inc()
	generationDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveExecution(elapsed time.Duration, rejected bool) {
	if rejected {
		queryErrorsTotal.Inc()
		revisionsTotal.Inc()
		return
	}
	queriesExecutedTotal.Inc()
}

// ServeMetrics exposes the prometheus registry on addr in the background.
func ServeMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener stopped", slog.Any("error", err))
		}
	}()
}
