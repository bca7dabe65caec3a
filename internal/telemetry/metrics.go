package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsCreated      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_jobs_created_total", Help: "Generation jobs created"}, []string{"kind"})
	JobsCompleted    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_jobs_completed_total", Help: "Generation jobs completed"}, []string{"kind"})
	JobsFailed       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_jobs_failed_total", Help: "Generation jobs failed"}, []string{"kind"})
	PollAttempts     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_poll_attempts_total", Help: "Remote operation polls issued"}, []string{"kind"})
	PollerArmed      = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "studio_poller_armed", Help: "1 while the poll timer of a kind is armed"}, []string{"kind"})
	ArchiveFailures  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_archive_failures_total", Help: "Best-effort history writes that failed"}, []string{"kind"})
	WebhookRelays    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_webhook_relays_total", Help: "Webhook relay calls by outcome"}, []string{"outcome"})
	ProviderCalls    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_provider_calls_total", Help: "Synchronous text generation calls by operation and outcome"}, []string{"operation", "outcome"})
	ExportsWritten   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "studio_exports_total", Help: "History exports by target"}, []string{"target"})
	RateLimitRejects = prometheus.NewCounter(prometheus.CounterOpts{Name: "studio_rate_limit_rejects_total", Help: "Requests rejected by rate limiter"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsCreated,
			JobsCompleted,
			JobsFailed,
			PollAttempts,
			PollerArmed,
			ArchiveFailures,
			WebhookRelays,
			ProviderCalls,
			ExportsWritten,
			RateLimitRejects,
		)
	})
	return promhttp.Handler()
}
