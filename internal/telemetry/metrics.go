package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsEnqueued    = prometheus.NewCounter(prometheus.CounterOpts{Name: "tiktok_jobs_enqueued_total", Help: "Publish jobs added to the queue"})
	PublishSuccess  = prometheus.NewCounter(prometheus.CounterOpts{Name: "tiktok_publish_success_total", Help: "Jobs published successfully"})
	PublishRetries  = prometheus.NewCounter(prometheus.CounterOpts{Name: "tiktok_publish_retries_total", Help: "Failed attempts returned to pending"})
	PublishFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "tiktok_publish_failures_total", Help: "Jobs that exhausted their attempts"})
	TokenRefreshes  = prometheus.NewCounter(prometheus.CounterOpts{Name: "tiktok_token_refreshes_total", Help: "OAuth token refreshes performed"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsEnqueued,
			PublishSuccess,
			PublishRetries,
			PublishFailures,
			TokenRefreshes,
		)
	})
	return promhttp.Handler()
}
