package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	providerCallCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridecrew",
		Subsystem: "providers",
		Name:      "calls_total",
		Help:      "Outbound OAuth provider calls, labeled by provider, operation and outcome.",
	}, []string{"provider", "op", "outcome"})

	providerCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ridecrew",
		Subsystem: "providers",
		Name:      "call_duration_seconds",
		Help:      "Latency of outbound OAuth provider calls.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
	}, []string{"provider", "op"})

	importedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ridecrew",
		Subsystem: "sync",
		Name:      "activities_imported_total",
		Help:      "Rides created by activity sync.",
	})

	syncFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ridecrew",
		Subsystem: "sync",
		Name:      "failures_total",
		Help:      "Activity syncs that failed before reporting a count.",
	})

	tokenRefreshCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridecrew",
		Subsystem: "scheduler",
		Name:      "token_refreshes_total",
		Help:      "Scheduled fitness provider token refreshes, labeled by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(providerCallCounter, providerCallDuration, importedCounter, syncFailedCounter, tokenRefreshCounter)
}

// RecordProviderCall counts one outbound call and observes its latency.
func RecordProviderCall(provider, op string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCallCounter.WithLabelValues(provider, op, outcome).Inc()
	providerCallDuration.WithLabelValues(provider, op).Observe(time.Since(started).Seconds())
}

func RecordImported(n int) {
	importedCounter.Add(float64(n))
}

func RecordSyncFailure() {
	syncFailedCounter.Inc()
}

func RecordTokenRefresh(err error) {
	if err != nil {
		tokenRefreshCounter.WithLabelValues("error").Inc()
		return
	}
	tokenRefreshCounter.WithLabelValues("ok").Inc()
}
