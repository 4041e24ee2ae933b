package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetzy_sync_events_total",
		Help: "Transport events processed, by event name.",
	}, []string{"event"})

	DedupDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetzy_sync_dedup_dropped_total",
		Help: "Messages dropped by the dedup guard.",
	})

	Reconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetzy_sync_optimistic_reconciled_total",
		Help: "Optimistic messages replaced by their server confirmation.",
	})

	UnresolvedKeys = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetzy_sync_unresolved_keys_total",
		Help: "Events dropped because no conversation key could be resolved.",
	})

	IndexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetzy_sync_conversations",
		Help: "Conversations currently tracked in the index.",
	})

	AcksEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetzy_sync_acks_total",
		Help: "Outbound acknowledgement events emitted, by event name.",
	}, []string{"event"})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
