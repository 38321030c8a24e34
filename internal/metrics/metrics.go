// Package metrics exposes Prometheus counters and gauges for the
// event-scheduling core, adapted from the global package-level metrics
// variable pattern and init-time MustRegister idiom.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starshipevents_events_published_total",
			Help: "Total number of events published to the queue, by category",
		},
		[]string{"category"},
	)

	EventsClaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starshipevents_events_claimed_total",
			Help: "Total number of events claimed, by actor",
		},
		[]string{"actor_id"},
	)

	EventsDoneTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starshipevents_events_done_total",
			Help: "Total number of events marked done, by category",
		},
		[]string{"category"},
	)

	PreemptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starshipevents_preemptions_total",
			Help: "Total number of active events suspended due to preemption",
		},
	)

	ClaimTTLSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starshipevents_claim_ttl_sweeps_total",
			Help: "Total number of claim-TTL sweep passes performed",
		},
	)

	ClaimsReclaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starshipevents_claims_reclaimed_total",
			Help: "Total number of claims reclaimed by a claim-TTL sweep",
		},
	)

	LiveEventsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "starshipevents_live_events",
			Help: "Current number of live (non-terminal) events in the queue",
		},
	)

	CapacityRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starshipevents_capacity_rejections_total",
			Help: "Total number of publishes rejected due to queue capacity",
		},
	)
)

func init() {
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(EventsClaimedTotal)
	prometheus.MustRegister(EventsDoneTotal)
	prometheus.MustRegister(PreemptionsTotal)
	prometheus.MustRegister(ClaimTTLSweepsTotal)
	prometheus.MustRegister(ClaimsReclaimedTotal)
	prometheus.MustRegister(LiveEventsGauge)
	prometheus.MustRegister(CapacityRejectionsTotal)
}

// Handler returns the Prometheus scrape handler for the CLI harness to serve
// if it chooses to expose metrics over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
