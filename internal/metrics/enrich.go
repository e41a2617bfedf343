// Package metrics exposes Prometheus collectors for enrichment runs and the HTTP API.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Enrichment Prometheus metrics.
var (
	EnrichRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "enrich_runs_total",
			Help:      "Discover-and-enrich runs by winning strategy",
		},
		[]string{"strategy"},
	)

	EnrichRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadgen",
			Name:      "enrich_run_duration_seconds",
			Help:      "Discover-and-enrich run duration in seconds",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"strategy"},
	)

	ContactsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leadgen",
			Name:      "contacts_returned",
			Help:      "Contacts returned per run after filtering",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	CreditsSpentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "credits_spent_total",
			Help:      "Provider credits consumed",
		},
	)

	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "provider_calls_total",
			Help:      "Successful provider calls by tier",
		},
		[]string{"tier"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "cache_lookups_total",
			Help:      "Contact cache lookups by result",
		},
		[]string{"result"},
	)

	EnrichFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "enrich_failures_total",
			Help:      "Stubs whose person-detail calls failed",
		},
	)

	TruncatedRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "truncated_runs_total",
			Help:      "Runs whose stub list exceeded the enrichment cap",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EnrichRunsTotal,
		EnrichRunDuration,
		ContactsReturned,
		CreditsSpentTotal,
		ProviderCallsTotal,
		CacheLookupsTotal,
		EnrichFailuresTotal,
		TruncatedRunsTotal,
	)
}
