package metrics

import "github.com/prometheus/client_golang/prometheus"

// Discovery and outreach Prometheus metrics.
var (
	DiscoveryCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "discovery_candidates_total",
			Help:      "Places candidates by qualification outcome",
		},
		[]string{"outcome"},
	)

	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgen",
			Name:      "transfers_total",
			Help:      "Outreach contact transfers by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(DiscoveryCandidatesTotal, TransfersTotal)
}
