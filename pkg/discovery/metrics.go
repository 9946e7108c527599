package discovery

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// discoveryRuns counts finished runs.
	// Labels: status (ok, cancelled, error)
	discoveryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procmine",
		Subsystem: "discovery",
		Name:      "runs_total",
		Help:      "Discovery runs by outcome",
	}, []string{"status"})

	// discoveryDuration measures whole runs.
	discoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "procmine",
		Subsystem: "discovery",
		Name:      "duration_seconds",
		Help:      "Discovery run duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// cutsChosen counts cuts applied by operator.
	cutsChosen = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procmine",
		Subsystem: "discovery",
		Name:      "cuts_total",
		Help:      "Cuts applied, by operator",
	}, []string{"operator"})

	// strategyHits counts base cases and fall-throughs that produced a node.
	// Labels: family (base-case, fall-through), name
	strategyHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procmine",
		Subsystem: "discovery",
		Name:      "strategy_hits_total",
		Help:      "Base cases and fall-throughs that decided a log",
	}, []string{"family", "name"})

	// discardedEvents counts events dropped as noise.
	discardedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procmine",
		Subsystem: "discovery",
		Name:      "discarded_events_total",
		Help:      "Events discarded while splitting, by threshold",
	}, []string{"threshold"})

	// thresholdSelections counts which threshold the policy picked.
	thresholdSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procmine",
		Subsystem: "discovery",
		Name:      "threshold_selections_total",
		Help:      "Candidates chosen by the selection policy",
	}, []string{"policy", "threshold"})
)

func thresholdLabel(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
