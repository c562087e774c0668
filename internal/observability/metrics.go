package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stride",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	reconcileCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stride",
		Subsystem: "reconciler",
		Name:      "runs_total",
		Help:      "Number of profile aggregate reconciliations, labeled by mutation.",
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, reconcileCounter)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordReconcile counts a completed aggregate reconciliation.
func RecordReconcile(operation string) {
	reconcileCounter.WithLabelValues(operation).Inc()
}
