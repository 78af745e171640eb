package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the trust layer.
type Metrics struct {
	AuthFallbackTotal        prometheus.Counter
	ActivityRecordedTotal    prometheus.Counter
	ActivitySuppressedTotal  prometheus.Counter
	ActivityWriteErrorsTotal prometheus.Counter
}

// New registers all instruments against reg. Tests pass a private registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthFallbackTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_auth_fallback_total",
			Help: "Total number of principals resolved from header fallback instead of the user store",
		}),
		ActivityRecordedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_activity_recorded_total",
			Help: "Total number of activity log entries persisted",
		}),
		ActivitySuppressedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_activity_suppressed_total",
			Help: "Total number of activity candidates dropped by suppression rules",
		}),
		ActivityWriteErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_activity_write_errors_total",
			Help: "Total number of failed activity log inserts",
		}),
	}
}
