package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// Metrics counts session pipeline recoveries
type Metrics struct {
	RefreshCalls        prometheus.Counter // refresh network calls actually issued
	RefreshFailures     prometheus.Counter
	RequestRetries      prometheus.Counter // requests replayed after a successful refresh
	TenantUnassignments prometheus.Counter
}

// New registers the counters on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RefreshCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_calls_total",
			Help:      "Number of token refresh calls sent to the API.",
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_failures_total",
			Help:      "Number of token refresh calls that failed.",
		}),
		RequestRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_retries_total",
			Help:      "Number of requests replayed with a refreshed token.",
		}),
		TenantUnassignments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_unassigned_total",
			Help:      "Number of responses that marked the tenant as unassigned.",
		}),
	}
}

// Discard returns counters that are not registered anywhere
func Discard() *Metrics {
	return New(nil)
}
