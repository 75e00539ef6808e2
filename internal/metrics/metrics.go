// Package metrics defines the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service counters. Constructed once in main against
// the default registry; tests pass their own registry.
type Metrics struct {
	UpdatesProcessed  prometheus.Counter
	SearchesExecuted  prometheus.Counter
	NotificationsSent prometheus.Counter
	PollCycles        prometheus.Counter
	ErrorsTotal       prometheus.Counter
}

// New registers and returns the service metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpdatesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobhunter_updates_processed_total",
			Help: "Total number of processed chat updates",
		}),
		SearchesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobhunter_searches_executed_total",
			Help: "Total number of executed vacancy searches",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobhunter_notifications_sent_total",
			Help: "Total number of subscription notifications delivered",
		}),
		PollCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobhunter_poll_cycles_total",
			Help: "Total number of subscription poll cycles",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobhunter_errors_total",
			Help: "Total number of errors",
		}),
	}
}
