package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wshop_notifications_total",
			Help: "Per-recipient notification outcomes by event type and stage",
		},
		[]string{"event", "stage"}, // sent|failed|skipped
	)

	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wshop_dispatches_total",
			Help: "Dispatch invocations by event type and outcome",
		},
		[]string{"event", "outcome"}, // delivered|partial|noop
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		NotificationsTotal,
		DispatchesTotal,
	)
}
