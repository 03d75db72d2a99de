// Package telemetry exposes Prometheus metrics for the tracker service.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tracker_transitions_total", Help: "Committed status transitions"},
		[]string{"kind", "from", "to"},
	)
	TransitionRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tracker_transition_rejects_total", Help: "Transitions rejected by the state machine"},
		[]string{"kind", "reason"},
	)
	EntitiesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "tracker_entities_by_status", Help: "Current entity count per status, refreshed periodically"},
		[]string{"kind", "status"},
	)
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(Transitions, TransitionRejects, EntitiesByStatus)
	})
	return promhttp.Handler()
}
