// Package metrics exposes Prometheus collectors for live tracking and
// history persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Samples          *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	StoreWriteErrors prometheus.Counter
	LiveSessions     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_samples_total",
			Help: "Location samples received, by filter outcome.",
		}, []string{"result"}),
		SessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_sessions_finished_total",
			Help: "Live sessions that ended, by outcome.",
		}, []string{"outcome"}),
		StoreWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_store_write_errors_total",
			Help: "Failed writes of the activity history.",
		}),
		LiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_live_sessions",
			Help: "Sessions currently tracking or paused.",
		}),
	}
	reg.MustRegister(m.Samples, m.SessionsFinished, m.StoreWriteErrors, m.LiveSessions)
	return m
}

// Nop returns collectors registered nowhere, for callers that do not export metrics.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveSample(result string) {
	m.Samples.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFinished(outcome string) {
	m.SessionsFinished.WithLabelValues(outcome).Inc()
}
