package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console collectors, registered on their own registry.
type Metrics struct {
	registry       *prometheus.Registry
	guardDecisions *prometheus.CounterVec
	logins         *prometheus.CounterVec
	invalidations  prometheus.Counter
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by guard and outcome.",
		}, []string{"guard", "decision"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_invalidations_total",
			Help:      "Sessions cleared after the backend answered 401.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.guardDecisions,
		m.logins,
		m.invalidations,
	)
	return m
}

func (m *Metrics) GuardDecision(guard, decision string) {
	m.guardDecisions.WithLabelValues(guard, decision).Inc()
}

// Login results
const (
	LoginSucceeded = "success"
	LoginInvalid   = "invalid"
	LoginRejected  = "rejected"
)

func (m *Metrics) Login(result string) {
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionInvalidated() {
	m.invalidations.Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
