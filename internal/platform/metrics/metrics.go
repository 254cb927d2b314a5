// Package metrics holds the domain Prometheus metrics shared by the
// presentation, verifier and issuance modules.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all domain metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesCreated         *prometheus.CounterVec   // by definition id
	CycleTransitions      *prometheus.CounterVec   // by event and resulting state
	VerificationOutcomes  *prometheus.CounterVec   // valid, invalid, error, skipped
	IssuanceOutcomes      *prometheus.CounterVec   // by credential type and outcome
	CollaboratorLatency   *prometheus.HistogramVec // outbound call latency by collaborator
	CircuitBreakerState   *prometheus.GaugeVec     // 0 closed, 1 open, 2 half-open
	ProjectTokenExchanges *prometheus.CounterVec   // by result (cached, exchanged, failed)
}

// New registers the metrics with the default registry. Call once per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CyclesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultflow_request_cycles_created_total",
			Help: "Request cycles created, labeled by presentation definition",
		}, []string{"definition_id"}),
		CycleTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultflow_request_cycle_transitions_total",
			Help: "Request cycle state transitions, labeled by event and resulting state",
		}, []string{"event", "state"}),
		VerificationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultflow_verifications_total",
			Help: "Presentation verification outcomes",
		}, []string{"outcome"}),
		IssuanceOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultflow_issuances_total",
			Help: "Issuance start outcomes, labeled by credential type",
		}, []string{"credential_type_id", "outcome"}),
		CollaboratorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultflow_collaborator_latency_seconds",
			Help:    "Latency of outbound collaborator calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"collaborator"}),
		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vaultflow_circuit_breaker_state",
			Help: "Circuit breaker state per collaborator (0 closed, 1 open, 2 half-open)",
		}, []string{"name"}),
		ProjectTokenExchanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultflow_project_token_requests_total",
			Help: "Project-scoped token lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncCycleCreated(definitionID string) {
	if m == nil {
		return
	}
	m.CyclesCreated.WithLabelValues(definitionID).Inc()
}

func (m *Metrics) IncCycleTransition(event, state string) {
	if m == nil {
		return
	}
	m.CycleTransitions.WithLabelValues(event, state).Inc()
}

func (m *Metrics) IncVerification(outcome string) {
	if m == nil {
		return
	}
	m.VerificationOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncIssuance(credentialTypeID, outcome string) {
	if m == nil {
		return
	}
	m.IssuanceOutcomes.WithLabelValues(credentialTypeID, outcome).Inc()
}

func (m *Metrics) ObserveCollaborator(collaborator string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CollaboratorLatency.WithLabelValues(collaborator).Observe(elapsed.Seconds())
}

func (m *Metrics) SetCircuitState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) IncProjectToken(result string) {
	if m == nil {
		return
	}
	m.ProjectTokenExchanges.WithLabelValues(result).Inc()
}
