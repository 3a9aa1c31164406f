package acl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts permission checks and audit events. A nil *Metrics is valid and records nothing.
type Metrics struct {
	checks *prometheus.CounterVec
	audit  *prometheus.CounterVec
}

// NewMetrics registers the acl counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permd_permission_checks_total",
				Help: "Number of recorded permission checks, differentiated by result.",
			},
			[]string{"result"},
		),
		audit: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permd_audit_events_total",
				Help: "Number of audit log entries written, differentiated by action.",
			},
			[]string{"action"},
		),
	}
}

func (m *Metrics) observeCheck(result string) {
	if m == nil {
		return
	}

	m.checks.WithLabelValues(result).Inc()
}

func (m *Metrics) observeAudit(action AuditAction) {
	if m == nil {
		return
	}

	m.audit.WithLabelValues(string(action)).Inc()
}
