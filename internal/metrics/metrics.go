// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Prometheus metrics for checks and primary resolution.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pgstruct"

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Check metrics
	ChecksTotal   *prometheus.CounterVec
	CheckDuration *prometheus.HistogramVec
	FindingsTotal *prometheus.CounterVec

	// Topology metrics
	PrimaryProbes   *prometheus.CounterVec
	PrimarySwitches prometheus.Counter
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Total number of diagnostic checks executed",
			},
			[]string{"diagnostic", "topology", "status"},
		),

		CheckDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Duration of diagnostic checks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"diagnostic", "topology"},
		),

		FindingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total number of findings returned after filtering",
			},
			[]string{"diagnostic"},
		),

		PrimaryProbes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "primary_probes_total",
				Help:      "Total number of recovery-state probes by result",
			},
			[]string{"result"},
		),

		PrimarySwitches: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "primary_switches_total",
				Help:      "Total number of times the cached primary changed",
			},
		),
	}
}

// RecordCheck records one finished check. status is "ok" or an error code.
func (m *Metrics) RecordCheck(diagnostic, topology, status string, d time.Duration, findings int) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(diagnostic, topology, status).Inc()
	m.CheckDuration.WithLabelValues(diagnostic, topology).Observe(d.Seconds())
	if findings > 0 {
		m.FindingsTotal.WithLabelValues(diagnostic).Add(float64(findings))
	}
}

// RecordProbe records a probe outcome as primary, standby or error.
func (m *Metrics) RecordProbe(primary bool, err error) {
	if m == nil {
		return
	}
	result := "standby"
	switch {
	case err != nil:
		result = "error"
	case primary:
		result = "primary"
	}
	m.PrimaryProbes.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSwitch() {
	if m == nil {
		return
	}
	m.PrimarySwitches.Inc()
}
