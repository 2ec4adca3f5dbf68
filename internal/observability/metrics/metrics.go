// Package metrics exposes prometheus instruments for the entitlement and
// automation cores.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics captures entitlement and automation health signals.
type CoreMetrics struct {
	decisions        *prometheus.CounterVec
	ruleMatches      *prometheus.CounterVec
	ruleFires        *prometheus.CounterVec
	dedupSkips       *prometheus.CounterVec
	handleDuration   *prometheus.HistogramVec
	dispatchAttempts *prometheus.CounterVec
	dispatchDropped  prometheus.Counter
}

var (
	coreMetricsOnce sync.Once
	coreMetrics     *CoreMetrics
)

// Core returns the singleton core metrics registry.
func Core() *CoreMetrics {
	coreMetricsOnce.Do(func() {
		coreMetrics = newCoreMetrics(prometheus.DefaultRegisterer)
	})
	return coreMetrics
}

// ResetCoreMetricsForTest resets the core metrics singleton for tests.
func ResetCoreMetricsForTest() {
	coreMetricsOnce = sync.Once{}
	coreMetrics = nil
}

func newCoreMetrics(registerer prometheus.Registerer) *CoreMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	m := &CoreMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fangate_entitlement_decisions_total",
			Help: "Entitlement decisions by verdict and reason.",
		}, []string{"allow", "reason"}),
		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fangate_automation_rule_matches_total",
			Help: "Automation rules matched per trigger.",
		}, []string{"trigger"}),
		ruleFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fangate_automation_rule_fires_total",
			Help: "Automation rules fired (fired record committed) per trigger.",
		}, []string{"trigger"}),
		dedupSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fangate_automation_dedup_skips_total",
			Help: "Rule matches skipped because the (rule, event) pair already fired.",
		}, []string{"trigger"}),
		handleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fangate_automation_handle_duration_seconds",
			Help:    "Duration of automation event handling.",
			Buckets: prometheus.DefBuckets,
		}, []string{"trigger"}),
		dispatchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fangate_dispatch_attempts_total",
			Help: "Dispatch attempts by outcome.",
		}, []string{"outcome"}),
		dispatchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fangate_dispatch_dropped_total",
			Help: "Dispatch requests dropped after exhausting retries.",
		}),
	}

	registerer.MustRegister(
		m.decisions,
		m.ruleMatches,
		m.ruleFires,
		m.dedupSkips,
		m.handleDuration,
		m.dispatchAttempts,
		m.dispatchDropped,
	)

	return m
}

func (m *CoreMetrics) IncDecision(allow bool, reason string) {
	verdict := "deny"
	if allow {
		verdict = "allow"
	}
	m.decisions.WithLabelValues(verdict, reason).Inc()
}

func (m *CoreMetrics) IncRuleMatch(trigger string) {
	m.ruleMatches.WithLabelValues(trigger).Inc()
}

func (m *CoreMetrics) IncRuleFire(trigger string) {
	m.ruleFires.WithLabelValues(trigger).Inc()
}

func (m *CoreMetrics) IncDedupSkip(trigger string) {
	m.dedupSkips.WithLabelValues(trigger).Inc()
}

func (m *CoreMetrics) ObserveHandleDuration(trigger string, d time.Duration) {
	m.handleDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

func (m *CoreMetrics) IncDispatchAttempt(outcome string) {
	m.dispatchAttempts.WithLabelValues(outcome).Inc()
}

func (m *CoreMetrics) IncDispatchDropped() {
	m.dispatchDropped.Inc()
}

const (
	DispatchOutcomeOK      = "ok"
	DispatchOutcomeRetry   = "retry"
	DispatchOutcomeFailure = "failure"
)
