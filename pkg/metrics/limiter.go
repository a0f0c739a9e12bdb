package metrics

import (
	"time"

	"github.com/angelmondragon/seedling-limiter/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seedling_limiter"

// LimiterMetrics records rule evaluations and rule snapshot reloads.
type LimiterMetrics struct {
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	messages    *prometheus.CounterVec
	rules       prometheus.Gauge
	reloads     *prometheus.CounterVec
}

// NewLimiterMetrics registers the limiter metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLimiterMetrics(reg prometheus.Registerer) *LimiterMetrics {
	if reg == nil {
		return &LimiterMetrics{}
	}
	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Limiter evaluations by entry point and outcome.",
	}, []string{"entry_point", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of limiter evaluations including collaborator lookups.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entry_point"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "User facing limiter messages by kind.",
	}, []string{"kind"})
	rules := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rules_loaded",
		Help:      "Number of rules in the active snapshot.",
	})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_reloads_total",
		Help:      "Rule snapshot reloads by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(evaluations, duration, messages, rules, reloads)
	return &LimiterMetrics{
		evaluations: evaluations,
		duration:    duration,
		messages:    messages,
		rules:       rules,
		reloads:     reloads,
	}
}

// ObserveEvaluation records one evaluation and its duration.
func (m *LimiterMetrics) ObserveEvaluation(entry enums.EntryPoint, outcome enums.Outcome, duration time.Duration) {
	if m == nil || m.evaluations == nil {
		return
	}
	label := normalizeLabel(entry.String())
	m.evaluations.WithLabelValues(label, normalizeLabel(outcome.String())).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// AddMessages counts n messages of the given kind.
func (m *LimiterMetrics) AddMessages(kind enums.MessageKind, n int) {
	if m == nil || m.messages == nil || n <= 0 {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(kind.String())).Add(float64(n))
}

// RulesLoaded records the outcome of a snapshot swap and, on success, its size.
func (m *LimiterMetrics) RulesLoaded(count int, err error) {
	if m == nil || m.reloads == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues("failure").Inc()
		return
	}
	m.reloads.WithLabelValues("success").Inc()
	m.rules.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
