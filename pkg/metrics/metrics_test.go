package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/seedling-limiter/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLimiterMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLimiterMetrics(reg)

	m.ObserveEvaluation(enums.EntryPointCart, enums.OutcomeRejected, 20*time.Millisecond)
	m.ObserveEvaluation(enums.EntryPointCart, enums.OutcomeRejected, 10*time.Millisecond)
	m.AddMessages(enums.MessageKindVariation, 2)
	m.AddMessages(enums.MessageKindTotal, 0)
	m.RulesLoaded(3, nil)
	m.RulesLoaded(0, errors.New("bad rule"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "seedling_limiter_evaluations_total", "outcome", "rejected"); err != nil {
		t.Fatalf("fetch evaluations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected evaluations=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "seedling_limiter_evaluation_duration_seconds", "entry_point", "cart"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "seedling_limiter_messages_total", "kind", "variation"); err != nil {
		t.Fatalf("fetch messages: %v", err)
	} else if got != 2 {
		t.Fatalf("expected messages=2, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "seedling_limiter_messages_total", "kind", "total"); err == nil {
		t.Fatal("zero message counts should not create a series")
	}

	if got, err := fetchCounterValue(mfs, "seedling_limiter_rule_reloads_total", "outcome", "failure"); err != nil || got != 1 {
		t.Fatalf("expected one failed reload, got %f err=%v", got, err)
	}
	gauge := findMetricFamily(mfs, "seedling_limiter_rules_loaded")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != 3 {
		t.Fatalf("expected rules_loaded=3, got %v", gauge)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe("GET", "/api/v1/cart/validation", 200, 5*time.Millisecond)
	h.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "seedling_limiter_http_requests_total", "route", "/api/v1/cart/validation"); err != nil || got != 1 {
		t.Fatalf("expected one validation request, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "seedling_limiter_http_requests_total", "route", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unmatched route to be labelled unknown, got %f err=%v", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewLimiterMetrics(nil)
	m.ObserveEvaluation(enums.EntryPointAddToCart, enums.OutcomeAllowed, time.Millisecond)
	m.AddMessages(enums.MessageKindStep, 1)
	m.RulesLoaded(1, nil)

	var nilMetrics *LimiterMetrics
	nilMetrics.ObserveEvaluation(enums.EntryPointAddToCart, enums.OutcomeAllowed, time.Millisecond)

	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.ObserveDuration("rules_refresh", 5*time.Millisecond)
	m.IncSuccess("rules_refresh")
	m.IncSuccess("rules_refresh")
	m.IncFailure("rules_refresh")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "seedling_limiter_job_runs_total")
	if mf == nil {
		t.Fatal("job runs metric missing")
	}
	counts := map[string]float64{}
	for _, metric := range mf.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" {
				counts[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	if counts["success"] != 2 || counts["failure"] != 1 {
		t.Fatalf("unexpected job outcomes %v", counts)
	}
	if got, err := fetchHistogramSum(mfs, "seedling_limiter_job_duration_seconds", "job", "rules_refresh"); err != nil || got <= 0 {
		t.Fatalf("expected job duration recorded, got %f err=%v", got, err)
	}

	var nilMetrics *JobMetrics
	nilMetrics.IncSuccess("noop")
}
