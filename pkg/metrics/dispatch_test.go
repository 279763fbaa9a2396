package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDispatchMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDispatchMetrics(reg)
	metrics.IncClaim(ClaimWon)
	metrics.IncClaim(ClaimLost)
	metrics.IncClaim(ClaimLost)
	metrics.IncEventDelivered("courierLocation")
	metrics.IncEventDropped("courierLocation")
	metrics.ObserveEstimateDuration("bicycle", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "dispatch_claims_total", "outcome", ClaimWon); err != nil {
		t.Fatalf("fetch won: %v", err)
	} else if got != 1 {
		t.Fatalf("expected won=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "dispatch_claims_total", "outcome", ClaimLost); err != nil {
		t.Fatalf("fetch lost: %v", err)
	} else if got != 2 {
		t.Fatalf("expected lost=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "router_events_delivered_total", "event", "courierLocation"); err != nil {
		t.Fatalf("fetch delivered: %v", err)
	} else if got != 1 {
		t.Fatalf("expected delivered=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "router_events_dropped_total", "event", "courierLocation"); err != nil {
		t.Fatalf("fetch dropped: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dropped=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "estimate_duration_seconds", "vehicle", "bicycle"); err != nil {
		t.Fatalf("fetch estimate duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDispatchMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *DispatchMetrics
	metrics.IncClaim(ClaimWon)
	metrics.IncEventDelivered("orderClaimed")
	metrics.IncEventDropped("orderClaimed")
	metrics.ObserveEstimateDuration("car", time.Second)
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
