package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Claim outcomes recorded on the claim counter.
const (
	ClaimWon  = "won"
	ClaimLost = "lost"
)

// DispatchMetrics records dispatch and notification activity.
type DispatchMetrics struct {
	claims           *prometheus.CounterVec
	eventsDelivered  *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
	estimateDuration *prometheus.HistogramVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_claims_total",
		Help: "Claim attempts by outcome.",
	}, []string{"outcome"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_events_delivered_total",
		Help: "Notification events delivered to connected clients.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_events_dropped_total",
		Help: "Notification events dropped because the client buffer was full.",
	}, []string{"event"})
	estimateDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estimate_duration_seconds",
		Help:    "Duration of delivery fee estimates in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"vehicle"})
	reg.MustRegister(claims, delivered, dropped, estimateDuration)
	return &DispatchMetrics{
		claims:           claims,
		eventsDelivered:  delivered,
		eventsDropped:    dropped,
		estimateDuration: estimateDuration,
	}
}

// IncClaim counts a claim attempt with the given outcome.
func (d *DispatchMetrics) IncClaim(outcome string) {
	if d == nil || d.claims == nil {
		return
	}
	d.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncEventDelivered counts a notification event handed to a client.
func (d *DispatchMetrics) IncEventDelivered(event string) {
	if d == nil || d.eventsDelivered == nil {
		return
	}
	d.eventsDelivered.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncEventDropped counts a notification event discarded for a slow client.
func (d *DispatchMetrics) IncEventDropped(event string) {
	if d == nil || d.eventsDropped == nil {
		return
	}
	d.eventsDropped.WithLabelValues(normalizeLabel(event)).Inc()
}

// ObserveEstimateDuration records how long a fee estimate took.
func (d *DispatchMetrics) ObserveEstimateDuration(vehicle string, duration time.Duration) {
	if d == nil || d.estimateDuration == nil {
		return
	}
	d.estimateDuration.WithLabelValues(normalizeLabel(vehicle)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
