// Package metrics exposes Prometheus instrumentation for the scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservo"

// BookingMetrics tracks booking admission outcomes and service latency.
type BookingMetrics struct {
	admissions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewBookingMetrics registers booking collectors on reg. A nil registerer
// yields a no-op instance, which keeps tests free of global state.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}

	m := &BookingMetrics{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "admissions_total",
			Help:      "Booking admission attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "create_duration_seconds",
			Help:      "Time spent creating bookings.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"}),
	}
	reg.MustRegister(m.admissions, m.duration)
	return m
}

// ObserveAdmission counts one admission attempt. Outcome is one of
// "admitted", "rejected" or "error".
func (m *BookingMetrics) ObserveAdmission(outcome string) {
	if m == nil || m.admissions == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

// ObserveCreateDuration records booking creation latency by origin
// ("public" or "dashboard").
func (m *BookingMetrics) ObserveCreateDuration(origin string, seconds float64) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(origin).Observe(seconds)
}

// BillingMetrics tracks webhook event reconciliation.
type BillingMetrics struct {
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewBillingMetrics registers billing collectors on reg. A nil registerer
// yields a no-op instance.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}

	m := &BillingMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "events_total",
			Help:      "Billing webhook events by type and result.",
		}, []string{"event_type", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "event_duration_seconds",
			Help:      "Time spent reconciling billing events.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	reg.MustRegister(m.events, m.latency)
	return m
}

// ObserveEvent counts one reconciled webhook event. Result is one of
// "processed", "duplicate", "ignored" or "error".
func (m *BillingMetrics) ObserveEvent(eventType, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(eventType, result).Inc()
}

// ObserveEventDuration records reconciliation latency for one event type.
func (m *BillingMetrics) ObserveEventDuration(eventType string, seconds float64) {
	if m == nil || m.latency == nil {
		return
	}
	m.latency.WithLabelValues(eventType).Observe(seconds)
}

// NotifyMetrics tracks outbound notification dispatches.
type NotifyMetrics struct {
	dispatches *prometheus.CounterVec
}

// NewNotifyMetrics registers notify collectors on reg. A nil registerer
// yields a no-op instance.
func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	if reg == nil {
		return &NotifyMetrics{}
	}

	m := &NotifyMetrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "dispatches_total",
			Help:      "Outbound notification dispatches by channel and result.",
		}, []string{"channel", "result"}),
	}
	reg.MustRegister(m.dispatches)
	return m
}

// ObserveDispatch counts one dispatch attempt. Channel is "webhook" or
// "email"; result is "ok" or "error".
func (m *NotifyMetrics) ObserveDispatch(channel, result string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(channel, result).Inc()
}
