package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/haikuowuya/jianshu"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Session metrics
	SessionTransitionsTotal metric.Int64Counter
	SessionSuppressedTotal  metric.Int64Counter
	SessionValidationsTotal metric.Int64Counter
	ListenerDispatchTotal   metric.Int64Counter

	// HTTP client metrics
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestErrorsTotal metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments are bound to the global meter provider, so they start exporting
// once InitTelemetry installs one.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SessionTransitionsTotal, _ = meter.Int64Counter(
		"jianshu.session.transitions.total",
		metric.WithDescription("Total number of session state transitions delivered to listeners"),
		metric.WithUnit("{transition}"),
	)

	m.SessionSuppressedTotal, _ = meter.Int64Counter(
		"jianshu.session.transitions.suppressed.total",
		metric.WithDescription("Total number of observations that did not change the session state"),
		metric.WithUnit("{observation}"),
	)

	m.SessionValidationsTotal, _ = meter.Int64Counter(
		"jianshu.session.validations.total",
		metric.WithDescription("Total number of cookie validations"),
		metric.WithUnit("{validation}"),
	)

	m.ListenerDispatchTotal, _ = meter.Int64Counter(
		"jianshu.session.listener.dispatch.total",
		metric.WithDescription("Total number of listener callbacks invoked"),
		metric.WithUnit("{callback}"),
	)

	m.HTTPRequestsTotal, _ = meter.Int64Counter(
		"jianshu.http.requests.total",
		metric.WithDescription("Total number of HTTP requests issued"),
		metric.WithUnit("{request}"),
	)

	m.HTTPRequestErrorsTotal, _ = meter.Int64Counter(
		"jianshu.http.requests.errors.total",
		metric.WithDescription("Total number of HTTP requests that failed in transport"),
		metric.WithUnit("{error}"),
	)

	m.HTTPRequestDuration, _ = meter.Float64Histogram(
		"jianshu.http.requests.duration",
		metric.WithDescription("Duration of HTTP requests including body read"),
		metric.WithUnit("ms"),
	)

	return m
}
