// Package telemetry records transcription server metrics with OpenTelemetry
// and exposes them for Prometheus scraping.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/rbright/recite/internal/server"

// Attempt outcomes.
const (
	OutcomeScored   = "scored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the server instruments. A nil *Metrics records nothing.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	attempts    metric.Int64Counter
	scores      metric.Float64Histogram
	recognition metric.Float64Histogram
}

// New builds a meter provider backed by a private Prometheus registry.
func New(serviceVersion string) (*Metrics, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewSchemaless(
			semconv.ServiceName("recite"),
			semconv.ServiceVersion(serviceVersion),
		)),
	)
	meter := provider.Meter(meterName)

	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if m.attempts, err = meter.Int64Counter(
		"recite.transcribe.attempts",
		metric.WithDescription("Transcription requests by content type and outcome"),
	); err != nil {
		return nil, err
	}
	if m.scores, err = meter.Float64Histogram(
		"recite.transcribe.score",
		metric.WithDescription("Similarity score of scored attempts"),
		metric.WithExplicitBucketBoundaries(25, 50, 75, 90, 100),
	); err != nil {
		return nil, err
	}
	if m.recognition, err = meter.Float64Histogram(
		"recite.recognizer.duration",
		metric.WithDescription("Speech recognizer call latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// Attempt counts one POST /transcribe by its final HTTP status.
func (m *Metrics) Attempt(ctx context.Context, contentType string, status int) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("content_type", contentType),
		attribute.String("outcome", outcomeFor(status)),
	))
}

// Score observes the similarity of a scored attempt.
func (m *Metrics) Score(ctx context.Context, contentType string, score float64) {
	if m == nil {
		return
	}
	m.scores.Record(ctx, score, metric.WithAttributes(attribute.String("content_type", contentType)))
}

// Recognition observes one recognizer call.
func (m *Metrics) Recognition(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.recognition.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.Bool("ok", err == nil)))
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

func outcomeFor(status int) string {
	switch {
	case status >= 200 && status < 300:
		return OutcomeScored
	case status >= 400 && status < 500:
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
