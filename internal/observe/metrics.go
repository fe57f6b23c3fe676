// Package observe provides application-wide observability primitives for
// Lexivox: OpenTelemetry metrics, tracing, and HTTP middleware that ties
// them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so metrics can be scraped
// via the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lexivox metrics.
const meterName = "github.com/lexivox/lexivox"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// Attempts counts judged pronunciation attempts. Use with attributes:
	//   attribute.String("decision", ...), attribute.String("mode", ...)
	Attempts metric.Int64Counter

	// RecognitionFailures counts classified recognition failures. Use with
	// attribute: attribute.String("code", ...)
	RecognitionFailures metric.Int64Counter

	// Similarity records the edit-distance similarity of scored attempts.
	Similarity metric.Float64Histogram

	// Combined records the similarity × confidence score of scored attempts.
	Combined metric.Float64Histogram

	// STTDuration tracks time from capture start to final transcript.
	STTDuration metric.Float64Histogram

	// HintDuration tracks pronunciation-tip generation latency.
	HintDuration metric.Float64Histogram

	// ActiveSessions tracks the number of live practice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// scoreBuckets covers the [0, 1] score range at the resolution the accept
// threshold lives in.
var scoreBuckets = []float64{
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1,
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for the
// capture and hint paths.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Attempts, err = m.Int64Counter("lexivox.attempts",
		metric.WithDescription("Total judged pronunciation attempts by decision and match mode."),
	); err != nil {
		return nil, err
	}
	if met.RecognitionFailures, err = m.Int64Counter("lexivox.recognition.failures",
		metric.WithDescription("Total recognition failures by error code."),
	); err != nil {
		return nil, err
	}

	if met.Similarity, err = m.Float64Histogram("lexivox.attempt.similarity",
		metric.WithDescription("Edit-distance similarity of scored attempts."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Combined, err = m.Float64Histogram("lexivox.attempt.combined",
		metric.WithDescription("Similarity × confidence score of scored attempts."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}

	if met.STTDuration, err = m.Float64Histogram("lexivox.stt.duration",
		metric.WithDescription("Time from capture start to final transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HintDuration, err = m.Float64Histogram("lexivox.hint.duration",
		metric.WithDescription("Latency of pronunciation-tip generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("lexivox.active_sessions",
		metric.WithDescription("Number of live practice sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("lexivox.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAttempt records one judged attempt with its decision, match mode,
// and scores.
func (m *Metrics) RecordAttempt(ctx context.Context, decision, mode string, similarity, combined float64) {
	attrs := metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("mode", mode),
	)
	m.Attempts.Add(ctx, 1, attrs)
	m.Similarity.Record(ctx, similarity)
	m.Combined.Record(ctx, combined)
}

// RecordRecognitionFailure records one classified recognition failure.
func (m *Metrics) RecordRecognitionFailure(ctx context.Context, code string) {
	m.RecognitionFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("code", code)),
	)
}
