// Package observe provides application-wide observability primitives for
// Loro: OpenTelemetry metrics, distributed tracing, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Loro metrics.
const meterName = "github.com/lorolabs/loro"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// CaptureDuration tracks microphone capture time, pre-roll included.
	CaptureDuration metric.Float64Histogram

	// ConditionDuration tracks signal conditioning time (filter, trim,
	// pre-emphasis, normalization).
	ConditionDuration metric.Float64Histogram

	// TranscribeDuration tracks speech-to-text latency.
	TranscribeDuration metric.Float64Histogram

	// SynthesizeDuration tracks pitch-shift synthesis time.
	SynthesizeDuration metric.Float64Histogram

	// PlaybackDuration tracks playback time of the synthesized take.
	PlaybackDuration metric.Float64Histogram

	// RunDuration tracks the end-to-end session run, warm-up to playback.
	RunDuration metric.Float64Histogram

	// --- Counters ---

	// SessionRuns counts completed session runs. Use with attribute:
	//   attribute.String("status", ...)
	SessionRuns metric.Int64Counter

	// FilesPersisted counts artifacts written to disk. Use with attribute:
	//   attribute.String("kind", ...) — "wav", "csv", "transcript", "synth"
	FilesPersisted metric.Int64Counter

	// --- Error counters ---

	// TranscriptionErrors counts non-fatal transcription failures. Use with
	// attribute: attribute.String("provider", ...)
	TranscriptionErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of session runs in flight.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). A full
// run spans the countdown plus the capture window, so the upper buckets
// reach well past ten seconds.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CaptureDuration, err = m.Float64Histogram("loro.capture.duration",
		metric.WithDescription("Time spent capturing microphone samples."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ConditionDuration, err = m.Float64Histogram("loro.condition.duration",
		metric.WithDescription("Time spent conditioning the captured signal."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("loro.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesizeDuration, err = m.Float64Histogram("loro.synthesize.duration",
		metric.WithDescription("Time spent on pitch-shift synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("loro.playback.duration",
		metric.WithDescription("Time spent playing back the synthesized take."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RunDuration, err = m.Float64Histogram("loro.run.duration",
		metric.WithDescription("End-to-end session run time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SessionRuns, err = m.Int64Counter("loro.session.runs",
		metric.WithDescription("Total session runs by final status."),
	); err != nil {
		return nil, err
	}
	if met.FilesPersisted, err = m.Int64Counter("loro.files.persisted",
		metric.WithDescription("Total artifacts written to disk by kind."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.TranscriptionErrors, err = m.Int64Counter("loro.transcription.errors",
		metric.WithDescription("Total non-fatal transcription failures by provider."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("loro.active_sessions",
		metric.WithDescription("Number of session runs in flight."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("loro.http.request.duration",
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSessionRun is a convenience method that records a finished run with
// its final status.
func (m *Metrics) RecordSessionRun(ctx context.Context, status string) {
	m.SessionRuns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordFilePersisted is a convenience method that counts one artifact
// written to disk.
func (m *Metrics) RecordFilePersisted(ctx context.Context, kind string) {
	m.FilesPersisted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordTranscriptionError is a convenience method that counts a non-fatal
// transcription failure.
func (m *Metrics) RecordTranscriptionError(ctx context.Context, provider string) {
	m.TranscriptionErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
