// Package metrics records extraction counters and latencies with the
// OpenTelemetry metric API and exposes them through a Prometheus registry,
// either scraped over HTTP or dumped to a textfile after a CLI run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60} //nolint: gochecknoglobals

// meterName scopes every instrument created by this package.
const meterName = "extractor"

// NewPrometheusProvider returns a meter provider whose instruments are
// exported into reg.
func NewPrometheusProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// WriteTextfile dumps everything registered in g in the Prometheus text
// format, suitable for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("could not write metrics textfile: %w", err)
	}

	return nil
}

// Recorder records run and file level measurements. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	filesScanned metric.Int64Counter
	fileFailures metric.Int64Counter
	emailsFound  metric.Int64Counter
	fileDuration metric.Float64Histogram
	runDuration  metric.Float64Histogram
	uniqueEmails metric.Int64Histogram
}

// NewRecorder creates the instruments on a meter from mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(meterName)

	var (
		r   Recorder
		err error
	)
	if r.filesScanned, err = meter.Int64Counter("extractor.files.scanned",
		metric.WithDescription("Files handed to an extractor."),
		metric.WithUnit("{file}")); err != nil {
		return nil, fmt.Errorf("could not create files counter: %w", err)
	}
	if r.fileFailures, err = meter.Int64Counter("extractor.files.failed",
		metric.WithDescription("Files that could not be opened or parsed."),
		metric.WithUnit("{file}")); err != nil {
		return nil, fmt.Errorf("could not create failures counter: %w", err)
	}
	if r.emailsFound, err = meter.Int64Counter("extractor.emails.matched",
		metric.WithDescription("Addresses matched before deduplication."),
		metric.WithUnit("{email}")); err != nil {
		return nil, fmt.Errorf("could not create emails counter: %w", err)
	}
	if r.fileDuration, err = meter.Float64Histogram("extractor.file.duration",
		metric.WithDescription("Time spent extracting one file."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create file duration histogram: %w", err)
	}
	if r.runDuration, err = meter.Float64Histogram("extractor.run.duration",
		metric.WithDescription("Wall-clock time of a whole run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create run duration histogram: %w", err)
	}
	if r.uniqueEmails, err = meter.Int64Histogram("extractor.run.unique_emails",
		metric.WithDescription("Unique addresses produced by a run."),
		metric.WithUnit("{email}")); err != nil {
		return nil, fmt.Errorf("could not create unique emails histogram: %w", err)
	}

	return &r, nil
}

// FileScanned records one processed file, labelled by extension and outcome.
func (r *Recorder) FileScanned(ctx context.Context, ext string, matched int, took time.Duration, failed bool) {
	if r == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("extension", ext), attribute.Bool("failed", failed))
	r.filesScanned.Add(ctx, 1, attrs)
	r.fileDuration.Record(ctx, took.Seconds(), attrs)
	if failed {
		r.fileFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("extension", ext)))

		return
	}
	r.emailsFound.Add(ctx, int64(matched), metric.WithAttributes(attribute.String("extension", ext)))
}

// RunFinished records the totals of a completed run.
func (r *Recorder) RunFinished(ctx context.Context, unique int, took time.Duration) {
	if r == nil {
		return
	}

	r.runDuration.Record(ctx, took.Seconds())
	r.uniqueEmails.Record(ctx, int64(unique))
}
