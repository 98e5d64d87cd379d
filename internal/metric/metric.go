// Package metric records OTel instruments for the execution engine,
// adapted from atc/metric/otel_metrics.go's package-level-instrument
// pattern: RecordBuildDuration's shape (ctx, duration,
// team/pipeline/job/status attributes) becomes RecordStageDuration
// (ctx, duration, job_id/stage/status attributes) here, since this
// service has no team/pipeline hierarchy.
package metric

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	stageDurationHistogram otelmetric.Float64Histogram
	jobsStartedCounter     otelmetric.Float64Counter
	jobsFinishedCounter    otelmetric.Float64Counter
)

// Init creates the OTel instruments the execution engine records to.
// Safe to call once at process start; if instrument creation fails the
// corresponding Record* call becomes a no-op rather than panicking.
func Init() {
	meter := otel.Meter("pipelinex")

	if h, err := meter.Float64Histogram(
		"pipelinex.stage.duration",
		otelmetric.WithDescription("Duration of a single pipeline stage in seconds"),
		otelmetric.WithUnit("s"),
	); err == nil {
		stageDurationHistogram = h
	}

	if c, err := meter.Float64Counter(
		"pipelinex.jobs.started",
		otelmetric.WithDescription("Number of jobs whose execution started"),
	); err == nil {
		jobsStartedCounter = c
	}

	if c, err := meter.Float64Counter(
		"pipelinex.jobs.finished",
		otelmetric.WithDescription("Number of jobs that reached a terminal state"),
	); err == nil {
		jobsFinishedCounter = c
	}
}

// RecordStageDuration records a stage's wall-clock execution time.
func RecordStageDuration(ctx context.Context, duration time.Duration, jobID, stage, status string) {
	if stageDurationHistogram == nil {
		return
	}
	stageDurationHistogram.Record(ctx, duration.Seconds(),
		otelmetric.WithAttributes(
			attribute.String("job_id", jobID),
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}

// RecordJobStarted increments the jobs-started counter.
func RecordJobStarted(ctx context.Context) {
	if jobsStartedCounter == nil {
		return
	}
	jobsStartedCounter.Add(ctx, 1)
}

// RecordJobFinished increments the jobs-finished counter with the job's
// terminal state.
func RecordJobFinished(ctx context.Context, state string) {
	if jobsFinishedCounter == nil {
		return
	}
	jobsFinishedCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("state", state)))
}
