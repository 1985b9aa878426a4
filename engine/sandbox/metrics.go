package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are observational only; correctness never depends on them and the
// engine keeps no per-request state here beyond the otel instruments.

type executionOutcome string

const (
	outcomeSuccess executionOutcome = "success"
	outcomeError   executionOutcome = "error"
	outcomeTimeout executionOutcome = "timeout"
)

type sandboxMetrics struct {
	initOnce sync.Once

	executionLatency  metric.Float64Histogram
	errorCounter      metric.Int64Counter
	timeoutCounter    metric.Int64Counter
	delegationCounter metric.Int64Counter
	stdoutSize        metric.Float64Histogram
}

var metricsContainer sandboxMetrics

func metricsRecorder() *sandboxMetrics {
	metricsContainer.initOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("sim.sandbox")
		metricsContainer.executionLatency = createHistogram(
			meter,
			"sim_sandbox_execution_seconds",
			"Latency of sandboxed executions from request parsing to completion",
			"s",
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		)
		metricsContainer.errorCounter = createCounter(
			meter,
			"sim_sandbox_errors_total",
			"Total sandboxed execution failures categorized by kind",
		)
		metricsContainer.timeoutCounter = createCounter(
			meter,
			"sim_sandbox_timeouts_total",
			"Total sandboxed executions that exceeded their budget",
		)
		metricsContainer.delegationCounter = createCounter(
			meter,
			"sim_sandbox_delegations_total",
			"Total requests routed to the external sandbox service",
		)
		metricsContainer.stdoutSize = createHistogram(
			meter,
			"sim_sandbox_stdout_bytes",
			"Size distribution of captured console output",
			"By",
			[]float64{100, 1000, 10000, 100000, 1000000},
		)
	})
	return &metricsContainer
}

func createHistogram(
	meter metric.Meter,
	name string,
	description string,
	unit string,
	boundaries []float64,
) metric.Float64Histogram {
	histogram, err := meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create sandbox histogram %s: %w", name, err))
	}
	return histogram
}

func createCounter(meter metric.Meter, name string, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(
		name,
		metric.WithDescription(description),
		metric.WithUnit("1"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create sandbox counter %s: %w", name, err))
	}
	return counter
}

func recordExecution(ctx context.Context, duration time.Duration, outcome executionOutcome) {
	recorder := metricsRecorder()
	if recorder.executionLatency == nil {
		return
	}
	recorder.executionLatency.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("outcome", string(outcome))),
	)
}

func recordError(ctx context.Context, kind ErrorKind) {
	recorder := metricsRecorder()
	if recorder.errorCounter == nil {
		return
	}
	recorder.errorCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("error_kind", string(kind))),
	)
}

func recordTimeout(ctx context.Context) {
	recorder := metricsRecorder()
	if recorder.timeoutCounter == nil {
		return
	}
	recorder.timeoutCounter.Add(ctx, 1)
}

func recordDelegation(ctx context.Context, reason DelegationReason) {
	recorder := metricsRecorder()
	if recorder.delegationCounter == nil {
		return
	}
	recorder.delegationCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", string(reason))),
	)
}

func recordStdoutSize(ctx context.Context, sizeBytes int) {
	recorder := metricsRecorder()
	if recorder.stdoutSize == nil {
		return
	}
	recorder.stdoutSize.Record(ctx, float64(sizeBytes))
}
