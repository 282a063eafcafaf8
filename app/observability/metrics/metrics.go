package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ItemTracker"

// Outcomes attached to every counted operation.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AuthAttemptsTotal      metric.Int64Counter
	ItemOperationsTotal    metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// New builds the instruments on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.AuthAttemptsTotal, err = meter.Int64Counter(
		"auth_attempts_total",
		metric.WithDescription("Total number of register and login attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create auth_attempts_total: %w", err)
	}

	m.ItemOperationsTotal, err = meter.Int64Counter(
		"item_operations_total",
		metric.WithDescription("Total number of item operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create item_operations_total: %w", err)
	}

	m.DbQueryDurationSeconds, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration_seconds: %w", err)
	}

	m.DbQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_errors_total: %w", err)
	}

	return m, nil
}

// InitAppMetrics initializes the global instruments once, on the globally
// configured MeterProvider.
func InitAppMetrics() (*AppMetrics, error) {
	once.Do(func() {
		appMetrics, initErr = New(otel.GetMeterProvider().Meter(meterName))
	})
	return appMetrics, initErr
}

// Get returns the global instruments. Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// RecordAuthAttempt counts a register or login call. A nil receiver is a no-op.
func (m *AppMetrics) RecordAuthAttempt(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordItemOperation counts an item service call. A nil receiver is a no-op.
func (m *AppMetrics) RecordItemOperation(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.ItemOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	))
}

// ObserveQuery records the duration of a query started at start and counts it
// as an error when err is non-nil. A nil receiver is a no-op.
func (m *AppMetrics) ObserveQuery(ctx context.Context, query string, start time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("query", query))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
