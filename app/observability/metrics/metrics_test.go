package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecorders(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := New(provider.Meter(meterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAuthAttempt(ctx, "login", nil)
	m.RecordAuthAttempt(ctx, "login", errors.New("bad password"))
	m.RecordItemOperation(ctx, "create", nil)
	m.ObserveQuery(ctx, "items.list", time.Now(), errors.New("timeout"))

	got := collect(t, reader)

	auth, ok := got["auth_attempts_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, auth.DataPoints, 2)
	for _, dp := range auth.DataPoints {
		op, _ := dp.Attributes.Value(attribute.Key("operation"))
		assert.Equal(t, "login", op.AsString())
		assert.Equal(t, int64(1), dp.Value)
	}

	items, ok := got["item_operations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, items.DataPoints, 1)
	outcomeVal, _ := items.DataPoints[0].Attributes.Value(attribute.Key("outcome"))
	assert.Equal(t, OutcomeSuccess, outcomeVal.AsString())

	dbErrors, ok := got["db_query_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, dbErrors.DataPoints, 1)
	assert.Equal(t, int64(1), dbErrors.DataPoints[0].Value)

	_, ok = got["db_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() {
		m.RecordAuthAttempt(context.Background(), "register", nil)
		m.RecordItemOperation(context.Background(), "delete", nil)
		m.ObserveQuery(context.Background(), "users.insert", time.Now(), nil)
	})
}
