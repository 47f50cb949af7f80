package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	mu       sync.RWMutex
	counters map[goSession.MetricID]uint64
	latency  []uint64
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goSession.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goSession.MetricsSnapshot{
		Counters:   make(map[goSession.MetricID]uint64, len(f.counters)),
		Histograms: map[goSession.MetricID][]uint64{},
	}
	for k, v := range f.counters {
		out.Counters[k] = v
	}
	if f.latency != nil {
		out.Histograms[goSession.MetricAuthenticateLatency] = append([]uint64(nil), f.latency...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *fakeSource) NotificationsDropped() uint64 { return 0 }

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			}
		}
	}
	return out
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()

	src := &fakeSource{
		counters: map[goSession.MetricID]uint64{
			goSession.MetricLoginSuccess:            3,
			goSession.MetricStaleCredentialRejected: 2,
		},
		latency: []uint64{1, 1, 1, 1, 1, 1, 1, 1},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(provider.Meter("gosession-test"), src)
	require.NoError(t, err)
	defer func() { require.NoError(t, exp.Close()) }()

	got := collect(t, reader)
	assert.Equal(t, int64(3), got["gosession_login_success_total"])
	assert.Equal(t, int64(2), got["gosession_stale_credential_rejected_total"])
	assert.Equal(t, int64(1), got["gosession_authenticate_latency_seconds_bucket_le_0_005"])
	assert.Equal(t, int64(8), got["gosession_authenticate_latency_seconds_bucket_le_inf"])
	assert.Equal(t, int64(8), got["gosession_authenticate_latency_seconds_count"])
	assert.Equal(t, int64(1), got["gosession_audit_dropped_total"])
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newMeter()

	_, err := NewExporterFromSource(provider.Meter("gosession-test"), nil)
	assert.ErrorIs(t, err, ErrNilSource)

	_, err = NewExporter(provider.Meter("gosession-test"), nil)
	assert.ErrorIs(t, err, ErrNilSource)

	_, err = NewExporterFromSource(nil, &fakeSource{})
	assert.ErrorIs(t, err, ErrNilMeter)
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()

	src := &fakeSource{counters: map[goSession.MetricID]uint64{goSession.MetricLoginSuccess: 1}}
	exp, err := NewExporterFromSource(provider.Meter("gosession-test"), src)
	require.NoError(t, err)
	defer func() { require.NoError(t, exp.Close()) }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counters[goSession.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
