package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	// Must not panic.
	m.ObserveOp("Put", time.Now(), nil)
	m.ObserveOp("Put", time.Now(), errors.New("boom"))
	m.ObserveClaim(true)
	m.ObserveClaim(false)
	m.SetRecordCount(7)
}

func TestNewMetricsNilRegistry(t *testing.T) {
	m, err := NewMetrics(nil, "orders")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMetricsObservations(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewMetrics(registry, "orders")
	require.NoError(t, err)
	require.NotNil(t, m)

	m.ObserveOp("Put", time.Now(), nil)
	m.ObserveOp("Put", time.Now(), errors.New("boom"))
	m.ObserveOp("GetLatestRecord", time.Now(), nil)
	m.ObserveClaim(true)
	m.ObserveClaim(false)
	m.ObserveClaim(false)
	m.SetRecordCount(12)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ops.WithLabelValues("Put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("Put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("GetLatestRecord")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.claimed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unclaimed))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.records))
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewMetrics(registry, "orders")
	require.NoError(t, err)

	_, err = NewMetrics(registry, "orders")
	require.Error(t, err)
}

func TestTokenGenerators(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)

	fixed := NewFixedTokenGenerator("one", "two")
	assert.Equal(t, "one", fixed.Generate())
	assert.Equal(t, "two", fixed.Generate())
	assert.Panics(t, func() { fixed.Generate() })
}
