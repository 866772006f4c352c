package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewRepository(reg)
	require.NoError(t, err)

	m.Observe("create", OutcomeOK, 2*time.Millisecond)
	m.Observe("create", OutcomeOK, 3*time.Millisecond)
	m.Observe("find_by_id", OutcomeNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("find_by_id", OutcomeNotFound)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestNewRepository_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewRepository(reg)
	require.NoError(t, err)
	second, err := NewRepository(reg)
	require.NoError(t, err)

	first.Observe("delete_by_id", OutcomeOK, time.Millisecond)
	second.Observe("delete_by_id", OutcomeOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.operations.WithLabelValues("delete_by_id", OutcomeOK)))
}

func TestRepository_NilIsNoop(t *testing.T) {
	var m *Repository
	assert.NotPanics(t, func() {
		m.Observe("create", OutcomeError, time.Millisecond)
	})
}
