package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/core/entity"
)

func TestMetricsRecordCascadeAndSweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CascadeDone("delete", entity.KindDepartment, true, 9, 120*time.Millisecond)
	m.CascadeDone("delete", entity.KindDepartment, false, 0, 10*time.Millisecond)
	m.CascadeDone("restore", entity.KindWorkItem, true, 3, 40*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.cascadeOps.WithLabelValues("delete", "department", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.cascadeOps.WithLabelValues("delete", "department", "false")))
	assert.Equal(t, float64(9), testutil.ToFloat64(
		m.cascadeAffected.WithLabelValues("delete", "department")))
	assert.Equal(t, float64(3), testutil.ToFloat64(
		m.cascadeAffected.WithLabelValues("restore", "work_item")))

	m.SweepDone(true, 12, time.Second)
	m.KindPurged(entity.KindNotice, 12)
	m.BlobReleaseFailed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.sweeps.WithLabelValues("true")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.sweepPurged))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.kindPurged.WithLabelValues("notice")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.blobFailures))
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { New(reg) })
	require.Panics(t, func() { New(reg) }, "duplicate registration must fail loudly")
}
