package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/solarsched/core/metrics"
)

func TestPromSink_RecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPlacements([]coremetrics.PlacementEvent{
		{VehicleID: "a", GridWh: 0},
		{VehicleID: "b", GridWh: 1200, Rescheduled: true},
	}))
	require.NoError(t, sink.RecordOvercharge([]coremetrics.OverchargeEvent{
		{VehicleID: "a", EnergyWh: 500},
		{VehicleID: "a", EnergyWh: 250, Extended: true},
	}))
	require.NoError(t, sink.RecordCycle(coremetrics.CycleEvent{Reclaimed: 2}))
	require.NoError(t, sink.RecordSummary(coremetrics.SummaryEvent{
		TotalVehicles: 3, ScheduledVehicles: 2, MissedVehicles: 1, GridWh: 1200,
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.placements.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.placements.WithLabelValues("true")))
	assert.Equal(t, 750.0, testutil.ToFloat64(sink.grantedWh))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.cycles))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.reclaimed))
	assert.Equal(t, 1200.0, testutil.ToFloat64(sink.day.WithLabelValues("grid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.vehicles.WithLabelValues("missed")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordCycle(coremetrics.CycleEvent{}))
	require.NoError(t, second.RecordCycle(coremetrics.CycleEvent{}))
	assert.Equal(t, 2.0, testutil.ToFloat64(second.cycles))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordCycle(coremetrics.CycleEvent{}))

	path := filepath.Join(t.TempDir(), "solarsched.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "solarsched_cycles_total 1"))
}
