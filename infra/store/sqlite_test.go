package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsched/core/scheduler"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_AddAndQuery(t *testing.T) {
	s := newStore(t)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	run := Run{Engine: "greedy", Summary: scheduler.Summary{
		RunID: "r1", Date: day, PeakSolarW: 30000, TotalVehicles: 2, ScheduledVehicles: 1,
		RequiredWh: 20000, SolarWh: 150000, ConsumedWh: 12000, GridWh: 500,
		SolarUnusedWh: 138500, Missed: []string{"b"},
	}}
	outcomes := []scheduler.Outcome{
		{VehicleID: "a", RequiredKWh: 12, DeliveredKWh: 12, SoCReached: 80, Scheduled: true, Met: true},
		{VehicleID: "b", RequiredKWh: 8, MissingKWh: 8, SoCReached: 40},
	}
	require.NoError(t, s.Add(run, outcomes))

	runs, err := s.Runs(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run, runs[0])

	got, err := s.Outcomes("r1")
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)
}

func TestSQLiteStore_ReplaceRun(t *testing.T) {
	s := newStore(t)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	run := Run{Engine: "greedy", Summary: scheduler.Summary{RunID: "r1", Date: day}}
	require.NoError(t, s.Add(run, []scheduler.Outcome{{VehicleID: "a"}, {VehicleID: "b"}}))
	require.NoError(t, s.Add(run, []scheduler.Outcome{{VehicleID: "c"}}))

	got, err := s.Outcomes("r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].VehicleID)
}

func TestSQLiteStore_RangeAndValidation(t *testing.T) {
	s := newStore(t)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(Run{Summary: scheduler.Summary{RunID: "old", Date: day.AddDate(0, 0, -7)}}, nil))
	require.NoError(t, s.Add(Run{Summary: scheduler.Summary{RunID: "new", Date: day}}, nil))

	runs, err := s.Runs(day, day)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].Summary.RunID)
	assert.Nil(t, runs[0].Summary.Missed)

	assert.Error(t, s.Add(Run{}, nil))
}
