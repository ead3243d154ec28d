package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
)

var testDay = model.NewDay(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

func constant(n int, w float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = w
	}
	return out
}

func testResult() scheduler.Result {
	start := testDay.Start.Add(9 * time.Hour)
	consumers := []model.Consumer{
		{
			ID:        "a",
			Power:     model.NewPowerCurve(start, constant(60, 11000)),
			Overpower: model.SomeOverpower(model.NewPowerCurve(start.Add(time.Hour), constant(30, 4000))),
		},
		{ID: "b", Power: model.NewPowerCurve(start.Add(2*time.Hour), constant(120, 7000))},
	}
	vehicles := []model.Vehicle{
		{ID: "a", Arrival: testDay.Start.Add(8 * time.Hour), Departure: testDay.Start.Add(17 * time.Hour),
			SoCArrive: 40, SoCTarget: 58.3, BatteryKWh: 60, MaxChargeKW: 11},
		{ID: "b", Arrival: testDay.Start.Add(10 * time.Hour), Departure: testDay.Start.Add(16 * time.Hour),
			SoCArrive: 30, SoCTarget: 100, BatteryKWh: 20, MaxChargeKW: 7},
	}
	prod := model.NewTimeline()
	for i := 6 * 60; i < 20*60; i++ {
		prod[i] = 20000
	}
	return scheduler.Result{
		RunID:      "run-1",
		Day:        testDay,
		Vehicles:   vehicles,
		Consumers:  consumers,
		Production: prod,
		Usage:      model.UsageOf(testDay, consumers),
		Overpower:  model.OverpowerOf(testDay, consumers),
	}
}

func TestSnapshot_RebuildsResult(t *testing.T) {
	res := testResult()
	params := Parameters{PeakSolarW: 300000, ReferencePeakW: 4196000000, SmoothForecast: true, Scheduling: scheduler.DefaultFlags()}

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, NewSnapshot(params, res)))
	assert.Contains(t, buf.String(), `"simulation_parameters"`)
	assert.Contains(t, buf.String(), `"interval": null`)

	snap, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, scheduler.DefaultFlags(), snap.Parameters.Scheduling)

	got, err := snap.Result()
	require.NoError(t, err)
	assert.True(t, got.Day.Start.Equal(testDay.Start))
	assert.Equal(t, res.Usage, got.Usage)
	assert.Equal(t, res.Overpower, got.Overpower)
	assert.Equal(t, res.Production, got.Production)
	require.Len(t, got.Vehicles, 2)
	assert.InDelta(t, 58.3, got.Vehicles[0].SoCTarget, 1e-9)

	want := scheduler.Summarize(res, 300000)
	have := scheduler.Summarize(got, 300000)
	assert.InDelta(t, want.GridWh, have.GridWh, 1e-6)
	assert.InDelta(t, want.ConsumedWh, have.ConsumedWh, 1e-6)
	assert.Equal(t, want.Missed, have.Missed)
}

func TestSnapshot_KeepsWallClockAcrossDST(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	day := model.NewDay(time.Date(2026, 3, 29, 0, 0, 0, 0, paris))
	arrive := time.Date(2026, 3, 29, 8, 0, 0, 0, paris)
	leave := time.Date(2026, 3, 29, 12, 0, 0, 0, paris)
	res := scheduler.Result{
		RunID: "dst",
		Day:   day,
		Vehicles: []model.Vehicle{{ID: "a", Arrival: arrive, Departure: leave,
			SoCArrive: 40, SoCTarget: 60, BatteryKWh: 60, MaxChargeKW: 11}},
		Consumers:  []model.Consumer{{ID: "a", Power: model.NewPowerCurve(arrive, constant(65, 11000))}},
		Production: model.NewTimeline(),
	}

	for i := 0; i < 2; i++ {
		var buf bytes.Buffer
		require.NoError(t, WriteSnapshot(&buf, NewSnapshot(Parameters{}, res)))
		snap, err := ReadSnapshot(&buf)
		require.NoError(t, err)
		assert.Equal(t, "Europe/Paris", snap.Parameters.Timezone)
		assert.Equal(t, "08:00", snap.Vehicles[0].TimeArrive)
		res, err = snap.Result()
		require.NoError(t, err)
		require.Len(t, res.Vehicles, 1)
		assert.True(t, res.Vehicles[0].Arrival.Equal(arrive), "round %d: arrival %s", i, res.Vehicles[0].Arrival)
		assert.True(t, res.Vehicles[0].Departure.Equal(leave))
		assert.True(t, res.Day.Start.Equal(day.Start))
	}
}

func TestSnapshot_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulation.json")
	require.NoError(t, SaveSnapshot(path, NewSnapshot(Parameters{}, testResult())))
	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Len(t, snap.Consumers, 2)

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	_, err = ReadSnapshot(strings.NewReader(`{"consumers":[{"id_user":"a","power":{"power":[1],"interval":null}}]}`))
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
}

func TestWriteConsumersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsumersCSV(&buf, testResult().Consumers))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "2025-06-02T09:00:00Z", "2025-06-02T10:00:00Z", "11000", "2025-06-02T10:00:00Z", "2025-06-02T10:30:00Z", "2000"}, rows[1])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "14000", rows[2][3])
}

func TestWriteCSV_Segments(t *testing.T) {
	res := testResult()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scheduler.Segments(res.Day, res.Consumers)))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"id_user", "start", "end", "power_w", "base_w", "overcharge"}, rows[0])
	assert.Greater(t, len(rows), 1)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, scheduler.Segments(res.Day, res.Consumers)))
	assert.True(t, strings.HasPrefix(buf.String(), "["))
}

func TestWriteTimelineCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTimelineCSV(&buf, testResult()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, model.MinutesPerDay+1)
	assert.Equal(t, []string{"540", "2025-06-02T09:00:00Z", "20000", "11000", "0"}, rows[541])
	assert.Equal(t, []string{"600", "2025-06-02T10:00:00Z", "20000", "0", "4000"}, rows[601])
}

func TestAppendSummaryCSV_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.csv")
	s := scheduler.Summarize(testResult(), 300000)
	require.NoError(t, AppendSummaryCSV(path, s))
	require.NoError(t, AppendSummaryCSV(path, s))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, "run-1", rows[1][0])
	assert.Equal(t, "2025-06-02", rows[2][1])
}
