package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/solarsched/core/metrics"
)

type recorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, string(data))
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func lines(points ...*write.Point) string {
	var b strings.Builder
	for _, p := range points {
		b.WriteString(write.PointToLineProtocol(p, time.Nanosecond))
	}
	return b.String()
}

func TestInfluxSink_RecordPlacements(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	start := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	cycle := start.Add(-2 * time.Hour)
	ev := coremetrics.PlacementEvent{
		RunID: "r1", VehicleID: "v1", Start: start, Minutes: 90,
		EnergyWh: 16500.1234, GridWh: 0, Rescheduled: true, CycleTime: cycle,
	}
	require.NoError(t, sink.RecordPlacements([]coremetrics.PlacementEvent{ev}))

	p := write.NewPointWithMeasurement("charging_placement").
		AddTag("run_id", "r1").
		AddTag("vehicle_id", "v1").
		AddTag("rescheduled", "true").
		AddField("minutes", 90).
		AddField("energy_wh", 16500.123).
		AddField("grid_wh", 0.0).
		AddField("cycle_unix", cycle.Unix()).
		SetTime(start)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, strings.TrimSpace(lines(p)), strings.TrimSpace(rec.bodies[0]))
}

func TestInfluxSink_EmptyBatchSkipsWrite(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	require.NoError(t, sink.RecordPlacements(nil))
	require.NoError(t, sink.RecordOvercharge(nil))
	require.NoError(t, sink.RecordTimeline(coremetrics.TimelineEvent{}))
	assert.Empty(t, rec.bodies)
}

func TestInfluxSink_RecordOverchargeAndCycle(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordOvercharge([]coremetrics.OverchargeEvent{{
		RunID: "r1", VehicleID: "v2", Start: now, Minutes: 30, EnergyWh: 2500, Extended: false,
	}}))
	require.NoError(t, sink.RecordCycle(coremetrics.CycleEvent{
		RunID: "r1", Time: now, Arrivals: 2, Reclaimed: 1, Placed: 3, Granted: 1,
	}))

	grant := write.NewPointWithMeasurement("overcharge_grant").
		AddTag("run_id", "r1").
		AddTag("vehicle_id", "v2").
		AddTag("extended", "false").
		AddField("minutes", 30).
		AddField("energy_wh", 2500.0).
		SetTime(now)
	cycle := write.NewPointWithMeasurement("reschedule_cycle").
		AddTag("run_id", "r1").
		AddField("arrivals", 2).
		AddField("reclaimed", 1).
		AddField("truncated", 0).
		AddField("placed", 3).
		AddField("granted", 1).
		SetTime(now)
	require.Len(t, rec.bodies, 2)
	assert.Equal(t, strings.TrimSpace(lines(grant)), strings.TrimSpace(rec.bodies[0]))
	assert.Equal(t, strings.TrimSpace(lines(cycle)), strings.TrimSpace(rec.bodies[1]))
}

func TestInfluxSink_RecordTimeline(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	ev := coremetrics.TimelineEvent{
		RunID:      "r1",
		Day:        day,
		Production: []float64{100, 200},
		Usage:      []float64{50},
	}
	require.NoError(t, sink.RecordTimeline(ev))

	first := write.NewPointWithMeasurement("power_timeline").
		AddTag("run_id", "r1").
		AddField("production_w", 100.0).
		AddField("usage_w", 50.0).
		AddField("overcharge_w", 0.0).
		SetTime(day)
	second := write.NewPointWithMeasurement("power_timeline").
		AddTag("run_id", "r1").
		AddField("production_w", 200.0).
		AddField("usage_w", 0.0).
		AddField("overcharge_w", 0.0).
		SetTime(day.Add(time.Minute))
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, strings.TrimSpace(lines(first, second)), strings.TrimSpace(rec.bodies[0]))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
