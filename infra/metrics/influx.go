package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordPlacements writes one point per placed charging block.
func (s *InfluxSink) RecordPlacements(events []coremetrics.PlacementEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(events))
	for _, e := range events {
		p := write.NewPointWithMeasurement("charging_placement").
			AddTag("run_id", e.RunID).
			AddTag("vehicle_id", e.VehicleID).
			AddTag("rescheduled", strconv.FormatBool(e.Rescheduled)).
			AddField("minutes", e.Minutes).
			AddField("energy_wh", round3(e.EnergyWh)).
			AddField("grid_wh", round3(e.GridWh)).
			AddField("cycle_unix", e.CycleTime.Unix()).
			SetTime(e.Start)
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordOvercharge writes one point per overcharge grant.
func (s *InfluxSink) RecordOvercharge(events []coremetrics.OverchargeEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(events))
	for _, e := range events {
		p := write.NewPointWithMeasurement("overcharge_grant").
			AddTag("run_id", e.RunID).
			AddTag("vehicle_id", e.VehicleID).
			AddTag("extended", strconv.FormatBool(e.Extended)).
			AddField("minutes", e.Minutes).
			AddField("energy_wh", round3(e.EnergyWh)).
			SetTime(e.Start)
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordCycle writes the counters of one reschedule cycle.
func (s *InfluxSink) RecordCycle(ev coremetrics.CycleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reschedule_cycle").
		AddTag("run_id", ev.RunID).
		AddField("arrivals", ev.Arrivals).
		AddField("reclaimed", ev.Reclaimed).
		AddField("truncated", ev.Truncated).
		AddField("placed", ev.Placed).
		AddField("granted", ev.Granted).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSummary writes the totals of a simulated day.
func (s *InfluxSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("day_summary").
		AddTag("run_id", ev.RunID).
		AddField("vehicles_total", ev.TotalVehicles).
		AddField("vehicles_scheduled", ev.ScheduledVehicles).
		AddField("vehicles_missed", ev.MissedVehicles).
		AddField("required_wh", round3(ev.RequiredWh)).
		AddField("solar_wh", round3(ev.SolarWh)).
		AddField("consumed_wh", round3(ev.ConsumedWh)).
		AddField("grid_wh", round3(ev.GridWh)).
		AddField("solar_unused_wh", round3(ev.SolarUnusedWh)).
		SetTime(ev.Date)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTimeline writes one point per minute of the day.
func (s *InfluxSink) RecordTimeline(ev coremetrics.TimelineEvent) error {
	n := len(ev.Production)
	if len(ev.Usage) > n {
		n = len(ev.Usage)
	}
	if n == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, n)
	for i := 0; i < n; i++ {
		p := write.NewPointWithMeasurement("power_timeline").
			AddTag("run_id", ev.RunID).
			AddField("production_w", round3(at(ev.Production, i))).
			AddField("usage_w", round3(at(ev.Usage, i))).
			AddField("overcharge_w", round3(at(ev.Overcharge, i))).
			SetTime(ev.Day.Add(time.Duration(i) * time.Minute))
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
