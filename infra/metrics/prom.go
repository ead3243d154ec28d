package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/solarsched/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling events in Prometheus metrics.
type PromSink struct {
	placements *prometheus.CounterVec
	gridWh     prometheus.Histogram
	grants     *prometheus.CounterVec
	grantedWh  prometheus.Counter
	cycles     prometheus.Counter
	reclaimed  prometheus.Counter
	day        *prometheus.GaugeVec
	vehicles   *prometheus.GaugeVec
}

// NewPromSink registers scheduling metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solarsched_placements_total",
			Help: "Charging blocks placed by the scheduler",
		}, []string{"rescheduled"}),
		gridWh: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "solarsched_placement_grid_wh",
			Help:    "Grid energy of each chosen placement",
			Buckets: []float64{0, 250, 500, 1000, 2500, 5000, 10000, 25000},
		}),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solarsched_overcharge_grants_total",
			Help: "Overcharge grants issued",
		}, []string{"extended"}),
		grantedWh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solarsched_overcharge_energy_wh_total",
			Help: "Energy granted as overcharge",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solarsched_cycles_total",
			Help: "Reschedule cycles that changed the schedule",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solarsched_reclaimed_total",
			Help: "Pending placements reclaimed for rescheduling",
		}),
		day: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solarsched_day_energy_wh",
			Help: "Energy totals of the last simulated day",
		}, []string{"kind"}),
		vehicles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solarsched_day_vehicles",
			Help: "Vehicle counts of the last simulated day",
		}, []string{"state"}),
	}
	var err error
	if s.placements, err = register(reg, s.placements); err != nil {
		return nil, err
	}
	if s.gridWh, err = register(reg, s.gridWh); err != nil {
		return nil, err
	}
	if s.grants, err = register(reg, s.grants); err != nil {
		return nil, err
	}
	if s.grantedWh, err = register(reg, s.grantedWh); err != nil {
		return nil, err
	}
	if s.cycles, err = register(reg, s.cycles); err != nil {
		return nil, err
	}
	if s.reclaimed, err = register(reg, s.reclaimed); err != nil {
		return nil, err
	}
	if s.day, err = register(reg, s.day); err != nil {
		return nil, err
	}
	if s.vehicles, err = register(reg, s.vehicles); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlacements counts placements and observes their grid energy.
func (s *PromSink) RecordPlacements(events []coremetrics.PlacementEvent) error {
	for _, e := range events {
		s.placements.WithLabelValues(strconv.FormatBool(e.Rescheduled)).Inc()
		s.gridWh.Observe(e.GridWh)
	}
	return nil
}

// RecordOvercharge counts grants and the energy they carry.
func (s *PromSink) RecordOvercharge(events []coremetrics.OverchargeEvent) error {
	for _, e := range events {
		s.grants.WithLabelValues(strconv.FormatBool(e.Extended)).Inc()
		s.grantedWh.Add(e.EnergyWh)
	}
	return nil
}

// RecordCycle counts a reschedule cycle.
func (s *PromSink) RecordCycle(ev coremetrics.CycleEvent) error {
	s.cycles.Inc()
	s.reclaimed.Add(float64(ev.Reclaimed))
	return nil
}

// RecordSummary sets the day gauges.
func (s *PromSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	s.day.WithLabelValues("required").Set(ev.RequiredWh)
	s.day.WithLabelValues("solar").Set(ev.SolarWh)
	s.day.WithLabelValues("consumed").Set(ev.ConsumedWh)
	s.day.WithLabelValues("grid").Set(ev.GridWh)
	s.day.WithLabelValues("solar_unused").Set(ev.SolarUnusedWh)
	s.vehicles.WithLabelValues("total").Set(float64(ev.TotalVehicles))
	s.vehicles.WithLabelValues("scheduled").Set(float64(ev.ScheduledVehicles))
	s.vehicles.WithLabelValues("missed").Set(float64(ev.MissedVehicles))
	return nil
}

// WriteTextfile dumps the metrics gathered by g to path in the text
// exposition format, for node_exporter style collection of batch runs.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, g)
}
