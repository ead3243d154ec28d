package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/solarsched/app/plugins"
	"github.com/kilianp07/solarsched/config"
	coremetrics "github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/infra/logger"
	"github.com/kilianp07/solarsched/infra/metrics"
	"github.com/kilianp07/solarsched/infra/store"
	"github.com/kilianp07/solarsched/internal/eventbus"
	"github.com/kilianp07/solarsched/pkg/dataset"
	"github.com/kilianp07/solarsched/pkg/export"
)

// Report is the outcome of one simulated day.
type Report struct {
	Engine   string
	Result   scheduler.Result
	Summary  scheduler.Summary
	Outcomes []scheduler.Outcome
}

// Service runs simulated days with the configured engine, sinks and outputs.
type Service struct {
	cfg        *config.Config
	log        logger.Logger
	sink       coremetrics.MetricsSink
	store      *store.SQLiteStore
	bus        *eventbus.TypedBus[scheduler.CycleEvent]
	production ProductionSource
	gatherer   prometheus.Gatherer
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithProductionSource replaces the configured production source.
func WithProductionSource(p ProductionSource) Option {
	return func(s *Service) { s.production = p }
}

// WithSink replaces the configured metrics sinks.
func WithSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithGatherer selects the registry dumped to the metrics textfile.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Service) { s.gatherer = g }
}

// WithClock fixes the time used to resolve an unset simulation date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:      cfg,
		log:      logger.New("service"),
		bus:      eventbus.NewTyped[scheduler.CycleEvent](),
		gatherer: prometheus.DefaultGatherer,
		now:      time.Now,
	}
	for _, o := range opts {
		o(svc)
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.production == nil {
		svc.production = NewProductionSource(cfg)
	}
	if err := outputDirs(cfg); err != nil {
		return nil, err
	}
	if cfg.Store.Path != "" {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("run store: %w", err)
		}
		svc.store = st
	}
	return svc, nil
}

// Store returns the run history, nil when disabled.
func (s *Service) Store() *store.SQLiteStore { return s.store }

// Day resolves the configured simulation day.
func (s *Service) Day() (model.Day, error) {
	return s.cfg.Simulation.Day(s.now())
}

// Simulate schedules the configured fleet for one day with engine, the
// configured engine when empty, and writes every configured output.
func (s *Service) Simulate(ctx context.Context, engine string) (Report, error) {
	if engine == "" {
		engine = s.cfg.Scheduling.Engine
	}
	day, err := s.Day()
	if err != nil {
		return Report{}, err
	}
	vehicles, err := dataset.LoadVehiclesFile(s.cfg.Simulation.VehiclesPath, day)
	if err != nil {
		return Report{}, fmt.Errorf("load vehicles: %w", err)
	}
	production, err := s.production.Production(ctx, day)
	if err != nil {
		return Report{}, fmt.Errorf("production: %w", err)
	}
	s.announce(day, vehicles, production)

	e, err := plugins.NewEngine(engine, s.cfg.Scheduling, plugins.Deps{
		Log:  logger.New("scheduler"),
		Sink: s.sink,
		Bus:  s.bus,
	})
	if err != nil {
		return Report{}, err
	}
	done := s.watchCycles()
	res, err := e.Schedule(day, vehicles, production)
	done()
	if err != nil {
		return Report{}, fmt.Errorf("schedule %s: %w", engine, err)
	}

	rep := Report{
		Engine:   engine,
		Result:   res,
		Summary:  scheduler.Summarize(res, s.cfg.Simulation.PeakSolarW),
		Outcomes: scheduler.Outcomes(res.Vehicles, res.Consumers),
	}
	s.logSummary(rep.Summary)
	if err := s.record(rep); err != nil {
		return rep, err
	}
	if err := s.write(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Service) announce(day model.Day, vehicles []model.Vehicle, production model.Timeline) {
	solar := production.Energy()
	if solar == 0 {
		s.log.Warnf("no solar production for %s", day.Start.Format(time.DateOnly))
	}
	var required float64
	for _, v := range vehicles {
		required += v.EnergyRequired()
	}
	s.log.Infof("scheduling %d vehicles on %s: %.2f kWh required, %.2f kWh solar forecast",
		len(vehicles), day.Start.Format(time.DateOnly), required, solar/1000)
	if required*1000 > solar {
		s.log.Warnf("less solar energy available than required, grid energy is necessary")
	}
}

// watchCycles logs published cycles until the returned stop function is called.
func (s *Service) watchCycles() func() {
	sub := s.bus.SubscribeBuffered(model.MinutesPerDay)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for ev := range sub {
			s.log.Debugw("cycle", map[string]any{
				"minute":    ev.Minute,
				"arrivals":  ev.Arrivals,
				"reclaimed": ev.Reclaimed,
				"placed":    len(ev.Placements),
			})
		}
	}()
	return func() {
		s.bus.Unsubscribe(sub)
		<-finished
		if n := s.bus.Dropped(); n > 0 {
			s.log.Warnf("%d cycle events were not observed", n)
		}
	}
}

func (s *Service) logSummary(sum scheduler.Summary) {
	share := 0.0
	if sum.ConsumedWh > 0 {
		share = sum.GridWh / sum.ConsumedWh * 100
	}
	s.log.Infof("consumed %.2f kWh (%.0f%% grid), grid %.2f kWh, unused solar %.2f kWh",
		sum.ConsumedWh/1000, share, sum.GridWh/1000, sum.SolarUnusedWh/1000)
	if len(sum.Missed) > 0 {
		s.log.Warnf("%d vehicles missed their target: %v", len(sum.Missed), sum.Missed)
	}
}

func (s *Service) record(rep Report) error {
	if rec, ok := s.sink.(coremetrics.SummaryRecorder); ok {
		if err := rec.RecordSummary(rep.Summary.Event()); err != nil {
			s.log.Errorf("record summary: %v", err)
		}
	}
	if rec, ok := s.sink.(coremetrics.TimelineRecorder); ok {
		if err := rec.RecordTimeline(rep.Result.TimelineEvent()); err != nil {
			s.log.Errorf("record timeline: %v", err)
		}
	}
	if s.store != nil {
		run := store.Run{Engine: rep.Engine, Summary: rep.Summary}
		if err := s.store.Add(run, rep.Outcomes); err != nil {
			return fmt.Errorf("store run: %w", err)
		}
	}
	if path := s.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path, s.gatherer); err != nil {
			return fmt.Errorf("metrics textfile: %w", err)
		}
	}
	return nil
}

func (s *Service) write(rep Report) error {
	sim := s.cfg.Simulation
	if sim.SnapshotPath != "" {
		params := export.Parameters{
			PeakSolarW:     sim.PeakSolarW,
			ReferencePeakW: sim.ReferencePeakW,
			SmoothForecast: sim.SmoothForecast,
			Scheduling:     s.cfg.Scheduling,
		}
		params.Scheduling.Engine = rep.Engine
		if err := export.SaveSnapshot(sim.SnapshotPath, export.NewSnapshot(params, rep.Result)); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	if sim.ResultCSV != "" {
		if err := export.AppendSummaryCSV(sim.ResultCSV, rep.Summary); err != nil {
			return fmt.Errorf("result csv: %w", err)
		}
	}
	if sim.TimelineCSV != "" {
		if err := writeFile(sim.TimelineCSV, func(f *os.File) error {
			return export.WriteTimelineCSV(f, rep.Result)
		}); err != nil {
			return fmt.Errorf("timeline csv: %w", err)
		}
	}
	if sim.SegmentsCSV != "" {
		segments := scheduler.Segments(rep.Result.Day, rep.Result.Consumers)
		if err := writeFile(sim.SegmentsCSV, func(f *os.File) error {
			return export.WriteCSV(f, segments)
		}); err != nil {
			return fmt.Errorf("segments csv: %w", err)
		}
	}
	return nil
}

// Report recomputes outcomes and the summary of a stored snapshot without
// rescheduling.
func (s *Service) Report(path string) (Report, error) {
	snap, err := export.LoadSnapshot(path)
	if err != nil {
		return Report{}, err
	}
	res, err := snap.Result()
	if err != nil {
		return Report{}, err
	}
	return Report{
		Engine:   snap.Parameters.Scheduling.Engine,
		Result:   res,
		Summary:  scheduler.Summarize(res, snap.Parameters.PeakSolarW),
		Outcomes: scheduler.Outcomes(res.Vehicles, res.Consumers),
	}, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// outputDirs creates the parent directories of every configured output.
func outputDirs(cfg *config.Config) error {
	sim := cfg.Simulation
	for _, p := range []string{cfg.Store.Path, cfg.Metrics.Textfile, sim.SnapshotPath, sim.ResultCSV, sim.TimelineCSV, sim.SegmentsCSV} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("output directory for %s: %w", p, err)
		}
	}
	return nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
