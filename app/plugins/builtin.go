package plugins

import (
	"github.com/kilianp07/solarsched/core/scheduler"
)

func init() {
	RegisterEngine(scheduler.EngineGreedy, func(flags scheduler.Flags, d Deps) (scheduler.Engine, error) {
		return scheduler.NewRescheduler(flags, d.Log, d.Sink, d.Bus), nil
	})
	RegisterEngine(scheduler.EngineGlobal, func(flags scheduler.Flags, d Deps) (scheduler.Engine, error) {
		return scheduler.NewGlobalOptimizer(flags, d.Log, d.Sink), nil
	})
	RegisterEngine(scheduler.EngineBaseline, func(_ scheduler.Flags, d Deps) (scheduler.Engine, error) {
		return scheduler.NewBaseline(d.Log, d.Sink), nil
	})
}
