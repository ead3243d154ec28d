package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/solarsched/core/logger"
	coremetrics "github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/internal/eventbus"
)

// Deps carries the collaborators handed to every engine.
type Deps struct {
	Log  logger.Logger
	Sink coremetrics.MetricsSink
	Bus  *eventbus.TypedBus[scheduler.CycleEvent]
}

// EngineFactory builds a scheduling engine from the scheduling flags.
type EngineFactory func(flags scheduler.Flags, deps Deps) (scheduler.Engine, error)

var Engines = map[string]EngineFactory{}

func RegisterEngine(name string, f EngineFactory) { Engines[name] = f }

// NewEngine builds the engine registered under name.
func NewEngine(name string, flags scheduler.Flags, deps Deps) (scheduler.Engine, error) {
	f, ok := Engines[name]
	if !ok {
		names := make([]string, 0, len(Engines))
		for n := range Engines {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown engine %q (known: %s)", name, strings.Join(names, ", "))
	}
	return f(flags, deps)
}
