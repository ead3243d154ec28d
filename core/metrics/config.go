package metrics

import "github.com/kilianp07/solarsched/core/factory"

// Config lists the sinks receiving scheduling events. Several sinks are
// combined into a MultiSink.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// Textfile, when set, receives the Prometheus registry after a batch run
	// in node-exporter textfile format.
	Textfile string `json:"textfile" yaml:"textfile"`
}

// Types returns the configured sink type names in order.
func (c Config) Types() []string {
	out := make([]string, len(c.Sinks))
	for i, s := range c.Sinks {
		out[i] = s.Type
	}
	return out
}
