// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, the Prometheus and InfluxDB metrics sinks, the SQLite run store and
// the energy-charts forecast client.
package infra
