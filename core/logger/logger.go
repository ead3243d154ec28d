// Package logger defines the logging interface the scheduling engines and the
// application depend on. infra/logger provides the zerolog implementation.
package logger

// Logger exposes the levels used across the scheduler.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields such as a cycle's
	// placements or reclaimed vehicles.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
