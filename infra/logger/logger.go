package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/solarsched/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// Options controls the output shared by all component loggers.
type Options struct {
	// Level is a zerolog level name; empty keeps info.
	Level string
	// Console selects the human readable writer instead of JSON.
	Console bool
	Out     io.Writer
}

var (
	mu   sync.RWMutex
	opts = Options{Level: "info", Out: os.Stderr}
)

// Configure sets the options used by loggers created afterwards. APP_ENV=dev
// always enables the console writer.
func Configure(o Options) error {
	if o.Level == "" {
		o.Level = "info"
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err != nil {
		return err
	}
	if o.Out == nil {
		o.Out = os.Stderr
	}
	mu.Lock()
	opts = o
	mu.Unlock()
	return nil
}

func current() Options {
	mu.RLock()
	defer mu.RUnlock()
	o := opts
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		o.Console = true
	}
	return o
}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
