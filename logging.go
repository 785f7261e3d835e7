package descriptor

import (
	"context"
	"log/slog"
	"time"
)

// Operation names the accessor that produced an AccessEvent.
type Operation string

const (
	OperationGet     Operation = "get"
	OperationSet     Operation = "set"
	OperationInstall Operation = "install"
)

// AccessEvent describes one pass through a layer's get or set.
type AccessEvent struct {
	Op       Operation
	Key      string
	LayerID  string
	Index    *int
	Enabled  bool
	Hooked   bool
	Duration time.Duration
	Err      error
}

// Logger records layer access events.
type Logger interface {
	LogAccess(AccessEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(AccessEvent)

// LogAccess implements Logger.
func (f LoggerFunc) LogAccess(event AccessEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogAccess(AccessEvent) {}

// SlogLogger emits access events to logger. Successful accesses log at debug
// level, failures at warn.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) LogAccess(event AccessEvent) {
	attrs := []slog.Attr{
		slog.String("key", event.Key),
		slog.String("layer_id", event.LayerID),
		slog.Bool("enabled", event.Enabled),
		slog.Bool("hooked", event.Hooked),
		slog.Duration("duration", event.Duration),
	}
	if event.Index != nil {
		attrs = append(attrs, slog.Int("index", *event.Index))
	}
	level := slog.LevelDebug
	if event.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	l.logger.LogAttrs(context.Background(), level, "descriptor."+string(event.Op), attrs...)
}
