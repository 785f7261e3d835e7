package hooks

import (
	"context"
	"log/slog"
	"time"
)

// EvaluationEvent describes an evaluation attempt for logging.
type EvaluationEvent struct {
	Engine   string
	Expr     string
	Key      string
	Op       Operation
	Duration time.Duration
	Err      error
}

// Logger records evaluation events.
type Logger interface {
	LogEvaluation(EvaluationEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(EvaluationEvent)

// LogEvaluation implements Logger.
func (f LoggerFunc) LogEvaluation(event EvaluationEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(EvaluationEvent) {}

// SlogLogger writes evaluation failures at warn level and successes at debug.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return LoggerFunc(func(event EvaluationEvent) {
		level := slog.LevelDebug
		attrs := []slog.Attr{
			slog.String("engine", event.Engine),
			slog.String("expr", event.Expr),
			slog.String("key", event.Key),
			slog.String("op", string(event.Op)),
			slog.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", event.Err.Error()))
		}
		logger.LogAttrs(context.Background(), level, "hooks.evaluate", attrs...)
	})
}
