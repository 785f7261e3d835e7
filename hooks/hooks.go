// Package hooks turns expressions into descriptor getter and setter hooks.
//
// Expressions are compiled when the hook is built; compile failures are
// returned to the caller. Evaluation failures are logged and the hook falls
// back to the raw value on reads and to the incoming value on writes, so a
// broken expression never breaks property access.
package hooks

import (
	"time"

	descriptor "github.com/goliatone/go-descriptor"
)

// Option configures a hook built by Getter or Setter.
type Option func(*hookConfig)

type hookConfig struct {
	logger Logger
	now    func() time.Time
}

// WithLogger attaches an evaluation logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *hookConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithClock overrides the time source bound to now.
func WithClock(now func() time.Time) Option {
	return func(cfg *hookConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

func applyHookOptions(opts []Option) hookConfig {
	cfg := hookConfig{logger: noopLogger{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Getter compiles expression with e and returns a getter hook evaluating it
// with key, previous, raw and fields bound.
func Getter(e Evaluator, expression string, opts ...Option) (descriptor.GetterHook, error) {
	rule, err := compile(e, expression)
	if err != nil {
		return nil, err
	}
	cfg := applyHookOptions(opts)
	engine := e.Engine()
	return func(key string, previous, raw any, obj descriptor.Object) any {
		ctx := HookContext{
			Op:       OperationGet,
			Key:      key,
			Previous: previous,
			Raw:      raw,
			Fields:   fieldsOf(obj),
		}
		value, err := cfg.evaluate(engine, expression, rule, ctx)
		if err != nil {
			return raw
		}
		return value
	}, nil
}

// Setter compiles expression with e and returns a setter hook evaluating it
// with value, previous, key and fields bound.
func Setter(e Evaluator, expression string, opts ...Option) (descriptor.SetterHook, error) {
	rule, err := compile(e, expression)
	if err != nil {
		return nil, err
	}
	cfg := applyHookOptions(opts)
	engine := e.Engine()
	return func(value, previous any, key string, obj descriptor.Object) any {
		ctx := HookContext{
			Op:       OperationSet,
			Key:      key,
			Value:    value,
			Previous: previous,
			Fields:   fieldsOf(obj),
		}
		result, err := cfg.evaluate(engine, expression, rule, ctx)
		if err != nil {
			return value
		}
		return result
	}, nil
}

func compile(e Evaluator, expression string) (CompiledRule, error) {
	if e == nil {
		return nil, wrapEvaluatorError("unknown", ErrEngineUnavailable)
	}
	if expression == "" {
		return nil, wrapEvaluatorError(e.Engine(), ErrEmptyExpression)
	}
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, "", err)
	}
	return rule, nil
}

func (cfg hookConfig) evaluate(engine, expression string, rule CompiledRule, ctx HookContext) (any, error) {
	now := cfg.now()
	ctx.Now = &now
	start := time.Now()
	value, err := rule.Evaluate(ctx)
	err = wrapEvaluationError(engine, expression, ctx.label(), err)
	cfg.logger.LogEvaluation(EvaluationEvent{
		Engine:   engine,
		Expr:     expression,
		Key:      ctx.Key,
		Op:       ctx.Op,
		Duration: time.Since(start),
		Err:      err,
	})
	return value, err
}

type fieldLister interface {
	Fields() map[string]any
}

// fieldsOf exposes the raw fields of targets that can list them.
func fieldsOf(obj descriptor.Object) map[string]any {
	if lister, ok := obj.(fieldLister); ok && lister != nil {
		return lister.Fields()
	}
	return map[string]any{}
}
