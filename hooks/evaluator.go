package hooks

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyExpression indicates a hook was given no expression.
	ErrEmptyExpression = errors.New("hooks: expression must not be empty")
	// ErrUnknownEngine indicates Lookup received an unsupported engine name.
	ErrUnknownEngine = errors.New("hooks: unknown engine")
	// ErrEngineUnavailable indicates the engine was excluded from the build.
	ErrEngineUnavailable = errors.New("hooks: engine not available in this build")
)

// Engine names accepted by Lookup.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
	EngineLua  = "lua"
)

// Evaluator runs expressions against a HookContext.
type Evaluator interface {
	Engine() string
	Evaluate(ctx HookContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx HookContext) (any, error)
}

// Lookup constructs the evaluator registered under engine. An empty name
// selects expr.
func Lookup(engine string, opts ...EngineOption) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExpr(opts...), nil
	case EngineCEL:
		return NewCEL(opts...), nil
	case EngineJS, "javascript":
		if e := NewJS(opts...); e != nil {
			return e, nil
		}
		return nil, wrapEvaluatorError(EngineJS, ErrEngineUnavailable)
	case EngineLua:
		return NewLua(opts...), nil
	default:
		return nil, wrapEvaluatorError(engine, ErrUnknownEngine)
	}
}

// EngineOption configures an evaluator.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithProgramCache shares compiled programs through cache.
func WithProgramCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes the registry's functions to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEngineOptions(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg engineConfig) cached(engine, expr string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(engine + ":" + expr)
}

func (cfg engineConfig) store(engine, expr string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(engine+":"+expr, program)
	}
}
