package hooks

import (
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

type celEvaluator struct {
	cfg engineConfig
}

// NewCEL constructs an Evaluator backed by cel-go. Every binding is declared
// dyn except key (string), fields (map of string to dyn) and now (timestamp).
// With a registry, call(name, [args]) invokes a registered function.
func NewCEL(opts ...EngineOption) Evaluator {
	return &celEvaluator{cfg: applyEngineOptions(opts)}
}

func (e *celEvaluator) Engine() string { return EngineCEL }

func (e *celEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", err)
	}
	return &celCompiledRule{program: program, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if cached, ok := e.cfg.cached(EngineCEL, expression); ok {
		if program, ok := cached.(celgo.Program); ok {
			return program, nil
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	e.cfg.store(EngineCEL, expression, program)
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("key", celgo.StringType),
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("previous", celgo.DynType),
		celgo.Variable("raw", celgo.DynType),
		celgo.Variable("fields", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("now", celgo.TimestampType),
	}
	if e.cfg.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding(lhs, rhs ref.Val) ref.Val {
	name, ok := lhs.Value().(string)
	if !ok {
		return types.NewErr("hooks: call name must be string")
	}
	var args []any
	if list, ok := rhs.(traits.Lister); ok {
		for it := list.Iterator(); it.HasNext() == types.True; {
			args = append(args, it.Next().Value())
		}
	}
	result, err := e.cfg.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx HookContext) (any, error) {
	out, _, err := r.program.Eval(ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, r.expression, ctx.label(), err)
	}
	return celValue(out), nil
}

func celValue(val ref.Val) any {
	switch val.(type) {
	case nil, types.Null:
		return nil
	}
	return val.Value()
}
