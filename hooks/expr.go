package hooks

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator executes hook expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	cfg engineConfig
}

// NewExpr constructs an Evaluator backed by expr-lang/expr.
func NewExpr(opts ...EngineOption) Evaluator {
	return &exprEvaluator{cfg: applyEngineOptions(opts)}
}

func (e *exprEvaluator) Engine() string { return EngineExpr }

func (e *exprEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if cached, ok := e.cfg.cached(EngineExpr, expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(exprEnv()),
		exprlang.AllowUndefinedVariables(),
	}
	if e.cfg.registry != nil {
		options = append(options, exprlang.Function("call", func(arguments ...any) (any, error) {
			if len(arguments) == 0 {
				return nil, fmt.Errorf("hooks: call requires function name")
			}
			name, ok := arguments[0].(string)
			if !ok {
				return nil, fmt.Errorf("hooks: call name must be string")
			}
			return e.cfg.registry.Call(name, arguments[1:]...)
		}))
	}
	for _, name := range e.cfg.registry.Names() {
		fn := name
		options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
			return e.cfg.registry.Call(fn, arguments...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, "", err)
	}
	e.cfg.store(EngineExpr, expression, program)
	return program, nil
}

// exprEnv declares only the bindings whose type is fixed. value, raw and
// previous stay undeclared so the checker treats them as dynamic.
func exprEnv() map[string]any {
	return map[string]any{
		"key":    "",
		"fields": map[string]any{},
		"now":    time.Time{},
	}
}

type exprCompiledRule struct {
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx HookContext) (any, error) {
	result, err := exprlang.Run(r.program, ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, r.expression, ctx.label(), err)
	}
	return result, nil
}
