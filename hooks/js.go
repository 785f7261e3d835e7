//go:build js_eval

package hooks

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cfg engineConfig
}

// NewJS constructs an Evaluator backed by goja.
func NewJS(opts ...EngineOption) Evaluator {
	return &jsEvaluator{cfg: applyEngineOptions(opts)}
}

func (e *jsEvaluator) Engine() string { return EngineJS }

func (e *jsEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineJS, ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, "", err)
	}
	return &jsCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if cached, ok := e.cfg.cached(EngineJS, expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	e.cfg.store(EngineJS, expression, program)
	return program, nil
}

func (e *jsEvaluator) run(ctx HookContext, program *goja.Program) (any, error) {
	vm := goja.New()
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	if e.cfg.registry != nil {
		registry := e.cfg.registry
		if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
			return registry.Call(name, arguments...)
		}); err != nil {
			return nil, err
		}
		for _, name := range registry.Names() {
			fn := name
			if err := vm.Set(fn, func(arguments ...any) (any, error) {
				return registry.Call(fn, arguments...)
			}); err != nil {
				return nil, err
			}
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx HookContext) (any, error) {
	value, err := r.evaluator.run(ctx, r.program)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, r.expression, ctx.label(), err)
	}
	return value, nil
}

// JSAvailable reports whether the goja engine is compiled in.
func JSAvailable() bool {
	return true
}
