package hooks

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	descriptor "github.com/goliatone/go-descriptor"
)

type engineCase struct {
	name      string
	evaluator func(...EngineOption) Evaluator
	getter    string
	setter    string
	fields    string
	key       string
	double    string
	fail      string
}

func engineCases() []engineCase {
	return []engineCase{
		{
			name:      EngineExpr,
			evaluator: NewExpr,
			getter:    "raw + 1",
			setter:    "value * 2",
			fields:    "fields.base + value",
			key:       `key + "!"`,
			double:    "double(value)",
			fail:      "fail(value)",
		},
		{
			name:      EngineCEL,
			evaluator: NewCEL,
			getter:    "raw + 1",
			setter:    "value * 2",
			fields:    "fields.base + value",
			key:       `key + "!"`,
			double:    `call("double", [value])`,
			fail:      `call("fail", [value])`,
		},
		{
			name:      EngineLua,
			evaluator: NewLua,
			getter:    "raw + 1",
			setter:    "value * 2",
			fields:    "fields.base + value",
			key:       `key .. "!"`,
			double:    `call("double", value)`,
			fail:      `call("fail", value)`,
		},
	}
}

func testRegistry(t *testing.T) *FunctionRegistry {
	t.Helper()
	registry := NewFunctionRegistry()
	if err := registry.Register("double", func(args ...any) (any, error) {
		switch n := args[0].(type) {
		case int:
			return n * 2, nil
		case int64:
			return n * 2, nil
		case float64:
			return n * 2, nil
		}
		return nil, fmt.Errorf("double: unsupported %T", args[0])
	}); err != nil {
		t.Fatalf("register double: %v", err)
	}
	if err := registry.Register("fail", func(...any) (any, error) {
		return nil, errors.New("always fails")
	}); err != nil {
		t.Fatalf("register fail: %v", err)
	}
	return registry
}

func TestEngineHooksThroughLayer(t *testing.T) {
	for _, tc := range engineCases() {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := tc.evaluator()
			onGet, err := Getter(evaluator, tc.getter)
			if err != nil {
				t.Fatalf("getter: %v", err)
			}
			onSet, err := Setter(evaluator, tc.setter)
			if err != nil {
				t.Fatalf("setter: %v", err)
			}

			record := descriptor.NewRecord(nil)
			layer := descriptor.New(record, "age", descriptor.WithOnGet(onGet), descriptor.WithOnSet(onSet))
			layer.Set(record, 10)

			raw, _ := record.Field("_age")
			if fmt.Sprint(raw) != "20" {
				t.Fatalf("expected stored 20, got %v", raw)
			}
			if got := layer.Get(record); fmt.Sprint(got) != "21" {
				t.Fatalf("expected read 21, got %v", got)
			}
		})
	}
}

func TestEngineBindings(t *testing.T) {
	for _, tc := range engineCases() {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := tc.evaluator()
			record := descriptor.NewRecord(nil)
			record.SetField("base", 5)

			withFields, err := Setter(evaluator, tc.fields)
			if err != nil {
				t.Fatalf("setter: %v", err)
			}
			if got := withFields(10, nil, "age", record); fmt.Sprint(got) != "15" {
				t.Fatalf("expected 15 from fields binding, got %v", got)
			}

			withKey, err := Getter(evaluator, tc.key)
			if err != nil {
				t.Fatalf("getter: %v", err)
			}
			if got := withKey("age", nil, nil, record); got != "age!" {
				t.Fatalf("expected age!, got %v", got)
			}
		})
	}
}

func TestEngineFunctionRegistry(t *testing.T) {
	registry := testRegistry(t)
	for _, tc := range engineCases() {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := tc.evaluator(WithFunctionRegistry(registry))
			onSet, err := Setter(evaluator, tc.double)
			if err != nil {
				t.Fatalf("setter: %v", err)
			}
			if got := onSet(21, nil, "age", nil); fmt.Sprint(got) != "42" {
				t.Fatalf("expected 42, got %v", got)
			}
		})
	}
}

func TestEvaluationFailureFallsBack(t *testing.T) {
	registry := testRegistry(t)
	for _, tc := range engineCases() {
		t.Run(tc.name, func(t *testing.T) {
			var events []EvaluationEvent
			logger := LoggerFunc(func(e EvaluationEvent) { events = append(events, e) })
			evaluator := tc.evaluator(WithFunctionRegistry(registry))

			onSet, err := Setter(evaluator, tc.fail, WithLogger(logger))
			if err != nil {
				t.Fatalf("setter: %v", err)
			}
			if got := onSet(7, nil, "age", nil); got != 7 {
				t.Fatalf("expected incoming value on failure, got %v", got)
			}

			onGet, err := Getter(evaluator, strings.ReplaceAll(tc.fail, "value", "raw"), WithLogger(logger))
			if err != nil {
				t.Fatalf("getter: %v", err)
			}
			if got := onGet("age", nil, 3, nil); got != 3 {
				t.Fatalf("expected raw value on failure, got %v", got)
			}

			if len(events) != 2 {
				t.Fatalf("expected 2 logged evaluations, got %d", len(events))
			}
			var evalErr *EvaluationError
			if !errors.As(events[0].Err, &evalErr) {
				t.Fatalf("expected EvaluationError, got %v", events[0].Err)
			}
			if evalErr.Engine != tc.name || evalErr.Key != "age" || events[0].Op != OperationSet {
				t.Fatalf("unexpected error metadata: %+v op=%s", evalErr, events[0].Op)
			}
			if !strings.Contains(evalErr.Error(), "always fails") {
				t.Fatalf("expected cause in message, got %q", evalErr.Error())
			}
		})
	}
}

func TestCompileErrorsAreReturned(t *testing.T) {
	for _, tc := range engineCases() {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Getter(tc.evaluator(), "value +")
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected EvaluationError, got %v", err)
			}
			if evalErr.Engine != tc.name || evalErr.Expr != "value +" {
				t.Fatalf("unexpected metadata: %+v", evalErr)
			}

			if _, err := Setter(tc.evaluator(), ""); !errors.Is(err, ErrEmptyExpression) {
				t.Fatalf("expected ErrEmptyExpression, got %v", err)
			}
		})
	}
	if _, err := Getter(nil, "raw"); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable for nil evaluator, got %v", err)
	}
}

func TestProgramCacheSharedAcrossEngines(t *testing.T) {
	cache := NewMapCache()
	for _, tc := range engineCases() {
		evaluator := tc.evaluator(WithProgramCache(cache))
		for i := 0; i < 2; i++ {
			if _, err := evaluator.Compile("value"); err != nil {
				t.Fatalf("%s compile: %v", tc.name, err)
			}
		}
	}
	if cache.Len() != len(engineCases()) {
		t.Fatalf("expected one program per engine, got %d", cache.Len())
	}
	if _, ok := cache.Get(EngineCEL + ":value"); !ok {
		t.Fatalf("expected engine-prefixed cache key")
	}
}

func TestEvaluateDirect(t *testing.T) {
	for _, tc := range engineCases() {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.evaluator().Evaluate(HookContext{Key: "age", Value: 4}, tc.setter)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if fmt.Sprint(got) != "8" {
				t.Fatalf("expected 8, got %v", got)
			}
		})
	}
}

func TestClockBinding(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	onGet, err := Getter(NewExpr(), "now.Year()", WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("getter: %v", err)
	}
	if got := onGet("age", nil, nil, nil); got != 2024 {
		t.Fatalf("expected 2024, got %v", got)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "expr", "CEL", " lua "} {
		evaluator, err := Lookup(name)
		if err != nil || evaluator == nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
	}
	if _, err := Lookup("python"); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
	evaluator, err := Lookup("js")
	if JSAvailable() {
		if err != nil || evaluator.Engine() != EngineJS {
			t.Fatalf("expected js evaluator, got %v %v", evaluator, err)
		}
	} else if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestLuaTableConversion(t *testing.T) {
	evaluator := NewLua()
	list, err := evaluator.Evaluate(HookContext{}, "{1, 2, 3}")
	if err != nil {
		t.Fatalf("evaluate list: %v", err)
	}
	if want := []any{int64(1), int64(2), int64(3)}; !reflect.DeepEqual(want, list) {
		t.Fatalf("expected %v, got %#v", want, list)
	}

	table, err := evaluator.Evaluate(HookContext{Fields: map[string]any{"name": "ada"}}, "{name = fields.name, half = 0.5}")
	if err != nil {
		t.Fatalf("evaluate table: %v", err)
	}
	if want := map[string]any{"name": "ada", "half": 0.5}; !reflect.DeepEqual(want, table) {
		t.Fatalf("expected %v, got %#v", want, table)
	}
}

func TestFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("Upper", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("upper", func(...any) (any, error) { return nil, nil }); !errors.Is(err, ErrFunctionDuplicate) {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register("", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Fatalf("expected nil function to fail")
	}
	for _, name := range []string{"call", "Raw", "fields", "2x", "a-b"} {
		if err := registry.Register(name, func(...any) (any, error) { return nil, nil }); !errors.Is(err, ErrFunctionName) {
			t.Fatalf("expected %q to be rejected, got %v", name, err)
		}
	}

	got, err := registry.Call("UPPER", "ada")
	if err != nil || got != "ADA" {
		t.Fatalf("expected ADA, got %v %v", got, err)
	}
	if _, err := registry.Call("missing"); !errors.Is(err, ErrFunctionNotFound) {
		t.Fatalf("expected missing function error")
	}

	clone := registry.Clone()
	if err := clone.Register("lower", func(...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("register on clone: %v", err)
	}
	if !reflect.DeepEqual(registry.Names(), []string{"upper"}) {
		t.Fatalf("expected clone isolated, got %v", registry.Names())
	}
	var nilRegistry *FunctionRegistry
	if _, err := nilRegistry.Call("x"); err == nil || nilRegistry.Names() != nil || nilRegistry.Clone() != nil {
		t.Fatalf("expected nil registry to be inert")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	logger.LogEvaluation(EvaluationEvent{Engine: "expr", Expr: "raw", Key: "age", Op: OperationGet})
	logger.LogEvaluation(EvaluationEvent{Engine: "cel", Expr: "raw +", Key: "age", Op: OperationSet, Err: errors.New("bad")})

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "msg=hooks.evaluate", "engine=expr", "level=WARN", "error=bad"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if _, ok := SlogLogger(nil).(noopLogger); !ok {
		t.Fatalf("expected noop logger for nil slog logger")
	}
}

func TestEvaluationErrorMessage(t *testing.T) {
	err := wrapEvaluationError("expr", "raw +", "age", errors.New("boom"))
	if got := err.Error(); got != `hooks: expr evaluator expr="raw +" key=age: boom` {
		t.Fatalf("unexpected message %q", got)
	}
	again := wrapEvaluationError("cel", "other", "x", err)
	if again != err {
		t.Fatalf("expected existing EvaluationError reused")
	}
	if wrapEvaluationError("expr", "", "", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if got := wrapEvaluatorError("lua", ErrUnknownEngine).Error(); got != "hooks: unknown engine: lua" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDefaultEngineArithmeticOnInputs(t *testing.T) {
	evaluator, err := Lookup("")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	cases := []struct {
		expr string
		ctx  HookContext
		want string
	}{
		{expr: "raw + 1", ctx: HookContext{Raw: 41}, want: "42"},
		{expr: "value * 2", ctx: HookContext{Value: 2.5}, want: "5"},
		{expr: "value > previous", ctx: HookContext{Value: 3, Previous: 2}, want: "true"},
		{expr: "fields.base + value", ctx: HookContext{Value: 1, Fields: map[string]any{"base": 10}}, want: "11"},
		{expr: `raw ?? "none"`, ctx: HookContext{}, want: "none"},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			rule, err := evaluator.Compile(tc.expr)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			got, err := rule.Evaluate(tc.ctx)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if fmt.Sprint(got) != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, got)
			}
		})
	}
}
