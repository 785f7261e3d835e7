package hooks

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type luaEvaluator struct {
	cfg engineConfig
}

// NewLua constructs an Evaluator backed by gopher-lua. The expression is
// compiled as the body of "return <expr>". Each evaluation runs in a fresh
// state with only the base, table, string and math libraries opened.
func NewLua(opts ...EngineOption) Evaluator {
	return &luaEvaluator{cfg: applyEngineOptions(opts)}
}

func (e *luaEvaluator) Engine() string { return EngineLua }

func (e *luaEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *luaEvaluator) Compile(expression string) (CompiledRule, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, wrapEvaluatorError(EngineLua, ErrEmptyExpression)
	}
	proto, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineLua, expression, "", err)
	}
	return &luaCompiledRule{evaluator: e, proto: proto, expression: expression}, nil
}

func (e *luaEvaluator) loadOrCompile(expression string) (*lua.FunctionProto, error) {
	if cached, ok := e.cfg.cached(EngineLua, expression); ok {
		if proto, ok := cached.(*lua.FunctionProto); ok {
			return proto, nil
		}
	}
	chunk, err := parse.Parse(strings.NewReader("return "+expression), "<hook>")
	if err != nil {
		return nil, err
	}
	proto, err := lua.Compile(chunk, "<hook>")
	if err != nil {
		return nil, err
	}
	e.cfg.store(EngineLua, expression, proto)
	return proto, nil
}

func (e *luaEvaluator) run(ctx HookContext, proto *lua.FunctionProto) (any, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for name, value := range ctx.bindings() {
		L.SetGlobal(name, toLuaValue(L, value))
	}
	if e.cfg.registry != nil {
		L.SetGlobal("call", L.NewFunction(e.callFunction))
	}

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return fromLuaValue(ret, map[*lua.LTable]bool{}), nil
}

func (e *luaEvaluator) callFunction(L *lua.LState) int {
	name := L.CheckString(1)
	args := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, fromLuaValue(L.Get(i), map[*lua.LTable]bool{}))
	}
	result, err := e.cfg.registry.Call(name, args...)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(toLuaValue(L, result))
	return 1
}

type luaCompiledRule struct {
	evaluator  *luaEvaluator
	proto      *lua.FunctionProto
	expression string
}

func (r *luaCompiledRule) Evaluate(ctx HookContext) (any, error) {
	value, err := r.evaluator.run(ctx, r.proto)
	if err != nil {
		return nil, wrapEvaluationError(EngineLua, r.expression, ctx.label(), err)
	}
	return value, nil
}

// toLuaValue converts Go values into Lua values. Unsupported types are passed
// through as userdata.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLuaValue(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for key, item := range val {
			t.RawSetString(key, toLuaValue(L, item))
		}
		return t
	case lua.LValue:
		return val
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// fromLuaValue converts a Lua value back to Go. Integral numbers become int64
// and tables become slices when their keys are 1..n, maps otherwise.
func fromLuaValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	if n := t.Len(); n > 0 {
		count := 0
		t.ForEach(func(_, _ lua.LValue) { count++ })
		if count == n {
			out := make([]any, n)
			for i := 1; i <= n; i++ {
				out[i-1] = fromLuaValue(t.RawGetInt(i), visited)
			}
			return out
		}
	}
	out := map[string]any{}
	t.ForEach(func(k, v lua.LValue) {
		key := k.String()
		if n, ok := k.(lua.LNumber); ok {
			key = fmt.Sprint(float64(n))
		}
		out[key] = fromLuaValue(v, visited)
	})
	return out
}
