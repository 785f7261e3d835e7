package hooks

import "time"

// Operation names the accessor a hook runs for.
type Operation string

const (
	OperationGet Operation = "get"
	OperationSet Operation = "set"
)

// HookContext carries the inputs an expression sees. Raw is only populated for
// reads and Value only for writes; the other stays nil.
type HookContext struct {
	Op       Operation
	Key      string
	Value    any
	Previous any
	Raw      any
	Fields   map[string]any
	Now      *time.Time
}

func (ctx HookContext) withDefaults() HookContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Fields == nil {
		ctx.Fields = map[string]any{}
	}
	return ctx
}

func (ctx HookContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

// bindings is the variable set shared by every engine.
func (ctx HookContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	return map[string]any{
		"key":      ctx.Key,
		"value":    ctx.Value,
		"previous": ctx.Previous,
		"raw":      ctx.Raw,
		"fields":   ctx.Fields,
		"now":      *ctx.Now,
	}
}

func (ctx HookContext) label() string {
	if ctx.Key == "" {
		return "unknown"
	}
	return ctx.Key
}
