package hydrate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingKey indicates a layer definition without a property key.
var ErrMissingKey = errors.New("hydrate: layer definition requires a key")

// HookSpec names an expression and the engine that evaluates it. An empty
// engine selects expr.
type HookSpec struct {
	Engine string `json:"engine,omitempty"`
	Expr   string `json:"expr"`
}

// Definition is the serialized form of one layer. Active and Enabled stay
// untyped so malformed values reach the layer and fall back to the defaults.
type Definition struct {
	Key          string    `json:"key"`
	PrivateKey   string    `json:"privateKey,omitempty"`
	Active       any       `json:"active,omitempty"`
	Enabled      any       `json:"enabled,omitempty"`
	Index        *int      `json:"index,omitempty"`
	Configurable *bool     `json:"configurable,omitempty"`
	Enumerable   *bool     `json:"enumerable,omitempty"`
	OnGet        *HookSpec `json:"onGet,omitempty"`
	OnSet        *HookSpec `json:"onSet,omitempty"`
}

// Document is a target's initial fields plus the layers stacked on it, in
// push order.
type Document struct {
	Fields map[string]any `json:"fields,omitempty"`
	Layers []Definition   `json:"layers"`
}

// NewDocumentDecoder returns a Decoder for Documents that accepts hook
// shorthands and rejects layers without a key.
func NewDocumentDecoder(opts ...DecoderOption[Document]) *Decoder[Document] {
	base := []DecoderOption[Document]{
		WithPreHook[Document](ExpandHookShorthand),
		WithPostHook[Document](RequireKeys),
	}
	return NewDecoder(append(base, opts...)...)
}

// ExpandHookShorthand rewrites "onGet": "<expr>" into {"expr": "<expr>"} for
// every layer, and "engine:expr" prefixes such as "lua:raw + 1" into the
// engine/expr pair.
func ExpandHookShorthand(_ Context, payload map[string]any) (map[string]any, error) {
	layers, ok := payload["layers"].([]any)
	if !ok {
		return payload, nil
	}
	for i, entry := range layers {
		layer, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("layer %d is %T, want object", i, entry)
		}
		for name, value := range layer {
			if !strings.EqualFold(name, "onGet") && !strings.EqualFold(name, "onSet") {
				continue
			}
			if expr, ok := value.(string); ok {
				layer[name] = expandShorthand(expr)
			}
		}
	}
	return payload, nil
}

func expandShorthand(expr string) map[string]any {
	for _, engine := range []string{"expr", "cel", "js", "lua"} {
		if rest, ok := strings.CutPrefix(expr, engine+":"); ok {
			return map[string]any{"engine": engine, "expr": strings.TrimSpace(rest)}
		}
	}
	return map[string]any{"expr": expr}
}

// RequireKeys fails when a layer definition has no key.
func RequireKeys(_ Context, doc *Document) error {
	for i, layer := range doc.Layers {
		if strings.TrimSpace(layer.Key) == "" {
			return fmt.Errorf("layer %d: %w", i, ErrMissingKey)
		}
	}
	return nil
}
