//go:build !js_eval

package hooks

// NewJS is unavailable without the js_eval build tag and returns nil.
func NewJS(opts ...EngineOption) Evaluator {
	_ = applyEngineOptions(opts)
	return nil
}

// JSAvailable reports whether the goja engine is compiled in.
func JSAvailable() bool {
	return false
}
