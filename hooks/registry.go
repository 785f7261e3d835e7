package hooks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

var (
	ErrFunctionNotFound  = errors.New("hooks: function not registered")
	ErrFunctionDuplicate = errors.New("hooks: function already registered")
	ErrFunctionName      = errors.New("hooks: invalid function name")
)

// Function is a Go callable exposed to expressions, both directly by name and
// through call("name", args...).
type Function func(args ...any) (any, error)

// FunctionRegistry holds the functions shared by every engine. Names are
// matched case-insensitively and stored lower-cased.
type FunctionRegistry struct {
	mu  sync.RWMutex
	fns map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{fns: map[string]Function{}}
}

// Register adds fn under name. The name must be an identifier and may not
// shadow call or one of the hook bindings.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if err := checkFunctionName(key); err != nil {
		return fmt.Errorf("%w %q", err, name)
	}
	if fn == nil {
		return fmt.Errorf("hooks: function %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fns == nil {
		r.fns = map[string]Function{}
	}
	if _, taken := r.fns[key]; taken {
		return fmt.Errorf("%w: %q", ErrFunctionDuplicate, name)
	}
	r.fns[key] = fn
	return nil
}

// Clone copies the registry so later registrations stay local to the copy.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{fns: make(map[string]Function, len(r.fns))}
	for key, fn := range r.fns {
		out.fns[key] = fn
	}
	return out
}

// Call runs the function registered as name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.fns[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn(args...)
}

// Names lists the registered names, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.fns))
	for key := range r.fns {
		names = append(names, key)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func checkFunctionName(name string) error {
	if name == "" {
		return ErrFunctionName
	}
	if name == "call" {
		return ErrFunctionName
	}
	if _, bound := (HookContext{}).bindings()[name]; bound {
		return ErrFunctionName
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return ErrFunctionName
	}
	return nil
}
