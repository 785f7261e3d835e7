package hydrate

import (
	"fmt"

	descriptor "github.com/goliatone/go-descriptor"
	"github.com/goliatone/go-descriptor/hooks"
)

// Resolver returns the evaluator for an engine name.
type Resolver func(engine string) (hooks.Evaluator, error)

// BuildOption configures how definitions become layers.
type BuildOption func(*buildConfig)

type buildConfig struct {
	resolver   Resolver
	engineOpts []hooks.EngineOption
	hookOpts   []hooks.Option
	layerOpts  []descriptor.Option
	evaluators map[string]hooks.Evaluator
}

// WithResolver replaces hooks.Lookup as the engine resolver.
func WithResolver(resolver Resolver) BuildOption {
	return func(cfg *buildConfig) {
		if resolver != nil {
			cfg.resolver = resolver
		}
	}
}

// WithEngineOptions are passed to hooks.Lookup by the default resolver.
func WithEngineOptions(opts ...hooks.EngineOption) BuildOption {
	return func(cfg *buildConfig) {
		cfg.engineOpts = append(cfg.engineOpts, opts...)
	}
}

// WithHookOptions applies to every getter and setter hook built.
func WithHookOptions(opts ...hooks.Option) BuildOption {
	return func(cfg *buildConfig) {
		cfg.hookOpts = append(cfg.hookOpts, opts...)
	}
}

// WithLayerOptions applies to every layer pushed by Apply.
func WithLayerOptions(opts ...descriptor.Option) BuildOption {
	return func(cfg *buildConfig) {
		cfg.layerOpts = append(cfg.layerOpts, opts...)
	}
}

func newBuildConfig(opts []BuildOption) *buildConfig {
	cfg := &buildConfig{evaluators: map[string]hooks.Evaluator{}}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.resolver == nil {
		engineOpts := cfg.engineOpts
		cfg.resolver = func(engine string) (hooks.Evaluator, error) {
			return hooks.Lookup(engine, engineOpts...)
		}
	}
	return cfg
}

// evaluator resolves each engine once per build.
func (cfg *buildConfig) evaluator(engine string) (hooks.Evaluator, error) {
	if e, ok := cfg.evaluators[engine]; ok {
		return e, nil
	}
	e, err := cfg.resolver(engine)
	if err != nil {
		return nil, err
	}
	cfg.evaluators[engine] = e
	return e, nil
}

// Attributes converts d into a layer attribute bag, compiling its hooks.
func (d Definition) Attributes(opts ...BuildOption) (descriptor.Attributes, error) {
	return d.attributes(newBuildConfig(opts))
}

func (d Definition) attributes(cfg *buildConfig) (descriptor.Attributes, error) {
	attrs := descriptor.Attributes{
		Active:       d.Active,
		Enabled:      d.Enabled,
		Index:        d.Index,
		PrivateKey:   d.PrivateKey,
		Configurable: d.Configurable,
		Enumerable:   d.Enumerable,
	}
	if d.OnGet != nil {
		e, err := cfg.evaluator(d.OnGet.Engine)
		if err != nil {
			return descriptor.Attributes{}, fmt.Errorf("hydrate: onGet for %q: %w", d.Key, err)
		}
		hook, err := hooks.Getter(e, d.OnGet.Expr, cfg.hookOpts...)
		if err != nil {
			return descriptor.Attributes{}, fmt.Errorf("hydrate: onGet for %q: %w", d.Key, err)
		}
		attrs.OnGet = hook
	}
	if d.OnSet != nil {
		e, err := cfg.evaluator(d.OnSet.Engine)
		if err != nil {
			return descriptor.Attributes{}, fmt.Errorf("hydrate: onSet for %q: %w", d.Key, err)
		}
		hook, err := hooks.Setter(e, d.OnSet.Expr, cfg.hookOpts...)
		if err != nil {
			return descriptor.Attributes{}, fmt.Errorf("hydrate: onSet for %q: %w", d.Key, err)
		}
		attrs.OnSet = hook
	}
	return attrs, nil
}

// Apply pushes defs onto target in order, one chain per key, and returns the
// chains keyed by property.
func Apply(target descriptor.Definer, defs []Definition, opts ...BuildOption) (map[string]*descriptor.Chain, error) {
	cfg := newBuildConfig(opts)
	chains := map[string]*descriptor.Chain{}
	for i, def := range defs {
		if def.Key == "" {
			return nil, fmt.Errorf("hydrate: layer %d: %w", i, ErrMissingKey)
		}
		attrs, err := def.attributes(cfg)
		if err != nil {
			return nil, err
		}
		chain, ok := chains[def.Key]
		if !ok {
			chain = descriptor.NewChain(target, def.Key, descriptor.WithChainOptions(cfg.layerOpts...))
			chains[def.Key] = chain
		}
		if _, err := chain.Push(attrs); err != nil {
			return nil, fmt.Errorf("hydrate: layer %d: %w", i, err)
		}
	}
	return chains, nil
}

// Build creates a Record holding doc's fields as data slots and applies its
// layers.
func (doc Document) Build(opts ...BuildOption) (*descriptor.Record, map[string]*descriptor.Chain, error) {
	record := descriptor.NewRecord(doc.Fields)
	chains, err := Apply(record, doc.Layers, opts...)
	if err != nil {
		return nil, nil, err
	}
	return record, chains, nil
}
