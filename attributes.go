package descriptor

import (
	"github.com/goliatone/go-descriptor/layering"
	"github.com/goliatone/go-descriptor/pkg/activity"
)

// Process-wide defaults applied when an attribute bag omits a value or carries
// one of the wrong shape.
var (
	DefaultActive  = true
	DefaultEnabled = true
	DefaultPrefix  = "_"
)

// GetterHook transforms a read. previous is the predecessor's value and raw the
// value held in the layer's private storage.
type GetterHook func(key string, previous, raw any, obj Object) any

// SetterHook transforms a write before it is stored.
type SetterHook func(value, previous any, key string, obj Object) any

// GetOverride replaces the default getter algorithm.
type GetOverride func(obj Object, self *Layer) any

// SetOverride replaces the default setter algorithm.
type SetOverride func(obj Object, value any, self *Layer)

// GetFunc is a materialized getter bound at call time to obj.
type GetFunc func(obj Object) any

// SetFunc is a materialized setter bound at call time to obj.
type SetFunc func(obj Object, value any)

// Attributes is the partial attribute bag a layer is built from. Active and
// Enabled are untyped so malformed input can be detected and replaced by the
// defaults instead of failing.
type Attributes struct {
	Active       any
	Enabled      any
	Index        *int
	PrivateKey   string
	OnGet        GetterHook
	OnSet        SetterHook
	Previous     Descriptor
	Get          GetOverride
	Set          SetOverride
	Configurable *bool
	Enumerable   *bool
}

// Option configures layer construction.
type Option func(*layerConfig)

type layerConfig struct {
	attrs   Attributes
	logger  Logger
	emitter *activity.Emitter
}

func applyLayerOptions(attrs Attributes, opts []Option) layerConfig {
	cfg := layerConfig{attrs: attrs}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithAttributes merges attrs over the bag collected so far. Fields left zero in
// attrs keep their earlier value.
func WithAttributes(attrs Attributes) Option {
	return func(cfg *layerConfig) {
		cfg.attrs = layering.Merge(attrs, cfg.attrs)
	}
}

// WithActive sets a uniform active flag.
func WithActive(active bool) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Active = active
	}
}

// WithActivePerOperation sets independent active flags for get and set.
func WithActivePerOperation(onGet, onSet bool) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Active = PerOperation(onGet, onSet)
	}
}

// WithEnabled sets the enabled toggle.
func WithEnabled(enabled bool) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Enabled = enabled
	}
}

// WithIndex records the layer position within a chain.
func WithIndex(index int) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Index = &index
	}
}

// WithPrivateKey overrides the raw storage key.
func WithPrivateKey(key string) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.PrivateKey = key
	}
}

// WithOnGet installs a getter hook.
func WithOnGet(hook GetterHook) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.OnGet = hook
	}
}

// WithOnSet installs a setter hook.
func WithOnSet(hook SetterHook) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.OnSet = hook
	}
}

// WithPrevious links the layer to an explicit predecessor.
func WithPrevious(previous Descriptor) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Previous = previous
	}
}

// WithGetOverride bypasses the default getter algorithm.
func WithGetOverride(get GetOverride) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Get = get
	}
}

// WithSetOverride bypasses the default setter algorithm.
func WithSetOverride(set SetOverride) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Set = set
	}
}

// WithConfigurable sets the configurable flag reported by Record().
func WithConfigurable(configurable bool) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Configurable = &configurable
	}
}

// WithEnumerable sets the enumerable flag reported by Record().
func WithEnumerable(enumerable bool) Option {
	return func(cfg *layerConfig) {
		cfg.attrs.Enumerable = &enumerable
	}
}

// WithLogger attaches an access logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *layerConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithEmitter attaches an activity emitter notified of writes and installs.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(cfg *layerConfig) {
		cfg.emitter = emitter
	}
}

// state is the validated configuration of one layer.
type state struct {
	key          string
	privateKey   string
	active       Active
	enabled      bool
	index        *int
	onGet        GetterHook
	onSet        SetterHook
	previous     Descriptor
	configurable *bool
	enumerable   *bool
}

// newState validates attrs. obj is only consulted for the default predecessor.
func newState(obj Object, key string, attrs Attributes) state {
	s := state{
		key:          key,
		active:       resolveActive(attrs.Active),
		enabled:      resolveEnabled(attrs.Enabled),
		privateKey:   attrs.PrivateKey,
		configurable: attrs.Configurable,
		enumerable:   attrs.Enumerable,
	}
	if s.privateKey == "" {
		s.privateKey = DefaultPrefix + key
	}
	s.previous = present(attrs.Previous)
	if s.previous == nil {
		if definer, ok := obj.(Definer); ok && definer != nil {
			if existing, found := definer.OwnPropertyDescriptor(key); found {
				s.previous = present(existing)
			}
		}
	}
	if attrs.Index != nil {
		index := *attrs.Index
		s.index = &index
	}
	if attrs.OnGet != nil {
		s.onGet = attrs.OnGet
	}
	if attrs.OnSet != nil {
		s.onSet = attrs.OnSet
	}
	return s
}

func resolveActive(v any) Active {
	if active, ok := parseActive(v); ok {
		return active
	}
	return Uniform(DefaultActive)
}

func resolveEnabled(v any) bool {
	if enabled, ok := v.(bool); ok {
		return enabled
	}
	return DefaultEnabled
}
