package descriptor

import (
	"github.com/goliatone/go-descriptor/pkg/activity"
	"github.com/google/uuid"
)

// Layer is one interception point for a named property. It validates its
// attribute bag, materializes get and set once, and can be installed on any
// Definer. A Layer is itself a Descriptor, so it can be the predecessor of the
// next layer in a chain.
type Layer struct {
	state

	id      string
	get     GetFunc
	set     SetFunc
	logger  Logger
	emitter *activity.Emitter
}

// New builds a layer for key on obj from functional options.
func New(obj Object, key string, opts ...Option) *Layer {
	return NewFromAttributes(obj, key, Attributes{}, opts...)
}

// NewFromAttributes builds a layer for key on obj from an attribute bag. Options
// are applied on top of attrs. obj is only consulted for the default
// predecessor; its storage is not touched.
func NewFromAttributes(obj Object, key string, attrs Attributes, opts ...Option) *Layer {
	cfg := applyLayerOptions(attrs, opts)
	l := &Layer{
		state:   newState(obj, key, cfg.attrs),
		id:      uuid.NewString(),
		logger:  cfg.logger,
		emitter: cfg.emitter,
	}
	if l.logger == nil {
		l.logger = noopLogger{}
	}
	l.get, l.set = l.wrap(cfg.attrs.Get, cfg.attrs.Set)
	return l
}

// ID returns the identifier assigned at construction.
func (l *Layer) ID() string { return l.id }

// Key returns the intercepted property key.
func (l *Layer) Key() string { return l.key }

// PrivateKey returns the raw storage key.
func (l *Layer) PrivateKey() string { return l.privateKey }

// Active returns the hook toggle.
func (l *Layer) Active() Active { return l.active }

// Enabled returns the layer toggle.
func (l *Layer) Enabled() bool { return l.enabled }

// Index returns a copy of the chain position, or nil when unset.
func (l *Layer) Index() *int {
	if l.index == nil {
		return nil
	}
	index := *l.index
	return &index
}

// OnGet returns the getter hook, or nil.
func (l *Layer) OnGet() GetterHook { return l.onGet }

// OnSet returns the setter hook, or nil.
func (l *Layer) OnSet() SetterHook { return l.onSet }

// Previous returns the predecessor, or nil.
func (l *Layer) Previous() Descriptor { return l.previous }

// Configurable returns the configurable flag, or nil when unset.
func (l *Layer) Configurable() *bool { return l.configurable }

// Enumerable returns the enumerable flag, or nil when unset.
func (l *Layer) Enumerable() *bool { return l.enumerable }

// SetActive replaces the hook toggle. Values of the wrong shape fall back to
// DefaultActive.
func (l *Layer) SetActive(active any) {
	l.active = resolveActive(active)
}

// SetEnabled replaces the layer toggle. Non-boolean values fall back to
// DefaultEnabled.
func (l *Layer) SetEnabled(enabled any) {
	l.enabled = resolveEnabled(enabled)
}

// SetOnGet replaces the getter hook; nil removes it.
func (l *Layer) SetOnGet(hook GetterHook) {
	l.onGet = hook
}

// SetOnSet replaces the setter hook; nil removes it.
func (l *Layer) SetOnSet(hook SetterHook) {
	l.onSet = hook
}

// SetIndex replaces the chain position; nil clears it.
func (l *Layer) SetIndex(index *int) {
	if index == nil {
		l.index = nil
		return
	}
	v := *index
	l.index = &v
}

// SetPrivateKey moves the layer's raw storage to key. Values already stored
// under the old key stay there. An empty key restores the default.
func (l *Layer) SetPrivateKey(key string) {
	if key == "" {
		key = DefaultPrefix + l.key
	}
	l.privateKey = key
}

// Relink replaces the predecessor. It fails with ErrCyclicChain when prev's
// chain reaches l.
func (l *Layer) Relink(prev Descriptor) error {
	prev = present(prev)
	for cursor := prev; cursor != nil; {
		layer, ok := cursor.(*Layer)
		if !ok {
			break
		}
		if layer == l {
			return ErrCyclicChain
		}
		cursor = present(layer.previous)
	}
	l.previous = prev
	return nil
}

// Get runs the materialized getter against obj.
func (l *Layer) Get(obj Object) any { return l.get(obj) }

// Set runs the materialized setter against obj.
func (l *Layer) Set(obj Object, value any) { l.set(obj, value) }

// Getter returns the materialized getter.
func (l *Layer) Getter() GetFunc { return l.get }

// Setter returns the materialized setter.
func (l *Layer) Setter() SetFunc { return l.set }

// Record returns the accessor shape handed to an installation primitive.
func (l *Layer) Record() *AccessorDescriptor {
	return &AccessorDescriptor{
		Get:          l.get,
		Set:          l.set,
		Configurable: l.configurable,
		Enumerable:   l.enumerable,
	}
}

func (l *Layer) String() string {
	return "WrappedDescriptor(" + l.key + ")"
}

func (l *Layer) disabled() bool { return !l.enabled }

func (l *Layer) read(obj Object) any { return l.get(obj) }

func (l *Layer) stored(obj Object) (any, bool) { return rawField(obj, l.privateKey), true }

func (l *Layer) write(obj Object, value any) { l.set(obj, value) }

func (l *Layer) flags() (*bool, *bool) { return l.configurable, l.enumerable }

// Snapshot is a plain record of a layer's live attributes.
type Snapshot struct {
	ID           string
	Key          string
	PrivateKey   string
	Active       Active
	Enabled      bool
	Index        *int
	OnGet        GetterHook
	OnSet        SetterHook
	Previous     Descriptor
	Configurable *bool
	Enumerable   *bool
	Get          GetFunc
	Set          SetFunc
}

// Snapshot captures the current attribute values.
func (l *Layer) Snapshot() Snapshot {
	return Snapshot{
		ID:           l.id,
		Key:          l.key,
		PrivateKey:   l.privateKey,
		Active:       l.active,
		Enabled:      l.enabled,
		Index:        l.Index(),
		OnGet:        l.onGet,
		OnSet:        l.onSet,
		Previous:     l.previous,
		Configurable: l.configurable,
		Enumerable:   l.enumerable,
		Get:          l.get,
		Set:          l.set,
	}
}

// Attributes converts the snapshot into a bag that can seed another layer. The
// materialized operations are not carried over; the new layer builds its own.
func (s Snapshot) Attributes() Attributes {
	return Attributes{
		Active:       s.Active,
		Enabled:      s.Enabled,
		Index:        s.Index,
		PrivateKey:   s.PrivateKey,
		OnGet:        s.OnGet,
		OnSet:        s.OnSet,
		Previous:     s.Previous,
		Configurable: s.Configurable,
		Enumerable:   s.Enumerable,
	}
}
