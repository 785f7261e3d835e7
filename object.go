package descriptor

import "sort"

// Object is a target whose raw fields back layer storage.
type Object interface {
	Field(key string) (any, bool)
	SetField(key string, value any)
}

// Definer is an Object that also owns property slots. DefineProperty replaces
// whatever descriptor occupied key.
type Definer interface {
	Object
	OwnPropertyDescriptor(key string) (Descriptor, bool)
	DefineProperty(key string, d Descriptor) error
}

// Inspectable is a Definer that can enumerate its property slots.
type Inspectable interface {
	Definer
	Keys() []string
}

// Install binds layer onto target at layer.Key(), replacing the current slot.
func Install(target Definer, layer *Layer) error {
	if target == nil {
		return ErrNilTarget
	}
	if layer == nil {
		return ErrNilLayer
	}
	err := target.DefineProperty(layer.Key(), layer)
	layer.logInstall(err)
	return err
}

// Record is an in-memory object. Raw fields and property slots live in
// separate maps; reads and writes of a key with a slot route through it.
// Record is not safe for concurrent use.
type Record struct {
	fields map[string]any
	props  map[string]Descriptor
}

// NewRecord builds a Record whose initial values become writable data slots.
func NewRecord(values map[string]any) *Record {
	r := &Record{
		fields: map[string]any{},
		props:  map[string]Descriptor{},
	}
	for key, value := range values {
		r.props[key] = &DataDescriptor{Value: value, Writable: true}
	}
	return r
}

// Field reads raw storage.
func (r *Record) Field(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	value, ok := r.fields[key]
	return value, ok
}

// SetField writes raw storage without consulting property slots.
func (r *Record) SetField(key string, value any) {
	if r.fields == nil {
		r.fields = map[string]any{}
	}
	r.fields[key] = value
}

// Fields returns a copy of raw storage.
func (r *Record) Fields() map[string]any {
	if r == nil || len(r.fields) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(r.fields))
	for key, value := range r.fields {
		out[key] = value
	}
	return out
}

// OwnPropertyDescriptor returns the slot installed at key.
func (r *Record) OwnPropertyDescriptor(key string) (Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.props[key]
	return d, ok
}

// DefineProperty installs d at key. A slot whose Configurable flag is
// explicitly false cannot be replaced.
func (r *Record) DefineProperty(key string, d Descriptor) error {
	if key == "" {
		return ErrKeyRequired
	}
	if r.props == nil {
		r.props = map[string]Descriptor{}
	}
	if existing, ok := r.props[key]; ok {
		if configurable, _ := existing.flags(); configurable != nil && !*configurable {
			return ErrNotConfigurable
		}
	}
	d = present(d)
	if d == nil {
		delete(r.props, key)
		return nil
	}
	r.props[key] = d
	return nil
}

// Get reads key through its slot, falling back to raw storage.
func (r *Record) Get(key string) any {
	if d, ok := r.OwnPropertyDescriptor(key); ok {
		return d.read(r)
	}
	value, _ := r.Field(key)
	return value
}

// Set assigns key through its slot, falling back to raw storage.
func (r *Record) Set(key string, value any) {
	if d, ok := r.OwnPropertyDescriptor(key); ok {
		d.write(r, value)
		return
	}
	r.SetField(key, value)
}

// Keys lists the keys that have a slot, sorted.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.props))
	for key := range r.props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
