package descriptor

// Descriptor is the closed set of shapes that can occupy a property slot and
// therefore act as a layer's predecessor: *DataDescriptor, *AccessorDescriptor
// and *Layer. The unexported methods are the uniform read/write capability the
// access wrapper consumes.
type Descriptor interface {
	// disabled reports whether the slot opted out of the chain.
	disabled() bool
	// read returns the value the slot exposes to readers of obj.
	read(obj Object) any
	// stored returns the slot's own backing value when it has one.
	stored(obj Object) (any, bool)
	// write forwards an assignment made on obj.
	write(obj Object, value any)
	// flags returns the configurable and enumerable attributes.
	flags() (configurable, enumerable *bool)
}

// DataDescriptor is a native value-holding slot.
type DataDescriptor struct {
	Value        any
	Writable     bool
	Configurable *bool
	Enumerable   *bool
}

func (d *DataDescriptor) disabled() bool { return false }

func (d *DataDescriptor) read(Object) any { return d.Value }

func (d *DataDescriptor) stored(Object) (any, bool) { return d.Value, true }

func (d *DataDescriptor) write(_ Object, value any) {
	if d.Writable {
		d.Value = value
	}
}

func (d *DataDescriptor) flags() (*bool, *bool) { return d.Configurable, d.Enumerable }

// AccessorDescriptor is a native accessor slot. Either operation may be nil.
type AccessorDescriptor struct {
	Get          func(obj Object) any
	Set          func(obj Object, value any)
	Configurable *bool
	Enumerable   *bool
}

func (d *AccessorDescriptor) disabled() bool { return false }

func (d *AccessorDescriptor) read(obj Object) any {
	if d.Get == nil {
		return nil
	}
	return d.Get(obj)
}

// Accessors have no storage key of their own.
func (d *AccessorDescriptor) stored(Object) (any, bool) { return nil, false }

func (d *AccessorDescriptor) write(obj Object, value any) {
	if d.Set != nil {
		d.Set(obj, value)
	}
}

func (d *AccessorDescriptor) flags() (*bool, *bool) { return d.Configurable, d.Enumerable }

// present normalizes typed nil pointers hidden inside a Descriptor to a plain
// nil so callers can test a predecessor with a single comparison.
func present(d Descriptor) Descriptor {
	switch typed := d.(type) {
	case nil:
		return nil
	case *DataDescriptor:
		if typed == nil {
			return nil
		}
	case *AccessorDescriptor:
		if typed == nil {
			return nil
		}
	case *Layer:
		if typed == nil {
			return nil
		}
	}
	return d
}

// Kind names the variant of d: "data", "accessor", "layer" or "none".
func Kind(d Descriptor) string {
	switch present(d).(type) {
	case *DataDescriptor:
		return "data"
	case *AccessorDescriptor:
		return "accessor"
	case *Layer:
		return "layer"
	default:
		return "none"
	}
}

// Bool returns a pointer to v, for the optional configurable/enumerable flags.
func Bool(v bool) *bool {
	return &v
}
