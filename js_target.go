//go:build js_eval

package descriptor

import (
	"sort"

	"github.com/dop251/goja"
)

// GojaTarget adapts a goja object to Definer so layers can intercept
// properties read and written from JavaScript. Raw fields are ordinary
// properties of the object; installed slots become JS accessors.
type GojaTarget struct {
	vm    *goja.Runtime
	obj   *goja.Object
	props map[string]Descriptor
}

// NewGojaTarget wraps obj. A nil obj allocates a fresh object.
func NewGojaTarget(vm *goja.Runtime, obj *goja.Object) *GojaTarget {
	if obj == nil {
		obj = vm.NewObject()
	}
	return &GojaTarget{vm: vm, obj: obj, props: map[string]Descriptor{}}
}

// Object returns the wrapped JS object.
func (t *GojaTarget) Object() *goja.Object { return t.obj }

func (t *GojaTarget) Field(key string) (any, bool) {
	value := t.obj.Get(key)
	if value == nil {
		return nil, false
	}
	return value.Export(), true
}

func (t *GojaTarget) SetField(key string, value any) {
	_ = t.obj.Set(key, value)
}

// Fields exports the object's own enumerable properties.
func (t *GojaTarget) Fields() map[string]any {
	out := map[string]any{}
	for _, key := range t.obj.Keys() {
		if value := t.obj.Get(key); value != nil {
			out[key] = value.Export()
		}
	}
	return out
}

// OwnPropertyDescriptor returns the slot installed through DefineProperty, or
// a writable data snapshot of a plain JS property.
func (t *GojaTarget) OwnPropertyDescriptor(key string) (Descriptor, bool) {
	if d, ok := t.props[key]; ok {
		return d, true
	}
	for _, own := range t.obj.Keys() {
		if own == key {
			return &DataDescriptor{Value: t.obj.Get(key).Export(), Writable: true}, true
		}
	}
	return nil, false
}

func (t *GojaTarget) DefineProperty(key string, d Descriptor) error {
	if key == "" {
		return ErrKeyRequired
	}
	if existing, ok := t.props[key]; ok {
		if configurable, _ := existing.flags(); configurable != nil && !*configurable {
			return ErrNotConfigurable
		}
	}
	d = present(d)
	if d == nil {
		delete(t.props, key)
		return t.obj.Delete(key)
	}

	configurable, enumerable := d.flags()
	var err error
	if data, ok := d.(*DataDescriptor); ok {
		err = t.obj.DefineDataProperty(key, t.vm.ToValue(data.Value), flag(&data.Writable), jsFlag(configurable, true), jsFlag(enumerable, true))
	} else {
		getter := t.vm.ToValue(func(goja.FunctionCall) goja.Value {
			return t.vm.ToValue(d.read(t))
		})
		setter := t.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			d.write(t, call.Argument(0).Export())
			return goja.Undefined()
		})
		err = t.obj.DefineAccessorProperty(key, getter, setter, jsFlag(configurable, true), jsFlag(enumerable, true))
	}
	if err != nil {
		return err
	}
	t.props[key] = d
	return nil
}

// Keys lists the keys installed through DefineProperty, sorted.
func (t *GojaTarget) Keys() []string {
	keys := make([]string, 0, len(t.props))
	for key := range t.props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func flag(v *bool) goja.Flag {
	return jsFlag(v, false)
}

// jsFlag maps an optional attribute onto goja's tri-state flag, using def
// when the attribute is unset.
func jsFlag(v *bool, def bool) goja.Flag {
	if v == nil {
		v = &def
	}
	if *v {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}
