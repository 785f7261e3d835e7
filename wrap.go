package descriptor

import (
	"context"
	"time"

	"github.com/goliatone/go-descriptor/pkg/activity"
)

// wrap materializes the layer's getter and setter. Both close over l, so
// toggles changed after construction apply to operations already handed out.
// Explicit overrides replace the default algorithm entirely.
func (l *Layer) wrap(get GetOverride, set SetOverride) (GetFunc, SetFunc) {
	var getter GetFunc
	var setter SetFunc

	if get != nil {
		getter = func(obj Object) any {
			start := time.Now()
			value := get(obj, l)
			l.logAccess(OperationGet, start, false)
			return value
		}
	} else {
		getter = l.defaultGet
	}

	if set != nil {
		setter = func(obj Object, value any) {
			start := time.Now()
			set(obj, value, l)
			l.logAccess(OperationSet, start, false)
		}
	} else {
		setter = l.defaultSet
	}

	return getter, setter
}

func (l *Layer) defaultGet(obj Object) any {
	start := time.Now()
	active := l.active.ForGet()
	enabled := l.enabled

	// The predecessor is always read, even when only the hook consumes it.
	previous := l.previousValue(obj)

	if !enabled {
		l.logAccess(OperationGet, start, false)
		return nil
	}

	raw := rawField(obj, l.privateKey)
	if l.onGet != nil && active {
		value := l.onGet(l.key, previous, raw, obj)
		l.logAccess(OperationGet, start, true)
		return value
	}
	l.logAccess(OperationGet, start, false)
	return raw
}

func (l *Layer) defaultSet(obj Object, value any) {
	start := time.Now()
	active := l.active.ForSet()
	enabled := l.enabled

	var previous any
	if enabled {
		previous = l.previousStored(obj)
	}

	// Every enabled predecessor observes the write, whatever this layer's state.
	if prev := present(l.previous); prev != nil && !prev.disabled() {
		prev.write(obj, value)
	}

	if !enabled {
		l.emit(activity.BuildValueSkippedEvent(l.eventInput(nil, value)))
		l.logAccess(OperationSet, start, false)
		return
	}

	hooked := l.onSet != nil && active
	stored := value
	if hooked {
		stored = l.onSet(value, previous, l.key, obj)
	}
	old := rawField(obj, l.privateKey)
	if obj != nil {
		obj.SetField(l.privateKey, stored)
	}
	l.emit(activity.BuildValueSetEvent(l.eventInput(old, stored)))
	l.logAccess(OperationSet, start, hooked)
}

// previousValue reads an enabled predecessor the way a getter sees it.
func (l *Layer) previousValue(obj Object) any {
	prev := present(l.previous)
	if prev == nil || prev.disabled() {
		return nil
	}
	return prev.read(obj)
}

// previousStored resolves the value a setter hook receives as previous: the
// predecessor's data value or private storage, else this layer's own raw value.
func (l *Layer) previousStored(obj Object) any {
	if prev := present(l.previous); prev != nil && !prev.disabled() {
		if value, ok := prev.stored(obj); ok {
			return value
		}
	}
	return rawField(obj, l.privateKey)
}

func rawField(obj Object, key string) any {
	if obj == nil {
		return nil
	}
	value, _ := obj.Field(key)
	return value
}

func (l *Layer) logAccess(op Operation, start time.Time, hooked bool) {
	if _, ok := l.logger.(noopLogger); ok || l.logger == nil {
		return
	}
	l.logger.LogAccess(AccessEvent{
		Op:       op,
		Key:      l.key,
		LayerID:  l.id,
		Index:    l.Index(),
		Enabled:  l.enabled,
		Hooked:   hooked,
		Duration: time.Since(start),
	})
}

func (l *Layer) logInstall(err error) {
	if err == nil {
		l.emit(activity.BuildLayerInstalledEvent(l.eventInput(nil, nil)))
	}
	if l.logger == nil {
		return
	}
	l.logger.LogAccess(AccessEvent{
		Op:      OperationInstall,
		Key:     l.key,
		LayerID: l.id,
		Index:   l.Index(),
		Enabled: l.enabled,
		Err:     err,
	})
}

func (l *Layer) eventInput(old, value any) activity.ValueEventInput {
	return activity.ValueEventInput{
		Key:        l.key,
		PrivateKey: l.privateKey,
		LayerID:    l.id,
		Index:      l.Index(),
		OldValue:   old,
		NewValue:   value,
	}
}

func (l *Layer) emit(event activity.Event) {
	if !l.emitter.Enabled() {
		return
	}
	if err := l.emitter.Emit(context.Background(), event); err != nil && l.logger != nil {
		l.logger.LogAccess(AccessEvent{
			Op:      OperationSet,
			Key:     l.key,
			LayerID: l.id,
			Index:   l.Index(),
			Enabled: l.enabled,
			Err:     err,
		})
	}
}
