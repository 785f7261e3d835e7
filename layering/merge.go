// Package layering merges partial attribute bags ordered from strongest to
// weakest. A field set in a stronger bag wins; unset fields fall through to
// weaker ones. Values are never deep-copied, so pointers to live objects such
// as predecessor layers or hooks survive the merge intact.
package layering

import "reflect"

// Merge composes bags ordered strongest first and returns the result. Struct
// fields are resolved one by one, maps are merged key by key, and any other
// value is taken from the strongest bag that sets it.
func Merge[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	merged := reflect.ValueOf(&layers[len(layers)-1]).Elem()
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(&layers[i]).Elem(), merged)
	}

	if !merged.IsValid() {
		return zero
	}
	return merged.Interface().(T)
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return weak
	}
	if !weak.IsValid() {
		return strong
	}

	switch strong.Kind() {
	case reflect.Struct:
		result := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(mergeValue(strong.Field(i), weak.Field(i)))
		}
		return result
	case reflect.Map:
		if strong.IsNil() {
			return weak
		}
		if weak.IsNil() {
			return strong
		}
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len()+weak.Len())
		iter := weak.MapRange()
		for iter.Next() {
			result.SetMapIndex(iter.Key(), iter.Value())
		}
		iter = strong.MapRange()
		for iter.Next() {
			result.SetMapIndex(iter.Key(), iter.Value())
		}
		return result
	default:
		if strong.IsZero() {
			return weak
		}
		return strong
	}
}
