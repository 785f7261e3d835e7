//go:build js_eval

package hooks

import (
	"fmt"
	"testing"

	descriptor "github.com/goliatone/go-descriptor"
)

func TestJSHooksThroughLayer(t *testing.T) {
	registry := testRegistry(t)
	evaluator := NewJS(WithFunctionRegistry(registry))
	onGet, err := Getter(evaluator, "raw + fields.base")
	if err != nil {
		t.Fatalf("getter: %v", err)
	}
	onSet, err := Setter(evaluator, "double(value)")
	if err != nil {
		t.Fatalf("setter: %v", err)
	}

	record := descriptor.NewRecord(nil)
	record.SetField("base", 1)
	layer := descriptor.New(record, "age", descriptor.WithOnGet(onGet), descriptor.WithOnSet(onSet))
	layer.Set(record, 10)

	if got := layer.Get(record); fmt.Sprint(got) != "21" {
		t.Fatalf("expected 21, got %v", got)
	}
	if _, err := Getter(evaluator, "raw +"); err == nil {
		t.Fatalf("expected compile error")
	}
}
