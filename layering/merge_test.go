package layering

import (
	"reflect"
	"testing"
)

type bag struct {
	Name    string
	Enabled any
	Index   *int
	Hook    func(int) int
	Labels  map[string]string
	hidden  string
}

func TestMergeStrongestWins(t *testing.T) {
	one, two := 1, 2
	double := func(v int) int { return v * 2 }

	strong := bag{Name: "user", Enabled: false, Index: &one}
	weak := bag{Name: "system", Enabled: true, Index: &two, Hook: double}

	got := Merge(strong, weak)

	if got.Name != "user" {
		t.Fatalf("expected strong name, got %q", got.Name)
	}
	if got.Enabled != false {
		t.Fatalf("expected explicit false to survive, got %v", got.Enabled)
	}
	if got.Index != &one {
		t.Fatalf("expected strong index pointer to be kept")
	}
	if got.Hook == nil || got.Hook(3) != 6 {
		t.Fatalf("expected weak hook to fill the gap")
	}
}

func TestMergeFillsMissingFromWeaker(t *testing.T) {
	three := 3
	got := Merge(bag{}, bag{Name: "tenant"}, bag{Name: "system", Index: &three})
	if got.Name != "tenant" {
		t.Fatalf("expected middle layer name, got %q", got.Name)
	}
	if got.Index == nil || *got.Index != 3 {
		t.Fatalf("expected weakest index, got %v", got.Index)
	}
}

func TestMergeMapsByKey(t *testing.T) {
	strong := bag{Labels: map[string]string{"env": "prod"}}
	weak := bag{Labels: map[string]string{"env": "dev", "team": "core"}}

	got := Merge(strong, weak)
	want := map[string]string{"env": "prod", "team": "core"}
	if !reflect.DeepEqual(want, got.Labels) {
		t.Fatalf("merged labels mismatch:\nwant: %#v\n got: %#v", want, got.Labels)
	}
	if len(weak.Labels) != 2 || weak.Labels["env"] != "dev" {
		t.Fatalf("expected weak input untouched, got %#v", weak.Labels)
	}
}

func TestMergeZeroInput(t *testing.T) {
	if got := Merge[bag](); !reflect.DeepEqual(got, bag{}) {
		t.Fatalf("expected Merge() to return zero value, got %+v", got)
	}
}

func TestMergeSingleLayer(t *testing.T) {
	in := bag{Name: "only"}
	if got := Merge(in); got.Name != "only" {
		t.Fatalf("expected single layer returned, got %+v", got)
	}
}
