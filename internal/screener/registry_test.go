package screener

import (
	"errors"
	"testing"

	"gravion/types"
)

func TestRegistry_BuiltinProtection(t *testing.T) {
	r := NewRegistry()

	err := r.Add(types.Filter{Name: "Golden Cross"})
	if !errors.Is(err, ErrBuiltinFilterProtected) {
		t.Errorf("Add() error = %v, want ErrBuiltinFilterProtected", err)
	}
	if r.Remove("Golden Cross") {
		t.Error("Remove() removed a builtin")
	}
}

func TestRegistry_UserFilters(t *testing.T) {
	r := NewRegistry()

	// Builtin flag on incoming filters is ignored; only seeded filters are
	// builtins.
	if err := r.Add(types.Filter{Name: "My Filter", Builtin: true}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	f, ok := r.Get("My Filter")
	if !ok {
		t.Fatal("Get() did not find added filter")
	}
	if f.Builtin {
		t.Error("user filter stored as builtin")
	}

	if !r.Remove("My Filter") {
		t.Error("Remove() = false for user filter")
	}
	if r.Remove("My Filter") {
		t.Error("Remove() = true for missing filter")
	}
}

func TestRegistry_ListOrdering(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(types.Filter{Name: "ZZZ"})
	_ = r.Add(types.Filter{Name: "AAA"})

	list := r.List()
	if len(list) != len(builtinFilters)+2 {
		t.Fatalf("List() length = %d, want %d", len(list), len(builtinFilters)+2)
	}
	for i, f := range list[:len(builtinFilters)] {
		if f.Name != builtinFilters[i].Name {
			t.Errorf("List()[%d] = %q, want %q", i, f.Name, builtinFilters[i].Name)
		}
	}
	if list[len(builtinFilters)].Name != "AAA" || list[len(builtinFilters)+1].Name != "ZZZ" {
		t.Error("user filters not sorted by name")
	}
}
