// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"reflect"
	"testing"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"echo", true},
		{"tool-x", true},
		{"tool_x2", true},
		{"UPPER-lower_09", true},
		{"", false},
		{"a b", false},
		{"a/b", false},
		{"a.b", false},
		{"a%2Fb", false},
		{"naïve", false},
	}
	for _, test := range tests {
		if got := ValidName(test.name); got != test.want {
			t.Errorf("ValidName(%q) = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestNewNormalizesSpecs(t *testing.T) {
	registry := New(map[string]SpawnSpec{
		"echo": {Command: "cat"},
	})

	spec, ok := registry.Lookup("echo")
	if !ok {
		t.Fatal("Lookup(echo) missing")
	}
	if spec.Name != "echo" {
		t.Errorf("spec.Name = %q, want %q", spec.Name, "echo")
	}
	if spec.Args == nil || len(spec.Args) != 0 {
		t.Errorf("spec.Args = %#v, want empty non-nil slice", spec.Args)
	}
	if spec.Env == nil || len(spec.Env) != 0 {
		t.Errorf("spec.Env = %#v, want empty non-nil map", spec.Env)
	}
}

func TestLookupMiss(t *testing.T) {
	registry := New(map[string]SpawnSpec{"echo": {Command: "cat"}})
	if _, ok := registry.Lookup("missing"); ok {
		t.Error("Lookup(missing) = ok, want miss")
	}
}

func TestNamesSortedAndCopied(t *testing.T) {
	registry := New(map[string]SpawnSpec{
		"zeta":  {Command: "z"},
		"alpha": {Command: "a"},
		"mid":   {Command: "m"},
	})

	names := registry.Names()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}

	names[0] = "mutated"
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() after caller mutation = %v, want %v", got, want)
	}
}

func TestEmptyRegistry(t *testing.T) {
	registry := New(nil)
	if registry.Len() != 0 {
		t.Errorf("Len() = %d, want 0", registry.Len())
	}
	if names := registry.Names(); names == nil || len(names) != 0 {
		t.Errorf("Names() = %#v, want empty non-nil slice", names)
	}
}
