package jsonschema_test

import (
	. "jsonschema"
	"reflect"
	"slices"
	"testing"
)

func TestDeepCopy(t *testing.T) {
	original := map[string]any{
		"name": "anna",
		"tags": []any{"a", "b"},
		"nested": map[string]any{
			"n": 1,
		},
	}

	copied := DeepCopy(original)
	if !reflect.DeepEqual(copied, original) {
		t.Logf("have: %v", copied)
		t.Logf("need: %v", original)
		t.FailNow()
	}

	m := copied.(map[string]any)
	m["name"] = "bea"
	m["tags"].([]any)[0] = "x"
	m["nested"].(map[string]any)["n"] = 2

	if original["name"] != "anna" ||
		original["tags"].([]any)[0] != "a" ||
		original["nested"].(map[string]any)["n"] != 1 {
		t.Logf("copy shares state with the original: %v", original)
		t.FailNow()
	}
}

func TestDeepCopyOrdered(t *testing.T) {
	original := NewOrderedMap()
	original.Set("z", 1)
	original.Set("a", []any{map[string]any{"k": "v"}})

	copied, ok := DeepCopy(original).(*OrderedMap)
	if !ok {
		t.Logf("expected *OrderedMap, got %T", DeepCopy(original))
		t.FailNow()
	}

	if !slices.Equal(copied.Keys(), []string{"z", "a"}) {
		t.Logf("copy lost key order: %v", copied.Keys())
		t.FailNow()
	}

	copied.Set("z", 2)
	if v, _ := original.Get("z"); v != 1 {
		t.Logf("copy shares state with the original")
		t.FailNow()
	}
}

func TestDeepCopyScalars(t *testing.T) {
	for _, v := range []any{nil, true, "s", 1, 1.5} {
		if DeepCopy(v) != v {
			t.Logf("scalar %v not copied by value", v)
			t.FailNow()
		}
	}
}
