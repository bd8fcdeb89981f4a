package jsonschema_test

import (
	"errors"
	. "jsonschema"
	"slices"
	"testing"
)

func TestWalk(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isMember":         map[string]any{"type": "boolean"},
			"membershipNumber": map[string]any{"type": "string"},
		},
		"if": map[string]any{
			"properties": map[string]any{
				"isMember": map[string]any{"const": true},
			},
		},
		"then": map[string]any{
			"properties": map[string]any{
				"membershipNumber": map[string]any{"minLength": 10},
			},
		},
		"else": map[string]any{
			"properties": map[string]any{
				"membershipNumber": map[string]any{"minLength": 1},
			},
		},
	}

	var l1 []struct{}
	err := Walk(schema, func(_ string, _ any) error {
		l1 = append(l1, struct{}{})
		return SkipAll
	})

	if err != nil {
		t.Logf("expected no error, got %v", err)
		t.FailNow()
	}

	if len(l1) != 1 {
		t.Logf("expected 1 item, got %v", len(l1))
		t.FailNow()
	}

	var l2 []string
	l2c := []string{
		"/if",
		"/then",
		"/else",
		"/properties/isMember",
		"/properties/membershipNumber",
	}

	err = Walk(schema, func(ptr string, _ any) error {
		if ptr != "/" {
			l2 = append(l2, ptr)
			return Skip
		}
		return nil
	})

	if err != nil {
		t.Logf("expected no error, got %v", err)
		t.FailNow()
	}

	slices.Sort(l2)
	slices.Sort(l2c)
	if !slices.Equal(l2, l2c) {
		t.Logf("expected %v, got %v", l2c, l2)
		t.FailNow()
	}

	var l3 []string
	l3c := []string{
		"/properties/isMember",
		"/properties/membershipNumber",
		"/if",
		"/if/properties/isMember",
		"/then",
		"/then/properties/membershipNumber",
		"/else",
		"/else/properties/membershipNumber",
	}

	err = Walk(schema, func(ptr string, _ any) error {
		if ptr != "/" {
			l3 = append(l3, ptr)
		}
		return nil
	})

	if err != nil {
		t.Logf("expected no error, got %v", err)
		t.FailNow()
	}

	slices.Sort(l3)
	slices.Sort(l3c)
	if !slices.Equal(l3, l3c) {
		t.Logf("expected %v, got %v", l3c, l3)
		t.FailNow()
	}

	s := ""
	if e := Walk(map[string]any{
		"allOf": []any{
			map[string]any{
				"properties": map[string]any{"foo": map[string]any{}},
			},
		},
	}, func(ptr string, _ any) error {
		s = ptr
		return nil
	}); e != nil {
		t.Logf("expected no error, got %v", e)
		t.FailNow()
	}

	if s != "/allOf/0/properties/foo" {
		t.Logf("expected %v, got %v", "/allOf/0/properties/foo", s)
		t.FailNow()
	}

	err = Walk(false, func(_ string, _ any) error {
		return errors.New("unexpected error")
	})

	if err == nil {
		t.Logf("expected error, got nil")
		t.FailNow()
	}
	if err.Error() != "unexpected error" {
		t.Logf("expected %q, got %q", "unexpected error", err)
		t.FailNow()
	}

	ptrTest := map[string]any{
		"allOf": []any{map[string]any{"type": "string"}},
		"definitions": map[string]any{
			"foo": map[string]any{},
			"bar": map[string]any{},
		},
		"items": map[string]any{},
	}

	for i, cause := range []string{
		"/items",
		"/allOf/0",
		"/definitions/foo",
	} {
		err = Walk(ptrTest, func(ptr string, _ any) error {
			if ptr == cause {
				return errors.New("unexpected error")
			}
			return nil
		})

		if err == nil {
			t.Errorf("expected error at test %d, got nil", i)
		}
	}
}

func TestWalkBooleanSubschemas(t *testing.T) {
	schema := map[string]any{
		"additionalProperties": false,
		"items":                true,
	}

	var ptrs []string
	err := Walk(schema, func(ptr string, _ any) error {
		if ptr != "/" {
			ptrs = append(ptrs, ptr)
		}
		return nil
	})
	if err != nil {
		t.Logf("expected no error, got %v", err)
		t.FailNow()
	}

	slices.Sort(ptrs)
	if !slices.Equal(ptrs, []string{"/additionalProperties", "/items"}) {
		t.Logf("expected boolean subschemas to be walked, got %v", ptrs)
		t.FailNow()
	}
}

func TestWalkEscapedPointers(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"a/b": map[string]any{},
		},
	}

	var ptrs []string
	_ = Walk(schema, func(ptr string, _ any) error {
		if ptr != "/" {
			ptrs = append(ptrs, ptr)
		}
		return nil
	})

	if !slices.Equal(ptrs, []string{"/properties/a~1b"}) {
		t.Logf("expected escaped pointer, got %v", ptrs)
		t.FailNow()
	}
}
