package jsonschema_test

import (
	"errors"
	"fmt"
	. "jsonschema"
	"testing"
)

func TestErrorTree(t *testing.T) {
	schema := map[string]any{
		"minProperties": 3,
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"c": map[string]any{"type": "number"},
		},
	}

	v, err := Draft7.NewValidator(schema)
	if err != nil {
		t.Logf("expected validator, got %s", err)
		t.FailNow()
	}

	instance := map[string]any{"a": 1, "c": "x"}
	tree := NewErrorTree(v.IterErrors(instance))

	if tree.TotalErrors() != 3 {
		t.Logf("expected 3 errors, got %d", tree.TotalErrors())
		t.FailNow()
	}
	if tree.Len() != tree.TotalErrors() {
		t.Logf("Len and TotalErrors disagree")
		t.FailNow()
	}

	// The root node holds the instance-level error.
	if _, ok := tree.Errors["minProperties"]; !ok {
		t.Logf("expected minProperties at the root, got %v", tree.Errors)
		t.FailNow()
	}

	if len(tree.Keys()) != 2 || !tree.Contains("a") || !tree.Contains("c") {
		t.Logf("expected branches for a and c, got %v", tree.Keys())
		t.FailNow()
	}

	child := tree.Child("a")
	if e, ok := child.Errors["type"]; !ok || e.Validator != "type" {
		t.Logf("expected type error below a, got %v", child.Errors)
		t.FailNow()
	}

	// Missing segments chain to empty trees instead of failing.
	if tree.Child("missing").Child("deeper").TotalErrors() != 0 {
		t.Logf("expected empty subtree for missing segment")
		t.FailNow()
	}
}

func TestErrorTreeNested(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"a": map[string]any{
				"required": []any{"x"},
				"properties": map[string]any{
					"b": map[string]any{"type": "string"},
				},
			},
			"c": map[string]any{"type": "number"},
		},
	}

	v, _ := Draft7.NewValidator(schema)
	// Errors at [a], [a b] and [c] group into two top-level branches.
	tree := NewErrorTree(v.IterErrors(map[string]any{
		"a": map[string]any{"b": 1},
		"c": "x",
	}))

	if len(tree.Keys()) != 2 {
		t.Logf("expected 2 top-level branches, got %v", tree.Keys())
		t.FailNow()
	}
	if tree.Child("a").TotalErrors() != 2 {
		t.Logf("expected 2 errors below a, got %d", tree.Child("a").TotalErrors())
		t.FailNow()
	}
	if _, ok := tree.Child("a").Errors["required"]; !ok {
		t.Logf("expected required error at a, got %v", tree.Child("a").Errors)
		t.FailNow()
	}
	if tree.Child("a").Child("b").TotalErrors() != 1 {
		t.Logf("expected 1 error below a.b")
		t.FailNow()
	}
	if tree.Child("c").TotalErrors() != 1 {
		t.Logf("expected 1 error below c")
		t.FailNow()
	}
}

func TestErrorTreeIndexedPaths(t *testing.T) {
	schema := map[string]any{
		"items": map[string]any{"type": "integer"},
	}

	v, _ := Draft7.NewValidator(schema)
	tree := NewErrorTree(v.IterErrors([]any{1, "x", 3, "y"}))

	if tree.TotalErrors() != 2 {
		t.Logf("expected 2 errors, got %d", tree.TotalErrors())
		t.FailNow()
	}
	if !tree.Contains(1) || !tree.Contains(3) || tree.Contains(0) {
		t.Logf("unexpected branches %v", tree.Keys())
		t.FailNow()
	}
}

func TestValidationErrorMessage(t *testing.T) {
	v, _ := Draft7.NewValidator(map[string]any{
		"properties": map[string]any{
			"port": map[string]any{"type": "integer"},
		},
	})

	err := v.Validate(map[string]any{"port": "x"})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Logf("expected *ValidationError, got %T", err)
		t.FailNow()
	}

	if verr.Message() != `x is not of type "integer"` {
		t.Logf("unexpected message %q", verr.Message())
		t.FailNow()
	}
	if verr.Error() != `port: `+verr.Message() {
		t.Logf("unexpected error string %q", verr.Error())
		t.FailNow()
	}
	if verr.Instance != "x" || verr.Validator != "type" || verr.ValidatorValue != "integer" {
		t.Logf("error not bound to its dispatch context: %+v", verr)
		t.FailNow()
	}
}

func TestFormatErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &FormatError{Format: "date", Value: "x", Err: cause}
	if !errors.Is(err, cause) {
		t.Logf("expected unwrap to cause")
		t.FailNow()
	}

	rerr := &RefResolutionError{Ref: "#/missing", Err: cause}
	if !errors.Is(rerr, cause) {
		t.Logf("expected unwrap to cause")
		t.FailNow()
	}
	if rerr.Error() != fmt.Sprintf("could not resolve reference %q: %v", "#/missing", cause) {
		t.Logf("unexpected message %q", rerr.Error())
		t.FailNow()
	}
}
