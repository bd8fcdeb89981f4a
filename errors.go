package jsonschema

import (
	"fmt"
	"iter"
	"strings"
)

// A ValidationError describes a single nonconformance of an instance against
// a schema. Errors produced by combinators carry the failing branch errors in
// Context; errors produced by a failing $ref resolution carry the resolver
// error in Cause.
type ValidationError struct {
	// Validator is the keyword that failed, ValidatorValue its schema value.
	Validator      string
	ValidatorValue any
	// Instance and Schema are the offending value and the (sub)schema that
	// was being checked when the error was found.
	Instance any
	Schema   any
	// Path locates Instance relative to the root instance, SchemaPath the
	// failing keyword relative to the root schema. Both grow one segment per
	// recursion boundary the error crosses on its way up.
	Path       []any
	SchemaPath []any
	Context    []*ValidationError
	Cause      error

	format  string
	args    []any
	message string
	bound   bool
}

func newError(format string, args ...any) *ValidationError {
	return &ValidationError{format: format, args: args}
}

// Message renders the human-readable message. Formatting is deferred until
// first use and cached; most errors on a hot path are discarded by
// combinators that only need pass/fail.
func (e *ValidationError) Message() string {
	if e.message == "" && e.format != "" {
		e.message = fmt.Sprintf(e.format, e.args...)
	}
	return e.message
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return e.Message()
	}
	return formatPath(e.Path) + ": " + e.Message()
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// setDefaults fills in the dispatch context on errors bubbling out of a
// keyword function. Errors already bound at a deeper recursion level keep the
// values set closer to the failure.
func (e *ValidationError) setDefaults(validator string, value, instance, schema any) {
	if e.bound {
		return
	}
	e.Validator = validator
	e.ValidatorValue = value
	e.Instance = instance
	e.Schema = schema
	e.bound = true
}

func formatPath(path []any) string {
	var b strings.Builder
	for i, seg := range path {
		if n, ok := seg.(int); ok {
			fmt.Fprintf(&b, "[%d]", n)
		} else {
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprintf(&b, "%v", seg)
		}
	}
	return b.String()
}

// A SchemaError reports that a schema itself fails its draft's meta-schema.
type SchemaError struct {
	ValidationError
}

// A RefResolutionError reports that a $ref could not be resolved. During
// validation it is wrapped into a ValidationError as Cause; it is returned
// directly when resolution is invoked standalone.
type RefResolutionError struct {
	Ref string
	Err error
}

func (e *RefResolutionError) Error() string {
	return fmt.Sprintf("could not resolve reference %q: %v", e.Ref, e.Err)
}

func (e *RefResolutionError) Unwrap() error {
	return e.Err
}

// A FormatError reports that a format checker itself failed while checking a
// value, as opposed to the value merely being nonconformant.
type FormatError struct {
	Format string
	Value  any
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format checker %q failed: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// An ErrorTree groups validation errors by instance path. Each node holds the
// errors whose path ends there, keyed by the failing keyword, and a branch
// per path segment below it.
type ErrorTree struct {
	Errors   map[string]*ValidationError
	branches map[any]*ErrorTree
}

// NewErrorTree builds a tree from a sequence of errors, typically the result
// of IterErrors.
func NewErrorTree(errors iter.Seq[*ValidationError]) *ErrorTree {
	t := newErrorTree()
	for err := range errors {
		node := t
		for _, seg := range err.Path {
			node = node.branch(seg)
		}
		node.Errors[err.Validator] = err
	}
	return t
}

func newErrorTree() *ErrorTree {
	return &ErrorTree{
		Errors:   map[string]*ValidationError{},
		branches: map[any]*ErrorTree{},
	}
}

func (t *ErrorTree) branch(segment any) *ErrorTree {
	child, ok := t.branches[segment]
	if !ok {
		child = newErrorTree()
		t.branches[segment] = child
	}
	return child
}

// Child returns the subtree below the given path segment. Missing segments
// yield an empty tree, so lookups can be chained safely.
func (t *ErrorTree) Child(segment any) *ErrorTree {
	if child, ok := t.branches[segment]; ok {
		return child
	}
	return newErrorTree()
}

// Contains reports whether any error exists at or below segment.
func (t *ErrorTree) Contains(segment any) bool {
	_, ok := t.branches[segment]
	return ok
}

// Keys returns the path segments that have errors below this node.
func (t *ErrorTree) Keys() []any {
	keys := make([]any, 0, len(t.branches))
	for k := range t.branches {
		keys = append(keys, k)
	}
	return keys
}

// TotalErrors counts all errors in the tree.
func (t *ErrorTree) TotalErrors() int {
	n := len(t.Errors)
	for _, child := range t.branches {
		n += child.TotalErrors()
	}
	return n
}

func (t *ErrorTree) Len() int {
	return t.TotalErrors()
}
