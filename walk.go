package jsonschema

import (
	"errors"
	"fmt"
	"path"

	"jsonschema/jsonptr"
)

var (
	Skip    = errors.New("skip this node")
	SkipAll = errors.New("skip everything and stop the walk")
)

// WalkFunc is called by Walk for each subschema. The ptr argument contains the
// JSON pointer that points to the schema, starting from the root schema.
//
// The error result returned by the function controls how Walk continues.
// If the function returns the special error Skip, Walk skips any schemas
// defined in the current schema, while SkipAll will skip all remaining
// schemas. If the function returns a non-nil error, Walk stops entirely and
// returns that error.
type WalkFunc func(ptr string, schema any) error

// Subschema-bearing keyword shapes shared by drafts 3 through 7.
var (
	walkSingle = []string{
		"not", "if", "then", "else", "items", "additionalItems", "contains",
		"additionalProperties", "propertyNames", "extends",
	}
	walkMany = []string{"allOf", "anyOf", "oneOf", "extends", "items"}
	walkMaps = []string{"definitions", "properties", "patternProperties", "dependencies"}
)

// Walk walks the raw schema document rooted at root, calling fn for each
// subschema position, including root itself. Schemas are not walked in
// lexical order. fn is first called with the current schema, which is then
// walked if no error occurred.
func Walk(root any, fn WalkFunc) error {
	if err := fn("/", root); err != nil {
		if errors.Is(err, Skip) || errors.Is(err, SkipAll) {
			return nil
		}
		return err
	}

	var walk func(string, any, WalkFunc) error
	walk = func(prefix string, root any, fn WalkFunc) error {
		var err error
		iterSubschemas(root, func(ptr string, schema any) (c bool) {
			p := path.Join(prefix, ptr)
			if err = fn("/"+p, schema); err != nil {
				// If fn returned Skip or SkipAll, reset the error and return early to
				// prevent walking the skipped schema. If the error is not the special
				// error Skip, c is set to false and the iteration stops.
				if skip := errors.Is(err, Skip); skip || errors.Is(err, SkipAll) {
					c, err = skip, nil
				}
				return c
			}

			err = walk(p, schema, fn)
			return err == nil
		})
		return err
	}
	return walk("", root, fn)
}

func iterSubschemas(s any, cont func(string, any) bool) {
	obj, ok := asObject(s)
	if !ok {
		return
	}

	for _, keyword := range walkSingle {
		sub, ok := obj.Get(keyword)
		if !ok || !isSchemaLike(sub) {
			continue // list forms are handled below
		}
		if !cont(jsonptr.Escape(keyword), sub) {
			return
		}
	}

	for _, keyword := range walkMany {
		list, ok := obj.Get(keyword)
		if !ok {
			continue
		}
		subs, ok := list.([]any)
		if !ok {
			continue
		}
		for i, sub := range subs {
			if !isSchemaLike(sub) {
				continue
			}
			if !cont(fmt.Sprintf("%s/%d", jsonptr.Escape(keyword), i), sub) {
				return
			}
		}
	}

	for _, keyword := range walkMaps {
		m, ok := obj.Get(keyword)
		if !ok {
			continue
		}
		sub, ok := asObject(m)
		if !ok {
			continue
		}
		for _, name := range sub.Keys() {
			v, _ := sub.Get(name)
			if !isSchemaLike(v) {
				continue
			}
			if !cont(jsonptr.Escape(keyword)+"/"+jsonptr.Escape(name), v) {
				return
			}
		}
	}
}

// isSchemaLike filters out non-schema keyword values, e.g. a draft 3 string
// dependency or additionalProperties: false.
func isSchemaLike(v any) bool {
	if _, ok := asObject(v); ok {
		return true
	}
	_, ok := v.(bool)
	return ok
}
