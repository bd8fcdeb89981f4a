package jsonschema

import (
	"sort"

	json "github.com/goccy/go-json"
)

// Schemas and instances are raw JSON values: nil, bool, string, numbers
// (float64, json.Number, or Go integer kinds when built in code), []any for
// arrays, and map[string]any or *OrderedMap for objects. A schema is either a
// boolean (draft 6+) or an object mapping keyword names to values.

// object is the uniform view over both object representations.
type object interface {
	Get(key string) (any, bool)
	Keys() []string
	Len() int
}

type mapObject map[string]any

func (o mapObject) Get(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// Keys are sorted; plain maps carry no declared order.
func (o mapObject) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o mapObject) Len() int {
	return len(o)
}

// asObject returns an object view of v, if v is an object representation.
func asObject(v any) (object, bool) {
	switch t := v.(type) {
	case map[string]any:
		return mapObject(t), true
	case *OrderedMap:
		return t, true
	}
	return nil, false
}

// schemaBool reports whether schema is a boolean schema and its value.
func schemaBool(schema any) (value, ok bool) {
	b, ok := schema.(bool)
	return b, ok
}

// schemaGet looks up a keyword on a schema object. It returns false for
// boolean schemas and non-object values.
func schemaGet(schema any, keyword string) (any, bool) {
	obj, ok := asObject(schema)
	if !ok {
		return nil, false
	}
	return obj.Get(keyword)
}

// numberValue coerces any of the accepted numeric representations to float64.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func isNumber(v any) bool {
	_, ok := numberValue(v)
	return ok
}

// isIntegral reports whether v is a number with an integral value.
func isIntegral(v any) bool {
	switch v.(type) {
	case int, int64, uint64:
		return true
	}
	f, ok := numberValue(v)
	return ok && f == float64(int64(f))
}

// jsonEqual implements JSON equality: numbers compare by value regardless of
// representation (1 == 1.0), object key order is irrelevant, booleans never
// equal numbers.
func jsonEqual(a, b any) bool {
	switch at := a.(type) {
	case nil:
		return b == nil
	case bool:
		bb, ok := b.(bool)
		return ok && at == bb
	case string:
		bs, ok := b.(string)
		return ok && at == bs
	case []any:
		ba, ok := b.([]any)
		if !ok || len(at) != len(ba) {
			return false
		}
		for i := range at {
			if !jsonEqual(at[i], ba[i]) {
				return false
			}
		}
		return true
	}

	if an, ok := numberValue(a); ok {
		if _, isBool := b.(bool); isBool {
			return false
		}
		bn, ok := numberValue(b)
		return ok && an == bn
	}

	if ao, ok := asObject(a); ok {
		bo, ok := asObject(b)
		if !ok || ao.Len() != bo.Len() {
			return false
		}
		for _, k := range ao.Keys() {
			av, _ := ao.Get(k)
			bv, ok := bo.Get(k)
			if !ok || !jsonEqual(av, bv) {
				return false
			}
		}
		return true
	}

	return false
}

// containsEqual reports whether values contains an element JSON-equal to v.
func containsEqual(values []any, v any) bool {
	for _, candidate := range values {
		if jsonEqual(v, candidate) {
			return true
		}
	}
	return false
}
