package jsonschema

// DeepCopy creates a deep copy of a raw JSON value. Scalars are returned
// as-is, containers are rebuilt recursively. The copy shares nothing with the
// source, so mutating one never affects the other.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case *OrderedMap:
		out := NewOrderedMap()
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			out.Set(k, DeepCopy(e))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DeepCopy(e)
		}
		return out
	}
	return v
}
