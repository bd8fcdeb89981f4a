package jsonschema

// Serialize validates instance and returns a transformed deep copy with every
// schema-declared default filled in. The errors are exactly those IterErrors
// would yield; the transformation itself never adds errors, and a valid
// instance always serializes with an empty error slice. Serializing an already
// serialized instance is a no-op.
func (v *Validator) Serialize(instance any) (any, []*ValidationError) {
	errs := collectErrors(v.IterErrors(instance))
	out := v.transform(DeepCopy(instance), v.schema)
	return out, errs
}

// transform mirrors keyword dispatch, but instead of collecting errors it
// threads the instance through the applicable subschemas and fills defaults.
// Branch selection inside combinators picks the first branch the instance is
// valid under; invalid instances pass through untouched where no branch fits.
func (v *Validator) transform(instance, schema any) any {
	obj, ok := asObject(schema)
	if !ok {
		return instance
	}

	if id := v.draft.schemaID(schema); id != "" {
		v.resolver.PushScope(id)
		defer v.resolver.PopScope()
	}

	if ref, ok := obj.Get("$ref"); ok {
		if s, isString := ref.(string); isString {
			resolved, pop, err := v.resolver.Resolving(s)
			if err != nil {
				return instance
			}
			defer pop()
			return v.transform(instance, resolved)
		}
	}

	if subs, ok := obj.Get("allOf"); ok {
		if list, ok := subs.([]any); ok {
			for _, sub := range list {
				instance = v.transform(instance, sub)
			}
		}
	}
	if ext, ok := obj.Get("extends"); ok {
		if list, ok := ext.([]any); ok {
			for _, sub := range list {
				instance = v.transform(instance, sub)
			}
		} else if isSchemaLike(ext) {
			instance = v.transform(instance, ext)
		}
	}
	for _, name := range []string{"anyOf", "oneOf"} {
		subs, ok := obj.Get(name)
		if !ok {
			continue
		}
		if list, ok := subs.([]any); ok {
			for _, sub := range list {
				if v.isValid(instance, sub) {
					instance = v.transform(instance, sub)
					break
				}
			}
		}
	}
	if cond, ok := obj.Get("if"); ok && isSchemaLike(cond) {
		if v.isValid(instance, cond) {
			if then, ok := obj.Get("then"); ok {
				instance = v.transform(instance, then)
			}
		} else if els, ok := obj.Get("else"); ok {
			instance = v.transform(instance, els)
		}
	}

	if inst, ok := asObject(instance); ok {
		return v.transformObject(inst, obj)
	}
	if arr, ok := instance.([]any); ok {
		return v.transformArray(arr, obj)
	}
	return instance
}

func (v *Validator) transformObject(instance object, schema object) any {
	props, _ := schema.Get("properties")
	propObj, hasProps := asObject(props)

	out := v.newObjectContainer()

	// Declared properties first, in schema order: present values are
	// transformed in place, absent ones with a default get the default, itself
	// transformed so nested defaults expand too.
	if hasProps {
		for _, prop := range propObj.Keys() {
			sub, _ := propObj.Get(prop)
			if child, present := instance.Get(prop); present {
				objectSet(out, prop, v.transform(child, sub))
				continue
			}
			if def, ok := schemaGet(sub, "default"); ok {
				objectSet(out, prop, v.transform(DeepCopy(def), sub))
			}
		}
	}

	patterns, _ := schema.Get("patternProperties")
	patObj, hasPatterns := asObject(patterns)
	additional, hasAdditional := schema.Get("additionalProperties")

	// Leftover instance keys keep their own order behind the declared ones.
	for _, key := range instance.Keys() {
		if hasProps {
			if _, declared := propObj.Get(key); declared {
				continue
			}
		}
		child, _ := instance.Get(key)

		matched := false
		if hasPatterns {
			for _, pattern := range patObj.Keys() {
				re, err := compilePattern(pattern)
				if err != nil || !re.MatchString(key) {
					continue
				}
				sub, _ := patObj.Get(pattern)
				child = v.transform(child, sub)
				matched = true
			}
		}
		if !matched && hasAdditional && isSchemaLike(additional) {
			child = v.transform(child, additional)
		}
		objectSet(out, key, child)
	}
	return out
}

func (v *Validator) transformArray(instance []any, schema object) any {
	out := make([]any, len(instance))
	copy(out, instance)

	items, hasItems := schema.Get("items")
	if !hasItems {
		return out
	}

	if list, ok := items.([]any); ok {
		for i := range out {
			if i < len(list) {
				out[i] = v.transform(out[i], list[i])
				continue
			}
			if additional, ok := schema.Get("additionalItems"); ok && isSchemaLike(additional) {
				out[i] = v.transform(out[i], additional)
			}
		}
		return out
	}

	if isSchemaLike(items) {
		for i := range out {
			out[i] = v.transform(out[i], items)
		}
	}
	return out
}

// newObjectContainer consults the type checker's construction hint for
// "object", so a checker with an order-preserving object representation makes
// serialized output order-preserving as well.
func (v *Validator) newObjectContainer() any {
	if maker := v.typeChecker.maker("object"); maker != nil {
		if c := maker(); c != nil {
			return c
		}
	}
	return map[string]any{}
}

func objectSet(container any, key string, value any) {
	switch c := container.(type) {
	case map[string]any:
		c[key] = value
	case *OrderedMap:
		c.Set(key, value)
	}
}
