package jsonschema

import (
	"fmt"
	"iter"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

func collectErrors(seq iter.Seq[*ValidationError]) []*ValidationError {
	var errs []*ValidationError
	for e := range seq {
		errs = append(errs, e)
	}
	return errs
}

// Pattern compilation is cached; patternProperties recompiles the same
// expressions for every instance key otherwise.
var regexpCache sync.Map

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexpCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexpCache.Store(pattern, re)
	return re, nil
}

func typeNames(value any) []string {
	switch t := value.(type) {
	case string:
		return []string{t}
	case []any:
		names := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

func quotedJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func kwType(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		names := typeNames(value)
		for _, name := range names {
			if v.isTypeName(instance, name) {
				return
			}
		}
		yield(newError("%v is not of type %s", instance, quotedJoin(names)))
	}
}

// kwTypeDraft3 also accepts schemas inside union types: the instance matches
// if it validates against the embedded schema.
func kwTypeDraft3(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		options, ok := value.([]any)
		if !ok {
			options = []any{value}
		}

		var names []string
		for _, option := range options {
			if name, ok := option.(string); ok {
				names = append(names, name)
				if v.isTypeName(instance, name) {
					return
				}
				continue
			}
			if _, ok := asObject(option); ok {
				names = append(names, fmt.Sprintf("%v", option))
				if v.isValid(instance, option) {
					return
				}
			}
		}
		yield(newError("%v is not of type %s", instance, strings.Join(names, ", ")))
	}
}

// kwDisallow is draft 3's negated type union.
func kwDisallow(v *Validator, value, instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		options, ok := value.([]any)
		if !ok {
			options = []any{value}
		}

		for _, option := range options {
			if collectErrors(kwTypeDraft3(v, option, instance, schema)) == nil {
				yield(newError("%v is disallowed for %v", option, instance))
				return
			}
		}
	}
}

// kwExtends is draft 3's allOf.
func kwExtends(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		if list, ok := value.([]any); ok {
			for i, sub := range list {
				for e := range v.descend(instance, sub, nil, i) {
					if !yield(e) {
						return
					}
				}
			}
			return
		}
		for e := range v.descend(instance, value, nil, nil) {
			if !yield(e) {
				return
			}
		}
	}
}

func kwEnum(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		values, ok := value.([]any)
		if !ok {
			return
		}
		if !containsEqual(values, instance) {
			yield(newError("%v is not one of %v", instance, values))
		}
	}
}

func kwConst(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		if !jsonEqual(instance, value) {
			yield(newError("%v was expected", value))
		}
	}
}

// kwMinimumBoolExclusive implements the draft 3/4 form where a boolean
// exclusiveMinimum sibling toggles strictness.
func kwMinimumBoolExclusive(_ *Validator, value, instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		m, ok := numberValue(value)
		x, okInst := numberValue(instance)
		if !ok || !okInst {
			return
		}

		exclusive, _ := boolKeyword(schema, "exclusiveMinimum")
		if exclusive && x <= m {
			yield(newError("%v is less than or equal to the minimum of %v", instance, value))
		} else if !exclusive && x < m {
			yield(newError("%v is less than the minimum of %v", instance, value))
		}
	}
}

func kwMaximumBoolExclusive(_ *Validator, value, instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		m, ok := numberValue(value)
		x, okInst := numberValue(instance)
		if !ok || !okInst {
			return
		}

		exclusive, _ := boolKeyword(schema, "exclusiveMaximum")
		if exclusive && x >= m {
			yield(newError("%v is greater than or equal to the maximum of %v", instance, value))
		} else if !exclusive && x > m {
			yield(newError("%v is greater than the maximum of %v", instance, value))
		}
	}
}

func boolKeyword(schema any, keyword string) (bool, bool) {
	v, ok := schemaGet(schema, keyword)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func kwMinimum(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return numericCompare(value, instance, func(x, m float64) bool { return x < m },
		"%v is less than the minimum of %v")
}

func kwMaximum(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return numericCompare(value, instance, func(x, m float64) bool { return x > m },
		"%v is greater than the maximum of %v")
}

func kwExclusiveMinimum(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return numericCompare(value, instance, func(x, m float64) bool { return x <= m },
		"%v is less than or equal to the exclusive minimum of %v")
}

func kwExclusiveMaximum(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return numericCompare(value, instance, func(x, m float64) bool { return x >= m },
		"%v is greater than or equal to the exclusive maximum of %v")
}

func numericCompare(value, instance any, fails func(x, m float64) bool, format string) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		m, ok := numberValue(value)
		x, okInst := numberValue(instance)
		if !ok || !okInst {
			return
		}
		if fails(x, m) {
			yield(newError(format, instance, value))
		}
	}
}

// kwMultipleOf also serves draft 3's divisibleBy. The quotient check is
// tolerance-aware so binary rounding of decimal fractions does not produce
// false negatives.
func kwMultipleOf(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		m, ok := numberValue(value)
		x, okInst := numberValue(instance)
		if !ok || !okInst || m == 0 {
			return
		}

		q := x / m
		if math.Abs(q-math.Round(q)) > 1e-9*math.Max(1, math.Abs(q)) {
			yield(newError("%v is not a multiple of %v", instance, value))
		}
	}
}

func kwMinLength(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		s, ok := instance.(string)
		n, okN := numberValue(value)
		if !ok || !okN {
			return
		}
		if utf8.RuneCountInString(s) < int(n) {
			yield(newError("%q is too short", s))
		}
	}
}

func kwMaxLength(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		s, ok := instance.(string)
		n, okN := numberValue(value)
		if !ok || !okN {
			return
		}
		if utf8.RuneCountInString(s) > int(n) {
			yield(newError("%q is too long", s))
		}
	}
}

func kwPattern(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		s, okInst := instance.(string)
		pattern, okPat := value.(string)
		if !okInst || !okPat {
			return
		}

		re, err := compilePattern(pattern)
		if err != nil {
			e := newError("invalid pattern %q: %v", pattern, err)
			e.Cause = err
			yield(e)
			return
		}
		if !re.MatchString(s) {
			yield(newError("%q does not match %q", s, pattern))
		}
	}
}

func kwItems(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := instance.([]any)
		if !ok {
			return
		}

		if list, ok := value.([]any); ok {
			for i := 0; i < len(arr) && i < len(list); i++ {
				for e := range v.descend(arr[i], list[i], i, i) {
					if !yield(e) {
						return
					}
				}
			}
			return
		}

		if !isSchemaLike(value) {
			return
		}
		for i, item := range arr {
			for e := range v.descend(item, value, i, nil) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func kwAdditionalItems(v *Validator, value, instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := instance.([]any)
		if !ok {
			return
		}
		// Only meaningful when items is in list form.
		items, _ := schemaGet(schema, "items")
		list, ok := items.([]any)
		if !ok || len(arr) <= len(list) {
			return
		}

		if allow, isBool := value.(bool); isBool {
			if !allow {
				extra := make([]string, 0, len(arr)-len(list))
				for i := len(list); i < len(arr); i++ {
					extra = append(extra, fmt.Sprintf("%v", arr[i]))
				}
				yield(newError("Additional items are not allowed (%s unexpected)",
					strings.Join(extra, ", ")))
			}
			return
		}

		for i := len(list); i < len(arr); i++ {
			for e := range v.descend(arr[i], value, i, nil) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func kwMinItems(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := instance.([]any)
		n, okN := numberValue(value)
		if !ok || !okN {
			return
		}
		if len(arr) < int(n) {
			yield(newError("%v is too short", instance))
		}
	}
}

func kwMaxItems(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := instance.([]any)
		n, okN := numberValue(value)
		if !ok || !okN {
			return
		}
		if len(arr) > int(n) {
			yield(newError("%v is too long", instance))
		}
	}
}

func kwUniqueItems(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		unique, ok := value.(bool)
		arr, okArr := instance.([]any)
		if !ok || !unique || !okArr {
			return
		}

		for i := 0; i < len(arr); i++ {
			for j := i + 1; j < len(arr); j++ {
				if jsonEqual(arr[i], arr[j]) {
					yield(newError("%v has non-unique elements", instance))
					return
				}
			}
		}
	}
}

func kwContains(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		arr, ok := instance.([]any)
		if !ok {
			return
		}
		for _, item := range arr {
			if v.isValid(item, value) {
				return
			}
		}
		yield(newError("None of %v are valid under the given schema", instance))
	}
}

func kwRequired(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		names, okList := value.([]any)
		if !ok || !okList {
			return
		}
		for _, name := range names {
			prop, ok := name.(string)
			if !ok {
				continue
			}
			if _, present := obj.Get(prop); !present {
				if !yield(newError("%q is a required property", prop)) {
					return
				}
			}
		}
	}
}

func kwMinProperties(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		n, okN := numberValue(value)
		if !ok || !okN {
			return
		}
		if obj.Len() < int(n) {
			yield(newError("%v does not have enough properties", instance))
		}
	}
}

func kwMaxProperties(_ *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		n, okN := numberValue(value)
		if !ok || !okN {
			return
		}
		if obj.Len() > int(n) {
			yield(newError("%v has too many properties", instance))
		}
	}
}

func kwProperties(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		props, okProps := asObject(value)
		if !ok || !okProps {
			return
		}

		for _, prop := range props.Keys() {
			child, present := obj.Get(prop)
			if !present {
				continue
			}
			sub, _ := props.Get(prop)
			for e := range v.descend(child, sub, prop, prop) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// kwPropertiesDraft3 adds draft 3's per-property boolean required.
func kwPropertiesDraft3(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		props, okProps := asObject(value)
		if !ok || !okProps {
			return
		}

		for _, prop := range props.Keys() {
			sub, _ := props.Get(prop)
			child, present := obj.Get(prop)
			if !present {
				if required, ok := boolKeyword(sub, "required"); ok && required {
					if !yield(newError("%q is a required property", prop)) {
						return
					}
				}
				continue
			}
			for e := range v.descend(child, sub, prop, prop) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func kwPatternProperties(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		patterns, okPat := asObject(value)
		if !ok || !okPat {
			return
		}

		for _, pattern := range patterns.Keys() {
			re, err := compilePattern(pattern)
			if err != nil {
				e := newError("invalid pattern %q: %v", pattern, err)
				e.Cause = err
				if !yield(e) {
					return
				}
				continue
			}

			sub, _ := patterns.Get(pattern)
			for _, key := range obj.Keys() {
				if !re.MatchString(key) {
					continue
				}
				child, _ := obj.Get(key)
				for e := range v.descend(child, sub, key, pattern) {
					if !yield(e) {
						return
					}
				}
			}
		}
	}
}

// additionalKeys returns the instance keys covered by neither properties nor
// patternProperties.
func additionalKeys(instance object, schema any) []string {
	props, _ := schemaGet(schema, "properties")
	propObj, hasProps := asObject(props)

	patterns, _ := schemaGet(schema, "patternProperties")
	patObj, hasPatterns := asObject(patterns)

	var extras []string
	for _, key := range instance.Keys() {
		if hasProps {
			if _, ok := propObj.Get(key); ok {
				continue
			}
		}
		if hasPatterns {
			matched := false
			for _, pattern := range patObj.Keys() {
				if re, err := compilePattern(pattern); err == nil && re.MatchString(key) {
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		extras = append(extras, key)
	}
	return extras
}

func kwAdditionalProperties(v *Validator, value, instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		if !ok {
			return
		}

		extras := additionalKeys(obj, schema)
		if len(extras) == 0 {
			return
		}

		if allow, isBool := value.(bool); isBool {
			if !allow {
				quoted := make([]string, len(extras))
				for i, key := range extras {
					quoted[i] = fmt.Sprintf("%q", key)
				}
				yield(newError("Additional properties are not allowed (%s unexpected)",
					strings.Join(quoted, ", ")))
			}
			return
		}

		if !isSchemaLike(value) {
			return
		}
		for _, key := range extras {
			child, _ := obj.Get(key)
			for e := range v.descend(child, value, key, nil) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func kwPropertyNames(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		if !ok {
			return
		}
		for _, key := range obj.Keys() {
			for e := range v.descend(key, value, nil, nil) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// kwDependencies covers all draft forms: a plain string (draft 3), a list of
// property names, or a schema applied to the whole instance.
func kwDependencies(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		obj, ok := asObject(instance)
		deps, okDeps := asObject(value)
		if !ok || !okDeps {
			return
		}

		for _, prop := range deps.Keys() {
			if _, present := obj.Get(prop); !present {
				continue
			}
			dep, _ := deps.Get(prop)

			switch d := dep.(type) {
			case string:
				if _, present := obj.Get(d); !present {
					if !yield(newError("%q is a dependency of %q", d, prop)) {
						return
					}
				}
			case []any:
				for _, name := range d {
					s, ok := name.(string)
					if !ok {
						continue
					}
					if _, present := obj.Get(s); !present {
						if !yield(newError("%q is a dependency of %q", s, prop)) {
							return
						}
					}
				}
			default:
				if !isSchemaLike(dep) {
					continue
				}
				for e := range v.descend(instance, dep, nil, prop) {
					if !yield(e) {
						return
					}
				}
			}
		}
	}
}

func kwAllOf(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		subs, ok := value.([]any)
		if !ok {
			return
		}
		for i, sub := range subs {
			for e := range v.descend(instance, sub, nil, i) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func kwAnyOf(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		subs, ok := value.([]any)
		if !ok {
			return
		}

		var all []*ValidationError
		for i, sub := range subs {
			errs := collectErrors(v.descend(instance, sub, nil, i))
			if len(errs) == 0 {
				return
			}
			all = append(all, errs...)
		}

		e := newError("%v is not valid under any of the given schemas", instance)
		e.Context = all
		yield(e)
	}
}

func kwOneOf(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		subs, ok := value.([]any)
		if !ok {
			return
		}

		var all []*ValidationError
		var matches []any
		for i, sub := range subs {
			errs := collectErrors(v.descend(instance, sub, nil, i))
			if len(errs) == 0 {
				matches = append(matches, sub)
				continue
			}
			all = append(all, errs...)
		}

		switch len(matches) {
		case 1:
		case 0:
			e := newError("%v is not valid under any of the given schemas", instance)
			e.Context = all
			yield(e)
		default:
			yield(newError("%v is valid under each of %v", instance, matches))
		}
	}
}

func kwNot(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		if v.isValid(instance, value) {
			yield(newError("%v is not allowed for %v", value, instance))
		}
	}
}

// kwIfThenElse is bound to the if keyword; then and else are consulted as
// siblings and never dispatched on their own.
func kwIfThenElse(v *Validator, value, instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		if v.isValid(instance, value) {
			if then, ok := schemaGet(schema, "then"); ok {
				for e := range v.descend(instance, then, nil, "then") {
					if !yield(e) {
						return
					}
				}
			}
			return
		}
		if els, ok := schemaGet(schema, "else"); ok {
			for e := range v.descend(instance, els, nil, "else") {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func kwFormat(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		if !v.checkFormats {
			return
		}
		name, ok := value.(string)
		if !ok {
			return
		}
		if err := v.formatChecker.Check(instance, name); err != nil {
			e := newError("%v", err)
			e.Cause = err
			yield(e)
		}
	}
}

// kwRef resolves the reference and validates against its target, suppressing
// every sibling keyword. A resolution failure becomes a ValidationError with
// the resolver error as its cause rather than a fault.
func kwRef(v *Validator, value, instance, _ any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		ref, ok := value.(string)
		if !ok {
			return
		}

		resolved, pop, err := v.resolver.Resolving(ref)
		if err != nil {
			e := newError("%v", err)
			e.Cause = err
			yield(e)
			return
		}
		defer pop()

		for e := range v.descend(instance, resolved, nil, nil) {
			if !yield(e) {
				return
			}
		}
	}
}
