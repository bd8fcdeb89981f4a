package jsonschema

import "fmt"

// A TypePredicate decides whether an instance belongs to an abstract JSON
// Schema type.
type TypePredicate func(instance any) bool

// A TypeDef couples a type predicate with an optional construction hint. New
// is consulted by the serializer when it needs to instantiate a fresh output
// container for "object" (and, in principle, "array") typed output.
type TypeDef struct {
	Check TypePredicate
	New   func() any
}

// A TypeChecker maps abstract type names to definitions. Checkers are
// immutable; Redefine and Remove return modified copies, so draft default
// checkers can be shared freely.
type TypeChecker struct {
	defs map[string]TypeDef
}

// UndefinedTypeError is returned by IsType for type names the checker does
// not define.
type UndefinedTypeError string

func (e UndefinedTypeError) Error() string {
	return fmt.Sprintf("type %q is unknown to this checker", string(e))
}

func NewTypeChecker(defs map[string]TypeDef) TypeChecker {
	copied := make(map[string]TypeDef, len(defs))
	for name, def := range defs {
		copied[name] = def
	}
	return TypeChecker{defs: copied}
}

// IsType reports whether instance is of the named type.
func (tc TypeChecker) IsType(instance any, name string) (bool, error) {
	def, ok := tc.defs[name]
	if !ok {
		return false, UndefinedTypeError(name)
	}
	return def.Check(instance), nil
}

// Defines reports whether the checker knows the named type.
func (tc TypeChecker) Defines(name string) bool {
	_, ok := tc.defs[name]
	return ok
}

// Redefine returns a copy of the checker with name bound to def.
func (tc TypeChecker) Redefine(name string, def TypeDef) TypeChecker {
	return tc.RedefineMany(map[string]TypeDef{name: def})
}

// RedefineMany returns a copy of the checker with all given definitions
// applied.
func (tc TypeChecker) RedefineMany(defs map[string]TypeDef) TypeChecker {
	merged := make(map[string]TypeDef, len(tc.defs)+len(defs))
	for name, def := range tc.defs {
		merged[name] = def
	}
	for name, def := range defs {
		merged[name] = def
	}
	return TypeChecker{defs: merged}
}

// Remove returns a copy of the checker without the named types.
func (tc TypeChecker) Remove(names ...string) TypeChecker {
	copied := make(map[string]TypeDef, len(tc.defs))
	for name, def := range tc.defs {
		copied[name] = def
	}
	for _, name := range names {
		delete(copied, name)
	}
	return TypeChecker{defs: copied}
}

// maker returns the construction hint for the named type, or nil.
func (tc TypeChecker) maker(name string) func() any {
	return tc.defs[name].New
}

func isNullType(v any) bool {
	return v == nil
}

func isBooleanType(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isStringType(v any) bool {
	_, ok := v.(string)
	return ok
}

func isArrayType(v any) bool {
	_, ok := v.([]any)
	return ok
}

// The strict object representation is map[string]any only.
func isObjectType(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// The broad predicate additionally accepts any mapping-like representation,
// currently *OrderedMap.
func isMappingType(v any) bool {
	_, ok := asObject(v)
	return ok
}

var (
	// StrictObjectType is the default "object" definition: plain maps only,
	// output containers are plain maps.
	StrictObjectType = TypeDef{
		Check: isObjectType,
		New:   func() any { return map[string]any{} },
	}

	// OrderedObjectType accepts both object representations and designates
	// OrderedMap as the construction representation, making serialized output
	// order-preserving.
	OrderedObjectType = TypeDef{
		Check: isMappingType,
		New:   func() any { return NewOrderedMap() },
	}
)

func defaultTypeDefs() map[string]TypeDef {
	return map[string]TypeDef{
		"null":    {Check: isNullType},
		"boolean": {Check: isBooleanType},
		"string":  {Check: isStringType},
		"array":   {Check: isArrayType},
		"object":  StrictObjectType,
		"number":  {Check: isNumber},
		// Integral floats count as integers in every covered draft.
		"integer": {Check: isIntegral},
	}
}

var (
	// Draft3TypeChecker additionally defines "any", which draft 3 union
	// types may name.
	Draft3TypeChecker = NewTypeChecker(defaultTypeDefs()).Redefine("any",
		TypeDef{Check: func(any) bool { return true }})

	Draft4TypeChecker = NewTypeChecker(defaultTypeDefs())
	Draft6TypeChecker = NewTypeChecker(defaultTypeDefs())
	Draft7TypeChecker = NewTypeChecker(defaultTypeDefs())
)

// LegacyTypeChecker broadens base's "object" type to accept mapping-like
// representations beyond plain maps, restoring the permissive behavior of
// pre-strict type checking. The broadened representation also becomes the
// serializer's construction representation.
func LegacyTypeChecker(base TypeChecker) TypeChecker {
	return base.Redefine("object", OrderedObjectType)
}
