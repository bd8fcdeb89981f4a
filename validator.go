package jsonschema

import (
	"fmt"
	"iter"
)

// A Validator checks instances against one root schema under one draft's
// semantics. Validators are cheap to build and safe to reuse for many
// instances from a single goroutine; concurrent use requires one validator
// (or at least one resolver) per goroutine.
type Validator struct {
	draft         *Draft
	schema        any
	resolver      *RefResolver
	typeChecker   TypeChecker
	formatChecker FormatChecker
	checkFormats  bool

	baseURI     string
	checkSchema bool
}

type Option func(*Validator)

// WithTypeChecker replaces the draft's default type checker.
func WithTypeChecker(tc TypeChecker) Option {
	return func(v *Validator) {
		v.typeChecker = tc
	}
}

// WithFormatChecker attaches a format checker. Without one, format is not
// checked at all.
func WithFormatChecker(fc FormatChecker) Option {
	return func(v *Validator) {
		v.formatChecker = fc
		v.checkFormats = true
	}
}

// WithResolver supplies a pre-built resolver, typically to share its document
// cache across many validations against the same schema.
func WithResolver(r *RefResolver) Option {
	return func(v *Validator) {
		v.resolver = r
	}
}

// WithBaseURI sets the initial resolution scope when the schema itself does
// not declare an identifier.
func WithBaseURI(uri string) Option {
	return func(v *Validator) {
		v.baseURI = uri
	}
}

// WithSchemaCheck validates the schema against the draft's meta-schema during
// construction; a nonconforming schema fails with a *SchemaError.
func WithSchemaCheck() Option {
	return func(v *Validator) {
		v.checkSchema = true
	}
}

// NewValidator builds a validator for schema under this draft.
func (d *Draft) NewValidator(schema any, opts ...Option) (*Validator, error) {
	if _, ok := schemaBool(schema); !ok {
		if _, ok := asObject(schema); !ok {
			return nil, fmt.Errorf("jsonschema: schema must be a boolean or an object, got %T", schema)
		}
	}

	v := &Validator{
		draft:       d,
		schema:      schema,
		typeChecker: d.TypeChecker,
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.checkSchema {
		if err := d.CheckSchema(schema); err != nil {
			return nil, err
		}
	}

	if v.resolver == nil {
		v.resolver = NewRefResolver(v.baseURI, schema,
			WithIDKeyword(d.IDKeyword), WithStore(metaschemaStore()))
	}
	return v, nil
}

// Schema returns the validator's root schema.
func (v *Validator) Schema() any {
	return v.schema
}

// IterErrors lazily yields every nonconformance of instance against the root
// schema. The sequence is finite and restartable.
func (v *Validator) IterErrors(instance any) iter.Seq[*ValidationError] {
	return v.iterErrors(instance, v.schema)
}

// IsValid is IterErrors with a short-circuit on the first error.
func (v *Validator) IsValid(instance any) bool {
	return v.isValid(instance, v.schema)
}

// Validate returns the first error found in keyword-dispatch order, or nil.
func (v *Validator) Validate(instance any) error {
	for err := range v.IterErrors(instance) {
		return err
	}
	return nil
}

func (v *Validator) isValid(instance, schema any) bool {
	for range v.iterErrors(instance, schema) {
		return false
	}
	return true
}

// iterErrors is the keyword dispatcher. Keywords run in the draft's fixed
// priority order; a $ref suppresses all of its siblings, per pre-2019 draft
// semantics.
func (v *Validator) iterErrors(instance, schema any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		if b, ok := schemaBool(schema); ok {
			if !b {
				e := newError("False schema does not allow %v", instance)
				e.Instance = instance
				e.Schema = schema
				e.bound = true
				yield(e)
			}
			return
		}

		obj, ok := asObject(schema)
		if !ok {
			return
		}

		if id := v.draft.schemaID(schema); id != "" {
			v.resolver.PushScope(id)
			defer v.resolver.PopScope()
		}

		if ref, ok := obj.Get("$ref"); ok {
			if _, isString := ref.(string); isString {
				for e := range kwRef(v, ref, instance, schema) {
					e.setDefaults("$ref", ref, instance, schema)
					if !yield(e) {
						return
					}
				}
				return
			}
		}

		for _, kw := range v.draft.keywords {
			value, present := obj.Get(kw.Name)
			if !present {
				continue
			}
			for e := range kw.Validate(v, value, instance, schema) {
				e.setDefaults(kw.Name, value, instance, schema)
				e.SchemaPath = prependSegment(kw.Name, e.SchemaPath)
				if !yield(e) {
					return
				}
			}
		}
	}
}

// descend recurses into a (sub-instance, subschema) pair, extending each
// yielded error's paths by exactly one segment. nil segments add nothing.
func (v *Validator) descend(instance, schema any, pathSeg, schemaSeg any) iter.Seq[*ValidationError] {
	return func(yield func(*ValidationError) bool) {
		for e := range v.iterErrors(instance, schema) {
			if pathSeg != nil {
				e.Path = prependSegment(pathSeg, e.Path)
			}
			if schemaSeg != nil {
				e.SchemaPath = prependSegment(schemaSeg, e.SchemaPath)
			}
			if !yield(e) {
				return
			}
		}
	}
}

func prependSegment(seg any, path []any) []any {
	out := make([]any, 0, len(path)+1)
	out = append(out, seg)
	return append(out, path...)
}

// isTypeName consults the active type checker, treating unknown type names as
// non-matching.
func (v *Validator) isTypeName(instance any, name string) bool {
	ok, err := v.typeChecker.IsType(instance, name)
	return err == nil && ok
}

// Validate checks instance against schema under the draft the schema asks
// for, failing with the first *ValidationError found.
func Validate(instance, schema any, opts ...Option) error {
	v, err := ValidatorFor(schema).NewValidator(schema, opts...)
	if err != nil {
		return err
	}
	return v.Validate(instance)
}

// Serialize transforms instance against schema, filling in declared defaults,
// under the draft the schema asks for. A nonconforming instance fails with
// the first *ValidationError; the transformed copy is returned regardless.
func Serialize(instance, schema any, opts ...Option) (any, error) {
	v, err := ValidatorFor(schema).NewValidator(schema, opts...)
	if err != nil {
		return nil, err
	}
	out, errs := v.Serialize(instance)
	if len(errs) > 0 {
		return out, errs[0]
	}
	return out, nil
}
