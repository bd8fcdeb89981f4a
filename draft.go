package jsonschema

import (
	"embed"
	"fmt"
	"iter"
	"strings"
)

//go:embed metaschemas/*.json
var metaschemaFS embed.FS

// A KeywordFunc validates one keyword. It receives the keyword's schema
// value, the instance, and the enclosing schema object, and produces a lazy
// sequence of errors. Sequences must be restartable; the same (value,
// instance) pair may be iterated more than once.
type KeywordFunc func(v *Validator, value, instance, schema any) iter.Seq[*ValidationError]

// A Keyword pairs a keyword name with its validation function. The position
// in a draft's keyword slice is the dispatch priority.
type Keyword struct {
	Name     string
	Validate KeywordFunc
}

// A Draft bundles everything that varies between JSON Schema specification
// versions: the meta-schema, the keyword table, the identifier keyword, and
// the default type and format checkers.
type Draft struct {
	Version       int
	MetaSchemaURI string
	IDKeyword     string
	TypeChecker   TypeChecker
	FormatChecker FormatChecker

	keywords   []Keyword
	metaSchema any
	metaV      *Validator
}

// DraftConfig is the input to New, the draft factory. The shipped drafts are
// themselves products of this factory. MetaSchema is optional for the shipped
// versions, which fall back to their embedded documents; custom drafts that
// want CheckSchema must supply one.
type DraftConfig struct {
	Version       int
	MetaSchemaURI string
	MetaSchema    any
	IDKeyword     string
	TypeChecker   TypeChecker
	FormatChecker FormatChecker
	Keywords      []Keyword
}

// New builds a Draft from a configuration. The keyword slice is copied; the
// draft is immutable afterwards.
func New(cfg DraftConfig) *Draft {
	d := &Draft{
		Version:       cfg.Version,
		MetaSchemaURI: cfg.MetaSchemaURI,
		IDKeyword:     cfg.IDKeyword,
		TypeChecker:   cfg.TypeChecker,
		FormatChecker: cfg.FormatChecker,
		keywords:      make([]Keyword, len(cfg.Keywords)),
		metaSchema:    cfg.MetaSchema,
	}
	copy(d.keywords, cfg.Keywords)
	if d.IDKeyword == "" {
		d.IDKeyword = "$id"
	}
	return d
}

// Extend derives a new draft with the given keywords added, replacing
// same-named ones in place and appending new ones. The receiver is untouched.
func (d *Draft) Extend(keywords ...Keyword) *Draft {
	merged := make([]Keyword, len(d.keywords))
	copy(merged, d.keywords)

	for _, kw := range keywords {
		replaced := false
		for i := range merged {
			if merged[i].Name == kw.Name {
				merged[i] = kw
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, kw)
		}
	}

	return New(DraftConfig{
		Version:       d.Version,
		MetaSchemaURI: d.MetaSchemaURI,
		MetaSchema:    d.metaSchema,
		IDKeyword:     d.IDKeyword,
		TypeChecker:   d.TypeChecker,
		FormatChecker: d.FormatChecker,
		Keywords:      merged,
	})
}

// MetaSchema returns the draft's meta-schema document: the one its
// DraftConfig supplied, or the embedded document for the shipped versions.
func (d *Draft) MetaSchema() (any, error) {
	if d.metaSchema == nil {
		name := fmt.Sprintf("metaschemas/draft-%02d.json", d.Version)
		data, err := metaschemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("no meta-schema for draft %d: %w", d.Version, err)
		}
		doc, err := UnmarshalOrdered(data)
		if err != nil {
			return nil, fmt.Errorf("malformed meta-schema for draft %d: %w", d.Version, err)
		}
		d.metaSchema = doc
	}
	return d.metaSchema, nil
}

// CheckSchema validates schema against the draft's meta-schema. The returned
// error is a *SchemaError describing the first violation.
func (d *Draft) CheckSchema(schema any) error {
	if d.metaV == nil {
		meta, err := d.MetaSchema()
		if err != nil {
			return err
		}
		// Schemas decoded with UnmarshalOrdered are OrderedMap-shaped, so the
		// meta-validation type checker must accept both representations.
		v, err := d.NewValidator(meta,
			WithTypeChecker(LegacyTypeChecker(d.TypeChecker)))
		if err != nil {
			return err
		}
		d.metaV = v
	}

	for e := range d.metaV.IterErrors(schema) {
		return &SchemaError{ValidationError: *e}
	}
	return nil
}

// schemaID returns the identifier a schema object declares, if any. Anchors
// (bare-fragment ids, draft 6+) are returned too and pushed as scopes; the
// joined scope keeps the same document, so relative refs below the anchor
// still resolve against it. The resolver's id index is what keeps anchors
// from shadowing their document's own URI.
func (d *Draft) schemaID(schema any) string {
	v, ok := schemaGet(schema, d.IDKeyword)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

var (
	Draft3 = New(DraftConfig{
		Version:       3,
		MetaSchemaURI: "http://json-schema.org/draft-03/schema",
		IDKeyword:     "id",
		TypeChecker:   Draft3TypeChecker,
		FormatChecker: Draft3FormatChecker,
		Keywords: []Keyword{
			{"type", kwTypeDraft3},
			{"disallow", kwDisallow},
			{"extends", kwExtends},
			{"enum", kwEnum},
			{"minimum", kwMinimumBoolExclusive},
			{"maximum", kwMaximumBoolExclusive},
			{"divisibleBy", kwMultipleOf},
			{"minLength", kwMinLength},
			{"maxLength", kwMaxLength},
			{"pattern", kwPattern},
			{"minItems", kwMinItems},
			{"maxItems", kwMaxItems},
			{"uniqueItems", kwUniqueItems},
			{"items", kwItems},
			{"additionalItems", kwAdditionalItems},
			{"properties", kwPropertiesDraft3},
			{"patternProperties", kwPatternProperties},
			{"additionalProperties", kwAdditionalProperties},
			{"dependencies", kwDependencies},
			{"format", kwFormat},
		},
	})

	Draft4 = New(DraftConfig{
		Version:       4,
		MetaSchemaURI: "http://json-schema.org/draft-04/schema",
		IDKeyword:     "id",
		TypeChecker:   Draft4TypeChecker,
		FormatChecker: Draft4FormatChecker,
		Keywords: []Keyword{
			{"type", kwType},
			{"enum", kwEnum},
			{"multipleOf", kwMultipleOf},
			{"minimum", kwMinimumBoolExclusive},
			{"maximum", kwMaximumBoolExclusive},
			{"minLength", kwMinLength},
			{"maxLength", kwMaxLength},
			{"pattern", kwPattern},
			{"items", kwItems},
			{"additionalItems", kwAdditionalItems},
			{"minItems", kwMinItems},
			{"maxItems", kwMaxItems},
			{"uniqueItems", kwUniqueItems},
			{"required", kwRequired},
			{"minProperties", kwMinProperties},
			{"maxProperties", kwMaxProperties},
			{"properties", kwProperties},
			{"patternProperties", kwPatternProperties},
			{"additionalProperties", kwAdditionalProperties},
			{"dependencies", kwDependencies},
			{"allOf", kwAllOf},
			{"anyOf", kwAnyOf},
			{"oneOf", kwOneOf},
			{"not", kwNot},
			{"format", kwFormat},
		},
	})

	Draft6 = New(DraftConfig{
		Version:       6,
		MetaSchemaURI: "http://json-schema.org/draft-06/schema",
		IDKeyword:     "$id",
		TypeChecker:   Draft6TypeChecker,
		FormatChecker: Draft6FormatChecker,
		Keywords:      draft6Keywords,
	})

	Draft7 = New(DraftConfig{
		Version:       7,
		MetaSchemaURI: "http://json-schema.org/draft-07/schema",
		IDKeyword:     "$id",
		TypeChecker:   Draft7TypeChecker,
		FormatChecker: Draft7FormatChecker,
		Keywords:      append(append([]Keyword{}, draft6Keywords...), Keyword{"if", kwIfThenElse}),
	})
)

var draft6Keywords = []Keyword{
	{"type", kwType},
	{"enum", kwEnum},
	{"const", kwConst},
	{"multipleOf", kwMultipleOf},
	{"minimum", kwMinimum},
	{"maximum", kwMaximum},
	{"exclusiveMinimum", kwExclusiveMinimum},
	{"exclusiveMaximum", kwExclusiveMaximum},
	{"minLength", kwMinLength},
	{"maxLength", kwMaxLength},
	{"pattern", kwPattern},
	{"items", kwItems},
	{"additionalItems", kwAdditionalItems},
	{"minItems", kwMinItems},
	{"maxItems", kwMaxItems},
	{"uniqueItems", kwUniqueItems},
	{"contains", kwContains},
	{"required", kwRequired},
	{"minProperties", kwMinProperties},
	{"maxProperties", kwMaxProperties},
	{"properties", kwProperties},
	{"patternProperties", kwPatternProperties},
	{"additionalProperties", kwAdditionalProperties},
	{"propertyNames", kwPropertyNames},
	{"dependencies", kwDependencies},
	{"allOf", kwAllOf},
	{"anyOf", kwAnyOf},
	{"oneOf", kwOneOf},
	{"not", kwNot},
	{"format", kwFormat},
}

// drafts indexes the shipped drafts by meta-schema URI for ValidatorFor.
var drafts = []*Draft{Draft3, Draft4, Draft6, Draft7}

// ValidatorFor selects the draft a schema asks for via $schema. Schemas
// without $schema get the newest shipped draft.
func ValidatorFor(schema any) *Draft {
	v, ok := schemaGet(schema, "$schema")
	if !ok {
		return Draft7
	}
	uri, _ := v.(string)
	uri = strings.TrimSuffix(uri, "#")
	for _, d := range drafts {
		if d.MetaSchemaURI == uri {
			return d
		}
	}
	return Draft7
}

// metaschemaStore seeds resolvers so $schema URIs never require a fetch.
var metaStore map[string]any

func metaschemaStore() map[string]any {
	if metaStore == nil {
		metaStore = map[string]any{}
		for _, d := range drafts {
			if meta, err := d.MetaSchema(); err == nil {
				metaStore[d.MetaSchemaURI] = meta
			}
		}
	}
	return metaStore
}
