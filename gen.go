package jsonschema

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateType emits a Go type declaration for schema into file. The type
// name is derived from the schema's identifier, so the schema must declare
// id or $id with a path whose last element resembles a file name.
func GenerateType(schema any, file *jen.File) error {
	id := genSchemaID(schema)
	name, err := deriveName(id)
	if err != nil {
		return fmt.Errorf("failed to derive name %q: %w", id, err)
	}

	if _, hasRef := schemaGet(schema, "$ref"); !hasRef && len(deriveSchemaTypes(schema)) == 0 {
		return fmt.Errorf("schema does not refer to a type: %v", schema)
	}

	file.Type().Id(name).Add(generateType(schema)).Line()
	return nil
}

func genSchemaID(schema any) string {
	for _, keyword := range []string{"$id", "id"} {
		if v, ok := schemaGet(schema, keyword); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func deriveName(rawID string) (string, error) {
	if rawID == "" {
		return "", fmt.Errorf("id must not be empty")
	}

	uri, err := url.Parse(rawID)
	if err != nil {
		return "", fmt.Errorf("must be a valid URI: %w", err)
	}

	rawName := path.Base(uri.Path)
	if rawName == "." || rawName == "/" {
		return "", errors.New("last element of path is not a file")
	}

	if strings.Contains(rawName, ".") {
		rawName = strings.Split(rawName, ".")[0]
	}

	fields := strings.FieldsFunc(rawName, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	})

	c := cases.Title(language.AmericanEnglish, cases.NoLower)
	for i, v := range fields {
		if i == 0 && unicode.IsNumber(rune(fields[i][0])) {
			return "", errors.New("name must not start with number")
		}

		fields[i] = c.String(v)
	}

	return strings.Join(fields, ""), nil
}

// deriveSchemaTypes collects the abstract type names a schema constrains its
// instances to, falling back to the value types of const and enum.
func deriveSchemaTypes(schema any) []string {
	if v, ok := schemaGet(schema, "type"); ok {
		if names := typeNames(v); len(names) > 0 {
			return names
		}
	}
	if v, ok := schemaGet(schema, "const"); ok {
		if t := deriveValueType(v); t != "" {
			return []string{t}
		}
		return nil
	}

	var types []string
	if v, ok := schemaGet(schema, "enum"); ok {
		values, _ := v.([]any)
		for _, value := range values {
			if derived := deriveValueType(value); derived != "" && !slices.Contains(types, derived) {
				types = append(types, derived)
			}
		}
	}
	return types
}

func deriveValueType(v any) string {
	if v == nil {
		return "null"
	}
	if _, ok := asObject(v); ok {
		return "object"
	}
	if isIntegral(v) {
		return "integer"
	}

	switch v.(type) {
	case bool:
		return "boolean"
	case []any:
		return "array"
	case float64:
		return "number"
	case string:
		return "string"
	default:
		return ""
	}
}

// generateType constructs the Go type for a schema. A type union with null
// makes the non-null representation a pointer.
func generateType(schema any) jen.Code {
	types := deriveSchemaTypes(schema)

	// Unions beyond (T, null) have no single Go representation.
	if l := len(types); l == 0 || l > 2 || (l == 2 && !slices.Contains(types, "null")) {
		return jen.Qual("encoding/json", "RawMessage")
	}

	nullIndex := slices.Index(types, "null")
	nullable := nullIndex != -1
	var typ string
	if !nullable {
		typ = types[0]
	} else if len(types) == 2 {
		typ = types[1-nullIndex]
	} else {
		typ = "null"
	}

	var c jen.Code
	switch typ {
	case "null":
		c = jen.Struct()
	case "boolean":
		c = jen.Bool()
	case "array":
		items, _ := schemaGet(schema, "items")
		c = jen.Index().Add(generateType(items))
	case "number":
		c = jen.Qual("encoding/json", "Number")
	case "string":
		c = jen.String()
	case "integer":
		c = jen.Int()
	case "object":
		c = generateObject(schema)
	}

	if nullable && typ != "array" && typ != "null" {
		c = jen.Op("*").Add(c)
	}
	return c
}

var caser = cases.Title(language.AmericanEnglish)

func generateObject(schema any) jen.Code {
	props, ok := schemaGet(schema, "properties")
	propObj, _ := asObject(props)
	if !ok || propObj == nil {
		return jen.Struct()
	}

	var fields []jen.Code
	for _, name := range propObj.Keys() {
		prop, _ := propObj.Get(name)

		var tag string
		if unicode.IsLower(rune(name[0])) {
			tag = name
		}
		if !isRequiredProperty(schema, prop, name) {
			tag += ",omitempty"
		}

		stmt := jen.Id(caser.String(name)).Add(generateType(prop))
		if tag != "" {
			stmt = stmt.Tag(map[string]string{"json": tag})
		}
		fields = append(fields, stmt)
	}
	return jen.Struct(fields...)
}

// isRequiredProperty handles both required forms: the draft 4+ name list on
// the enclosing schema and draft 3's boolean on the property schema.
func isRequiredProperty(schema, prop any, name string) bool {
	if v, ok := schemaGet(schema, "required"); ok {
		if list, ok := v.([]any); ok {
			for _, entry := range list {
				if s, ok := entry.(string); ok && s == name {
					return true
				}
			}
		}
	}
	required, ok := boolKeyword(prop, "required")
	return ok && required
}
