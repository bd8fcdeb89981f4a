package jsonschema_test

import (
	"embed"
	"errors"
	. "jsonschema"
	"net/url"
	"testing"
)

//go:embed testdata/*
var testdataFS embed.FS

func TestNewEmbeddedLoader(t *testing.T) {
	loader := NewLoader(WithLoader(NewEmbeddedLoader(testdataFS)))

	uri, _ := url.Parse("https://example.com/product.schema.json")
	if _, err := loader.Load(uri); !errors.Is(err, UnsupportedURI) {
		t.Logf("expected UnsupportedURI")
		t.FailNow()
	}

	uri, _ = url.Parse("file:///testdata/product.schema.json")
	doc, err := loader.Load(uri)
	if err != nil {
		t.Logf("expected schema, got %s", err)
		t.FailNow()
	}

	schema, ok := doc.(*OrderedMap)
	if !ok {
		t.Logf("expected ordered document, got %T", doc)
		t.FailNow()
	}
	if id, _ := schema.Get("$id"); id != "https://example.com/product.schema.json" {
		t.Logf("unexpected $id %v", id)
		t.FailNow()
	}

	// JSON documents keep their declared key order.
	props, _ := schema.Get("properties")
	keys := props.(*OrderedMap).Keys()
	expected := []string{"id", "name", "price", "tags"}
	if len(keys) != len(expected) {
		t.Logf("unexpected properties %v", keys)
		t.FailNow()
	}
	for i := range keys {
		if keys[i] != expected[i] {
			t.Logf("expected key order %v, got %v", expected, keys)
			t.FailNow()
		}
	}

	uri, _ = url.Parse("file:///testdata/unknown-file.json")
	if _, err = loader.Load(uri); err == nil {
		t.Logf("expected error, got nil")
		t.FailNow()
	}
}

func TestLoadYAML(t *testing.T) {
	loader := NewLoader(WithLoader(NewEmbeddedLoader(testdataFS)))

	uri, _ := url.Parse("file:///testdata/config.schema.yaml")
	doc, err := loader.Load(uri)
	if err != nil {
		t.Logf("expected schema, got %s", err)
		t.FailNow()
	}

	schema, ok := doc.(map[string]any)
	if !ok {
		t.Logf("expected map document, got %T", doc)
		t.FailNow()
	}
	if schema["$schema"] != "http://json-schema.org/draft-07/schema#" {
		t.Logf("unexpected $schema %v", schema["$schema"])
		t.FailNow()
	}

	// YAML schemas feed straight into validation.
	v, err := Draft7.NewValidator(schema)
	if err != nil {
		t.Logf("expected validator, got %s", err)
		t.FailNow()
	}
	if !v.IsValid(map[string]any{"host": "db", "port": 5432}) {
		t.Logf("expected conforming instance")
		t.FailNow()
	}
	if v.IsValid(map[string]any{"port": 5432}) {
		t.Logf("expected missing host to fail")
		t.FailNow()
	}
}

func TestLoaderCaching(t *testing.T) {
	calls := 0
	loader := NewLoader(WithLoader(func(uri *url.URL) (any, error) {
		calls++
		return map[string]any{"fetched": uri.String()}, nil
	}))

	uri, _ := url.Parse("https://example.com/a.json#/definitions/x")
	if _, err := loader.Load(uri); err != nil {
		t.Logf("expected document, got %s", err)
		t.FailNow()
	}

	// Same document, different fragment: one fetch.
	uri, _ = url.Parse("https://example.com/a.json#/definitions/y")
	if _, err := loader.Load(uri); err != nil {
		t.Logf("expected document, got %s", err)
		t.FailNow()
	}

	if calls != 1 {
		t.Logf("expected 1 fetch, got %d", calls)
		t.FailNow()
	}
}

func TestLoaderNoMatch(t *testing.T) {
	loader := NewLoader()

	uri, _ := url.Parse("https://example.com/a.json")
	_, err := loader.Load(uri)
	if !errors.Is(err, UnsupportedURI) {
		t.Logf("expected UnsupportedURI, got %v", err)
		t.FailNow()
	}
}
