package jsonschema

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnsupportedURI is returned by a LoaderFunc to signal that the loader function
// is unable to process the URI.
var UnsupportedURI = errors.New("unsupported URI")

// A LoaderFunc retrieves and parses the schema document a URI points to. It
// is the resolver's injected retrieval function; the engine defines only the
// signature, not the transport.
type LoaderFunc func(uri *url.URL) (any, error)

type Loader struct {
	loaders []LoaderFunc
	schemas map[string]any
}

// Load retrieves the document at uri, consulting the cache first. Documents
// are cached by URI with the fragment stripped, so all fragments into one
// document share a single fetch.
func (l Loader) Load(uri *url.URL) (any, error) {

	f := uri.Fragment
	uri.Fragment = ""
	key := uri.String()
	uri.Fragment = f

	if schema, ok := l.schemas[key]; ok {
		return schema, nil
	}

	for _, fn := range l.loaders {
		schema, err := fn(uri)
		if err != nil {
			if errors.Is(err, UnsupportedURI) {
				continue
			}
			return nil, fmt.Errorf("jsonschema.Loader: failed to retrieve schema: %w", err)
		}

		l.schemas[key] = schema
		return schema, nil
	}

	return nil, fmt.Errorf("jsonschema.Loader: no loader for %q: %w", key, UnsupportedURI)
}

type LoaderOption func(*Loader)

func WithLoader(loader LoaderFunc) LoaderOption {
	return func(l *Loader) {
		l.loaders = append(l.loaders, loader)
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{schemas: map[string]any{}}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewEmbeddedLoader returns a LoaderFunc that searches fs for the URI. JSON
// documents decode order-preserving; .yaml/.yml documents decode via yaml.v3.
func NewEmbeddedLoader(fs embed.FS) LoaderFunc {
	return func(uri *url.URL) (any, error) {
		if uri.Scheme != "file" {
			return nil, UnsupportedURI
		}

		d, err := fs.ReadFile(strings.TrimPrefix(uri.Path, "/"))
		if err != nil {
			return nil, err
		}

		schema, err := decodeDocument(uri.Path, d)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}

		return schema, nil
	}
}

// NewHTTPLoader returns a LoaderFunc fetching http(s) URIs with client.
// Timeout policy belongs to the supplied client; a nil client uses
// http.DefaultClient.
func NewHTTPLoader(client *http.Client) LoaderFunc {
	if client == nil {
		client = http.DefaultClient
	}

	return func(uri *url.URL) (any, error) {
		if uri.Scheme != "http" && uri.Scheme != "https" {
			return nil, UnsupportedURI
		}

		res, err := client.Get(uri.String())
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %q for %q", res.Status, uri)
		}

		d, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}

		schema, err := decodeDocument(uri.Path, d)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}

		return schema, nil
	}
}

func decodeDocument(path string, data []byte) (any, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return normalizeYAML(doc), nil
	}
	return UnmarshalOrdered(data)
}

// normalizeYAML rewrites yaml.v3 output into the raw JSON value model.
// yaml.v3 already decodes string-keyed mappings to map[string]any; mappings
// with non-string keys are stringified.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}
		return t
	}
	return v
}
