package jsonschema

import (
	"fmt"
	"net/url"
	"strings"

	"jsonschema/jsonptr"
)

// A RefResolver resolves $ref URIs against a stack of base scopes, fetching
// and caching remote documents through an injected Loader. A resolver is
// scoped to one top-level validation call unless the caller deliberately
// shares it; shared resolvers must not be mutated concurrently.
type RefResolver struct {
	scopes    []string
	store     map[string]any
	loader    *Loader
	idKeyword string
	root      any
	ids       map[string]any
}

type ResolverOption func(*RefResolver)

// WithStore pre-seeds documents by absolute URI, bypassing retrieval.
func WithStore(store map[string]any) ResolverOption {
	return func(r *RefResolver) {
		for uri, doc := range store {
			r.store[defrag(uri)] = doc
		}
	}
}

// WithLoaders replaces the retrieval chain. Without this option remote
// documents are fetched over HTTP.
func WithLoaders(fns ...LoaderFunc) ResolverOption {
	return func(r *RefResolver) {
		opts := make([]LoaderOption, len(fns))
		for i, fn := range fns {
			opts[i] = WithLoader(fn)
		}
		r.loader = NewLoader(opts...)
	}
}

// WithIDKeyword sets the identifier keyword, "id" for drafts 3 and 4, "$id"
// from draft 6 on. NewValidator sets this from the draft.
func WithIDKeyword(keyword string) ResolverOption {
	return func(r *RefResolver) {
		r.idKeyword = keyword
	}
}

// NewRefResolver creates a resolver whose initial scope is baseURI (or the
// root document's own identifier when baseURI is empty).
func NewRefResolver(baseURI string, root any, opts ...ResolverOption) *RefResolver {
	r := &RefResolver{
		store:     map[string]any{},
		idKeyword: "$id",
		root:      root,
	}
	for _, opt := range opts {
		opt(r)
	}

	if baseURI == "" {
		if id, ok := schemaGet(root, r.idKeyword); ok {
			baseURI, _ = id.(string)
		}
	}
	r.scopes = []string{baseURI}
	r.store[defrag(baseURI)] = root

	if r.loader == nil {
		r.loader = NewLoader(WithLoader(NewHTTPLoader(nil)))
	}
	return r
}

// ResolutionScope returns the currently active base URI.
func (r *RefResolver) ResolutionScope() string {
	return r.scopes[len(r.scopes)-1]
}

// PushScope makes scope, resolved against the active base, the new active
// base. Every push must be paired with a PopScope on all exit paths.
func (r *RefResolver) PushScope(scope string) {
	joined, err := urljoin(r.ResolutionScope(), scope)
	if err != nil {
		joined = scope
	}
	r.scopes = append(r.scopes, joined)
}

func (r *RefResolver) PopScope() {
	if len(r.scopes) <= 1 {
		panic("jsonschema: PopScope called more often than PushScope")
	}
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// Resolve resolves ref against the active scope and returns the absolute URI
// together with the schema it points to.
func (r *RefResolver) Resolve(ref string) (string, any, error) {
	uri, err := urljoin(r.ResolutionScope(), ref)
	if err != nil {
		return "", nil, &RefResolutionError{Ref: ref, Err: err}
	}

	schema, err := r.resolveFromURI(uri)
	if err != nil {
		return "", nil, &RefResolutionError{Ref: ref, Err: err}
	}
	return uri, schema, nil
}

// Resolving resolves ref and pushes the resolved URI as the new scope. The
// returned func pops the scope and must be called when descent into the
// resolved schema is finished.
func (r *RefResolver) Resolving(ref string) (any, func(), error) {
	uri, schema, err := r.Resolve(ref)
	if err != nil {
		return nil, nil, err
	}
	r.scopes = append(r.scopes, uri)
	return schema, r.PopScope, nil
}

func (r *RefResolver) resolveFromURI(uri string) (any, error) {
	// Identifier-based resolution first: a subschema that declared this very
	// URI as its id wins over document fetch.
	if schema, ok := r.idIndex()[uri]; ok {
		return schema, nil
	}

	base, fragment := splitFragment(uri)

	doc, ok := r.store[base]
	if !ok {
		if schema, found := r.idIndex()[base]; found {
			doc = schema
		} else {
			u, err := url.Parse(base)
			if err != nil {
				return nil, err
			}
			if doc, err = r.loader.Load(u); err != nil {
				return nil, err
			}
			r.store[base] = doc
		}
	}

	if fragment == "" {
		return doc, nil
	}

	schema, err := jsonptr.Evaluate(doc, fragment)
	if err != nil {
		return nil, fmt.Errorf("unresolvable fragment %q: %w", fragment, err)
	}
	return schema, nil
}

// idIndex maps every identifier declared by a subschema of the root document
// to that subschema, ids resolved against their enclosing bases. Built once,
// on first use.
func (r *RefResolver) idIndex() map[string]any {
	if r.ids == nil {
		r.ids = map[string]any{}
		indexIDs(r.root, r.scopes[0], r.idKeyword, r.ids)
	}
	return r.ids
}

func indexIDs(schema any, base string, idKeyword string, ids map[string]any) {
	if id, ok := schemaGet(schema, idKeyword); ok {
		if s, ok := id.(string); ok && s != "" {
			abs, err := urljoin(base, s)
			if err == nil {
				ids[abs] = schema
				// A fragment-only anchor names a subschema inside the
				// enclosing document; it must not shadow the document itself
				// under the document's own URI.
				if d := defrag(abs); d != defrag(base) {
					ids[d] = schema
				}
				base = abs
			}
		}
	}

	iterSubschemas(schema, func(_ string, sub any) bool {
		indexIDs(sub, base, idKeyword, ids)
		return true
	})
}

// urljoin joins ref against base per RFC 3986 reference resolution. An empty
// base leaves ref untouched.
func urljoin(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}
	if ref == "" {
		return base, nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URI %q: %w", base, err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URI reference %q: %w", ref, err)
	}
	return b.ResolveReference(u).String(), nil
}

func splitFragment(uri string) (base, fragment string) {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[:i], uri[i+1:]
	}
	return uri, ""
}

func defrag(uri string) string {
	base, _ := splitFragment(uri)
	return base
}
