package flexdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Collection is a named collection inside a store. It is a cheap view with no
// lifecycle of its own.
type Collection struct {
	name  string
	store *Store
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Store returns the store the collection belongs to.
func (c *Collection) Store() *Store { return c.store }

// QueryParam is one key/value pair of a GetMany query.
type QueryParam struct {
	Key   string
	Value any
}

// Page selects a 1-based page. It cannot be combined with Skip.
func Page(n int) QueryParam { return QueryParam{Key: "page", Value: n} }

// Limit caps the number of returned documents.
func Limit(n int) QueryParam { return QueryParam{Key: "limit", Value: n} }

// Skip skips the first n documents. It cannot be combined with Page.
func Skip(n int) QueryParam { return QueryParam{Key: "skip", Value: n} }

// Param builds an arbitrary parameter. Only page, limit and skip are sent.
func Param(key string, value any) QueryParam { return QueryParam{Key: key, Value: value} }

var recognizedParams = map[string]bool{"page": true, "limit": true, "skip": true}

// buildQuery keeps recognized params in the order given and joins them verbatim as k=v&k=v.
func buildQuery(params []QueryParam) (string, error) {
	kept := make([]QueryParam, 0, len(params))
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if recognizedParams[p.Key] {
			kept = append(kept, p)
			seen[p.Key] = true
		}
	}

	if seen["page"] && seen["skip"] {
		return "", &ValidationError{Err: validation.Errors{
			"skip": errors.New("cannot be used together with page"),
		}}
	}

	parts := make([]string, 0, len(kept))
	for _, p := range kept {
		parts = append(parts, fmt.Sprintf("%s=%v", p.Key, p.Value))
	}
	return strings.Join(parts, "&"), nil
}

func (c *Collection) dispatch(ctx context.Context, method, path string, body any) (Document, error) {
	raw, err := c.store.client.dispatcher.dispatch(ctx, method, path, body, StoreScope(c.store.ID))
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw)
}

func (c *Collection) path() string {
	return "/collections/" + c.name
}

func (c *Collection) docPath(id string) string {
	return "/collections/" + c.name + "/" + id
}

// Create stores data as a new document and returns it with its assigned id.
func (c *Collection) Create(ctx context.Context, data any) (Document, error) {
	return c.dispatch(ctx, http.MethodPost, c.path(), data)
}

// GetMany lists documents. Only the page, limit and skip params are sent, in the order given;
// page and skip together are rejected before any request is made.
func (c *Collection) GetMany(ctx context.Context, params ...QueryParam) ([]Document, error) {
	query, err := buildQuery(params)
	if err != nil {
		return nil, err
	}
	raw, err := c.store.client.dispatcher.dispatch(ctx, http.MethodGet, c.path()+"?"+query, nil, StoreScope(c.store.ID))
	if err != nil {
		return nil, err
	}
	return decodeDocuments(raw)
}

// Get returns the document with the given id, or (nil, nil) when it does not exist.
func (c *Collection) Get(ctx context.Context, id string) (Document, error) {
	return c.dispatch(ctx, http.MethodGet, c.docPath(id), nil)
}

// Update replaces the document with the given id and returns the stored representation.
func (c *Collection) Update(ctx context.Context, id string, data any) (Document, error) {
	return c.dispatch(ctx, http.MethodPut, c.docPath(id), data)
}

// Delete removes a document. It returns (nil, nil) when the document was already gone.
func (c *Collection) Delete(ctx context.Context, id string) (Document, error) {
	return c.dispatch(ctx, http.MethodDelete, c.docPath(id), nil)
}

// DeleteCollection removes the whole collection.
func (c *Collection) DeleteCollection(ctx context.Context) (Document, error) {
	return c.dispatch(ctx, http.MethodDelete, c.path(), nil)
}
