package flexdb

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/flexdb/flexdb-go/pkg/schema"
)

// Store is a resolved store identity. Deleting the store server-side does not
// invalidate the handle; later calls simply fail or report not found.
type Store struct {
	ID   string
	Data map[string]any

	client *Client
}

// newStore builds a Store from a response body, which must carry a non-empty string id.
func newStore(c *Client, raw json.RawMessage) (*Store, error) {
	if raw == nil {
		return nil, &ConstructionError{Reason: "empty response"}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		return nil, &ConstructionError{Reason: "response is not a JSON object", Data: raw}
	}
	id, ok := data["id"].(string)
	if !ok || id == "" {
		return nil, &ConstructionError{Reason: "response has no id", Data: raw}
	}
	return &Store{ID: id, Data: data, client: c}, nil
}

// Name returns the store's name as reported by the service.
func (s *Store) Name() string {
	name, _ := s.Data["name"].(string)
	return name
}

// Info decodes the store's raw data into a typed record.
func (s *Store) Info() (schema.StoreRecord, error) {
	return Decode[schema.StoreRecord](s.Data)
}

// Collection returns a view of the named collection. It performs no I/O.
func (s *Store) Collection(name string) *Collection {
	return &Collection{name: name, store: s}
}

// Delete removes the store, authenticating with the store's own id.
// It returns the service acknowledgment, or (nil, nil) if the store was already gone.
func (s *Store) Delete(ctx context.Context) (Document, error) {
	raw, err := s.client.dispatcher.dispatch(ctx, http.MethodDelete, "/stores/"+s.ID, nil, StoreScope(s.ID))
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw)
}
