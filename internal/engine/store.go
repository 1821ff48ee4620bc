// Package engine is the in-memory storage engine behind the FlexDB development server.
package engine

import (
	"errors"

	"github.com/flexdb/flexdb-go/pkg/schema"
)

var (
	// ErrStoreNotFound is returned when a store id or name does not resolve.
	ErrStoreNotFound = errors.New("store not found")
	// ErrStoreExists is returned when an account already owns a store with the requested name.
	ErrStoreExists = errors.New("store already exists")
	// ErrCollectionNotFound is returned when a collection holds no documents.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDocumentNotFound is returned when a document id does not resolve.
	ErrDocumentNotFound = errors.New("document not found")
)

// Snapshot is the persisted state of one store.
type Snapshot struct {
	Record      schema.StoreRecord             `json:"record"`
	Collections map[string]*CollectionSnapshot `json:"collections"`
}

// CollectionSnapshot keeps documents together with their insertion order.
type CollectionSnapshot struct {
	Order []string                  `json:"order"`
	Docs  map[string]map[string]any `json:"docs"`
}
