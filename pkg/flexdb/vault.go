package flexdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flexdb/flexdb-go/internal/vault"
)

// SealedField is the document field holding a sealed payload.
const SealedField = "sealed"

// Vault returns a view of the collection that encrypts documents on the client
// before they are sent. masterKey must be 32 bytes.
func (c *Collection) Vault(masterKey []byte) *VaultCollection {
	return &VaultCollection{collection: c, masterKey: masterKey}
}

// VaultCollection stores every document as {"sealed": "<hex>"} using AES-256-GCM.
// The service only sees the id and the ciphertext.
type VaultCollection struct {
	collection *Collection
	masterKey  []byte
}

// Create seals data and stores it. The returned document is the opened payload plus its id.
func (v *VaultCollection) Create(ctx context.Context, data any) (Document, error) {
	sealed, err := v.seal(data)
	if err != nil {
		return nil, err
	}
	stored, err := v.collection.Create(ctx, sealed)
	if err != nil || stored == nil {
		return stored, err
	}
	return v.open(stored)
}

// Get fetches and opens a sealed document; (nil, nil) when it does not exist.
func (v *VaultCollection) Get(ctx context.Context, id string) (Document, error) {
	stored, err := v.collection.Get(ctx, id)
	if err != nil || stored == nil {
		return stored, err
	}
	return v.open(stored)
}

// Update re-seals data under id.
func (v *VaultCollection) Update(ctx context.Context, id string, data any) (Document, error) {
	sealed, err := v.seal(data)
	if err != nil {
		return nil, err
	}
	stored, err := v.collection.Update(ctx, id, sealed)
	if err != nil || stored == nil {
		return stored, err
	}
	return v.open(stored)
}

// Delete removes a sealed document.
func (v *VaultCollection) Delete(ctx context.Context, id string) (Document, error) {
	return v.collection.Delete(ctx, id)
}

func (v *VaultCollection) seal(data any) (Document, error) {
	plaintext, err := encodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("flexdb: encode sealed document: %w", err)
	}
	ciphertext, err := vault.Seal(plaintext, v.masterKey)
	if err != nil {
		return nil, fmt.Errorf("flexdb: seal document: %w", err)
	}
	return Document{SealedField: ciphertext}, nil
}

func (v *VaultCollection) open(stored Document) (Document, error) {
	ciphertext, ok := stored[SealedField].(string)
	if !ok {
		return nil, fmt.Errorf("flexdb: document %q is not sealed", stored.ID())
	}
	plaintext, err := vault.Open(ciphertext, v.masterKey)
	if err != nil {
		return nil, fmt.Errorf("flexdb: open document %q: %w", stored.ID(), err)
	}
	var doc Document
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return nil, fmt.Errorf("flexdb: decode sealed document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	if id := stored.ID(); id != "" {
		doc["id"] = id
	}
	return doc, nil
}
