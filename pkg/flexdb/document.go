package flexdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Document is a JSON object stored in a collection. Once created server-side it carries an "id".
type Document map[string]any

// ID returns the document's id, or "" when absent or not a string.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Decode converts a document into T, matching fields by their json tags.
func Decode[T any](doc Document) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return out, fmt.Errorf("flexdb: decode document: %w", err)
	}
	return out, nil
}

func decodeDocument(raw json.RawMessage) (Document, error) {
	if raw == nil {
		return nil, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("flexdb: decode document: %w", err)
	}
	return doc, nil
}

func decodeDocuments(raw json.RawMessage) ([]Document, error) {
	if raw == nil {
		return nil, nil
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("flexdb: decode document list: %w", err)
	}
	return docs, nil
}
