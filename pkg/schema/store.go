// Package schema defines the wire records shared by the FlexDB client and the development server.
package schema

import "time"

// StoreRecord is the JSON representation of a store returned by the /stores endpoints.
// Account is empty for stores created without an account key.
type StoreRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Account   string    `json:"account,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ack is the acknowledgment body returned by delete operations.
type Ack struct {
	Success bool `json:"success"`
}
