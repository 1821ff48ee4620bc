// Package flexdb is a client for the FlexDB document-store HTTP API.
//
// Three handles cooperate: a Client (account credentials and base URL), a Store
// (a resolved store id) and a Collection (a named view inside a store).
//
//	client, err := flexdb.New(flexdb.Config{APIKey: os.Getenv("FLEXDB_API_KEY")})
//	store, err := client.EnsureStoreExists(ctx, "app")
//	users := store.Collection("users")
//	doc, err := users.Create(ctx, map[string]any{"name": "Alice"})
//
// A 404 from the service is not an error: lookups return (nil, nil). Other
// non-2xx responses are *HTTPError, connection failures are *TransportError, and
// requests rejected before any I/O are *ValidationError.
//
// Client.GetStore reports every failure as "no store" by default; see LookupPolicy
// and Client.LookupStore.
package flexdb
