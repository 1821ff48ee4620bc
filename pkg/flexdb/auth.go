package flexdb

import "net/http"

type authKind int

const (
	authAnonymous authKind = iota
	authAccount
	authStore
)

// AuthContext selects the credential attached to a request.
// The zero value is anonymous and never produces an Authorization header.
type AuthContext struct {
	kind    authKind
	storeID string
}

// Account authenticates with the client's account-level API key.
var Account = AuthContext{kind: authAccount}

// StoreScope authenticates with a store's own id as the credential.
func StoreScope(storeID string) AuthContext {
	return AuthContext{kind: authStore, storeID: storeID}
}

// String renders the context without exposing any credential.
func (a AuthContext) String() string {
	switch a.kind {
	case authAccount:
		return "account"
	case authStore:
		return "store:" + a.storeID
	default:
		return "anonymous"
	}
}

type authenticator struct {
	apiKey string
}

// authorization returns the Authorization value for ac, or "" when none applies.
func (a authenticator) authorization(ac AuthContext) string {
	switch ac.kind {
	case authAccount:
		if a.apiKey != "" {
			return "Account " + a.apiKey
		}
		return ""
	case authStore:
		return "Store " + ac.storeID
	default:
		return ""
	}
}

// headers returns nil when no Authorization header must be sent.
func (a authenticator) headers(ac AuthContext) http.Header {
	value := a.authorization(ac)
	if value == "" {
		return nil
	}
	return http.Header{"Authorization": {value}}
}
