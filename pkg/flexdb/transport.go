package flexdb

import (
	"context"
	"net/http"
)

// Transport performs a single HTTP exchange.
// It returns an error only when no response was obtained; any status code,
// including 4xx and 5xx, is a successful call.
type Transport interface {
	Call(ctx context.Context, method, url string, header http.Header, body []byte) (status int, respBody []byte, err error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, method, url string, header http.Header, body []byte) (int, []byte, error)

// Call implements Transport.
func (f TransportFunc) Call(ctx context.Context, method, url string, header http.Header, body []byte) (int, []byte, error) {
	return f(ctx, method, url, header, body)
}
