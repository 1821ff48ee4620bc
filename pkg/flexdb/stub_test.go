package flexdb

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// recorder is a Transport that records every call and answers through respond.
type recorder struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(recordedCall) (int, []byte, error)
}

func (r *recorder) Call(_ context.Context, method, url string, header http.Header, body []byte) (int, []byte, error) {
	c := recordedCall{Method: method, URL: url, Header: header.Clone(), Body: body}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.respond == nil {
		return http.StatusOK, []byte("{}"), nil
	}
	return r.respond(c)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func reply(status int, body string) func(recordedCall) (int, []byte, error) {
	return func(recordedCall) (int, []byte, error) {
		return status, []byte(body), nil
	}
}

func newTestClient(t *testing.T, apiKey string, rec *recorder, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTransport(rec)}, opts...)
	c, err := New(Config{APIKey: apiKey, Endpoint: "https://flexdb.test/api/v1"}, opts...)
	require.NoError(t, err)
	return c
}

func testStore(c *Client, id string) *Store {
	return &Store{ID: id, Data: map[string]any{"id": id, "name": "s"}, client: c}
}
