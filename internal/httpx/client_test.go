package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSendsHeadersAndBody(t *testing.T) {
	var (
		gotMethod string
		gotAuth   string
		gotUA     string
		gotBody   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"1"}`)
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("flexdb-test"))
	status, body, err := c.Call(context.Background(), http.MethodPost, srv.URL+"/stores",
		http.Header{"Authorization": {"Account k"}}, []byte(`{"name":"n"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"id":"1"}`, string(body))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Account k", gotAuth)
	assert.Equal(t, "flexdb-test", gotUA)
	assert.Equal(t, `{"name":"n"}`, gotBody)
}

func TestCallOmitsAbsentAuthorization(t *testing.T) {
	present := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	status, _, err := NewClient().Call(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, present)
}

func TestCallReturnsErrorWithoutResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, _, err := NewClient().Call(context.Background(), http.MethodGet, url, nil, nil)
	assert.Error(t, err)
}

func TestCallRequiresMethod(t *testing.T) {
	_, _, err := NewClient().Call(context.Background(), "", "http://localhost", nil, nil)
	assert.Error(t, err)
}
