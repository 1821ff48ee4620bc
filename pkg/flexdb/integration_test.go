package flexdb_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexdb/flexdb-go/internal/engine"
	"github.com/flexdb/flexdb-go/internal/server"
	"github.com/flexdb/flexdb-go/pkg/flexdb"
)

func newDevServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := server.NewRouter(engine.NewMemStore(nil, nil), server.Options{
		Accounts: map[string]string{"key-1": "acct-1"},
		BasePath: "/api/v1",
	})
	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server, apiKey string, opts ...flexdb.Option) *flexdb.Client {
	t.Helper()
	c, err := flexdb.New(flexdb.Config{APIKey: apiKey, Endpoint: srv.URL + "/api/v1"}, opts...)
	require.NoError(t, err)
	return c
}

func TestIntegration_DocumentLifecycle(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "")
	ctx := context.Background()

	store, err := c.CreateStore(ctx, "test-store")
	require.NoError(t, err)
	users := store.Collection("users")

	created, err := users.Create(ctx, map[string]any{"name": "Alice", "age": 30})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)

	got, err := users.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["name"])
	assert.EqualValues(t, 30, got["age"])

	updated, err := users.Update(ctx, id, map[string]any{"name": "Alice", "age": 31})
	require.NoError(t, err)
	assert.EqualValues(t, 31, updated["age"])
	assert.Equal(t, id, updated.ID())

	ack, err := users.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, true, ack["success"])

	gone, err := users.Get(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, gone)

	ack, err = store.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, ack["success"])

	ack, err = store.Delete(ctx)
	assert.NoError(t, err)
	assert.Nil(t, ack, "second delete reports the store as already gone")
}

func TestIntegration_StoresPerAccount(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "key-1")
	ctx := context.Background()

	first, err := c.EnsureStoreExists(ctx, "orders")
	require.NoError(t, err)
	again, err := c.EnsureStoreExists(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = c.CreateStore(ctx, "orders")
	assert.True(t, flexdb.IsStatus(err, 409))

	stores, err := c.GetStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	info, err := stores[0].Info()
	require.NoError(t, err)
	assert.Equal(t, "acct-1", info.Account)
	assert.False(t, info.CreatedAt.IsZero())

	anon := newClient(t, srv, "")
	missing, err := anon.GetStore(ctx, "orders")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	bad := newClient(t, srv, "wrong-key", flexdb.WithLookupPolicy(flexdb.FailuresAsErrors))
	_, err = bad.GetStore(ctx, "orders")
	assert.True(t, flexdb.IsStatus(err, 401))
}

func TestIntegration_EnsureStoreExistsRace(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "key-1")
	ctx := context.Background()

	const callers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stores []*flexdb.Store
		errs   []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store, err := c.EnsureStoreExists(ctx, "race")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			stores = append(stores, store)
		}()
	}
	wg.Wait()

	require.NotEmpty(t, stores)
	assert.Len(t, errs, callers-len(stores))
	for _, store := range stores {
		assert.Equal(t, stores[0].ID, store.ID)
	}
	for _, err := range errs {
		assert.True(t, flexdb.IsStatus(err, http.StatusConflict), "got %v", err)
	}

	all, err := c.GetStores(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIntegration_Paging(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "")
	ctx := context.Background()

	store, err := c.CreateStore(ctx, "paging")
	require.NoError(t, err)
	items := store.Collection("items")
	for i := 0; i < 7; i++ {
		_, err := items.Create(ctx, map[string]any{"n": i})
		require.NoError(t, err)
	}

	page, err := items.GetMany(ctx, flexdb.Page(2), flexdb.Limit(3))
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.EqualValues(t, 3, page[0]["n"])

	rest, err := items.GetMany(ctx, flexdb.Skip(5))
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	_, err = items.GetMany(ctx, flexdb.Page(1), flexdb.Skip(1))
	var vErr *flexdb.ValidationError
	assert.ErrorAs(t, err, &vErr)

	ack, err := items.DeleteCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, ack["success"])

	empty, err := items.GetMany(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIntegration_Vault(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "")
	ctx := context.Background()
	key := bytes.Repeat([]byte{7}, 32)

	store, err := c.CreateStore(ctx, "secrets")
	require.NoError(t, err)
	plain := store.Collection("tokens")
	sealed := plain.Vault(key)

	doc, err := sealed.Create(ctx, map[string]any{"token": "s3cr3t"})
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", doc["token"])

	raw, err := plain.Get(ctx, doc.ID())
	require.NoError(t, err)
	assert.NotContains(t, raw, "token")
	assert.Contains(t, raw, flexdb.SealedField)

	opened, err := sealed.Get(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", opened["token"])
	assert.Equal(t, doc.ID(), opened.ID())

	_, err = plain.Vault(bytes.Repeat([]byte{8}, 32)).Get(ctx, doc.ID())
	assert.Error(t, err)

	updated, err := sealed.Update(ctx, doc.ID(), map[string]any{"token": "rotated"})
	require.NoError(t, err)
	assert.Equal(t, "rotated", updated["token"])

	missing, err := sealed.Get(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_CopyCollection(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "")
	ctx := context.Background()

	store, err := c.CreateStore(ctx, "copy")
	require.NoError(t, err)
	src := store.Collection("src")
	dst := store.Collection("dst")
	for i := 0; i < 5; i++ {
		_, err := src.Create(ctx, map[string]any{"n": i})
		require.NoError(t, err)
	}

	copied, err := flexdb.CopyCollection(ctx, src, dst, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, copied)

	docs, err := dst.GetMany(ctx, flexdb.Limit(10))
	require.NoError(t, err)
	require.Len(t, docs, 5)
	assert.EqualValues(t, 4, docs[4]["n"])

	_, err = flexdb.CopyCollection(ctx, src, src, 0)
	var vErr *flexdb.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestIntegration_ClosedServer(t *testing.T) {
	srv := newDevServer(t)
	c := newClient(t, srv, "", flexdb.WithLookupPolicy(flexdb.FailuresAsErrors))
	srv.Close()

	_, err := c.CreateStore(context.Background(), "x")
	var tErr *flexdb.TransportError
	assert.ErrorAs(t, err, &tErr)

	res := c.LookupStore(context.Background(), "x")
	assert.Equal(t, flexdb.Failed, res.Status)
}
