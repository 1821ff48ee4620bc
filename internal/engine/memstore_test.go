package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_StoreLifecycle(t *testing.T) {
	ms := NewMemStore(nil, nil)

	rec, err := ms.CreateStore("orders", "acct-1")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "orders", rec.Name)
	assert.Equal(t, "acct-1", rec.Account)

	_, err = ms.CreateStore("orders", "acct-1")
	assert.ErrorIs(t, err, ErrStoreExists)

	found, err := ms.FindStore("orders", "acct-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)

	_, err = ms.FindStore("orders", "acct-2")
	assert.ErrorIs(t, err, ErrStoreNotFound)

	require.NoError(t, ms.DeleteStore(rec.ID))
	assert.ErrorIs(t, ms.DeleteStore(rec.ID), ErrStoreNotFound)
	_, err = ms.Store(rec.ID)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestMemStore_AnonymousStoresAllowDuplicates(t *testing.T) {
	ms := NewMemStore(nil, nil)

	first, err := ms.CreateStore("test-store", "")
	require.NoError(t, err)
	second, err := ms.CreateStore("test-store", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	found, err := ms.FindStore("test-store", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID, "oldest match wins")

	list := ms.ListStores("")
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Empty(t, ms.ListStores("acct-1"))
}

func TestMemStore_Documents(t *testing.T) {
	ms := NewMemStore(nil, nil)
	rec, err := ms.CreateStore("s", "")
	require.NoError(t, err)

	doc, err := ms.Insert(rec.ID, "users", map[string]any{"name": "Alice", "id": "ignored"})
	require.NoError(t, err)
	id := doc["id"].(string)
	assert.NotEqual(t, "ignored", id)

	got, err := ms.Get(rec.ID, "users", id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["name"])

	got["name"] = "mutated"
	again, _ := ms.Get(rec.ID, "users", id)
	assert.Equal(t, "Alice", again["name"], "returned documents are copies")

	updated, err := ms.Replace(rec.ID, "users", id, map[string]any{"name": "Bobby"})
	require.NoError(t, err)
	assert.Equal(t, id, updated["id"])
	assert.Equal(t, "Bobby", updated["name"])

	_, err = ms.Replace(rec.ID, "users", "missing", map[string]any{})
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.NoError(t, ms.Delete(rec.ID, "users", id))
	_, err = ms.Get(rec.ID, "users", id)
	assert.Error(t, err)
	assert.ErrorIs(t, ms.Delete(rec.ID, "users", id), ErrDocumentNotFound)

	_, err = ms.Insert("missing-store", "users", map[string]any{})
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestMemStore_ListPaging(t *testing.T) {
	ms := NewMemStore(nil, nil)
	rec, _ := ms.CreateStore("s", "")
	for i := 0; i < 5; i++ {
		_, err := ms.Insert(rec.ID, "items", map[string]any{"n": i})
		require.NoError(t, err)
	}

	all, err := ms.List(rec.ID, "items", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 0, all[0]["n"])

	page, err := ms.List(rec.ID, "items", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0]["n"])
	assert.Equal(t, 3, page[1]["n"])

	empty, err := ms.List(rec.ID, "nothing", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ms.List("missing", "items", 0, 10)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestMemStore_DropCollection(t *testing.T) {
	ms := NewMemStore(nil, nil)
	rec, _ := ms.CreateStore("s", "")
	_, _ = ms.Insert(rec.ID, "items", map[string]any{"n": 1})

	require.NoError(t, ms.DropCollection(rec.ID, "items"))
	assert.ErrorIs(t, ms.DropCollection(rec.ID, "items"), ErrCollectionNotFound)
}

func TestMemStore_Concurrency(t *testing.T) {
	ms := NewMemStore(nil, nil)
	rec, _ := ms.CreateStore("s", "")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = ms.Insert(rec.ID, "items", map[string]any{"n": n})
			_, _ = ms.List(rec.ID, "items", 0, 10)
		}(i)
	}
	wg.Wait()

	all, err := ms.List(rec.ID, "items", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestPersistence_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	p, err := NewPersistence(fs, "/data", hclog.NewNullLogger())
	require.NoError(t, err)

	ms := NewMemStore(nil, p)
	rec, err := ms.CreateStore("persisted", "acct")
	require.NoError(t, err)
	doc, err := ms.Insert(rec.ID, "users", map[string]any{"name": "Alice"})
	require.NoError(t, err)
	ms.Wait()

	loaded, err := p.LoadAll()
	require.NoError(t, err)
	require.Contains(t, loaded, rec.ID)

	restored := NewMemStore(loaded, p)
	got, err := restored.Get(rec.ID, "users", doc["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["name"])

	require.NoError(t, restored.DeleteStore(rec.ID))
	restored.Wait()

	exists, err := afero.Exists(fs, fmt.Sprintf("/data/%s.json", rec.ID))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPersistence_SkipsStaleAndCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	p, err := NewPersistence(fs, "/data", nil)
	require.NoError(t, err)

	newer := &Snapshot{Collections: map[string]*CollectionSnapshot{}}
	newer.Record.ID = "s1"
	newer.Record.Name = "newer"
	older := &Snapshot{Collections: map[string]*CollectionSnapshot{}}
	older.Record.ID = "s1"
	older.Record.Name = "older"

	require.NoError(t, p.SaveStore(newer, 2))
	require.NoError(t, p.SaveStore(older, 1))
	require.NoError(t, afero.WriteFile(fs, "/data/broken.json", []byte("{not json"), 0o644))

	loaded, err := p.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "newer", loaded["s1"].Record.Name)
}
