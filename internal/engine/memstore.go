package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flexdb/flexdb-go/pkg/schema"
)

// MemStore is a thread-safe store of stores, collections and documents.
// When a Persistence is attached, every mutation snapshots the affected store
// in the background; call Wait before exiting.
type MemStore struct {
	mu        sync.RWMutex
	stores    map[string]*Snapshot
	persister *Persistence
	wg        sync.WaitGroup
	now       func() time.Time

	lastCreated time.Time
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and an optional persister.
func NewMemStore(initialData map[string]*Snapshot, p *Persistence) *MemStore {
	if initialData == nil {
		initialData = make(map[string]*Snapshot)
	}
	for _, snap := range initialData {
		if snap.Collections == nil {
			snap.Collections = make(map[string]*CollectionSnapshot)
		}
	}
	return &MemStore{
		stores:    initialData,
		persister: p,
		now:       time.Now,
	}
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

// CreateStore registers a new store. Names are unique per account; anonymous
// stores (empty account) are never checked for duplicates.
func (m *MemStore) CreateStore(name, account string) (schema.StoreRecord, error) {
	m.mu.Lock()
	if account != "" {
		if _, ok := m.findLocked(name, account); ok {
			m.mu.Unlock()
			return schema.StoreRecord{}, ErrStoreExists
		}
	}

	created := m.now().UTC()
	if !created.After(m.lastCreated) {
		created = m.lastCreated.Add(time.Nanosecond)
	}
	m.lastCreated = created

	rec := schema.StoreRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Account:   account,
		CreatedAt: created,
	}
	m.stores[rec.ID] = &Snapshot{Record: rec, Collections: make(map[string]*CollectionSnapshot)}
	snap := m.copySnapshot(rec.ID)
	m.mu.Unlock()

	m.persist(snap)
	return rec, nil
}

// FindStore returns the oldest store named name within the account scope.
func (m *MemStore) FindStore(name, account string) (schema.StoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.findLocked(name, account)
	if !ok {
		return schema.StoreRecord{}, ErrStoreNotFound
	}
	return rec, nil
}

// Store returns the record of the store with the given id.
func (m *MemStore) Store(id string) (schema.StoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.stores[id]
	if !ok {
		return schema.StoreRecord{}, ErrStoreNotFound
	}
	return snap.Record, nil
}

// ListStores returns the stores of an account, oldest first.
func (m *MemStore) ListStores(account string) []schema.StoreRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]schema.StoreRecord, 0)
	for _, snap := range m.stores {
		if snap.Record.Account == account {
			list = append(list, snap.Record)
		}
	}
	sortRecords(list)
	return list
}

// DeleteStore removes a store and all of its collections.
func (m *MemStore) DeleteStore(id string) error {
	m.mu.Lock()
	if _, ok := m.stores[id]; !ok {
		m.mu.Unlock()
		return ErrStoreNotFound
	}
	delete(m.stores, id)
	if m.persister == nil {
		m.mu.Unlock()
		return nil
	}
	seq := m.persister.nextSeq()
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.persister.RemoveStore(id, seq); err != nil {
			m.persister.logger.Warn("could not remove store snapshot", "store", id, "error", err)
		}
	}()
	return nil
}

// Insert stores doc under a newly generated id and returns the stored document.
func (m *MemStore) Insert(storeID, collection string, doc map[string]any) (map[string]any, error) {
	m.mu.Lock()
	snap, ok := m.stores[storeID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrStoreNotFound
	}

	coll := snap.Collections[collection]
	if coll == nil {
		coll = &CollectionSnapshot{Docs: make(map[string]map[string]any)}
		snap.Collections[collection] = coll
	}

	id := uuid.NewString()
	stored := copyDoc(doc)
	stored["id"] = id
	coll.Docs[id] = stored
	coll.Order = append(coll.Order, id)

	out := copyDoc(stored)
	persisted := m.copySnapshot(storeID)
	m.mu.Unlock()

	m.persist(persisted)
	return out, nil
}

// Get returns one document.
func (m *MemStore) Get(storeID, collection, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, err := m.collectionLocked(storeID, collection)
	if err != nil {
		return nil, err
	}
	doc, ok := coll.Docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return copyDoc(doc), nil
}

// List returns documents in insertion order after skipping skip of them.
// A non-positive limit returns everything that remains.
func (m *MemStore) List(storeID, collection string, skip, limit int) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]map[string]any, 0)
	coll, err := m.collectionLocked(storeID, collection)
	if err == ErrCollectionNotFound {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	if skip < 0 {
		skip = 0
	}
	for i := skip; i < len(coll.Order); i++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, copyDoc(coll.Docs[coll.Order[i]]))
	}
	return out, nil
}

// Replace overwrites an existing document, keeping its id.
func (m *MemStore) Replace(storeID, collection, id string, doc map[string]any) (map[string]any, error) {
	m.mu.Lock()
	coll, err := m.collectionLocked(storeID, collection)
	if err == ErrCollectionNotFound {
		err = ErrDocumentNotFound
	}
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if _, ok := coll.Docs[id]; !ok {
		m.mu.Unlock()
		return nil, ErrDocumentNotFound
	}

	stored := copyDoc(doc)
	stored["id"] = id
	coll.Docs[id] = stored

	out := copyDoc(stored)
	persisted := m.copySnapshot(storeID)
	m.mu.Unlock()

	m.persist(persisted)
	return out, nil
}

// Delete removes one document.
func (m *MemStore) Delete(storeID, collection, id string) error {
	m.mu.Lock()
	coll, err := m.collectionLocked(storeID, collection)
	if err == ErrCollectionNotFound {
		err = ErrDocumentNotFound
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if _, ok := coll.Docs[id]; !ok {
		m.mu.Unlock()
		return ErrDocumentNotFound
	}

	delete(coll.Docs, id)
	for i, docID := range coll.Order {
		if docID == id {
			coll.Order = append(coll.Order[:i], coll.Order[i+1:]...)
			break
		}
	}
	if len(coll.Docs) == 0 {
		delete(m.stores[storeID].Collections, collection)
	}

	persisted := m.copySnapshot(storeID)
	m.mu.Unlock()

	m.persist(persisted)
	return nil
}

// DropCollection removes a collection and its documents.
func (m *MemStore) DropCollection(storeID, collection string) error {
	m.mu.Lock()
	if _, err := m.collectionLocked(storeID, collection); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.stores[storeID].Collections, collection)
	persisted := m.copySnapshot(storeID)
	m.mu.Unlock()

	m.persist(persisted)
	return nil
}

// findLocked MUST be called while holding m.mu.
func (m *MemStore) findLocked(name, account string) (schema.StoreRecord, bool) {
	var matches []schema.StoreRecord
	for _, snap := range m.stores {
		if snap.Record.Name == name && snap.Record.Account == account {
			matches = append(matches, snap.Record)
		}
	}
	if len(matches) == 0 {
		return schema.StoreRecord{}, false
	}
	sortRecords(matches)
	return matches[0], true
}

// collectionLocked MUST be called while holding m.mu.
func (m *MemStore) collectionLocked(storeID, collection string) (*CollectionSnapshot, error) {
	snap, ok := m.stores[storeID]
	if !ok {
		return nil, ErrStoreNotFound
	}
	coll, ok := snap.Collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return coll, nil
}

// copySnapshot creates a copy of a store's state safe to persist in the background.
// It MUST be called while holding m.mu.Lock.
func (m *MemStore) copySnapshot(storeID string) *pendingWrite {
	original, ok := m.stores[storeID]
	if !ok || m.persister == nil {
		return nil
	}

	snapCopy := &Snapshot{
		Record:      original.Record,
		Collections: make(map[string]*CollectionSnapshot, len(original.Collections)),
	}
	for name, coll := range original.Collections {
		collCopy := &CollectionSnapshot{
			Order: append([]string(nil), coll.Order...),
			Docs:  make(map[string]map[string]any, len(coll.Docs)),
		}
		for id, doc := range coll.Docs {
			collCopy.Docs[id] = copyDoc(doc)
		}
		snapCopy.Collections[name] = collCopy
	}
	return &pendingWrite{snap: snapCopy, seq: m.persister.nextSeq()}
}

type pendingWrite struct {
	snap *Snapshot
	seq  uint64
}

func (m *MemStore) persist(w *pendingWrite) {
	if m.persister == nil || w == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.persister.SaveStore(w.snap, w.seq); err != nil {
			m.persister.logger.Warn("could not save store snapshot", "store", w.snap.Record.ID, "error", err)
		}
	}()
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func sortRecords(list []schema.StoreRecord) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
