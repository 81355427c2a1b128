package memstore

import (
	"sync"

	"github.com/jrsteele09/retail-console/storage"
)

var _ storage.Store = (*MemStore)(nil)

// MemStore keeps values in memory only. Used for tests and throwaway sessions.
type MemStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		values: make(map[string]string),
	}
}

// NewWithValues seeds the store, mimicking values left by a previous run
func NewWithValues(values map[string]string) *MemStore {
	ms := New()
	for k, v := range values {
		ms.values[k] = v
	}
	return ms
}

func (ms *MemStore) Get(key string) (string, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()
	v, ok := ms.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (ms *MemStore) Set(key, value string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	ms.values[key] = value
	return nil
}

func (ms *MemStore) Remove(key string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	delete(ms.values, key)
	return nil
}
