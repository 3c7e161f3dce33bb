package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory. Entries are stored without
// expiration so the TTL stays advisory, matching the Store contract.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		c: gocache.New(gocache.NoExpiration, 0),
	}
}

func (m *MemoryStore) Get(key string) (*Entry, error) {
	v, found := m.c.Get(key)
	if !found {
		return nil, nil
	}
	entry, ok := v.(*Entry)
	if !ok {
		return nil, nil
	}
	return entry, nil
}

func (m *MemoryStore) Put(key string, value []byte, ttlSeconds int64) error {
	m.c.Set(key, &Entry{
		Value:      value,
		TTLSeconds: ttlSeconds,
		CreatedAt:  time.Now(),
	}, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
