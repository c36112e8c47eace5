package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pos_manager/internal/redis"
)

// Store is the byte-level backing for the read cache.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, payload []byte, ttl time.Duration) error
}

// ReadCache keeps the last successful result of each named read query.
// Entries are overwritten wholesale on every successful fetch; there is no
// partial merge. With ttl zero, entries never expire and staleness is
// bounded only by the next successful fetch.
type ReadCache struct {
	store Store
	ttl   time.Duration
}

func NewReadCache(store Store, ttl time.Duration) *ReadCache {
	return &ReadCache{store: store, ttl: ttl}
}

// Key derives a cache key from the restaurant and the query purpose, e.g.
// Key("r1", "tables") or Key("r1", "orders_today").
func Key(restaurantID, purpose string) string {
	return fmt.Sprintf("%s:%s", restaurantID, purpose)
}

// Get returns the cached payload for key, or found=false. Never touches
// the network.
func (c *ReadCache) Get(key string) (json.RawMessage, bool, error) {
	payload, found, err := c.store.Get(key)
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(payload), found, nil
}

// Put overwrites the entry for key.
func (c *ReadCache) Put(key string, payload json.RawMessage) error {
	return c.store.Set(key, payload, c.ttl)
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(key string) ([]byte, bool, error) {
	return s.client.CacheGet(key)
}

func (s *redisStore) Set(key string, payload []byte, ttl time.Duration) error {
	return s.client.CacheSet(key, payload, ttl)
}

// MemoryStore backs the cache with a map, for tests. TTLs are ignored.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.entries[key]
	return payload, ok, nil
}

func (s *MemoryStore) Set(key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = payload
	return nil
}
