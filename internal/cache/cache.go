package cache

import (
	"fmt"
	"strings"
	"sync"

	"EmberVale/internal/logging"
)

// Value is anything the live cache can hold: an identity within a concrete
// kind plus a display name for name lookups.
type Value interface {
	EntityID() int64
	EntityKind() string
	EntityName() string
}

// LiveCache is the process-wide store of every live entity, keyed by the
// hash of its cache key, with a secondary kind index for "all entities of
// kind K" scans. It holds no locking discipline beyond its own maps: callers
// serialize mutations against any one entity themselves.
type LiveCache struct {
	mu         sync.RWMutex
	entries    map[string]Value
	keysByKind map[string]map[string]Key
	log        *logging.Logger
}

// New builds an empty live cache.
func New(log *logging.Logger) *LiveCache {
	return &LiveCache{
		entries:    make(map[string]Value),
		keysByKind: make(map[string]map[string]Key),
		log:        log,
	}
}

// Add upserts a value under its own identity. An entry already present at
// the same key is replaced, and the kind index keeps exactly one reference
// for the identity.
func (c *LiveCache) Add(v Value) {
	if v == nil {
		return
	}
	c.AddWithKey(v, NewKey(v.EntityKind(), v.EntityID()))
}

// AddWithKey upserts a value under an explicit key.
func (c *LiveCache) AddWithKey(v Value, k Key) {
	if v == nil {
		return
	}
	hash := k.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[hash]; ok {
		c.removeLocked(k)
	}
	c.entries[hash] = v

	kind := NormalizeKind(v.EntityKind())
	bucket, ok := c.keysByKind[kind]
	if !ok {
		bucket = make(map[string]Key)
		c.keysByKind[kind] = bucket
	}
	bucket[hash] = k
}

// Remove evicts the entry at the key and drops the key from its kind index.
func (c *LiveCache) Remove(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(k)
}

func (c *LiveCache) removeLocked(k Key) {
	hash := k.Hash()
	if v, ok := c.entries[hash]; ok {
		kind := NormalizeKind(v.EntityKind())
		if bucket, ok := c.keysByKind[kind]; ok {
			delete(bucket, hash)
		}
	}
	delete(c.entries, hash)
	// The key itself names the normalized kind; sweep that bucket too in
	// case the entry was registered through a capability key.
	if bucket, ok := c.keysByKind[k.Kind]; ok {
		delete(bucket, hash)
	}
}

// Exists reports whether an entry is present at the key.
func (c *LiveCache) Exists(k Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[k.Hash()]
	return ok
}

// Len reports the number of live entries.
func (c *LiveCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// KindIDs returns the ids of every entry registered under a kind.
func (c *LiveCache) KindIDs(kind string) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bucket := c.keysByKind[NormalizeKind(kind)]
	if len(bucket) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(bucket))
	for _, key := range bucket {
		ids = append(ids, key.ID)
	}
	return ids
}

// Get resolves the entry at the key. A missing entry or one of the wrong
// type is reported as "not found", never as a fault.
func Get[T Value](c *LiveCache, k Key) (T, bool) {
	var zero T
	c.mu.RLock()
	v, ok := c.entries[k.Hash()]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		c.log.LogError(fmt.Errorf("cache entry %s holds unexpected type %T", k.Hash(), v))
		return zero, false
	}
	return typed, true
}

// GetByID resolves an entry by kind name and id.
func GetByID[T Value](c *LiveCache, kind string, id int64) (T, bool) {
	return Get[T](c, NewKey(kind, id))
}

// GetAll resolves every live entry assignable to T: for a concrete type the
// scan covers its own kind bucket, for a capability it covers the buckets of
// every concrete kind implementing it. Entries evicted since their key was
// indexed are skipped.
func GetAll[T Value](c *LiveCache) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, bucket := range c.keysByKind {
		for hash := range bucket {
			v, ok := c.entries[hash]
			if !ok {
				continue
			}
			if typed, ok := v.(T); ok {
				out = append(out, typed)
			}
		}
	}
	return out
}

// GetMany synthesizes a key per id under the provided kind and resolves each
// one; ids with no live entry are silently omitted.
func GetMany[T Value](c *LiveCache, kind string, ids []int64) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := GetByID[T](c, kind, id); ok {
			out = append(out, v)
		}
	}
	return out
}

// GetByName returns the first live entry assignable to T whose name matches,
// ignoring case. Names are not unique across the world; when duplicates exist
// the pick is arbitrary.
func GetByName[T Value](c *LiveCache, name string) (T, bool) {
	for _, v := range GetAll[T](c) {
		if strings.EqualFold(v.EntityName(), name) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
