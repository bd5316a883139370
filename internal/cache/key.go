package cache

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// CacheType partitions key namespaces. Live world entities always use Stored.
type CacheType string

// Stored is the cache type for live entities.
const Stored CacheType = "Stored"

// Key is the canonical identity of one live entity: cache type, normalized
// kind name and numeric id. Keys constructed independently for the same
// logical identity are interchangeable; equality is value equality on the
// normalized form.
type Key struct {
	Type CacheType
	Kind string
	ID   int64
}

// NewKey builds a key for a kind name and id. The kind name is normalized so
// that a lookup by capability name (leading interface marker, e.g. "IThing")
// and by concrete kind ("Thing") collide on the same key.
func NewKey(kind string, id int64) Key {
	return Key{Type: Stored, Kind: NormalizeKind(kind), ID: id}
}

// Hash renders the stable hash string used to store and locate cache entries.
func (k Key) Hash() string {
	return fmt.Sprintf("%s_%s_%d", k.Type, k.Kind, k.ID)
}

// NormalizeKind strips a single leading interface marker from a kind name:
// an "I" followed by another upper-case letter.
func NormalizeKind(kind string) string {
	if len(kind) < 2 || kind[0] != 'I' {
		return kind
	}
	r, _ := utf8.DecodeRuneInString(kind[1:])
	if !unicode.IsUpper(r) {
		return kind
	}
	return kind[1:]
}
