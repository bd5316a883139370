package cache

// Container is an ordered list of entity ids representing "this contains
// these entities". It never stores resolved values: Contents re-resolves
// through the live cache on every call, so a mutation to a cached entity is
// immediately visible to every container holding its id. The container holds
// no business logic; presence validation is the owner's responsibility.
type Container[T Value] struct {
	kind  string
	ids   []int64
	cache *LiveCache
}

// NewContainer builds an empty container for entities of the named kind.
func NewContainer[T Value](c *LiveCache, kind string) *Container[T] {
	return &Container[T]{kind: NormalizeKind(kind), cache: c}
}

// Attach points the container at a live cache, used after deserialization.
func (b *Container[T]) Attach(c *LiveCache) {
	b.cache = c
}

// Contents resolves the id list against the live cache. An empty id list
// yields an empty result without touching the cache.
func (b *Container[T]) Contents() []T {
	if len(b.ids) == 0 {
		return nil
	}
	return GetMany[T](b.cache, b.kind, b.ids)
}

// Contains reports whether the entity's id is held here.
func (b *Container[T]) Contains(item T) bool {
	return b.ContainsID(item.EntityID())
}

// ContainsID reports whether the id is held here.
func (b *Container[T]) ContainsID(id int64) bool {
	for _, have := range b.ids {
		if have == id {
			return true
		}
	}
	return false
}

// Add appends the entity's id.
func (b *Container[T]) Add(item T) {
	b.ids = append(b.ids, item.EntityID())
}

// Remove drops the entity's id, reporting whether it was present.
func (b *Container[T]) Remove(item T) bool {
	return b.RemoveID(item.EntityID())
}

// RemoveID drops the first occurrence of the id, reporting whether it was
// present.
func (b *Container[T]) RemoveID(id int64) bool {
	for i, have := range b.ids {
		if have == id {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Insert places the entity's id at the index.
func (b *Container[T]) Insert(index int, item T) {
	if index < 0 || index > len(b.ids) {
		return
	}
	b.ids = append(b.ids, 0)
	copy(b.ids[index+1:], b.ids[index:])
	b.ids[index] = item.EntityID()
}

// RemoveAt drops the id at the index.
func (b *Container[T]) RemoveAt(index int) {
	if index < 0 || index >= len(b.ids) {
		return
	}
	b.ids = append(b.ids[:index], b.ids[index+1:]...)
}

// At resolves the entity at the index.
func (b *Container[T]) At(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(b.ids) {
		return zero, false
	}
	return GetByID[T](b.cache, b.kind, b.ids[index])
}

// Len reports how many ids are held.
func (b *Container[T]) Len() int {
	return len(b.ids)
}

// IDs returns a copy of the backing id list.
func (b *Container[T]) IDs() []int64 {
	out := make([]int64, len(b.ids))
	copy(out, b.ids)
	return out
}

// SetIDs replaces the backing id list, used when loading persisted state.
func (b *Container[T]) SetIDs(ids []int64) {
	b.ids = append(b.ids[:0:0], ids...)
}
