package cache

import (
	"testing"

	"EmberVale/internal/logging"
)

type stubEntity struct {
	id   int64
	kind string
	name string
}

func (s *stubEntity) EntityID() int64    { return s.id }
func (s *stubEntity) EntityKind() string { return s.kind }
func (s *stubEntity) EntityName() string { return s.name }

func newTestCache() *LiveCache {
	return New(logging.NewDiscard())
}

func TestKeyHashNormalizesInterfaceMarker(t *testing.T) {
	concrete := NewKey("Thing", 7)
	capability := NewKey("IThing", 7)
	if concrete.Hash() != capability.Hash() {
		t.Fatalf("Hash() mismatch: %q vs %q", concrete.Hash(), capability.Hash())
	}
	if concrete != capability {
		t.Fatalf("keys differ after normalization: %#v vs %#v", concrete, capability)
	}
	if got := concrete.Hash(); got != "Stored_Thing_7" {
		t.Fatalf("Hash() = %q, want %q", got, "Stored_Thing_7")
	}
}

func TestNormalizeKindLeavesOrdinaryNamesAlone(t *testing.T) {
	cases := map[string]string{
		"Thing":  "Thing",
		"IThing": "Thing",
		"Item":   "Item",
		"isle":   "isle",
		"I":      "I",
		"IPlace": "Place",
	}
	for in, want := range cases {
		if got := NormalizeKind(in); got != want {
			t.Fatalf("NormalizeKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddIsIdempotentInKindIndex(t *testing.T) {
	c := newTestCache()
	v := &stubEntity{id: 3, kind: "Thing", name: "can"}
	c.Add(v)
	c.Add(v)

	all := GetAll[*stubEntity](c)
	if len(all) != 1 {
		t.Fatalf("GetAll() returned %d entries, want 1", len(all))
	}
	if all[0] != v {
		t.Fatalf("GetAll() returned wrong entry")
	}
}

func TestAddReplacesExistingEntry(t *testing.T) {
	c := newTestCache()
	first := &stubEntity{id: 3, kind: "Thing", name: "can"}
	second := &stubEntity{id: 3, kind: "Thing", name: "kettle"}
	c.Add(first)
	c.Add(second)

	got, ok := GetByID[*stubEntity](c, "Thing", 3)
	if !ok {
		t.Fatalf("GetByID() missing after replace")
	}
	if got.name != "kettle" {
		t.Fatalf("GetByID() name = %q, want %q", got.name, "kettle")
	}
	if n := len(GetAll[*stubEntity](c)); n != 1 {
		t.Fatalf("GetAll() returned %d entries, want 1", n)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	c := newTestCache()
	if _, ok := Get[*stubEntity](c, NewKey("Thing", 42)); ok {
		t.Fatalf("Get() found entry in empty cache")
	}
	if c.Exists(NewKey("Thing", 42)) {
		t.Fatalf("Exists() reported true for empty cache")
	}
}

func TestCapabilityKeyResolvesConcreteEntry(t *testing.T) {
	c := newTestCache()
	v := &stubEntity{id: 9, kind: "Thing", name: "lantern"}
	c.Add(v)

	got, ok := Get[*stubEntity](c, NewKey("IThing", 9))
	if !ok {
		t.Fatalf("Get() with capability key missed concrete entry")
	}
	if got != v {
		t.Fatalf("Get() returned wrong entry")
	}
}

func TestGetManyOmitsMissingIDs(t *testing.T) {
	c := newTestCache()
	c.Add(&stubEntity{id: 1, kind: "Thing", name: "a"})
	c.Add(&stubEntity{id: 3, kind: "Thing", name: "b"})

	got := GetMany[*stubEntity](c, "Thing", []int64{1, 2, 3, 4})
	if len(got) != 2 {
		t.Fatalf("GetMany() returned %d entries, want 2", len(got))
	}
	if got[0].id != 1 || got[1].id != 3 {
		t.Fatalf("GetMany() returned ids %d, %d; want 1, 3", got[0].id, got[1].id)
	}
}

func TestRemoveEvictsEntryAndIndex(t *testing.T) {
	c := newTestCache()
	v := &stubEntity{id: 5, kind: "Persona", name: "bob"}
	c.Add(v)
	c.Remove(NewKey("Persona", 5))

	if c.Exists(NewKey("Persona", 5)) {
		t.Fatalf("Exists() reported true after Remove()")
	}
	if n := len(GetAll[*stubEntity](c)); n != 0 {
		t.Fatalf("GetAll() returned %d entries after Remove(), want 0", n)
	}
}

func TestGetByNameIgnoresCase(t *testing.T) {
	c := newTestCache()
	c.Add(&stubEntity{id: 1, kind: "Persona", name: "Wandering Bard"})
	c.Add(&stubEntity{id: 2, kind: "Persona", name: "Wandering Bardolph"})

	got, ok := GetByName[*stubEntity](c, "wandering bard")
	if !ok {
		t.Fatalf("GetByName() missed entry")
	}
	if got.id != 1 {
		t.Fatalf("GetByName() returned id %d, want 1", got.id)
	}
	if _, ok := GetByName[*stubEntity](c, "wandering"); ok {
		t.Fatalf("GetByName() matched a name fragment")
	}
}

func TestContainerContentsResolvesLazily(t *testing.T) {
	c := newTestCache()
	v := &stubEntity{id: 7, kind: "Thing", name: "old name"}
	c.Add(v)

	box := NewContainer[*stubEntity](c, "Thing")
	box.Add(v)

	v.name = "new name"
	c.Add(v)

	contents := box.Contents()
	if len(contents) != 1 {
		t.Fatalf("Contents() returned %d entries, want 1", len(contents))
	}
	if contents[0].name != "new name" {
		t.Fatalf("Contents() returned stale name %q", contents[0].name)
	}
}

func TestContainerEmptyContentsSkipsCache(t *testing.T) {
	// A detached container must not touch a nil cache when empty.
	box := &Container[*stubEntity]{kind: "Thing"}
	if got := box.Contents(); len(got) != 0 {
		t.Fatalf("Contents() on empty container returned %d entries", len(got))
	}
}

func TestContainerIndexOperations(t *testing.T) {
	c := newTestCache()
	a := &stubEntity{id: 1, kind: "Thing", name: "a"}
	b := &stubEntity{id: 2, kind: "Thing", name: "b"}
	d := &stubEntity{id: 3, kind: "Thing", name: "d"}
	for _, v := range []*stubEntity{a, b, d} {
		c.Add(v)
	}

	box := NewContainer[*stubEntity](c, "Thing")
	box.Add(a)
	box.Add(d)
	box.Insert(1, b)

	want := []int64{1, 2, 3}
	got := box.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", got, want)
		}
	}

	box.RemoveAt(0)
	if box.ContainsID(1) {
		t.Fatalf("ContainsID(1) true after RemoveAt(0)")
	}
	if !box.Remove(b) {
		t.Fatalf("Remove() missed present entry")
	}
	if box.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", box.Len())
	}
	if at, ok := box.At(0); !ok || at.id != 3 {
		t.Fatalf("At(0) = %v, %v; want id 3", at, ok)
	}
}
