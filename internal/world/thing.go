package world

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EmberVale/internal/cache"
)

// Thing is an inanimate object in the world, usually born from an observed
// action's target.
type Thing struct {
	Base
}

// NewThing constructs a transient thing attached to its collaborators.
func NewThing(d *Deps) *Thing {
	t := &Thing{}
	t.Attach(d)
	return t
}

func (t *Thing) EntityKind() string { return KindThing }

// WriteTo shows input to the thing. Derived facts merge into the thing's own
// context; things keep no memory log.
func (t *Thing) WriteTo(input string, originator *Persona, acting bool) []Context {
	facts := t.experience(t, input, originator, acting)
	if len(facts) > 0 {
		t.ConveyMeaning(facts)
		if err := t.Save(); err != nil && t.deps != nil {
			t.deps.Log.LogError(err)
		}
	}
	return facts
}

// RenderToLook renders the thing when looked at directly.
func (t *Thing) RenderToLook() []string {
	out := []string{t.Name}
	if applied := renderDescriptors(t.FullContext); len(applied) > 0 {
		out = append(out, fmt.Sprintf("It looks %s.", strings.Join(applied, ", ")))
	}
	return out
}

// RenderToLocation renders the thing inside a location listing.
func (t *Thing) RenderToLocation() []string {
	return []string{fmt.Sprintf("%s is here", t.Name)}
}

// UpsertToLiveCache updates this thing's entry in the live cache.
func (t *Thing) UpsertToLiveCache() {
	if t.deps != nil && t.deps.Cache != nil {
		t.deps.Cache.Add(t)
	}
}

// SpawnNewInWorld places the thing into the provided location, or the
// default spawn when none is given.
func (t *Thing) SpawnNewInWorld(spawnTo *Place) error {
	if spawnTo == nil {
		spawnTo = baseSpawn(t.deps)
	}
	if spawnTo != nil && !spawnTo.Things.Contains(t) {
		spawnTo.MoveInto(t)
	}
	t.UpsertToLiveCache()
	return nil
}

// Create assigns the next thing id, caches the thing and persists it.
func (t *Thing) Create() error {
	if t.deps == nil {
		return errNotAttached
	}
	t.ID = t.deps.IDs.Next(KindThing, t.deps.Cache)
	t.stamp()
	t.UpsertToLiveCache()
	if err := t.Persist(); err != nil {
		t.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Save re-persists the thing and refreshes its cache entry.
func (t *Thing) Save() error {
	if t.deps == nil {
		return errNotAttached
	}
	t.touch()
	t.UpsertToLiveCache()
	if err := t.Persist(); err != nil {
		t.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Remove evicts the thing from the cache and archives its durable record.
func (t *Thing) Remove() error {
	if t.deps == nil {
		return errNotAttached
	}
	t.deps.Cache.Remove(cache.NewKey(KindThing, t.ID))
	if err := t.deps.Store.ArchiveEntity(KindThing, t.ID); err != nil {
		t.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Persist writes the thing's current state to the durable store.
func (t *Thing) Persist() error {
	if t.deps == nil {
		return errNotAttached
	}
	record := thingRecord{
		ID:          t.ID,
		Name:        t.Name,
		Created:     t.Created,
		LastRevised: t.LastRevised,
		Position:    t.Position,
		FullContext: t.FullContext,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode thing %d: %w", t.ID, err)
	}
	return t.deps.Store.WriteEntity(KindThing, t.ID, data)
}

type thingRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	LastRevised time.Time `json:"last_revised"`
	Position    *int64    `json:"position,omitempty"`
	FullContext []Context `json:"full_context,omitempty"`
}

// DecodeThing rebuilds a thing from its persisted form and attaches it.
func DecodeThing(data []byte, d *Deps) (*Thing, error) {
	var record thingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode thing: %w", err)
	}
	t := NewThing(d)
	t.ID = record.ID
	t.Name = record.Name
	t.Created = record.Created
	t.LastRevised = record.LastRevised
	t.Position = record.Position
	t.FullContext = record.FullContext
	return t, nil
}
