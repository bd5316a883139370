package world

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EmberVale/internal/cache"
)

// Place is a location in the world. It owns reference containers for the
// personas and things present, and a set of linked place ids forming the
// navigable graph.
type Place struct {
	Base

	Personas *cache.Container[*Persona]
	Things   *cache.Container[*Thing]
	Linked   []int64
}

// NewPlace constructs a transient place attached to its collaborators.
func NewPlace(d *Deps) *Place {
	p := &Place{
		Personas: cache.NewContainer[*Persona](d.Cache, KindPersona),
		Things:   cache.NewContainer[*Thing](d.Cache, KindThing),
	}
	p.Attach(d)
	return p
}

func (p *Place) EntityKind() string { return KindPlace }

// GetPersonas resolves the personas currently present.
func (p *Place) GetPersonas() []*Persona {
	return p.Personas.Contents()
}

// GetThings resolves the things currently present.
func (p *Place) GetThings() []*Thing {
	return p.Things.Contents()
}

// MoveInto places an entity into the container matching its kind. It rejects
// an entity that is already present, sets the entity's position
// back-reference, and persists both sides.
func (p *Place) MoveInto(ent Entity) bool {
	switch moved := ent.(type) {
	case *Persona:
		if p.Personas.Contains(moved) {
			return false
		}
		p.Personas.Add(moved)
	case *Thing:
		if p.Things.Contains(moved) {
			return false
		}
		p.Things.Add(moved)
	default:
		return false
	}

	id := p.ID
	ent.SetPosition(&id)
	if err := ent.Save(); err != nil && p.deps != nil {
		p.deps.Log.LogError(err)
	}
	if err := p.Save(); err != nil && p.deps != nil {
		p.deps.Log.LogError(err)
	}
	return true
}

// Contains reports whether the entity is already present here.
func (p *Place) Contains(ent Entity) bool {
	switch held := ent.(type) {
	case *Persona:
		return p.Personas.Contains(held)
	case *Thing:
		return p.Things.Contains(held)
	}
	return false
}

// MoveFrom is the mirror of MoveInto: it removes the entity from its
// container and clears the position back-reference.
func (p *Place) MoveFrom(ent Entity) bool {
	switch moved := ent.(type) {
	case *Persona:
		if !p.Personas.Remove(moved) {
			return false
		}
	case *Thing:
		if !p.Things.Remove(moved) {
			return false
		}
	default:
		return false
	}
	ent.SetPosition(nil)
	p.UpsertToLiveCache()
	return true
}

// LinkTo records a bidirectional link between two places and persists both.
func (p *Place) LinkTo(other *Place) {
	if other == nil || other.ID == p.ID {
		return
	}
	changed := false
	if !p.LinkedTo(other.ID) {
		p.Linked = append(p.Linked, other.ID)
		changed = true
	}
	if !other.LinkedTo(p.ID) {
		other.Linked = append(other.Linked, p.ID)
		if err := other.Save(); err != nil && p.deps != nil {
			p.deps.Log.LogError(err)
		}
	}
	if changed {
		if err := p.Save(); err != nil && p.deps != nil {
			p.deps.Log.LogError(err)
		}
	}
}

// LinkedTo reports whether a place id is already linked.
func (p *Place) LinkedTo(id int64) bool {
	for _, have := range p.Linked {
		if have == id {
			return true
		}
	}
	return false
}

// LinkedPlaces resolves the linked places through the live cache.
func (p *Place) LinkedPlaces() []*Place {
	if p.deps == nil || len(p.Linked) == 0 {
		return nil
	}
	return cache.GetMany[*Place](p.deps.Cache, KindPlace, p.Linked)
}

// WriteTo broadcasts input to everything here, things before personas, then
// processes the place's own reaction last. Only the place's own reaction
// mutates the world, so contained entities do not independently re-derive
// the same facts into it.
func (p *Place) WriteTo(input string, originator *Persona, acting bool) []Context {
	for _, thing := range p.GetThings() {
		thing.WriteTo(input, originator, acting)
	}
	for _, persona := range p.GetPersonas() {
		persona.WriteTo(input, originator, acting)
	}
	facts := p.experience(p, input, originator, acting)
	if len(facts) > 0 {
		p.ConveyMeaning(facts)
		if err := p.Save(); err != nil && p.deps != nil {
			p.deps.Log.LogError(err)
		}
	}
	return facts
}

// RenderToLook renders what something sees when it looks at this place.
func (p *Place) RenderToLook() []string {
	out := []string{p.Name}
	if applied := renderDescriptors(p.FullContext); len(applied) > 0 {
		out = append(out, fmt.Sprintf("It is quite %s here.", strings.Join(applied, ", ")))
	}
	return out
}

// RenderToLocation renders the place inside a location listing; a place is
// its own location, so this is the look output.
func (p *Place) RenderToLocation() []string {
	return p.RenderToLook()
}

// UpsertToLiveCache updates this place's entry in the live cache.
func (p *Place) UpsertToLiveCache() {
	if p.deps != nil && p.deps.Cache != nil {
		p.deps.Cache.Add(p)
	}
}

// SpawnNewInWorld caches the place. Places are containers; they do not spawn
// into anything.
func (p *Place) SpawnNewInWorld(*Place) error {
	p.UpsertToLiveCache()
	return nil
}

// Create assigns the next place id, caches the place and persists it.
func (p *Place) Create() error {
	if p.deps == nil {
		return errNotAttached
	}
	p.ID = p.deps.IDs.Next(KindPlace, p.deps.Cache)
	p.stamp()
	p.UpsertToLiveCache()
	if err := p.Persist(); err != nil {
		p.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Save re-persists the place and refreshes its cache entry.
func (p *Place) Save() error {
	if p.deps == nil {
		return errNotAttached
	}
	p.touch()
	p.UpsertToLiveCache()
	if err := p.Persist(); err != nil {
		p.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Remove evicts the place from the cache and archives its durable record.
func (p *Place) Remove() error {
	if p.deps == nil {
		return errNotAttached
	}
	p.deps.Cache.Remove(cache.NewKey(KindPlace, p.ID))
	if err := p.deps.Store.ArchiveEntity(KindPlace, p.ID); err != nil {
		p.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Persist writes the place's current state to the durable store without
// touching timestamps or the cache.
func (p *Place) Persist() error {
	if p.deps == nil {
		return errNotAttached
	}
	record := placeRecord{
		ID:          p.ID,
		Name:        p.Name,
		Created:     p.Created,
		LastRevised: p.LastRevised,
		FullContext: p.FullContext,
		PersonaIDs:  p.Personas.IDs(),
		ThingIDs:    p.Things.IDs(),
		LinkedIDs:   p.Linked,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode place %d: %w", p.ID, err)
	}
	return p.deps.Store.WriteEntity(KindPlace, p.ID, data)
}

type placeRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	LastRevised time.Time `json:"last_revised"`
	FullContext []Context `json:"full_context,omitempty"`
	PersonaIDs  []int64   `json:"persona_ids,omitempty"`
	ThingIDs    []int64   `json:"thing_ids,omitempty"`
	LinkedIDs   []int64   `json:"linked_place_ids,omitempty"`
}

// DecodePlace rebuilds a place from its persisted form and attaches it.
func DecodePlace(data []byte, d *Deps) (*Place, error) {
	var record placeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode place: %w", err)
	}
	p := NewPlace(d)
	p.ID = record.ID
	p.Name = record.Name
	p.Created = record.Created
	p.LastRevised = record.LastRevised
	p.FullContext = record.FullContext
	p.Personas.SetIDs(record.PersonaIDs)
	p.Things.SetIDs(record.ThingIDs)
	p.Linked = record.LinkedIDs
	return p, nil
}
