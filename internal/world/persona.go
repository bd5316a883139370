package world

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EmberVale/internal/cache"
)

// AkashicEntry is one record in a persona's append-only memory log. The
// actor is held by id and resolved lazily through the live cache.
type AkashicEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Observance string    `json:"observance"`
	Spoken     bool      `json:"spoken"`
	ActorID    int64     `json:"actor"`
	Context    []Context `json:"context,omitempty"`
}

// Actor resolves the persona that produced this memory.
func (e AkashicEntry) Actor(c *cache.LiveCache) (*Persona, bool) {
	return cache.GetByID[*Persona](c, KindPersona, e.ActorID)
}

// Persona is a player's presence in the world. Beyond the shared entity
// contract it keeps the akashic record: everything it has observed, in
// order, never mutated after the fact.
type Persona struct {
	Base

	AkashicRecord []AkashicEntry
}

// NewPersona constructs a transient persona attached to its collaborators.
func NewPersona(d *Deps) *Persona {
	p := &Persona{}
	p.Attach(d)
	return p
}

func (p *Persona) EntityKind() string { return KindPersona }

// WriteTo shows input to the persona: the input is experienced, remembered
// in the akashic record with spoken set for non-acting input, and the
// persona is persisted afterward.
func (p *Persona) WriteTo(input string, originator *Persona, acting bool) []Context {
	facts := p.experience(p, input, originator, acting)
	if len(facts) > 0 {
		p.ConveyMeaning(facts)
	}
	p.Observe(input, originator, facts, !acting)
	if err := p.Save(); err != nil && p.deps != nil {
		p.deps.Log.LogError(err)
	}
	return facts
}

// Observe appends one memory to the akashic record.
func (p *Persona) Observe(observance string, actor *Persona, facts []Context, spoken bool) {
	entry := AkashicEntry{
		Timestamp:  time.Now().UTC(),
		Observance: observance,
		Spoken:     spoken,
		Context:    facts,
	}
	if actor != nil {
		entry.ActorID = actor.ID
	}
	p.AkashicRecord = append(p.AkashicRecord, entry)
}

// RenderToLook renders the persona when looked at directly.
func (p *Persona) RenderToLook() []string {
	out := []string{p.Name}
	if applied := renderDescriptors(p.FullContext); len(applied) > 0 {
		out = append(out, fmt.Sprintf("They look %s.", strings.Join(applied, ", ")))
	}
	return out
}

// RenderToLocation renders the persona inside a location listing.
func (p *Persona) RenderToLocation() []string {
	return []string{fmt.Sprintf("%s is here", p.Name)}
}

// UpsertToLiveCache updates this persona's entry in the live cache.
func (p *Persona) UpsertToLiveCache() {
	if p.deps != nil && p.deps.Cache != nil {
		p.deps.Cache.Add(p)
	}
}

// SpawnNewInWorld places the persona into the provided location, or the
// default spawn when none is given.
func (p *Persona) SpawnNewInWorld(spawnTo *Place) error {
	if spawnTo == nil {
		spawnTo = baseSpawn(p.deps)
	}
	if spawnTo != nil && !spawnTo.Personas.Contains(p) {
		spawnTo.MoveInto(p)
	}
	p.UpsertToLiveCache()
	return nil
}

// Create assigns the next persona id, caches the persona and persists it.
func (p *Persona) Create() error {
	if p.deps == nil {
		return errNotAttached
	}
	p.ID = p.deps.IDs.Next(KindPersona, p.deps.Cache)
	p.stamp()
	p.UpsertToLiveCache()
	if err := p.Persist(); err != nil {
		p.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Save re-persists the persona and refreshes its cache entry.
func (p *Persona) Save() error {
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

// Remove evicts the persona from the cache and archives its durable record.
func (p *Persona) Remove() error {
	if p.deps == nil {
		return errNotAttached
	}
	p.deps.Cache.Remove(cache.NewKey(KindPersona, p.ID))
	if err := p.deps.Store.ArchiveEntity(KindPersona, p.ID); err != nil {
		p.deps.Log.LogError(err)
		return err
	}
	return nil
}

// Persist writes the persona's current state to the durable store.
func (p *Persona) Persist() error {
	if p.deps == nil {
		return errNotAttached
	}
	record := personaRecord{
		ID:            p.ID,
		Name:          p.Name,
		Created:       p.Created,
		LastRevised:   p.LastRevised,
		Position:      p.Position,
		FullContext:   p.FullContext,
		AkashicRecord: p.AkashicRecord,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode persona %d: %w", p.ID, err)
	}
	return p.deps.Store.WriteEntity(KindPersona, p.ID, data)
}

type personaRecord struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Created       time.Time      `json:"created"`
	LastRevised   time.Time      `json:"last_revised"`
	Position      *int64         `json:"position,omitempty"`
	FullContext   []Context      `json:"full_context,omitempty"`
	AkashicRecord []AkashicEntry `json:"akashic_record,omitempty"`
}

// DecodePersona rebuilds a persona from its persisted form and attaches it.
func DecodePersona(data []byte, d *Deps) (*Persona, error) {
	var record personaRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode persona: %w", err)
	}
	p := NewPersona(d)
	p.ID = record.ID
	p.Name = record.Name
	p.Created = record.Created
	p.LastRevised = record.LastRevised
	p.Position = record.Position
	p.FullContext = record.FullContext
	p.AkashicRecord = record.AkashicRecord
	return p, nil
}
