package world

import (
	"errors"
	"time"

	"EmberVale/internal/cache"
	"EmberVale/internal/logging"
	"EmberVale/internal/storage"
)

// errNotAttached marks a lifecycle call on an entity that was never handed
// its collaborators.
var errNotAttached = errors.New("entity has no attached collaborators")

// Concrete entity kind names. These are the directory names of the durable
// store and the kind buckets of the live cache.
const (
	KindPlace   = "Place"
	KindThing   = "Thing"
	KindPersona = "Persona"
)

// Interpreter converts raw observed text into context facts, mutating the
// world as a side effect when the observer is the current place. The
// interpretation engine implements this; entities only see the interface.
type Interpreter interface {
	Experience(observer, actor Entity, observance string, acting bool) []Context
}

// Deps carries the shared collaborators handed to every live entity at
// construction or attachment time: the live cache, the durable store, the
// logger, the id source and the interpreter. There is no global state; the
// same Deps value is threaded everywhere.
type Deps struct {
	Cache  *cache.LiveCache
	Store  *storage.Store
	Log    *logging.Logger
	IDs    *IDSource
	Interp Interpreter
}

// Entity is the lifecycle, identity and rendering contract shared by Place,
// Thing and Persona.
type Entity interface {
	cache.Value

	CreatedAt() time.Time
	PositionID() *int64
	SetPosition(id *int64)
	Context() []Context
	ConveyMeaning(facts []Context)

	// WriteTo shows raw input to the entity and returns the facts produced.
	WriteTo(input string, originator *Persona, acting bool) []Context

	RenderToLook() []string
	RenderToLocation() []string

	UpsertToLiveCache()
	Create() error
	Save() error
	Remove() error
	Persist() error
	SpawnNewInWorld(spawnTo *Place) error
}

// Base holds the persisted identity fields and attachment plumbing common to
// every entity kind. Concrete kinds embed it and supply their own cache and
// storage behavior.
type Base struct {
	ID          int64
	Name        string
	Created     time.Time
	LastRevised time.Time
	Position    *int64
	FullContext []Context

	deps *Deps
}

func (b *Base) EntityID() int64      { return b.ID }
func (b *Base) EntityName() string   { return b.Name }
func (b *Base) CreatedAt() time.Time { return b.Created }
func (b *Base) PositionID() *int64   { return b.Position }

// SetPosition records the id of the place holding this entity, or clears it.
func (b *Base) SetPosition(id *int64) {
	b.Position = id
}

// Context exposes the entity's accumulated knowledge.
func (b *Base) Context() []Context {
	return b.FullContext
}

// ConveyMeaning merges newly derived facts into the accumulated context
// using the reinforcement rules.
func (b *Base) ConveyMeaning(facts []Context) {
	b.FullContext = MergeContexts(b.FullContext, facts)
}

// Attach hands the entity its collaborators. Deserialized entities must be
// attached before any lifecycle call.
func (b *Base) Attach(d *Deps) {
	b.deps = d
}

func (b *Base) attachment() *Deps {
	return b.deps
}

// experience routes input through the interpretation engine on behalf of the
// concrete entity.
func (b *Base) experience(self Entity, input string, originator *Persona, acting bool) []Context {
	if b.deps == nil || b.deps.Interp == nil {
		return nil
	}
	return b.deps.Interp.Experience(self, originator, input, acting)
}

// stamp sets creation bookkeeping on first persist.
func (b *Base) stamp() {
	now := time.Now().UTC()
	if b.Created.IsZero() {
		b.Created = now
	}
	b.LastRevised = now
}

// touch bumps the revision timestamp.
func (b *Base) touch() {
	b.LastRevised = time.Now().UTC()
}

// baseSpawn finds the emergency "we don't know where this goes" location:
// the oldest live place.
func baseSpawn(d *Deps) *Place {
	if d == nil || d.Cache == nil {
		return nil
	}
	var oldest *Place
	for _, place := range cache.GetAll[*Place](d.Cache) {
		if oldest == nil || place.Created.Before(oldest.Created) {
			oldest = place
		}
	}
	return oldest
}

// renderDescriptors lists the names of applied descriptor facts.
func renderDescriptors(facts []Context) []string {
	var applied []string
	for _, fact := range facts {
		if fact.Kind == DescriptorContext && fact.Applied {
			applied = append(applied, fact.Name)
		}
	}
	return applied
}
