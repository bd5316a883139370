// Package backup is the recovery engine: it rebuilds the live world from the
// durable snapshot at boot, falls back to the canonical templates when no
// usable snapshot exists, and writes full snapshots of the live world back
// out on demand or on a schedule.
package backup

import (
	"fmt"
	"sort"

	"EmberVale/internal/cache"
	"EmberVale/internal/logging"
	"EmberVale/internal/templates"
	"EmberVale/internal/world"
)

// Engine drives world recovery and snapshotting.
type Engine struct {
	deps      *world.Deps
	templates *templates.Store
}

// NewEngine builds an engine over the shared collaborators and the canonical
// template store.
func NewEngine(deps *world.Deps, tpl *templates.Store) *Engine {
	return &Engine{deps: deps, templates: tpl}
}

// EnsureWorld guarantees a live world exists: restore from the current
// snapshot if possible, otherwise materialize the canonical templates.
func (e *Engine) EnsureWorld() error {
	if e.RestoreLiveBackup() {
		return nil
	}
	e.deps.Log.WriteToLog("no usable snapshot, building world from templates", logging.ChannelRestore)
	if err := e.NewWorldFallback(); err != nil {
		return fmt.Errorf("build fallback world: %w", err)
	}
	return nil
}

// RestoreLiveBackup rebuilds the live cache from the current snapshot.
// Places load first, oldest first, so every later entity has a location to
// land in. A snapshot with no places is unusable; any read or decode fault
// also fails the restore, leaving the caller to fall back.
func (e *Engine) RestoreLiveBackup() bool {
	log := e.deps.Log
	log.WriteToLog("restoring live world from current snapshot", logging.ChannelRestore)

	places, err := e.loadPlaces()
	if err != nil {
		log.LogError(err)
		return false
	}
	if len(places) == 0 {
		log.WriteToLog("current snapshot holds no places", logging.ChannelRestore)
		return false
	}
	for _, place := range places {
		e.deps.IDs.Observe(world.KindPlace, place.ID)
		place.UpsertToLiveCache()
	}

	things, err := e.loadThings()
	if err != nil {
		log.LogError(err)
		return false
	}
	personas, err := e.loadPersonas()
	if err != nil {
		log.LogError(err)
		return false
	}
	for _, ent := range restoreOrder(things, personas) {
		e.deps.IDs.Observe(ent.EntityKind(), ent.EntityID())
		e.placeRestored(ent)
	}

	log.WriteToLog(fmt.Sprintf("restored %d places, %d things, %d personas",
		len(places), len(things), len(personas)), logging.ChannelRestore)
	return true
}

// placeRestored puts a restored entity back where the snapshot says it was.
// A recorded position pointing at a live place wins; anything else falls
// back to the default spawn.
func (e *Engine) placeRestored(ent world.Entity) {
	ent.UpsertToLiveCache()
	if pos := ent.PositionID(); pos != nil {
		if place, ok := cache.GetByID[*world.Place](e.deps.Cache, world.KindPlace, *pos); ok {
			if !place.Contains(ent) {
				place.MoveInto(ent)
			}
			return
		}
	}
	if err := ent.SpawnNewInWorld(nil); err != nil {
		e.deps.Log.LogError(err)
	}
}

// NewWorldFallback materializes the canonical templates into a fresh live
// world: places first, then their links, then everything spawned into them.
func (e *Engine) NewWorldFallback() error {
	placeTemplates, err := e.templates.All(world.KindPlace)
	if err != nil {
		return err
	}
	if len(placeTemplates) == 0 {
		return fmt.Errorf("template store holds no places")
	}

	placesByName := make(map[string]*world.Place, len(placeTemplates))
	for _, tpl := range placeTemplates {
		place := world.NewPlace(e.deps)
		place.Name = tpl.Name
		place.FullContext = tpl.Context
		if err := place.Create(); err != nil {
			return fmt.Errorf("create place %q: %w", tpl.Name, err)
		}
		placesByName[tpl.Name] = place
	}
	for _, tpl := range placeTemplates {
		if tpl.LinkTo == "" {
			continue
		}
		from, to := placesByName[tpl.Name], placesByName[tpl.LinkTo]
		if from == nil || to == nil {
			e.deps.Log.LogError(fmt.Errorf("template link %q -> %q names an unknown place", tpl.Name, tpl.LinkTo))
			continue
		}
		from.LinkTo(to)
	}

	thingTemplates, err := e.templates.All(world.KindThing)
	if err != nil {
		return err
	}
	for _, tpl := range thingTemplates {
		thing := world.NewThing(e.deps)
		thing.Name = tpl.Name
		thing.FullContext = tpl.Context
		if err := thing.Create(); err != nil {
			return fmt.Errorf("create thing %q: %w", tpl.Name, err)
		}
		if err := thing.SpawnNewInWorld(placesByName[tpl.SpawnIn]); err != nil {
			return fmt.Errorf("spawn thing %q: %w", tpl.Name, err)
		}
	}

	personaTemplates, err := e.templates.All(world.KindPersona)
	if err != nil {
		return err
	}
	for _, tpl := range personaTemplates {
		persona := world.NewPersona(e.deps)
		persona.Name = tpl.Name
		persona.FullContext = tpl.Context
		if err := persona.Create(); err != nil {
			return fmt.Errorf("create persona %q: %w", tpl.Name, err)
		}
		if err := persona.SpawnNewInWorld(placesByName[tpl.SpawnIn]); err != nil {
			return fmt.Errorf("spawn persona %q: %w", tpl.Name, err)
		}
	}

	e.deps.Log.WriteToLog(fmt.Sprintf("built fallback world: %d places, %d things, %d personas",
		len(placeTemplates), len(thingTemplates), len(personaTemplates)), logging.ChannelRestore)
	return nil
}

// WriteLiveBackup snapshots the entire live world: the current snapshot is
// archived out of the way first, then every cached entity is persisted fresh.
// Archive-then-write means a crash mid-snapshot can only lose the snapshot in
// progress, never the previous one.
func (e *Engine) WriteLiveBackup() error {
	log := e.deps.Log
	log.WriteToLog("writing live world snapshot", logging.ChannelBackup)

	if err := e.deps.Store.ArchiveFull(); err != nil {
		log.LogError(err)
		return err
	}

	var count int
	for _, place := range cache.GetAll[*world.Place](e.deps.Cache) {
		if err := place.Persist(); err != nil {
			log.LogError(err)
			return err
		}
		count++
	}
	for _, thing := range cache.GetAll[*world.Thing](e.deps.Cache) {
		if err := thing.Persist(); err != nil {
			log.LogError(err)
			return err
		}
		count++
	}
	for _, persona := range cache.GetAll[*world.Persona](e.deps.Cache) {
		if err := persona.Persist(); err != nil {
			log.LogError(err)
			return err
		}
		count++
	}

	log.WriteToLog(fmt.Sprintf("snapshot complete: %d entities", count), logging.ChannelBackup)
	return nil
}

// restoreOrder merges the non-place entities into one created-ascending
// stream so restoration replays the world in the order it grew.
func restoreOrder(things []*world.Thing, personas []*world.Persona) []world.Entity {
	out := make([]world.Entity, 0, len(things)+len(personas))
	for _, thing := range things {
		out = append(out, thing)
	}
	for _, persona := range personas {
		out = append(out, persona)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out
}

func (e *Engine) loadPlaces() ([]*world.Place, error) {
	records, err := e.deps.Store.ReadAll(world.KindPlace)
	if err != nil {
		return nil, err
	}
	out := make([]*world.Place, 0, len(records))
	for _, record := range records {
		place, err := world.DecodePlace(record.Data, e.deps)
		if err != nil {
			return nil, err
		}
		out = append(out, place)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out, nil
}

func (e *Engine) loadThings() ([]*world.Thing, error) {
	records, err := e.deps.Store.ReadAll(world.KindThing)
	if err != nil {
		return nil, err
	}
	out := make([]*world.Thing, 0, len(records))
	for _, record := range records {
		thing, err := world.DecodeThing(record.Data, e.deps)
		if err != nil {
			return nil, err
		}
		out = append(out, thing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out, nil
}

func (e *Engine) loadPersonas() ([]*world.Persona, error) {
	records, err := e.deps.Store.ReadAll(world.KindPersona)
	if err != nil {
		return nil, err
	}
	out := make([]*world.Persona, 0, len(records))
	for _, record := range records {
		persona, err := world.DecodePersona(record.Data, e.deps)
		if err != nil {
			return nil, err
		}
		out = append(out, persona)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out, nil
}
