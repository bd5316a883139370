package world

import (
	"testing"

	"EmberVale/internal/cache"
	"EmberVale/internal/logging"
	"EmberVale/internal/storage"
)

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	log := logging.NewDiscard()
	return &Deps{
		Cache: cache.New(log),
		Store: storage.NewStore(t.TempDir(), log),
		Log:   log,
		IDs:   NewIDSource(),
	}
}

func TestCreateAssignsMonotonicIDsPerKind(t *testing.T) {
	d := newTestDeps(t)

	first := NewPlace(d)
	first.Name = "Warren"
	if err := first.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	second := NewPlace(d)
	second.Name = "Hollow"
	if err := second.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	thing := NewThing(d)
	thing.Name = "can"
	if err := thing.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("place ids = %d, %d; want 0, 1", first.ID, second.ID)
	}
	if thing.ID != 0 {
		t.Fatalf("thing id = %d, want independent counter starting at 0", thing.ID)
	}
}

func TestIDSourceSeedsFromCacheScan(t *testing.T) {
	d := newTestDeps(t)

	restored := NewPlace(d)
	restored.ID = 41
	restored.Name = "Old Warren"
	restored.UpsertToLiveCache()

	fresh := NewPlace(d)
	fresh.Name = "New Warren"
	if err := fresh.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if fresh.ID != 42 {
		t.Fatalf("seeded id = %d, want 42", fresh.ID)
	}
}

func TestCreatePutsEntityInCacheAndStore(t *testing.T) {
	d := newTestDeps(t)

	p := NewPersona(d)
	p.Name = "bob"
	if err := p.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, ok := cache.GetByID[*Persona](d.Cache, KindPersona, p.ID); !ok {
		t.Fatalf("persona missing from live cache after Create()")
	}
	records, err := d.Store.ReadAll(KindPersona)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("store holds %d persona records, want 1", len(records))
	}
}

func TestRemoveEvictsAndArchives(t *testing.T) {
	d := newTestDeps(t)

	thing := NewThing(d)
	thing.Name = "lantern"
	if err := thing.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := thing.Remove(); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	if _, ok := cache.GetByID[*Thing](d.Cache, KindThing, thing.ID); ok {
		t.Fatalf("thing still cached after Remove()")
	}
	records, err := d.Store.ReadAll(KindThing)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("store holds %d thing records after Remove(), want 0", len(records))
	}
}

func TestMoveIntoRejectsDuplicates(t *testing.T) {
	d := newTestDeps(t)

	warren := NewPlace(d)
	warren.Name = "Warren"
	if err := warren.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	bob := NewPersona(d)
	bob.Name = "bob"
	if err := bob.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if !warren.MoveInto(bob) {
		t.Fatalf("MoveInto() rejected first move")
	}
	if warren.MoveInto(bob) {
		t.Fatalf("MoveInto() accepted duplicate move")
	}
	if bob.Position == nil || *bob.Position != warren.ID {
		t.Fatalf("position back-reference = %v, want %d", bob.Position, warren.ID)
	}
	if got := len(warren.GetPersonas()); got != 1 {
		t.Fatalf("GetPersonas() returned %d, want 1", got)
	}
}

func TestMoveFromClearsBackReference(t *testing.T) {
	d := newTestDeps(t)

	warren := NewPlace(d)
	warren.Name = "Warren"
	if err := warren.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	can := NewThing(d)
	can.Name = "can"
	if err := can.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	warren.MoveInto(can)
	if !warren.MoveFrom(can) {
		t.Fatalf("MoveFrom() rejected present entity")
	}
	if can.Position != nil {
		t.Fatalf("position = %v after MoveFrom(), want nil", can.Position)
	}
	if warren.MoveFrom(can) {
		t.Fatalf("MoveFrom() accepted absent entity")
	}
}

func TestContainerSeesEntityMutations(t *testing.T) {
	d := newTestDeps(t)

	warren := NewPlace(d)
	warren.Name = "Warren"
	if err := warren.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	can := NewThing(d)
	can.Name = "can"
	if err := can.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	warren.MoveInto(can)

	can.Name = "dented can"
	if err := can.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	things := warren.GetThings()
	if len(things) != 1 || things[0].Name != "dented can" {
		t.Fatalf("GetThings() = %v, want the updated entity", things)
	}
}

func TestLinkToIsBidirectional(t *testing.T) {
	d := newTestDeps(t)

	warren := NewPlace(d)
	warren.Name = "Warren"
	if err := warren.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	hollow := NewPlace(d)
	hollow.Name = "Hollow"
	if err := hollow.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	warren.LinkTo(hollow)
	if !warren.LinkedTo(hollow.ID) || !hollow.LinkedTo(warren.ID) {
		t.Fatalf("LinkTo() did not link both sides")
	}

	// Linking again must not duplicate.
	warren.LinkTo(hollow)
	if len(warren.Linked) != 1 || len(hollow.Linked) != 1 {
		t.Fatalf("LinkTo() duplicated links: %v / %v", warren.Linked, hollow.Linked)
	}
}

func TestRenderToLookListsAppliedDescriptors(t *testing.T) {
	d := newTestDeps(t)

	warren := NewPlace(d)
	warren.Name = "Warren"
	warren.FullContext = []Context{
		{Kind: DescriptorContext, Name: "dim", Strength: 1, Applied: true},
		{Kind: DescriptorContext, Name: "vast", Strength: 1},
	}

	lines := warren.RenderToLook()
	if len(lines) != 2 {
		t.Fatalf("RenderToLook() = %v, want name plus descriptor line", lines)
	}
	if lines[1] != "It is quite dim here." {
		t.Fatalf("descriptor line = %q", lines[1])
	}
}

func TestPersonaObserveAppendsMemory(t *testing.T) {
	d := newTestDeps(t)

	bob := NewPersona(d)
	bob.Name = "bob"
	if err := bob.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	bob.Observe("kick the can", bob, []Context{NewVerb("kick")}, false)
	bob.Observe("hello", bob, nil, true)

	if len(bob.AkashicRecord) != 2 {
		t.Fatalf("akashic record length = %d, want 2", len(bob.AkashicRecord))
	}
	if bob.AkashicRecord[0].Spoken || !bob.AkashicRecord[1].Spoken {
		t.Fatalf("spoken flags wrong: %+v", bob.AkashicRecord)
	}
	actor, ok := bob.AkashicRecord[0].Actor(d.Cache)
	if !ok || actor.ID != bob.ID {
		t.Fatalf("Actor() did not resolve through the cache")
	}
}

func TestDecodeRoundTripsPlace(t *testing.T) {
	d := newTestDeps(t)

	warren := NewPlace(d)
	warren.Name = "Warren"
	if err := warren.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	can := NewThing(d)
	can.Name = "can"
	if err := can.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	warren.MoveInto(can)

	records, err := d.Store.ReadAll(KindPlace)
	if err != nil || len(records) != 1 {
		t.Fatalf("ReadAll() = %d records, err %v", len(records), err)
	}

	restored, err := DecodePlace(records[0].Data, d)
	if err != nil {
		t.Fatalf("DecodePlace() error: %v", err)
	}
	if restored.Name != "Warren" || restored.ID != warren.ID {
		t.Fatalf("DecodePlace() = %+v", restored)
	}
	ids := restored.Things.IDs()
	if len(ids) != 1 || ids[0] != can.ID {
		t.Fatalf("restored thing ids = %v, want [%d]", ids, can.ID)
	}
}
