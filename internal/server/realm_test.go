package server

import (
	"path/filepath"
	"testing"

	"EmberVale/internal/cache"
	"EmberVale/internal/logging"
	"EmberVale/internal/storage"
	"EmberVale/internal/world"
)

func newTestRealm(t *testing.T) (*Realm, *world.Place) {
	t.Helper()
	log := logging.NewDiscard()
	deps := &world.Deps{
		Cache: cache.New(log),
		Store: storage.NewStore(t.TempDir(), log),
		Log:   log,
		IDs:   world.NewIDSource(),
	}

	glade := world.NewPlace(deps)
	glade.Name = "The Ember Glade"
	if err := glade.Create(); err != nil {
		t.Fatalf("create place: %v", err)
	}

	accounts, err := NewAccountManager(filepath.Join(t.TempDir(), "accounts.json"), log)
	if err != nil {
		t.Fatalf("new account manager: %v", err)
	}
	return NewRealm(deps, nil, accounts, log), glade
}

func TestAddPlayerCreatesAndSpawnsPersona(t *testing.T) {
	realm, glade := newTestRealm(t)

	p, err := realm.addPlayer("Ada", nil, false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if p.Persona == nil || p.Persona.Name != "ada" {
		t.Fatalf("player persona = %+v", p.Persona)
	}
	pos := p.Persona.PositionID()
	if pos == nil || *pos != glade.ID {
		t.Fatalf("persona not spawned into the default place: %v", pos)
	}
	if _, ok := realm.ActivePlayer("ada"); !ok {
		t.Fatalf("player not tracked as active")
	}

	if _, err := realm.addPlayer("ADA", nil, false); err == nil {
		t.Fatalf("second connection for same account succeeded")
	}
}

func TestAddPlayerReusesExistingPersona(t *testing.T) {
	realm, glade := newTestRealm(t)

	bob := world.NewPersona(realm.Deps)
	bob.Name = "bob"
	if err := bob.Create(); err != nil {
		t.Fatalf("create persona: %v", err)
	}
	glade.MoveInto(bob)

	p, err := realm.addPlayer("Bob", nil, false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if p.Persona != bob {
		t.Fatalf("login created a fresh persona instead of rebinding %q", bob.Name)
	}
}

func TestBroadcastToPlaceReachesOnlyCoLocated(t *testing.T) {
	realm, glade := newTestRealm(t)

	vale := world.NewPlace(realm.Deps)
	vale.Name = "The Hollow Vale"
	if err := vale.Create(); err != nil {
		t.Fatalf("create place: %v", err)
	}

	speaker, err := realm.addPlayer("speaker", nil, false)
	if err != nil {
		t.Fatalf("add speaker: %v", err)
	}
	listener, err := realm.addPlayer("listener", nil, false)
	if err != nil {
		t.Fatalf("add listener: %v", err)
	}
	wanderer, err := realm.addPlayer("wanderer", nil, false)
	if err != nil {
		t.Fatalf("add wanderer: %v", err)
	}
	glade.MoveFrom(wanderer.Persona)
	vale.MoveInto(wanderer.Persona)

	realm.BroadcastToPlace(glade, "hello", speaker)

	select {
	case msg := <-listener.Output:
		if msg != "hello" {
			t.Fatalf("listener got %q", msg)
		}
	default:
		t.Fatalf("co-located listener received nothing")
	}
	select {
	case msg := <-speaker.Output:
		t.Fatalf("excluded speaker received %q", msg)
	default:
	}
	select {
	case msg := <-wanderer.Output:
		t.Fatalf("player elsewhere received %q", msg)
	default:
	}
}

func TestPrepareTakeoverDetachesExistingSession(t *testing.T) {
	realm, _ := newTestRealm(t)

	p, err := realm.addPlayer("ada", nil, false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}

	old, _, ok := realm.PrepareTakeover("Ada")
	if !ok {
		t.Fatalf("takeover refused for active player")
	}
	if old != p {
		t.Fatalf("takeover detached a different player")
	}
	if p.Alive {
		t.Fatalf("old player still marked alive")
	}
	if _, ok := realm.ActivePlayer("ada"); ok {
		t.Fatalf("old player still tracked after takeover")
	}
}

func TestTakeoverLeavesOutputOpenForLateSends(t *testing.T) {
	realm, glade := newTestRealm(t)

	p, err := realm.addPlayer("ada", nil, false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}

	old, _, ok := realm.PrepareTakeover("ada")
	if !ok {
		t.Fatalf("takeover refused for active player")
	}
	old.Finish()
	old.Finish() // repeat claims must be harmless

	// A command handler that was mid-dispatch on the old connection may
	// still send; the buffered channel has to absorb it without panicking.
	select {
	case p.Output <- "late line":
	default:
		t.Fatalf("late send did not land in the output buffer")
	}
	realm.BroadcastToPlace(glade, "room chatter", nil)

	select {
	case <-old.Done():
	default:
		t.Fatalf("Done() not signalled after Finish()")
	}
}
