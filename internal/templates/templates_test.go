package templates

import (
	"path/filepath"
	"testing"

	"EmberVale/internal/world"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "templates.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsDefaultWorld(t *testing.T) {
	s := openTestStore(t)

	places, err := s.All(world.KindPlace)
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(places) == 0 {
		t.Fatalf("fresh database has no place templates")
	}
	things, err := s.All(world.KindThing)
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	for _, thing := range things {
		if thing.SpawnIn == "" {
			t.Fatalf("thing template %q has no spawn place", thing.Name)
		}
	}
}

func TestPutUpsertsByKindAndName(t *testing.T) {
	s := openTestStore(t)

	tpl := Template{Kind: world.KindThing, Name: "bell", SpawnIn: "The Ember Glade"}
	if err := s.Put(tpl); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	before, err := s.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}

	tpl.SpawnIn = "The Hollow Vale"
	if err := s.Put(tpl); err != nil {
		t.Fatalf("Put() upsert error: %v", err)
	}
	after, err := s.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if after != before {
		t.Fatalf("upsert grew the table: %d -> %d", before, after)
	}

	things, err := s.All(world.KindThing)
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	found := false
	for _, thing := range things {
		if thing.Name == "bell" {
			found = true
			if thing.SpawnIn != "The Hollow Vale" {
				t.Fatalf("upsert kept old spawn place %q", thing.SpawnIn)
			}
		}
	}
	if !found {
		t.Fatalf("bell template missing after upsert")
	}
}

func TestContextRoundTrips(t *testing.T) {
	s := openTestStore(t)

	bright := world.NewDescriptor("bright")
	bright.Applied = true
	if err := s.Put(Template{Kind: world.KindThing, Name: "torch", SpawnIn: "The Ember Glade", Context: []world.Context{bright}}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	things, err := s.All(world.KindThing)
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	for _, thing := range things {
		if thing.Name != "torch" {
			continue
		}
		if len(thing.Context) != 1 || thing.Context[0].Name != "bright" || !thing.Context[0].Applied {
			t.Fatalf("context did not round-trip: %+v", thing.Context)
		}
		return
	}
	t.Fatalf("torch template missing")
}
