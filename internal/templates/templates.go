// Package templates holds the canonical world: the places and things the
// world is rebuilt from when no usable backup exists. Templates live in a
// small sqlite database so operators can edit the default world without
// touching code.
package templates

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"EmberVale/internal/world"
)

// Template describes one entity to materialize into a fresh world.
type Template struct {
	ID      string
	Kind    string
	Name    string
	SpawnIn string // name of the place template to spawn into; empty for places
	LinkTo  string // name of a place template to link to; places only
	Context []world.Context
}

// Store is the canonical template database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the template database at path and seeds the default
// world when the database is empty.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create template db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open template db: %w", err)
	}
	// Single writer; one shared connection avoids sqlite lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.seedIfEmpty(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			spawn_in TEXT NOT NULL DEFAULT '',
			link_to TEXT NOT NULL DEFAULT '',
			context_json TEXT NOT NULL DEFAULT '[]',
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS templates_kind_name ON templates(kind, name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init template schema: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces a template, keyed by kind and name.
func (s *Store) Put(t Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	contextJSON, err := json.Marshal(t.Context)
	if err != nil {
		return fmt.Errorf("encode template context: %w", err)
	}
	_, err = s.db.Exec(`
INSERT INTO templates(id, kind, name, spawn_in, link_to, context_json, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(kind, name) DO UPDATE SET
	spawn_in = excluded.spawn_in,
	link_to = excluded.link_to,
	context_json = excluded.context_json`,
		t.ID, t.Kind, t.Name, t.SpawnIn, t.LinkTo, string(contextJSON), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put template: %w", err)
	}
	return nil
}

// All returns every template of the given kind in insertion order.
func (s *Store) All(kind string) ([]Template, error) {
	rows, err := s.db.Query(`
SELECT id, kind, name, spawn_in, link_to, context_json
FROM templates
WHERE kind = ?
ORDER BY created_at_ms ASC, name ASC`, kind)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		var contextRaw string
		if err := rows.Scan(&t.ID, &t.Kind, &t.Name, &t.SpawnIn, &t.LinkTo, &contextRaw); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if err := json.Unmarshal([]byte(contextRaw), &t.Context); err != nil {
			return nil, fmt.Errorf("decode template context for %q: %w", t.Name, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

// Count reports how many templates exist across all kinds.
func (s *Store) Count() (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM templates`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return n, nil
}

func (s *Store) seedIfEmpty() error {
	n, err := s.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, t := range defaultWorld() {
		if err := s.Put(t); err != nil {
			return fmt.Errorf("seed default world: %w", err)
		}
	}
	return nil
}

// defaultWorld is the starter world: two linked places and a few things to
// talk about. The first place listed is the spawn for everything without an
// explicit position.
func defaultWorld() []Template {
	quiet := world.NewDescriptor("quiet")
	quiet.Applied = true
	dim := world.NewDescriptor("dim")
	dim.Applied = true
	dusty := world.NewDescriptor("dusty")
	dusty.Applied = true

	return []Template{
		{
			Kind:    world.KindPlace,
			Name:    "The Ember Glade",
			Context: []world.Context{quiet},
		},
		{
			Kind:    world.KindPlace,
			Name:    "The Hollow Vale",
			LinkTo:  "The Ember Glade",
			Context: []world.Context{dim},
		},
		{
			Kind:    world.KindThing,
			Name:    "lantern",
			SpawnIn: "The Ember Glade",
			Context: []world.Context{dusty},
		},
		{
			Kind:    world.KindThing,
			Name:    "signpost",
			SpawnIn: "The Hollow Vale",
		},
	}
}
