package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"EmberVale/internal/logging"
)

const (
	fileStoreDir  = "FileStore"
	currentDir    = "Current"
	archiveDir    = "Backups"
	entityFileExt = ".json"
)

// Record is one persisted entity file: its id and raw serialized content.
type Record struct {
	ID   int64
	Data []byte
}

// Store is the durable entity store: one directory per concrete entity kind
// under a "current" snapshot directory, one file per entity keyed by id,
// plus a timestamped archive of previous snapshots.
//
// Layout: {root}/FileStore/Current/{Kind}/{id}.json
//         {root}/FileStore/Backups/{timestamp}/...
type Store struct {
	base string
	log  *logging.Logger
}

// NewStore roots a store at the provided data directory.
func NewStore(root string, log *logging.Logger) *Store {
	return &Store{base: filepath.Join(root, fileStoreDir), log: log}
}

// BaseDirectory exposes the store's base path.
func (s *Store) BaseDirectory() string {
	return s.base
}

// CurrentDirectory exposes the path of the "current" snapshot.
func (s *Store) CurrentDirectory() string {
	return filepath.Join(s.base, currentDir)
}

// HasCurrent reports whether a current snapshot directory exists.
func (s *Store) HasCurrent() bool {
	info, err := os.Stat(s.CurrentDirectory())
	return err == nil && info.IsDir()
}

// WriteEntity persists one entity file under the current snapshot, creating
// directories as needed. The write goes through a temp file and rename so a
// crash never leaves a half-written entity behind.
func (s *Store) WriteEntity(kind string, id int64, data []byte) error {
	dir := filepath.Join(s.CurrentDirectory(), kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create entity directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "entity-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp entity file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write entity file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp entity file: %w", err)
	}
	target := filepath.Join(dir, strconv.FormatInt(id, 10)+entityFileExt)
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace entity file: %w", err)
	}
	return nil
}

// ReadAll loads every entity file of a kind from the current snapshot. A
// missing kind directory yields an empty result, not an error.
func (s *Store) ReadAll(kind string) ([]Record, error) {
	dir := filepath.Join(s.CurrentDirectory(), kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read entity directory: %w", err)
	}
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entityFileExt) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(entry.Name(), entityFileExt), 10, 64)
		if err != nil {
			s.log.LogError(fmt.Errorf("skip entity file %s: %w", entry.Name(), err))
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read entity file: %w", err)
		}
		records = append(records, Record{ID: id, Data: data})
	}
	return records, nil
}

// ArchiveEntity moves one entity file out of the current snapshot into a
// dated archive directory, terminating its live record.
func (s *Store) ArchiveEntity(kind string, id int64) error {
	name := strconv.FormatInt(id, 10) + entityFileExt
	source := filepath.Join(s.CurrentDirectory(), kind, name)
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat entity file: %w", err)
	}
	dir := filepath.Join(s.base, archiveDir, timestampName(), kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	if err := os.Rename(source, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("archive entity file: %w", err)
	}
	return nil
}

// ArchiveFull moves the entire current snapshot into a dated archive
// directory. Moving rather than deleting guarantees a crash mid-write never
// destroys the only backup copy. A missing current snapshot is a no-op.
func (s *Store) ArchiveFull() error {
	if !s.HasCurrent() {
		return nil
	}
	dir := filepath.Join(s.base, archiveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	target := filepath.Join(dir, timestampName())
	if err := os.Rename(s.CurrentDirectory(), target); err != nil {
		return fmt.Errorf("archive current snapshot: %w", err)
	}
	return nil
}

func timestampName() string {
	return time.Now().UTC().Format("20060102_150405.000000000")
}
