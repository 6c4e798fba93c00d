/*
Package sqlite persists the engine's whole-store snapshot in SQLite.

PURPOSE:
  The engine is pure in-memory; persistence is an external collaborator
  that loads the full snapshot document at boot and replaces it
  wholesale after mutations. With a single logical writer,
  last-writer-wins replacement is sufficient - there is no row-level
  merging to do.

DOCUMENT MODEL:
  One table, one row: the JSON-serialized engine.Snapshot keyed by a
  fixed record id. Save() upserts the row inside a transaction so a
  crash mid-write never leaves a torn document.

WAL MODE:
  The database is opened with WAL so reads don't block the single
  writer and crash recovery is cheap.

USAGE:
  db, err := sqlite.Open("./flowers.db")
  ...
  snap, ok, err := db.Load(ctx)
  if ok { store.Restore(snap) }
  ...
  err = db.Save(ctx, store.Snapshot())

SEE ALSO:
  - engine/store.go: Snapshot/Restore on the entity store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/florade/flower-engine/engine"
)

// recordID keys the single snapshot document.
const recordID = "flower-book"

type DB struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		record_id  TEXT PRIMARY KEY,
		document   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := d.db.Exec(schema)
	return err
}

// Load reads the snapshot document. The second return is false when no
// snapshot has been saved yet (a fresh database).
func (d *DB) Load(ctx context.Context) (engine.Snapshot, bool, error) {
	var doc string
	err := d.db.QueryRowContext(ctx,
		`SELECT document FROM snapshots WHERE record_id = ?`, recordID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("corrupt snapshot document: %w", err)
	}
	return snap, true, nil
}

// Save replaces the snapshot document wholesale (last-writer-wins).
func (d *DB) Save(ctx context.Context, snap engine.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (record_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		recordID, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return tx.Commit()
}
