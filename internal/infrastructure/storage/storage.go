// Package storage provides the local mirror of EFM data.
//
// Every mirror table is keyed by the immutable external EFM ID; upserts are
// idempotent inserts-or-updates against that key. Child resources resolve
// their parent's internal row ID at upsert time and are skipped (not failed)
// when the parent has not been synced yet.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrMissingParent marks a child record whose parent resource has not been
// mirrored yet. Callers skip the record and continue; the next full sync
// pass picks it up once the parent exists.
var ErrMissingParent = errors.New("parent record not synced")

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store provides SQLite database access for the EFM mirror.
// It implements the Repository interface.
type Store struct {
	db *sql.DB
}

// Compile-time check that Store implements Repository
var _ Repository = (*Store)(nil)

// NewStore creates a new store backed by an SQLite database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// lookupInternalID resolves a parent's internal row ID from its external
// EFM ID. Returns ErrMissingParent when the parent has not been synced.
func (s *Store) lookupInternalID(table, externalColumn string, externalID int) (int64, error) {
	var id int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s = ?", table, externalColumn)
	err := s.db.QueryRow(query, externalID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s %d", ErrMissingParent, table, externalID)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}
