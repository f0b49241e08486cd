// Package store persists subject bulletins in a local SQLite database. Only
// the published input tables are stored; derived statistics are recomputed
// on demand.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/subject"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS subjects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    level TEXT,
    boundary_data TEXT NOT NULL,
    distribution_data TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subjects_name ON subjects(name);
`

// ErrNotFound is returned when a subject ID does not match any stored row.
var ErrNotFound = errors.New("subject not found")

// Store is a SQLite-backed collection of subject bulletins.
type Store struct {
	*sql.DB
	path string
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Open opens the database at dbPath, creating the file and schema when
// missing.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath
	if strings.Contains(dbPath, "?") {
		dsn += "&_pragma=busy_timeout(5000)"
	} else {
		dsn += "?_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{DB: sqlDB, path: dbPath}, nil
}

// Entry is one row of a subject listing.
type Entry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     string `json:"level,omitempty"`
	Grades    int    `json:"grades"`
	CreatedAt string `json:"created_at"`
}

// Put validates and stores a bulletin, replacing any existing subject with
// the same ID. The original created_at survives replacement.
func (s *Store) Put(f *bulletin.File) error {
	if err := f.Validate(); err != nil {
		return err
	}

	boundaries, err := json.Marshal(f.Boundaries)
	if err != nil {
		return fmt.Errorf("marshal boundaries: %w", err)
	}
	distribution, err := json.Marshal(f.Distribution)
	if err != nil {
		return fmt.Errorf("marshal distribution: %w", err)
	}

	_, err = s.Exec(`
		INSERT INTO subjects (id, name, level, boundary_data, distribution_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			level = excluded.level,
			boundary_data = excluded.boundary_data,
			distribution_data = excluded.distribution_data`,
		f.ID, f.Name, f.Level, string(boundaries), string(distribution),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// Get returns the stored bulletin for an ID.
func (s *Store) Get(id string) (*bulletin.File, error) {
	var f bulletin.File
	var level sql.NullString
	var boundaries, distribution string
	err := s.QueryRow(`
		SELECT id, name, level, boundary_data, distribution_data
		FROM subjects WHERE id = ?`, id).Scan(
		&f.ID, &f.Name, &level, &boundaries, &distribution)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	f.Level = level.String

	if err := json.Unmarshal([]byte(boundaries), &f.Boundaries); err != nil {
		return nil, fmt.Errorf("unmarshal boundaries for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(distribution), &f.Distribution); err != nil {
		return nil, fmt.Errorf("unmarshal distribution for %s: %w", id, err)
	}
	return &f, nil
}

// List returns a summary row for every stored subject, ordered by ID.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.Query(`
		SELECT id, name, level, boundary_data, created_at
		FROM subjects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var level sql.NullString
		var boundaries string
		if err := rows.Scan(&e.ID, &e.Name, &level, &boundaries, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Level = level.String
		var bands map[string]subject.Band
		if err := json.Unmarshal([]byte(boundaries), &bands); err == nil {
			e.Grades = len(bands)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a subject by ID.
func (s *Store) Delete(id string) error {
	res, err := s.Exec(`DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Subjects loads every stored bulletin and constructs its Subject, ordered
// by ID.
func (s *Store) Subjects() ([]*subject.Subject, error) {
	rows, err := s.Query(`
		SELECT id, name, level, boundary_data, distribution_data
		FROM subjects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []*subject.Subject
	for rows.Next() {
		var f bulletin.File
		var level sql.NullString
		var boundaries, distribution string
		if err := rows.Scan(&f.ID, &f.Name, &level, &boundaries, &distribution); err != nil {
			return nil, err
		}
		f.Level = level.String
		if err := json.Unmarshal([]byte(boundaries), &f.Boundaries); err != nil {
			return nil, fmt.Errorf("unmarshal boundaries for %s: %w", f.ID, err)
		}
		if err := json.Unmarshal([]byte(distribution), &f.Distribution); err != nil {
			return nil, fmt.Errorf("unmarshal distribution for %s: %w", f.ID, err)
		}

		subj, err := f.ToSubject()
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", f.ID, err)
		}
		subjects = append(subjects, subj)
	}
	return subjects, rows.Err()
}
