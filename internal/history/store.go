// Package history stores successful analyses in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("history entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	input       TEXT NOT NULL,
	theory_name TEXT NOT NULL,
	ns          REAL NOT NULL,
	r           REAL NOT NULL,
	response    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// Entry is one stored analysis.
type Entry struct {
	ID         string
	CreatedAt  time.Time
	Input      string
	TheoryName string
	Ns         float64
	R          float64
	Response   *cosmo.CalculationResponse // nil in List results
}

// Store is a SQLite-backed history of analyses.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Open opens (and creates if needed) the database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, log: log, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records a successful analysis and returns its id.
func (s *Store) Save(ctx context.Context, input string, resp *cosmo.CalculationResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("saving run: nil response")
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("marshaling response: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, input, theory_name, ns, r, response) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, s.now().UnixMilli(), input, resp.TheoryName, resp.Observables.Ns, resp.Observables.R, string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	s.log.Debug("saved run", zap.String("id", id), zap.String("theory", resp.TheoryName))
	return id, nil
}

// List returns up to limit entries, newest first, without responses.
// A limit <= 0 returns all entries.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, created_at, input, theory_name, ns, r FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &created, &e.Input, &e.TheoryName, &e.Ns, &e.R); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry with the given id or id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input, theory_name, ns, r, response FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`,
		utf8.RuneCountInString(id), id)
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		var e Entry
		var created int64
		var payload string
		if err := rows.Scan(&e.ID, &created, &e.Input, &e.TheoryName, &e.Ns, &e.R, &payload); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		resp, err := cosmo.Decode([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decoding stored response %s: %w", e.ID, err)
		}
		e.Response = resp
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("ambiguous id prefix %q", id)
	}
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
