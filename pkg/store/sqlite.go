package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	generation INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS members_parent_id ON members(parent_id);
`

// SQLiteStore keeps members in a SQLite database. Each row carries the
// full record as JSON plus the columns needed for lookups.
type SQLiteStore struct {
	db   *sql.DB
	path string
	warn func(string)
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{
		db:   db,
		path: path,
		warn: func(msg string) { log.Printf("warning: %s", msg) },
	}, nil
}

// SetWarningHandler replaces the handler for skipped rows.
func (s *SQLiteStore) SetWarningHandler(fn func(string)) {
	if fn != nil {
		s.warn = fn
	}
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Companions covers the write-ahead log, which changes before the main file.
func (s *SQLiteStore) Companions() []string { return []string{"-wal"} }

// Load reads every member ordered by id. Rows whose JSON does not decode
// are skipped with a warning.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Member, error) {
	defer metrics.Timer(metrics.SnapshotDecode)()

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		var m model.Member
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			s.warn(fmt.Sprintf("skipping malformed row %q: %v", id, err))
			continue
		}
		m.ID = id
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

// List is Load.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Member, error) {
	return s.Load(ctx)
}

// Get returns the member with id or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Member, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM members WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Member{}, fmt.Errorf("query member %s: %w", id, err)
	}
	var m model.Member
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return model.Member{}, fmt.Errorf("decode member %s: %w", id, err)
	}
	m.ID = id
	return m, nil
}

// Put validates m and inserts or replaces it.
func (s *SQLiteStore) Put(ctx context.Context, m model.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode member %s: %w", m.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO members (id, parent_id, generation, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			generation = excluded.generation,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		m.ID, m.ParentID, m.Generation, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write member %s: %w", m.ID, err)
	}
	debug.Log("store: wrote member %s to %s", m.ID, s.path)
	return nil
}

// Count returns the number of stored members.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
