package journal

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/grain/internal/foundation/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the journal at dbPath.
// Use ":memory:" for an in-memory journal, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "open journal database").
			WithContext("path", dbPath).Build()
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "initialize journal schema").Build()
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER,
		outcome TEXT NOT NULL,
		files INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	CREATE TABLE IF NOT EXISTS renders (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		output TEXT NOT NULL,
		kind TEXT NOT NULL,
		build_id TEXT NOT NULL,
		rendered_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		path TEXT NOT NULL,
		stage TEXT,
		message TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_failures_build_id ON failures(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginBuild records the start of a build.
func (s *SQLiteStore) BeginBuild(ctx context.Context, id string, started time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started, outcome) VALUES (?, ?, ?)",
		id, started.UnixNano(), OutcomeRunning,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "insert build").WithContext("build_id", id).Build()
	}
	return nil
}

// FinishBuild stores the final state of a build started with BeginBuild.
func (s *SQLiteStore) FinishBuild(ctx context.Context, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE builds SET finished = ?, outcome = ?, files = ?, failures = ? WHERE id = ?",
		b.Finished.UnixNano(), b.Outcome, b.Files, b.Failures, b.ID,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "update build").WithContext("build_id", b.ID).Build()
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ferrors.JournalError("unknown build").WithContext("build_id", b.ID).Build()
	}
	return nil
}

// LastBuild returns the most recently started build.
func (s *SQLiteStore) LastBuild(ctx context.Context) (Build, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		b        Build
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, started, finished, outcome, files, failures FROM builds ORDER BY started DESC LIMIT 1",
	).Scan(&b.ID, &started, &finished, &b.Outcome, &b.Files, &b.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, ferrors.WrapError(err, ferrors.CategoryJournal, "query last build").Build()
	}
	b.Started = time.Unix(0, started)
	if finished.Valid {
		b.Finished = time.Unix(0, finished.Int64)
	}
	return b, true, nil
}

// RecordRender stores r, replacing any earlier render of the same path.
func (s *SQLiteStore) RecordRender(ctx context.Context, r Render) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (path, fingerprint, output, kind, build_id, rendered_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint, output = excluded.output,
			kind = excluded.kind, build_id = excluded.build_id, rendered_at = excluded.rendered_at`,
		r.Path, r.Fingerprint, r.Output, r.Kind, r.BuildID, r.RenderedAt.UnixNano(),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "record render").WithContext("path", r.Path).Build()
	}
	return nil
}

// Lookup returns the last render of path.
func (s *SQLiteStore) Lookup(ctx context.Context, path string) (Render, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r          Render
		renderedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT path, fingerprint, output, kind, build_id, rendered_at FROM renders WHERE path = ?", path,
	).Scan(&r.Path, &r.Fingerprint, &r.Output, &r.Kind, &r.BuildID, &renderedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Render{}, false, nil
	}
	if err != nil {
		return Render{}, false, ferrors.WrapError(err, ferrors.CategoryJournal, "query render").WithContext("path", path).Build()
	}
	r.RenderedAt = time.Unix(0, renderedAt)
	return r, true, nil
}

// RecordFailure stores a failed file for a build.
func (s *SQLiteStore) RecordFailure(ctx context.Context, f Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO failures (build_id, path, stage, message) VALUES (?, ?, ?, ?)",
		f.BuildID, f.Path, f.Stage, f.Message,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "record failure").WithContext("path", f.Path).Build()
	}
	return nil
}

// Failures lists the failures of a build in the order they were recorded.
func (s *SQLiteStore) Failures(ctx context.Context, buildID string) ([]Failure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, path, stage, message FROM failures WHERE build_id = ? ORDER BY id", buildID,
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "query failures").WithContext("build_id", buildID).Build()
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var (
			f     Failure
			stage sql.NullString
		)
		if err := rows.Scan(&f.BuildID, &f.Path, &stage, &f.Message); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "scan failure").Build()
		}
		f.Stage = stage.String
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "iterate failures").Build()
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
