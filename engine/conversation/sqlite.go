package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists conversations in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite store: create directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: ping: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS conversations (
		user_id TEXT PRIMARY KEY,
		current_intent TEXT NOT NULL DEFAULT '',
		phase TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES conversations(user_id),
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		intent TEXT NOT NULL DEFAULT '',
		at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_turns_user_seq ON turns(user_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite store: create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context, userID string) (*State, error) {
	st := &State{UserID: userID}
	var intent, phase string
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT current_intent, phase, created_at, updated_at FROM conversations WHERE user_id = ?`, userID,
	).Scan(&intent, &phase, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: load %s: %w", userID, err)
	}
	st.CurrentIntent = domain.Intent(intent)
	st.Phase = Phase(phase)
	st.CreatedAt = time.UnixMilli(created).UTC()
	st.UpdatedAt = time.UnixMilli(updated).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, text, intent, at FROM turns WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: load turns %s: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var t Turn
		var role, in string
		var at int64
		if err := rows.Scan(&t.ID, &role, &t.Text, &in, &at); err != nil {
			return nil, fmt.Errorf("sqlite store: scan turn: %w", err)
		}
		t.Role, t.Intent, t.At = Role(role), domain.Intent(in), time.UnixMilli(at).UTC()
		st.Turns = append(st.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: load turns %s: %w", userID, err)
	}
	return st, nil
}

// Save upserts the conversation row and appends turns not yet stored. Turns
// are append-only, so existing rows are never rewritten.
func (s *SQLiteStore) Save(ctx context.Context, st *State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (user_id, current_intent, phase, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_intent = excluded.current_intent,
			phase = excluded.phase,
			updated_at = excluded.updated_at`,
		st.UserID, string(st.CurrentIntent), string(st.Phase), st.CreatedAt.UnixMilli(), st.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite store: save %s: %w", st.UserID, err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE user_id = ?`, st.UserID).Scan(&stored); err != nil {
		return fmt.Errorf("sqlite store: count turns: %w", err)
	}
	for seq := stored; seq < len(st.Turns); seq++ {
		t := st.Turns[seq]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO turns (id, user_id, seq, role, text, intent, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, st.UserID, seq, string(t.Role), t.Text, string(t.Intent), t.At.UnixMilli())
		if err != nil {
			return fmt.Errorf("sqlite store: insert turn %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite store: commit: %w", err)
	}
	return nil
}
