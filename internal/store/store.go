// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/abacus/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const presetsKey = "presets"

// Store wraps SQLite access for drill sessions and presets.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			operation TEXT NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL,
			elapsed_sec INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			config_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_attempts (
			session_id INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			display TEXT NOT NULL,
			answer REAL NOT NULL,
			input TEXT NOT NULL,
			correct INTEGER NOT NULL,
			PRIMARY KEY (session_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_operation ON sessions(operation);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and its attempts.
func (s *Store) InsertSession(ctx context.Context, result model.SessionResult) (id int64, err error) {
	cfgJSON, err := json.Marshal(result.Config)
	if err != nil {
		return 0, fmt.Errorf("failed to encode config: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, mode, operation, correct, total, elapsed_sec, duration_ms, config_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.StartedAt.Format(time.RFC3339Nano),
		result.EndedAt.Format(time.RFC3339Nano),
		string(result.Config.Mode),
		string(result.Config.Operation),
		result.Correct,
		result.Total,
		result.ElapsedSeconds,
		result.Duration().Milliseconds(),
		string(cfgJSON),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(result.History) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_attempts (session_id, idx, display, answer, input, correct)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, a := range result.History {
			if _, err = stmt.ExecContext(ctx, id, i, a.Problem.Display, a.Problem.Answer, a.Input, a.Correct); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns session aggregates filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, string(cfg.Mode))
	}
	if cfg.Operation != "" {
		clauses = append(clauses, "operation = ?")
		args = append(args, string(cfg.Operation))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, mode, operation, correct, total, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt, mode, op string
		if err := rows.Scan(&agg.SessionID, &endedAt, &mode, &op, &agg.Correct, &agg.Total, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Mode = model.Mode(mode)
		agg.Operation = model.Operation(op)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

// ListOperationAggregates totals sessions per operation.
func (s *Store) ListOperationAggregates(ctx context.Context, sessionIDs []int64) ([]model.OperationAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT operation, COUNT(*), SUM(correct), SUM(total), SUM(duration_ms)
		FROM sessions
		WHERE id IN (%s)
		GROUP BY operation
		ORDER BY operation`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.OperationAggregate
	for rows.Next() {
		var agg model.OperationAggregate
		var op string
		if err := rows.Scan(&op, &agg.Sessions, &agg.Correct, &agg.Total, &agg.DurationMs); err != nil {
			return nil, err
		}
		agg.Operation = model.Operation(op)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAttempts returns the recorded answers of a session in order.
func (s *Store) ListAttempts(ctx context.Context, sessionID int64) ([]model.Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.display, a.answer, a.input, a.correct, s.operation
		 FROM session_attempts a
		 JOIN sessions s ON s.id = a.session_id
		 WHERE a.session_id = ?
		 ORDER BY a.idx`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var op string
		if err := rows.Scan(&a.Problem.Display, &a.Problem.Answer, &a.Input, &a.Correct, &op); err != nil {
			return nil, err
		}
		a.Problem.Operation = model.Operation(op)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

// Totals sums correct and total answers over every stored session.
func (s *Store) Totals(ctx context.Context) (correct, total int, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(correct), 0), COALESCE(SUM(total), 0) FROM sessions`)
	if err := row.Scan(&correct, &total); err != nil {
		return 0, 0, err
	}
	return correct, total, nil
}

// LoadPresets returns the serialized preset list, or nil when none was saved.
func (s *Store) LoadPresets(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, presetsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// SavePresets overwrites the serialized preset list.
func (s *Store) SavePresets(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		presetsKey, string(data))
	return err
}
