// Package store persists session records in SQLite so results survive host
// restarts and partial sessions are never lost.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bandit/session"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// ErrNotFound reports a session ID with no stored record.
var ErrNotFound = errors.New("session not found")

// timeLayout is RFC3339 with fixed-width nanoseconds. RFC3339Nano trims
// trailing zeros, so a whole-second TEXT value would sort after a later
// sub-second one; fixed width keeps byte order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps session records in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. An empty path keeps the store
// in memory.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory databases live per connection, so keep a single one
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	// Create sessions table
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			completion_code TEXT NOT NULL,
			seed TEXT NOT NULL,
			games INTEGER NOT NULL,
			arms INTEGER NOT NULL,
			orders TEXT NOT NULL,
			points REAL NOT NULL,
			practice_points REAL NOT NULL,
			started TEXT NOT NULL,
			ended TEXT NOT NULL,
			complete INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	// Create trials table
	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trials (
			session_id TEXT NOT NULL,
			game INTEGER NOT NULL,
			trial INTEGER NOT NULL,
			arm INTEGER NOT NULL,
			position INTEGER NOT NULL,
			outcome REAL NOT NULL,
			points REAL NOT NULL,
			practice INTEGER NOT NULL,
			rt_ns INTEGER NOT NULL,
			PRIMARY KEY (session_id, game, trial)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trials table: %w", err)
	}

	return nil
}

// SaveRecord stores a session record, replacing any earlier save of the same
// session. Saving a dropout mid-session and then its finished record is the
// expected path.
func (s *Store) SaveRecord(ctx context.Context, record session.Record) error {
	orders, err := json.Marshal(record.Orders)
	if err != nil {
		return fmt.Errorf("failed to marshal arm orders: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Warn().Err(err).Str("session", record.ID).Msg("failed to roll back record save")
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, completion_code, seed, games, arms, orders, points, practice_points, started, ended, complete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.CompletionCode,
		strconv.FormatUint(record.Seed, 10),
		record.Games,
		record.Arms,
		string(orders),
		record.Points,
		record.PracticePoints,
		record.Started.UTC().Format(timeLayout),
		record.Ended.UTC().Format(timeLayout),
		record.Complete,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	// Replacing a session replaces its whole trial log
	_, err = tx.ExecContext(ctx, "DELETE FROM trials WHERE session_id = ?", record.ID)
	if err != nil {
		return fmt.Errorf("failed to clear stale trials: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials (session_id, game, trial, arm, position, outcome, points, practice, rt_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trial insert: %w", err)
	}
	defer stmt.Close()

	for _, trial := range record.Trials {
		_, err = stmt.ExecContext(ctx,
			record.ID,
			trial.Game,
			trial.Trial,
			trial.Arm,
			trial.Position,
			trial.Outcome,
			trial.Points,
			trial.Practice,
			int64(trial.RT),
		)
		if err != nil {
			return fmt.Errorf("failed to insert trial: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRecord returns the stored record for a session ID.
func (s *Store) LoadRecord(ctx context.Context, id string) (session.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, completion_code, seed, games, arms, orders, points, practice_points, started, ended, complete
		FROM sessions WHERE id = ?
	`, id)

	var record session.Record
	var seed, orders, started, ended string
	err := row.Scan(
		&record.ID,
		&record.CompletionCode,
		&seed,
		&record.Games,
		&record.Arms,
		&orders,
		&record.Points,
		&record.PracticePoints,
		&started,
		&ended,
		&record.Complete,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Record{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to scan session: %w", err)
	}

	record.Seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to parse seed: %w", err)
	}
	if err := json.Unmarshal([]byte(orders), &record.Orders); err != nil {
		return session.Record{}, fmt.Errorf("failed to unmarshal arm orders: %w", err)
	}
	record.Started, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to parse start time: %w", err)
	}
	record.Ended, err = time.Parse(time.RFC3339Nano, ended)
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to parse end time: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT game, trial, arm, position, outcome, points, practice, rt_ns
		FROM trials WHERE session_id = ? ORDER BY game, trial
	`, id)
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var trial session.Trial
		var rt int64
		err := rows.Scan(
			&trial.Game,
			&trial.Trial,
			&trial.Arm,
			&trial.Position,
			&trial.Outcome,
			&trial.Points,
			&trial.Practice,
			&rt,
		)
		if err != nil {
			return session.Record{}, fmt.Errorf("failed to scan trial: %w", err)
		}
		trial.RT = time.Duration(rt)
		record.Trials = append(record.Trials, trial)
	}
	if err := rows.Err(); err != nil {
		return session.Record{}, fmt.Errorf("failed to read trials: %w", err)
	}

	return record, nil
}

// SessionInfo is one row of a stored-session listing.
type SessionInfo struct {
	ID             string
	CompletionCode string
	Points         float64
	PracticePoints float64
	Trials         int
	Complete       bool
	Started        time.Time
	Ended          time.Time
}

// ListSessions returns a summary of every stored session, oldest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.completion_code, s.points, s.practice_points, s.complete, s.started, s.ended, COUNT(t.session_id)
		FROM sessions s LEFT JOIN trials t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var started, ended string
		err := rows.Scan(
			&info.ID,
			&info.CompletionCode,
			&info.Points,
			&info.PracticePoints,
			&info.Complete,
			&started,
			&ended,
			&info.Trials,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		info.Started, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time: %w", err)
		}
		info.Ended, err = time.Parse(time.RFC3339Nano, ended)
		if err != nil {
			return nil, fmt.Errorf("failed to parse end time: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return infos, nil
}

// DeleteRecord removes a session and its trials, for withdrawn participants.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Warn().Err(err).Str("session", id).Msg("failed to roll back record delete")
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trials WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete trials: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
