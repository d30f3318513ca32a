package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quizline/quizline/internal/model"

	_ "modernc.org/sqlite"
)

// ErrConflict is returned by UpdateSession when the stored session no longer
// matches the expected previous state. The caller refetches and retries.
var ErrConflict = errors.New("session modified by a concurrent turn")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	// modernc.org/sqlite takes pragmas in _pragma=name(value) form; the
	// mattn-style _journal_mode/_busy_timeout keys are silently ignored.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database liveness.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		key TEXT PRIMARY KEY,
		answers TEXT NOT NULL DEFAULT '[]',
		last_question_index INTEGER NOT NULL DEFAULT -1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS completed_runs (
		id TEXT PRIMARY KEY,
		session_key TEXT NOT NULL,
		answers TEXT NOT NULL,
		exported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// FetchOrCreate returns the session for key, creating the not-started record
// if none exists. The insert ignores conflicts on the primary key, so two
// near-simultaneous first contacts resolve to exactly one stored session.
func (s *Store) FetchOrCreate(key string) (model.Session, error) {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO sessions (key, answers, last_question_index, created_at, updated_at)
		 VALUES (?, '[]', ?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		key, model.NotStartedIndex, now, now,
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("create session %s: %w", key, err)
	}
	return s.getSession(key)
}

func (s *Store) getSession(key string) (model.Session, error) {
	var sess model.Session
	var answersJSON string
	err := s.db.QueryRow(
		`SELECT key, answers, last_question_index, created_at, updated_at FROM sessions WHERE key = ?`, key,
	).Scan(&sess.Key, &answersJSON, &sess.LastQuestionIndex, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return model.Session{}, fmt.Errorf("get session %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(answersJSON), &sess.Answers); err != nil {
		return model.Session{}, fmt.Errorf("decode answers for %s: %w", key, err)
	}
	if sess.Answers == nil {
		sess.Answers = []string{}
	}
	return sess, nil
}

// UpdateSession writes both session fields as a unit, conditional on the
// session still holding expectedLastIndex. Returns ErrConflict when another
// turn advanced the session first.
func (s *Store) UpdateSession(key string, expectedLastIndex int, answers []string, lastIndex int) error {
	if answers == nil {
		answers = []string{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers for %s: %w", key, err)
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET answers = ?, last_question_index = ?, updated_at = ?
		 WHERE key = ? AND last_question_index = ?`,
		string(answersJSON), lastIndex, time.Now(), key, expectedLastIndex,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("update session %s: %w", key, ErrConflict)
	}
	return nil
}

// ResetSession unconditionally puts a session back to the not-started state.
// Used by the admin surface; quiz turns go through UpdateSession.
func (s *Store) ResetSession(key string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET answers = '[]', last_question_index = ?, updated_at = ? WHERE key = ?`,
		model.NotStartedIndex, time.Now(), key,
	)
	return err
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// RecordCompletedRun stores an audit row for a successfully exported run.
func (s *Store) RecordCompletedRun(sessionKey string, answers []string) (string, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO completed_runs (id, session_key, answers, exported_at) VALUES (?, ?, ?, ?)`,
		id, sessionKey, string(answersJSON), time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("record completed run for %s: %w", sessionKey, err)
	}
	return id, nil
}

// ListCompletedRuns returns all recorded runs, newest first.
func (s *Store) ListCompletedRuns() ([]model.CompletedRun, error) {
	rows, err := s.db.Query(
		`SELECT id, session_key, answers, exported_at FROM completed_runs ORDER BY exported_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []model.CompletedRun
	for rows.Next() {
		var r model.CompletedRun
		var answersJSON string
		if err := rows.Scan(&r.ID, &r.SessionKey, &answersJSON, &r.ExportedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answersJSON), &r.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CompletedRunCount returns the number of recorded runs.
func (s *Store) CompletedRunCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM completed_runs`).Scan(&count)
	return count, err
}
