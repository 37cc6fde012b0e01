package session

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

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
)

const (
	busyRetries   = 3
	busyBaseDelay = 50 * time.Millisecond
)

type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens (or creates) the session database in WAL mode.
func NewSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db, logger: logger.Named("session.sqlite")}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS survey_sessions (
		user_id      TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		answers_json TEXT NOT NULL,
		retry_count  INTEGER NOT NULL DEFAULT 0,
		updated_at   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_survey_sessions_updated ON survey_sessions(updated_at);
	`)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context, user string) (*survey.Session, error) {
	var (
		status    string
		answers   string
		retry     int
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status, answers_json, retry_count, updated_at
		FROM survey_sessions
		WHERE user_id = ?
	`, user).Scan(&status, &answers, &retry, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", user, err)
	}

	sess := &survey.Session{
		Status:     survey.Status(status),
		RetryCount: retry,
		UpdatedAt:  time.Unix(0, updatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("decode answers %s: %w", user, err)
	}
	return sess, nil
}

func (s *SQLite) Save(ctx context.Context, user string, sess *survey.Session) error {
	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return fmt.Errorf("encode answers %s: %w", user, err)
	}
	updated := sess.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	return s.withRetry(ctx, "save", user, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO survey_sessions (user_id, status, answers_json, retry_count, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				status = excluded.status,
				answers_json = excluded.answers_json,
				retry_count = excluded.retry_count,
				updated_at = excluded.updated_at
		`, user, string(sess.Status), string(answers), sess.RetryCount, updated.UnixNano())
		return err
	})
}

func (s *SQLite) Clear(ctx context.Context, user string) error {
	return s.withRetry(ctx, "clear", user, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM survey_sessions WHERE user_id = ?`, user)
		return err
	})
}

// DeleteOlderThan removes stale non-paused sessions.
func (s *SQLite) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM survey_sessions
		WHERE updated_at < ? AND status <> ?
	`, cutoff.UnixNano(), string(survey.StatusPaused))
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// withRetry retries SQLITE_BUSY with exponential backoff.
func (s *SQLite) withRetry(ctx context.Context, op, user string, fn func() error) error {
	var err error
	for i := 0; i < busyRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isBusy(err) || i == busyRetries-1 {
			break
		}
		delay := busyBaseDelay * time.Duration(1<<i)
		s.logger.Debug("database busy, retrying",
			zap.String("op", op), zap.String("user", user), zap.Int("attempt", i+1), zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s session %s: %w", op, user, err)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
