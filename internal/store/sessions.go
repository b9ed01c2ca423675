// ABOUTME: Console session store methods for issued logins
// ABOUTME: Sessions back token revocation and expiry sweeping

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateConsoleSession records a newly issued login session.
func (s *SQLiteStore) CreateConsoleSession(ctx context.Context, sess *ConsoleSession) error {
	query := `
		INSERT INTO console_sessions (id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID,
		sess.UserID,
		sess.CreatedAt.UTC().Format(time.RFC3339),
		sess.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating console session: %w", err)
	}
	return nil
}

// GetConsoleSession retrieves a session by ID. Expired sessions are treated
// as missing.
func (s *SQLiteStore) GetConsoleSession(ctx context.Context, id string) (*ConsoleSession, error) {
	query := `
		SELECT id, user_id, created_at, expires_at
		FROM console_sessions
		WHERE id = ?
	`

	var sess ConsoleSession
	var createdAtStr, expiresAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&sess.UserID,
		&createdAtStr,
		&expiresAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying console session: %w", err)
	}

	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	sess.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAtStr)

	if time.Now().After(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// DeleteConsoleSession removes a session (logout). Idempotent.
func (s *SQLiteStore) DeleteConsoleSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM console_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting console session: %w", err)
	}
	return nil
}

// DeleteExpiredConsoleSessions sweeps out sessions past their expiry.
func (s *SQLiteStore) DeleteExpiredConsoleSessions(ctx context.Context) error {
	query := `DELETE FROM console_sessions WHERE expires_at < ?`

	res, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("deleting expired console sessions: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		s.logger.Debug("swept expired console sessions", "count", affected)
	}
	return nil
}
