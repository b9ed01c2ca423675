// ABOUTME: User entity store methods for console logins
// ABOUTME: Users belong to one workspace and carry a bcrypt password hash

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/relaydesk/console-gateway/internal/session"
)

// CreateUser creates a new console user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, workspace_id, name, email, kind, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.WorkspaceID,
		user.Name,
		user.Email,
		string(user.Kind),
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	s.logger.Debug("created user", "user_id", user.ID, "workspace_id", user.WorkspaceID, "kind", user.Kind)
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, workspace_id, name, email, kind, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, workspace_id, name, email, kind, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// ListUsers returns all users of a workspace ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context, workspaceID string) ([]*User, error) {
	query := `
		SELECT id, workspace_id, name, email, kind, password_hash, created_at, updated_at
		FROM users
		WHERE workspace_id = ?
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := s.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// UpdateUserKind changes a user's kind (agent, workspace admin, system admin).
func (s *SQLiteStore) UpdateUserKind(ctx context.Context, id string, kind session.UserKind) error {
	query := `UPDATE users SET kind = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, string(kind), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating user kind: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user and their console sessions.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM console_sessions WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SessionUser resolves an authenticated user ID to the session identity and
// workspace. Satisfies session.DirectoryStore.
func (s *SQLiteStore) SessionUser(ctx context.Context, userID string) (*session.User, *session.Workspace, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ws, err := s.GetWorkspace(ctx, user.WorkspaceID)
	if err != nil {
		return nil, nil, err
	}

	u := user.User
	w := ws.Workspace
	return &u, &w, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	user, err := s.scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *SQLiteStore) scanUserRow(row rowScanner) (*User, error) {
	var user User
	var kind string
	var passwordHash sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.WorkspaceID,
		&user.Name,
		&user.Email,
		&kind,
		&passwordHash,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.Kind = session.UserKind(kind)
	user.PasswordHash = passwordHash.String
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
	return &user, nil
}
