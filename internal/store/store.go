// ABOUTME: Store interface and data types for console-gateway persistence
// ABOUTME: Defines user, workspace, and session records and the Store interface

package store

import (
	"context"
	"errors"
	"time"

	"github.com/relaydesk/console-gateway/internal/session"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when creating a user with an existing email.
var ErrEmailExists = errors.New("email already exists")

// User is a persisted console user: the session identity plus credentials.
type User struct {
	session.User
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Workspace is a persisted tenant with its feature flags.
type Workspace struct {
	session.Workspace
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConsoleSession records an issued login session for audit and revocation.
type ConsoleSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store defines the interface for console persistence.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, workspaceID string) ([]*User, error)
	UpdateUserKind(ctx context.Context, id string, kind session.UserKind) error
	DeleteUser(ctx context.Context, id string) error

	// Workspaces
	CreateWorkspace(ctx context.Context, ws *Workspace) error
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)
	UpdateWorkspaceFlags(ctx context.Context, id string, features session.AdvancedModuleFeatures, configs session.GeneralConfigs) error
	ListWorkspaces(ctx context.Context) ([]*Workspace, error)

	// Console sessions
	CreateConsoleSession(ctx context.Context, sess *ConsoleSession) error
	GetConsoleSession(ctx context.Context, id string) (*ConsoleSession, error)
	DeleteConsoleSession(ctx context.Context, id string) error
	DeleteExpiredConsoleSessions(ctx context.Context) error

	// SessionUser resolves an authenticated user ID to the session identity
	// and workspace, satisfying session.DirectoryStore.
	SessionUser(ctx context.Context, userID string) (*session.User, *session.Workspace, error)

	// Close releases any resources held by the store.
	Close() error
}
