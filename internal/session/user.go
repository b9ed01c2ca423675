// ABOUTME: User and workspace types shared by routing, presence, and the server
// ABOUTME: Feature flags and role checks are plain fields and pure methods

package session

// UserKind classifies a console user.
type UserKind string

const (
	UserKindAgent          UserKind = "agent"
	UserKindWorkspaceAdmin UserKind = "workspace_admin"
	UserKindSystemAdmin    UserKind = "system_admin"
)

// User is the logged-in console user. A nil *User means "not authenticated".
type User struct {
	ID          string
	WorkspaceID string
	Name        string
	Email       string
	Kind        UserKind
}

// IsAdmin returns true for any kind of system or workspace admin. Admins are
// exempt from presence tracking and idle locks.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Kind == UserKindWorkspaceAdmin || u.Kind == UserKindSystemAdmin
}

// AdvancedModuleFeatures are per-workspace feature toggles for paid modules.
type AdvancedModuleFeatures struct {
	EnableAgentStatus bool
}

// GeneralConfigs are per-workspace operational settings.
type GeneralConfigs struct {
	EnableAgentStatusForAgents bool
}

// Workspace is a tenant account. Authorization and feature flags are scoped
// per workspace.
type Workspace struct {
	ID                     string
	Name                   string
	AdvancedModuleFeatures AdvancedModuleFeatures
	GeneralConfigs         GeneralConfigs
}
