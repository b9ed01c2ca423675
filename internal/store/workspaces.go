// ABOUTME: Workspace entity store methods with per-tenant feature flags
// ABOUTME: Agent-status flags gate the automatic-break feature per workspace

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/relaydesk/console-gateway/internal/session"
)

// CreateWorkspace creates a new workspace.
func (s *SQLiteStore) CreateWorkspace(ctx context.Context, ws *Workspace) error {
	query := `
		INSERT INTO workspaces (id, name, enable_agent_status, enable_agent_status_for_agents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		ws.ID,
		ws.Name,
		boolToInt(ws.AdvancedModuleFeatures.EnableAgentStatus),
		boolToInt(ws.GeneralConfigs.EnableAgentStatusForAgents),
		ws.CreatedAt.UTC().Format(time.RFC3339),
		ws.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	s.logger.Debug("created workspace", "workspace_id", ws.ID, "name", ws.Name)
	return nil
}

// GetWorkspace retrieves a workspace by ID.
func (s *SQLiteStore) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	query := `
		SELECT id, name, enable_agent_status, enable_agent_status_for_agents, created_at, updated_at
		FROM workspaces
		WHERE id = ?
	`

	ws, err := scanWorkspace(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ws, err
}

// UpdateWorkspaceFlags updates a workspace's agent-status feature flags.
func (s *SQLiteStore) UpdateWorkspaceFlags(ctx context.Context, id string, features session.AdvancedModuleFeatures, configs session.GeneralConfigs) error {
	query := `
		UPDATE workspaces
		SET enable_agent_status = ?, enable_agent_status_for_agents = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		boolToInt(features.EnableAgentStatus),
		boolToInt(configs.EnableAgentStatusForAgents),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating workspace flags: %w", err)
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

// ListWorkspaces returns all workspaces ordered by name.
func (s *SQLiteStore) ListWorkspaces(ctx context.Context) ([]*Workspace, error) {
	query := `
		SELECT id, name, enable_agent_status, enable_agent_status_for_agents, created_at, updated_at
		FROM workspaces
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workspaces: %w", err)
	}
	return workspaces, nil
}

func scanWorkspace(row rowScanner) (*Workspace, error) {
	var ws Workspace
	var agentStatus, agentStatusForAgents int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&ws.ID,
		&ws.Name,
		&agentStatus,
		&agentStatusForAgents,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}

	ws.AdvancedModuleFeatures.EnableAgentStatus = agentStatus != 0
	ws.GeneralConfigs.EnableAgentStatusForAgents = agentStatusForAgents != 0
	ws.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	ws.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
	return &ws, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
