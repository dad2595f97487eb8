package repository

import (
	"context"
	"errors"

	"agentdeck/backend/pkg/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
)

// Store is the persistence contract for the control panel: workspaces,
// personas, team topology and pipeline run history. All reads scope to a
// workspace or team id; cross-workspace access is a caller bug, not a
// repository concern.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error

	// Workspaces
	CreateWorkspace(ctx context.Context, ws *models.Workspace) error
	GetWorkspaceByDomain(ctx context.Context, domain string) (*models.Workspace, error)

	// Personas
	CreatePersona(ctx context.Context, p *models.Persona) error
	ListPersonas(ctx context.Context, workspaceID string) ([]models.Persona, error)

	// Teams
	CreateTeam(ctx context.Context, t *models.Team) error
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	ListTeams(ctx context.Context, workspaceID string) ([]models.Team, error)
	ListTeamCounts(ctx context.Context, workspaceID string) ([]models.TeamCounts, error)
	DeleteTeam(ctx context.Context, teamID string) error

	// Members
	AddMember(ctx context.Context, m *models.TeamMember) error
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
	UpdateMemberPosition(ctx context.Context, memberID string, x, y float64) error
	RemoveMember(ctx context.Context, memberID string) error

	// Connections
	AddConnection(ctx context.Context, c *models.TeamConnection) error
	ListConnections(ctx context.Context, teamID string) ([]models.TeamConnection, error)
	RemoveConnection(ctx context.Context, connectionID string) error

	// Pipeline runs
	CreateRun(ctx context.Context, r *models.PipelineRun) error
	UpdateRun(ctx context.Context, r *models.PipelineRun) error
	ListRecentRuns(ctx context.Context, teamID string, limit int) ([]models.PipelineRun, error)

	// Dismissed suggestions
	DismissSuggestion(ctx context.Context, teamID, suggestionID string) error
	ListDismissedSuggestions(ctx context.Context, teamID string) ([]string, error)
}
