package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agentdeck/backend/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS personas (
	id UUID PRIMARY KEY,
	workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	system_prompt TEXT NOT NULL DEFAULT '',
	icon TEXT,
	color TEXT NOT NULL DEFAULT '#6366f1',
	enabled BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS teams (
	id UUID PRIMARY KEY,
	workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	icon TEXT,
	color TEXT NOT NULL DEFAULT '#6366f1',
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS team_members (
	id UUID PRIMARY KEY,
	team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	persona_id UUID NOT NULL,
	role TEXT NOT NULL DEFAULT 'worker',
	position_x DOUBLE PRECISION,
	position_y DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS team_connections (
	id UUID PRIMARY KEY,
	team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	source_member_id UUID NOT NULL REFERENCES team_members(id) ON DELETE CASCADE,
	target_member_id UUID NOT NULL REFERENCES team_members(id) ON DELETE CASCADE,
	connection_type TEXT NOT NULL DEFAULT 'sequential',
	label TEXT,
	condition TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id UUID PRIMARY KEY,
	team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	node_statuses JSONB NOT NULL DEFAULT '[]',
	input_data TEXT,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS dismissed_suggestions (
	team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	suggestion_id TEXT NOT NULL,
	dismissed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (team_id, suggestion_id)
);

CREATE INDEX IF NOT EXISTS idx_team_members_team ON team_members(team_id);
CREATE INDEX IF NOT EXISTS idx_team_connections_team ON team_connections(team_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_team ON pipeline_runs(team_id, started_at DESC);
`

// CreateSchema creates all tables if they do not exist yet.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// CreateWorkspace inserts a workspace, assigning an id when missing.
func (s *PostgresStore) CreateWorkspace(ctx context.Context, ws *models.Workspace) error {
	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO workspaces (id, name, domain) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		ws.ID, ws.Name, ws.Domain,
	).Scan(&ws.CreatedAt, &ws.UpdatedAt)
}

// GetWorkspaceByDomain retrieves the workspace owning an email domain.
func (s *PostgresStore) GetWorkspaceByDomain(ctx context.Context, domain string) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.db.QueryRow(ctx,
		`SELECT id, name, domain, created_at, updated_at FROM workspaces WHERE domain = $1`,
		domain,
	).Scan(&ws.ID, &ws.Name, &ws.Domain, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &ws, nil
}

// CreatePersona inserts a persona, assigning an id when missing.
func (s *PostgresStore) CreatePersona(ctx context.Context, p *models.Persona) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO personas (id, workspace_id, name, description, system_prompt, icon, color, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.WorkspaceID, p.Name, p.Description, p.SystemPrompt, p.Icon, p.Color, p.Enabled,
	)
	return err
}

// ListPersonas returns all personas in a workspace, in name order.
func (s *PostgresStore) ListPersonas(ctx context.Context, workspaceID string) ([]models.Persona, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workspace_id, name, description, system_prompt, icon, color, enabled
		 FROM personas WHERE workspace_id = $1 ORDER BY name`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var personas []models.Persona
	for rows.Next() {
		var p models.Persona
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.SystemPrompt, &p.Icon, &p.Color, &p.Enabled); err != nil {
			return nil, err
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

// CreateTeam inserts a team, assigning an id when missing.
func (s *PostgresStore) CreateTeam(ctx context.Context, t *models.Team) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Color == "" {
		t.Color = "#6366f1"
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO teams (id, workspace_id, name, description, icon, color, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		t.ID, t.WorkspaceID, t.Name, t.Description, t.Icon, t.Color, t.Enabled,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetTeam retrieves a team by id.
func (s *PostgresStore) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	var t models.Team
	err := s.db.QueryRow(ctx,
		`SELECT id, workspace_id, name, description, icon, color, enabled, created_at, updated_at
		 FROM teams WHERE id = $1`,
		teamID,
	).Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Description, &t.Icon, &t.Color, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &t, nil
}

// ListTeams returns all teams in a workspace, newest first.
func (s *PostgresStore) ListTeams(ctx context.Context, workspaceID string) ([]models.Team, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workspace_id, name, description, icon, color, enabled, created_at, updated_at
		 FROM teams WHERE workspace_id = $1 ORDER BY created_at DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Description, &t.Icon, &t.Color, &t.Enabled, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListTeamCounts returns member and connection counts for every team in a
// workspace, for list views that show them without loading full topologies.
func (s *PostgresStore) ListTeamCounts(ctx context.Context, workspaceID string) ([]models.TeamCounts, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id,
		        (SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id),
		        (SELECT COUNT(*) FROM team_connections c WHERE c.team_id = t.id)
		 FROM teams t WHERE t.workspace_id = $1`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.TeamCounts
	for rows.Next() {
		var tc models.TeamCounts
		if err := rows.Scan(&tc.TeamID, &tc.MemberCount, &tc.ConnectionCount); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// DeleteTeam removes a team and, via cascades, its members, connections and
// run history.
func (s *PostgresStore) DeleteTeam(ctx context.Context, teamID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember places a persona on a team's canvas.
func (s *PostgresStore) AddMember(ctx context.Context, m *models.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Role == "" {
		m.Role = models.MemberRoleWorker
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO team_members (id, team_id, persona_id, role, position_x, position_y)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		m.ID, m.TeamID, m.PersonaID, m.Role, m.PositionX, m.PositionY,
	).Scan(&m.CreatedAt)
}

// ListMembers returns a team's members in placement order.
func (s *PostgresStore) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, team_id, persona_id, role, position_x, position_y, created_at
		 FROM team_members WHERE team_id = $1 ORDER BY created_at, id`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.PersonaID, &m.Role, &m.PositionX, &m.PositionY, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateMemberPosition stores the coordinates of a dragged node.
func (s *PostgresStore) UpdateMemberPosition(ctx context.Context, memberID string, x, y float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE team_members SET position_x = $1, position_y = $2 WHERE id = $3`,
		x, y, memberID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember deletes a member; its connections cascade.
func (s *PostgresStore) RemoveMember(ctx context.Context, memberID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM team_members WHERE id = $1`, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddConnection inserts a directed edge between two members.
func (s *PostgresStore) AddConnection(ctx context.Context, c *models.TeamConnection) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.ConnectionType == "" {
		c.ConnectionType = models.ConnectionTypeSequential
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO team_connections (id, team_id, source_member_id, target_member_id, connection_type, label, condition)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		c.ID, c.TeamID, c.SourceMemberID, c.TargetMemberID, c.ConnectionType, c.Label, c.Condition,
	).Scan(&c.CreatedAt)
}

// ListConnections returns a team's connections in creation order.
func (s *PostgresStore) ListConnections(ctx context.Context, teamID string) ([]models.TeamConnection, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, team_id, source_member_id, target_member_id, connection_type, label, condition, created_at
		 FROM team_connections WHERE team_id = $1 ORDER BY created_at, id`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []models.TeamConnection
	for rows.Next() {
		var c models.TeamConnection
		if err := rows.Scan(&c.ID, &c.TeamID, &c.SourceMemberID, &c.TargetMemberID, &c.ConnectionType, &c.Label, &c.Condition, &c.CreatedAt); err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// RemoveConnection deletes a connection by id.
func (s *PostgresStore) RemoveConnection(ctx context.Context, connectionID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM team_connections WHERE id = $1`, connectionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRun records a new pipeline run.
func (s *PostgresStore) CreateRun(ctx context.Context, r *models.PipelineRun) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	statuses, err := json.Marshal(r.NodeStatuses)
	if err != nil {
		return fmt.Errorf("marshal node statuses: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO pipeline_runs (id, team_id, status, node_statuses, input_data, started_at, completed_at, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.TeamID, r.Status, statuses, r.InputData, r.StartedAt, r.CompletedAt, r.ErrorMessage,
	)
	return err
}

// UpdateRun overwrites a run's status, node statuses and completion fields.
func (s *PostgresStore) UpdateRun(ctx context.Context, r *models.PipelineRun) error {
	statuses, err := json.Marshal(r.NodeStatuses)
	if err != nil {
		return fmt.Errorf("marshal node statuses: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE pipeline_runs SET status = $1, node_statuses = $2, completed_at = $3, error_message = $4
		 WHERE id = $5`,
		r.Status, statuses, r.CompletedAt, r.ErrorMessage, r.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecentRuns returns up to limit runs for a team, newest first.
func (s *PostgresStore) ListRecentRuns(ctx context.Context, teamID string, limit int) ([]models.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, team_id, status, node_statuses, input_data, started_at, completed_at, error_message
		 FROM pipeline_runs WHERE team_id = $1 ORDER BY started_at DESC LIMIT $2`,
		teamID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.PipelineRun
	for rows.Next() {
		var r models.PipelineRun
		var statuses []byte
		if err := rows.Scan(&r.ID, &r.TeamID, &r.Status, &statuses, &r.InputData, &r.StartedAt, &r.CompletedAt, &r.ErrorMessage); err != nil {
			return nil, err
		}
		if len(statuses) > 0 {
			if err := json.Unmarshal(statuses, &r.NodeStatuses); err != nil {
				return nil, fmt.Errorf("unmarshal node statuses for run %s: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DismissSuggestion records a suggestion id the user dismissed. Dismissing
// twice is a no-op.
func (s *PostgresStore) DismissSuggestion(ctx context.Context, teamID, suggestionID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO dismissed_suggestions (team_id, suggestion_id) VALUES ($1, $2)
		 ON CONFLICT (team_id, suggestion_id) DO NOTHING`,
		teamID, suggestionID,
	)
	return err
}

// ListDismissedSuggestions returns all dismissed suggestion ids for a team.
func (s *PostgresStore) ListDismissedSuggestions(ctx context.Context, teamID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT suggestion_id FROM dismissed_suggestions WHERE team_id = $1`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
