package models

import (
	"time"
)

// Team represents a named execution graph of agent members
type Team struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Icon        *string   `json:"icon,omitempty" db:"icon"`
	Color       string    `json:"color" db:"color"`
	Enabled     bool      `json:"enabled" db:"enabled"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TeamMember represents a persona placed on a team's canvas.
// PositionX/PositionY are nil until the user has dragged the node at least once;
// the canvas falls back to a deterministic grid position for unplaced members.
type TeamMember struct {
	ID        string     `json:"id" db:"id"`
	TeamID    string     `json:"team_id" db:"team_id"`
	PersonaID string     `json:"persona_id" db:"persona_id"`
	Role      MemberRole `json:"role,omitempty" db:"role"`
	PositionX *float64   `json:"position_x,omitempty" db:"position_x"`
	PositionY *float64   `json:"position_y,omitempty" db:"position_y"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// TeamConnection represents a persisted directed edge between two team members
type TeamConnection struct {
	ID             string         `json:"id" db:"id"`
	TeamID         string         `json:"team_id" db:"team_id"`
	SourceMemberID string         `json:"source_member_id" db:"source_member_id"`
	TargetMemberID string         `json:"target_member_id" db:"target_member_id"`
	ConnectionType ConnectionType `json:"connection_type,omitempty" db:"connection_type"`
	Label          *string        `json:"label,omitempty" db:"label"`
	Condition      *string        `json:"condition,omitempty" db:"condition"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// TeamCounts is a batch query result used by team list views
type TeamCounts struct {
	TeamID          string `json:"team_id" db:"team_id"`
	MemberCount     int    `json:"member_count" db:"member_count"`
	ConnectionCount int    `json:"connection_count" db:"connection_count"`
}
