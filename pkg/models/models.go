// Package models defines the domain models for the agentdeck service
package models

// NodeRunStatus represents the live execution state of a single pipeline member
type NodeRunStatus string

const (
	NodeRunStatusIdle      NodeRunStatus = "idle"
	NodeRunStatusQueued    NodeRunStatus = "queued"
	NodeRunStatusRunning   NodeRunStatus = "running"
	NodeRunStatusCompleted NodeRunStatus = "completed"
	NodeRunStatusFailed    NodeRunStatus = "failed"
)

// RunStatus represents the overall state of a pipeline run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// ConnectionType represents how data flows across a connection
type ConnectionType string

const (
	ConnectionTypeSequential  ConnectionType = "sequential"
	ConnectionTypeParallel    ConnectionType = "parallel"
	ConnectionTypeFeedback    ConnectionType = "feedback"
	ConnectionTypeConditional ConnectionType = "conditional"
)

// MemberRole represents the role a member plays inside a team
type MemberRole string

const (
	MemberRoleOrchestrator MemberRole = "orchestrator"
	MemberRoleWorker       MemberRole = "worker"
	MemberRoleReviewer     MemberRole = "reviewer"
	MemberRoleRouter       MemberRole = "router"
)

// SuggestionType represents the kind of topology change the optimizer proposes
type SuggestionType string

const (
	SuggestionTypeRemoveUnderperformer SuggestionType = "remove_underperformer"
	SuggestionTypeParallelize          SuggestionType = "parallelize"
	SuggestionTypeAddFeedback          SuggestionType = "add_feedback"
	SuggestionTypeConnectIsolated      SuggestionType = "connect_isolated"
	SuggestionTypeReorder              SuggestionType = "reorder"
)

// SuggestionImpact represents the expected impact of applying a suggestion
type SuggestionImpact string

const (
	SuggestionImpactLow    SuggestionImpact = "low"
	SuggestionImpactMedium SuggestionImpact = "medium"
	SuggestionImpactHigh   SuggestionImpact = "high"
)

// Persona represents a configured agent identity that can be placed on teams
type Persona struct {
	ID           string  `json:"id" db:"id"`
	WorkspaceID  string  `json:"workspace_id" db:"workspace_id"`
	Name         string  `json:"name" db:"name"`
	Description  *string `json:"description,omitempty" db:"description"`
	SystemPrompt string  `json:"system_prompt" db:"system_prompt"`
	Icon         *string `json:"icon,omitempty" db:"icon"`
	Color        string  `json:"color" db:"color"`
	Enabled      bool    `json:"enabled" db:"enabled"`
}
