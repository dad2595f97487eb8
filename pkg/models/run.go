package models

import (
	"time"
)

// NodeStatus represents the live execution state of one member during a run
type NodeStatus struct {
	MemberID    string        `json:"member_id"`
	Status      NodeRunStatus `json:"status"`
	ExecutionID *string       `json:"execution_id,omitempty"`
	Output      *string       `json:"output,omitempty"`
	Error       *string       `json:"error,omitempty"`
}

// PipelineRun represents one execution of a team's pipeline
type PipelineRun struct {
	ID           string       `json:"id" db:"id"`
	TeamID       string       `json:"team_id" db:"team_id"`
	Status       RunStatus    `json:"status" db:"status"`
	NodeStatuses []NodeStatus `json:"node_statuses" db:"node_statuses"` // JSONB
	InputData    *string      `json:"input_data,omitempty" db:"input_data"`
	StartedAt    time.Time    `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage *string      `json:"error_message,omitempty" db:"error_message"`
}
