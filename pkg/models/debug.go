package models

import (
	"time"
)

// DebugSession is an immutable snapshot of an interactive step-through session.
// Edge keys use the composite form "sourceMemberID->targetMemberID", matching
// the keys the session controller emits while stepping.
type DebugSession struct {
	ID                  string                   `json:"id"`
	TeamID              string                   `json:"team_id"`
	NodeStatuses        map[string]NodeRunStatus `json:"node_statuses"`
	BreakpointMemberIDs map[string]bool          `json:"breakpoint_member_ids"`
	CompletedEdgeKeys   map[string]bool          `json:"completed_edge_keys"`
	ActiveEdgeKey       string                   `json:"active_edge_key,omitempty"`
	StartedAt           time.Time                `json:"started_at"`
}

// EdgeKey builds the composite key a debug session uses to track edge progress.
func EdgeKey(sourceMemberID, targetMemberID string) string {
	return sourceMemberID + "->" + targetMemberID
}
