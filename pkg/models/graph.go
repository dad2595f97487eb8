package models

// NodeTypeAgent is the type tag the rendering layer uses to pick the agent
// node component. All canvas nodes currently share it.
const NodeTypeAgent = "agent"

// Position is a canvas coordinate pair
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the display payload attached to a derived canvas node
type NodeData struct {
	Label           string         `json:"label"`
	Icon            string         `json:"icon"`
	Color           string         `json:"color"`
	Role            MemberRole     `json:"role"`
	ConnectionCount int            `json:"connection_count"`
	PipelineStatus  *NodeStatus    `json:"pipeline_status,omitempty"`
	HasSuggestion   bool           `json:"has_suggestion"`
	SuggestionType  SuggestionType `json:"suggestion_type,omitempty"`
	DebugStatus     *NodeRunStatus `json:"debug_status,omitempty"`
	HasBreakpoint   *bool          `json:"has_breakpoint,omitempty"`
}

// Node is the visual representation of one team member, recomputed on every
// derivation pass and never persisted
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// EdgeData is the display payload attached to a derived canvas edge.
// IsActive is nil (omitted) when no run has ever produced status entries,
// distinguishing "no run yet" from "run in progress but idle on this edge".
type EdgeData struct {
	Label          string `json:"label"`
	IsActive       *bool  `json:"is_active,omitempty"`
	DebugCompleted *bool  `json:"debug_completed,omitempty"`
	DebugActive    *bool  `json:"debug_active,omitempty"`
	SuggestionID   string `json:"suggestion_id,omitempty"`
}

// Edge is the visual representation of a persisted connection, or of a
// not-yet-accepted suggestion (a "ghost" edge with a "ghost-" prefixed id)
type Edge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       ConnectionType `json:"type"`
	Selectable *bool          `json:"selectable,omitempty"`
	Data       EdgeData       `json:"data"`
}

// Graph is the render-ready output of a canvas derivation pass
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
