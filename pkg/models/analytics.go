package models

// NodeAnalytics aggregates per-member outcomes across recorded runs
type NodeAnalytics struct {
	MemberID    string  `json:"member_id"`
	PersonaID   string  `json:"persona_id"`
	TotalRuns   int64   `json:"total_runs"`
	Successes   int64   `json:"successes"`
	Failures    int64   `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
}

// TopologySuggestion is an optimizer-proposed change to a team's topology.
// SuggestedSource/SuggestedTarget are set only for suggestions that propose a
// concrete new connection; those are the ones the canvas renders as ghost edges.
type TopologySuggestion struct {
	ID                      string           `json:"id"`
	SuggestionType          SuggestionType   `json:"suggestion_type"`
	Title                   string           `json:"title"`
	Description             string           `json:"description"`
	Confidence              float64          `json:"confidence"`
	Impact                  SuggestionImpact `json:"impact"`
	AffectedMemberIDs       []string         `json:"affected_member_ids"`
	SuggestedSource         *string          `json:"suggested_source,omitempty"`
	SuggestedTarget         *string          `json:"suggested_target,omitempty"`
	SuggestedConnectionType *ConnectionType  `json:"suggested_connection_type,omitempty"`
}

// PipelineAnalytics is the full analytics report for one team
type PipelineAnalytics struct {
	TeamID          string               `json:"team_id"`
	TotalRuns       int64                `json:"total_runs"`
	CompletedRuns   int64                `json:"completed_runs"`
	FailedRuns      int64                `json:"failed_runs"`
	SuccessRate     float64              `json:"success_rate"`
	AvgDurationSecs float64              `json:"avg_duration_secs"`
	NodeAnalytics   []NodeAnalytics      `json:"node_analytics"`
	Suggestions     []TopologySuggestion `json:"suggestions"`
}
