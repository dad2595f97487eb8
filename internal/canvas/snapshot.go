// Package canvas derives the render-ready pipeline graph for one team from a
// set of independently-updated collaborator snapshots. The derivation is a
// pure function: it reads the snapshot, allocates a fresh graph, and touches
// nothing else. All reactive update paths (topology edits, live run status,
// optimizer suggestions, edge activation, debug stepping) funnel through the
// single Derive call instead of mutating a shared graph.
package canvas

import (
	"reflect"

	"agentdeck/backend/pkg/models"
)

// SnapFunc snaps a single canvas coordinate, e.g. to a grid. A nil SnapFunc
// leaves coordinates untouched.
type SnapFunc func(float64) float64

// Snapshot aggregates every input the derivation reads. Collaborators must
// hand over internally-consistent values; the derivation never fetches.
//
// An empty TeamID means no team is selected and short-circuits to an empty
// graph before any synthesis work.
type Snapshot struct {
	TeamID      string
	Members     []models.TeamMember
	Connections []models.TeamConnection
	Personas    []models.Persona
	Statuses    []models.NodeStatus
	Analytics   *models.PipelineAnalytics
	Dismissed   map[string]bool
	Debug       *models.DebugSession
	Snap        SnapFunc
}

// equal reports whether two snapshots are structurally identical. The Snap
// function is deliberately excluded: it is configuration fixed for the life
// of a Deriver, not data, and Go functions have no useful equality.
func (s Snapshot) equal(o Snapshot) bool {
	return s.TeamID == o.TeamID &&
		reflect.DeepEqual(s.Members, o.Members) &&
		reflect.DeepEqual(s.Connections, o.Connections) &&
		reflect.DeepEqual(s.Personas, o.Personas) &&
		reflect.DeepEqual(s.Statuses, o.Statuses) &&
		reflect.DeepEqual(s.Analytics, o.Analytics) &&
		reflect.DeepEqual(s.Dismissed, o.Dismissed) &&
		reflect.DeepEqual(s.Debug, o.Debug)
}

// Deriver memoizes Derive on structural snapshot identity. Recomputation is
// synchronous and single-threaded by contract, so a second derivation can
// never interleave with the first; callers that share a Deriver across
// goroutines must serialize access themselves.
type Deriver struct {
	last    Snapshot
	lastOut *models.Graph
}

// NewDeriver returns an empty Deriver. The first Derive call always computes.
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive returns the graph for s, recomputing only when s differs
// structurally from the previously derived snapshot.
func (d *Deriver) Derive(s Snapshot) *models.Graph {
	if d.lastOut != nil && d.last.equal(s) {
		return d.lastOut
	}
	out := Derive(s)
	d.last = s
	d.lastOut = out
	return out
}
