package canvas

import (
	"agentdeck/backend/pkg/models"
)

// Derive computes the current visual graph from the snapshot.
//
// With no team selected it returns an empty graph immediately, skipping index
// building and synthesis. Otherwise it assembles nodes, then real edges, then
// ghost edges; real edges always precede ghosts in the output slice, which
// the renderer relies on for z-ordering. Every call returns freshly allocated
// collections with no aliasing into the snapshot or prior outputs.
func Derive(s Snapshot) *models.Graph {
	if s.TeamID == "" {
		return &models.Graph{Nodes: []models.Node{}, Edges: []models.Edge{}}
	}

	idx := buildIndexes(s)

	nodes := synthesizeNodes(s, idx)
	edges := synthesizeRealEdges(s, idx)
	edges = append(edges, synthesizeGhostEdges(s, idx)...)

	return &models.Graph{Nodes: nodes, Edges: edges}
}
