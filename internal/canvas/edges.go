package canvas

import (
	"agentdeck/backend/pkg/models"
)

// ghostIDPrefix namespaces suggestion-derived edges away from persisted
// connection ids so the two can never collide.
const ghostIDPrefix = "ghost-"

// DefaultGhostConnectionType is used when a suggestion proposes a connection
// without naming its type.
const DefaultGhostConnectionType = models.ConnectionTypeParallel

// synthesizeRealEdges produces one edge per persisted connection.
//
// IsActive is computed only when at least one status entry exists this pass;
// otherwise the field stays nil so the renderer can tell "no run yet" apart
// from "run in progress but not flowing here". Activation is a one-hop
// heuristic: the edge lights up while its source has completed and its target
// is running. A value that has already passed further downstream is not
// modeled as in flight.
func synthesizeRealEdges(s Snapshot, idx indexes) []models.Edge {
	edges := make([]models.Edge, 0, len(s.Connections))
	haveStatuses := len(s.Statuses) > 0

	for _, c := range s.Connections {
		connType := c.ConnectionType
		if connType == "" {
			connType = models.ConnectionTypeSequential
		}

		data := models.EdgeData{}
		if c.Label != nil {
			data.Label = *c.Label
		}

		if haveStatuses {
			src, srcOK := idx.statusByMemberID[c.SourceMemberID]
			dst, dstOK := idx.statusByMemberID[c.TargetMemberID]
			active := srcOK && dstOK &&
				src.Status == models.NodeRunStatusCompleted &&
				dst.Status == models.NodeRunStatusRunning
			data.IsActive = &active
		}

		if s.Debug != nil {
			key := models.EdgeKey(c.SourceMemberID, c.TargetMemberID)
			completed := s.Debug.CompletedEdgeKeys[key]
			activeNow := key == s.Debug.ActiveEdgeKey && key != ""
			data.DebugCompleted = &completed
			data.DebugActive = &activeNow
		}

		edges = append(edges, models.Edge{
			ID:     c.ID,
			Source: c.SourceMemberID,
			Target: c.TargetMemberID,
			Type:   connType,
			Data:   data,
		})
	}

	return edges
}

// synthesizeGhostEdges turns active suggestions that propose a concrete new
// connection into non-selectable overlay edges. A ghost is suppressed when a
// persisted connection already joins the exact (source, target) ordered pair;
// a connection in the opposite direction does not suppress it, and connection
// type is ignored for the comparison. Suggestions referencing members no
// longer on the team (stale analytics) are skipped.
func synthesizeGhostEdges(s Snapshot, idx indexes) []models.Edge {
	existing := make(map[[2]string]bool, len(s.Connections))
	for _, c := range s.Connections {
		existing[[2]string{c.SourceMemberID, c.TargetMemberID}] = true
	}

	var ghosts []models.Edge
	for _, sug := range idx.activeSuggestions {
		if sug.SuggestedSource == nil || sug.SuggestedTarget == nil {
			continue
		}
		src, dst := *sug.SuggestedSource, *sug.SuggestedTarget
		if !idx.memberIDs[src] || !idx.memberIDs[dst] {
			continue
		}
		if existing[[2]string{src, dst}] {
			continue
		}

		connType := DefaultGhostConnectionType
		if sug.SuggestedConnectionType != nil {
			connType = *sug.SuggestedConnectionType
		}

		selectable := false
		ghosts = append(ghosts, models.Edge{
			ID:         ghostIDPrefix + sug.ID,
			Source:     src,
			Target:     dst,
			Type:       connType,
			Selectable: &selectable,
			Data: models.EdgeData{
				SuggestionID: sug.ID,
			},
		})
	}

	return ghosts
}
