package canvas

import (
	"agentdeck/backend/pkg/models"
)

// Fallback grid used for members without persisted coordinates: four columns,
// row-major in member list order.
const (
	gridColumns  = 4
	gridBaseX    = 100.0
	gridBaseY    = 80.0
	gridSpacingX = 220.0
	gridSpacingY = 140.0
)

// Placeholder identity for members whose persona is missing from the
// registry snapshot (deleted persona, partially-loaded data).
const (
	placeholderLabel = "Agent"
	placeholderColor = "#6366f1"
)

// synthesizeNodes produces exactly one node per member, in member list order.
// Construction never fails: every missing input degrades to a typed default.
func synthesizeNodes(s Snapshot, idx indexes) []models.Node {
	nodes := make([]models.Node, 0, len(s.Members))

	for i, m := range s.Members {
		data := models.NodeData{
			Label: placeholderLabel,
			Color: placeholderColor,
			Role:  models.MemberRoleWorker,
			// Team-wide edge-density cue, identical on every node.
			ConnectionCount: len(s.Connections),
		}

		if p, ok := idx.personaByID[m.PersonaID]; ok {
			data.Label = p.Name
			data.Color = p.Color
			if p.Icon != nil {
				data.Icon = *p.Icon
			}
		}

		if m.Role != "" {
			data.Role = m.Role
		}

		if st, ok := idx.statusByMemberID[m.ID]; ok {
			stCopy := st
			data.PipelineStatus = &stCopy
		}

		for _, sug := range idx.activeSuggestions {
			if !containsID(sug.AffectedMemberIDs, m.ID) {
				continue
			}
			if !data.HasSuggestion {
				// First-listed suggestion wins; the optimizer emits
				// them sorted by confidence descending.
				data.SuggestionType = sug.SuggestionType
			}
			data.HasSuggestion = true
		}

		if s.Debug != nil {
			if ds, ok := s.Debug.NodeStatuses[m.ID]; ok {
				dsCopy := ds
				data.DebugStatus = &dsCopy
			}
			hasBP := s.Debug.BreakpointMemberIDs[m.ID]
			data.HasBreakpoint = &hasBP
		}

		nodes = append(nodes, models.Node{
			ID:       m.ID,
			Type:     models.NodeTypeAgent,
			Position: nodePosition(m, i, s.Snap),
			Data:     data,
		})
	}

	return nodes
}

// nodePosition uses the persisted coordinates when both are present,
// otherwise a deterministic grid slot passed through the snapping function.
func nodePosition(m models.TeamMember, index int, snap SnapFunc) models.Position {
	if m.PositionX != nil && m.PositionY != nil {
		return models.Position{X: *m.PositionX, Y: *m.PositionY}
	}

	col := index % gridColumns
	row := index / gridColumns
	x := gridBaseX + float64(col)*gridSpacingX
	y := gridBaseY + float64(row)*gridSpacingY
	if snap != nil {
		x = snap(x)
		y = snap(y)
	}
	return models.Position{X: x, Y: y}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
