package canvas

import (
	"agentdeck/backend/pkg/models"
)

// indexes holds the O(1) lookup structures and the pre-filtered suggestion
// list every synthesizer shares. Built once per derivation pass.
type indexes struct {
	personaByID       map[string]models.Persona
	statusByMemberID  map[string]models.NodeStatus
	memberIDs         map[string]bool
	activeSuggestions []models.TopologySuggestion
}

// buildIndexes converts the list-shaped snapshot inputs into id-keyed maps
// and drops dismissed suggestions while preserving their relative order.
// Lookups on the maps fail silently (ok=false); callers supply defaults.
func buildIndexes(s Snapshot) indexes {
	idx := indexes{
		personaByID:      make(map[string]models.Persona, len(s.Personas)),
		statusByMemberID: make(map[string]models.NodeStatus, len(s.Statuses)),
		memberIDs:        make(map[string]bool, len(s.Members)),
	}

	for _, p := range s.Personas {
		idx.personaByID[p.ID] = p
	}
	for _, m := range s.Members {
		idx.memberIDs[m.ID] = true
	}
	for _, st := range s.Statuses {
		idx.statusByMemberID[st.MemberID] = st
	}

	if s.Analytics != nil {
		for _, sug := range s.Analytics.Suggestions {
			if s.Dismissed[sug.ID] {
				continue
			}
			idx.activeSuggestions = append(idx.activeSuggestions, sug)
		}
	}

	return idx
}
