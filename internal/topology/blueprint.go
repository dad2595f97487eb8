package topology

import (
	"fmt"
	"strings"

	"agentdeck/backend/pkg/models"
)

// Blueprint is a suggested starting topology for a team, generated from a
// natural-language description of what the pipeline should do.
type Blueprint struct {
	Members     []BlueprintMember     `json:"members"`
	Connections []BlueprintConnection `json:"connections"`
	Description string                `json:"description"`
}

// BlueprintMember is a persona pick with an inferred role and a layout slot.
type BlueprintMember struct {
	PersonaID   string            `json:"persona_id"`
	PersonaName string            `json:"persona_name"`
	Role        models.MemberRole `json:"role"`
	PositionX   float64           `json:"position_x"`
	PositionY   float64           `json:"position_y"`
}

// BlueprintConnection wires two blueprint members by index; members are not
// persisted yet so there are no ids to reference.
type BlueprintConnection struct {
	SourceIndex    int                   `json:"source_index"`
	TargetIndex    int                   `json:"target_index"`
	ConnectionType models.ConnectionType `json:"connection_type"`
}

// Role hint keywords searched across a persona's name, description and
// system prompt.
var (
	orchestratorKeywords = []string{"orchestrat", "coordinat", "manag", "plan", "direct", "lead"}
	reviewerKeywords     = []string{"review", "check", "audit", "qualit", "inspect", "validat", "verify", "approv"}
	routerKeywords       = []string{"rout", "dispatch", "triag", "classif", "sort", "filter"}
)

// domainKeywords maps an intent domain to the terms that indicate it, used to
// match personas against the user's query.
var domainKeywords = [][]string{
	{"code", "program", "develop", "software", "engineer", "implement"},
	{"test", "qa", "quality", "assert", "spec", "unit test"},
	{"review", "critique", "feedback", "check", "audit"},
	{"write", "draft", "author", "content", "copy", "document"},
	{"research", "investigat", "analyz", "study", "explor"},
	{"design", "architect", "plan", "blueprint", "structure"},
	{"data", "analyt", "etl", "transform", "pipeline", "process"},
	{"deploy", "release", "publish", "ship", "ci/cd"},
	{"support", "help", "assist", "troubleshoot", "debug"},
	{"translat", "locali", "i18n", "language"},
	{"summari", "digest", "condense", "tldr", "brief"},
	{"edit", "proofread", "polish", "refine", "rewrite"},
}

func personaSearchable(p models.Persona) string {
	desc := ""
	if p.Description != nil {
		desc = *p.Description
	}
	return strings.ToLower(p.Name + " " + desc + " " + p.SystemPrompt)
}

func scorePersona(p models.Persona, queryLower string) float64 {
	nameLower := strings.ToLower(p.Name)
	searchable := personaSearchable(p)

	var score float64

	for _, word := range strings.Fields(nameLower) {
		if len(word) >= 3 && strings.Contains(queryLower, word) {
			score += 5
		}
	}

	for _, keywords := range domainKeywords {
		queryHas := containsAny(queryLower, keywords)
		personaHas := containsAny(searchable, keywords)
		if queryHas && personaHas {
			score += 3
			if containsAny(nameLower, keywords) {
				score += 2
			}
		}
	}

	for _, qw := range strings.Fields(queryLower) {
		if len(qw) >= 3 && strings.Contains(searchable, qw) {
			score++
		}
	}

	return score
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// InferRole guesses the pipeline role a persona should fill from its
// self-description. Falls back to worker.
func InferRole(p models.Persona) models.MemberRole {
	searchable := personaSearchable(p)
	switch {
	case containsAny(searchable, orchestratorKeywords):
		return models.MemberRoleOrchestrator
	case containsAny(searchable, reviewerKeywords):
		return models.MemberRoleReviewer
	case containsAny(searchable, routerKeywords):
		return models.MemberRoleRouter
	default:
		return models.MemberRoleWorker
	}
}

// SuggestTopology picks the personas best matching the query, assigns roles,
// auto-wires connections based on those roles and lays the result out.
// Personas already on the team are excluded.
func SuggestTopology(query string, personas []models.Persona, existingMemberIDs []string) Blueprint {
	queryLower := strings.ToLower(query)

	existing := make(map[string]bool, len(existingMemberIDs))
	for _, id := range existingMemberIDs {
		existing[id] = true
	}

	type scored struct {
		index int
		score float64
	}
	var candidates []scored
	for i, p := range personas {
		if existing[p.ID] || !p.Enabled {
			continue
		}
		candidates = append(candidates, scored{index: i, score: scorePersona(p, queryLower)})
	}

	// Stable selection: sort by score descending, keeping input order on ties.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	var selected []int
	for _, c := range candidates {
		if c.score > 0 && len(selected) < 5 {
			selected = append(selected, c.index)
		}
	}

	if len(selected) == 0 {
		// No keyword match: fall back to up to 3 enabled personas in input order.
		for _, c := range candidates {
			if len(selected) == 3 {
				break
			}
			selected = append(selected, c.index)
		}
	}

	return buildBlueprint(personas, selected)
}

func buildBlueprint(personas []models.Persona, selectedIndices []int) Blueprint {
	if len(selectedIndices) == 0 {
		return Blueprint{
			Members:     []BlueprintMember{},
			Connections: []BlueprintConnection{},
			Description: "No matching agents found. Create some agents first, then try again.",
		}
	}

	members := make([]BlueprintMember, 0, len(selectedIndices))
	roleCounts := make(map[models.MemberRole]int)

	for _, idx := range selectedIndices {
		p := personas[idx]
		role := InferRole(p)
		// At most one orchestrator per blueprint.
		if role == models.MemberRoleOrchestrator && roleCounts[role] > 0 {
			role = models.MemberRoleWorker
		}
		roleCounts[role]++

		members = append(members, BlueprintMember{
			PersonaID:   p.ID,
			PersonaName: p.Name,
			Role:        role,
		})
	}

	connections := wireConnections(members)

	edges := make([][2]int, 0, len(connections))
	for _, c := range connections {
		edges = append(edges, [2]int{c.SourceIndex, c.TargetIndex})
	}
	positions := ComputeDAGLayout(len(members), edges, 180, 70, 60, 100)
	for i := range members {
		members[i].PositionX = positions[i][0]
		members[i].PositionY = positions[i][1]
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.PersonaName)
	}

	return Blueprint{
		Members:     members,
		Connections: connections,
		Description: fmt.Sprintf(
			"Suggested pipeline with %d agents: %s. Connections auto-wired based on agent roles.",
			len(members), strings.Join(names, ", "),
		),
	}
}

// wireConnections derives the starting edge set from member roles: a star
// around the orchestrator when one exists, otherwise a sequential chain of
// routers, workers, then reviewers, with a reviewer feedback edge.
func wireConnections(members []BlueprintMember) []BlueprintConnection {
	connections := []BlueprintConnection{}
	if len(members) <= 1 {
		return connections
	}

	var orchestrators, reviewers, workers, routers []int
	for i, m := range members {
		switch m.Role {
		case models.MemberRoleOrchestrator:
			orchestrators = append(orchestrators, i)
		case models.MemberRoleReviewer:
			reviewers = append(reviewers, i)
		case models.MemberRoleRouter:
			routers = append(routers, i)
		default:
			workers = append(workers, i)
		}
	}

	if len(orchestrators) > 0 {
		orch := orchestrators[0]
		for _, w := range workers {
			connections = append(connections, BlueprintConnection{
				SourceIndex: orch, TargetIndex: w, ConnectionType: models.ConnectionTypeSequential,
			})
		}
		for _, r := range routers {
			connections = append(connections, BlueprintConnection{
				SourceIndex: orch, TargetIndex: r, ConnectionType: models.ConnectionTypeSequential,
			})
		}
		for _, w := range workers {
			for _, rev := range reviewers {
				connections = append(connections, BlueprintConnection{
					SourceIndex: w, TargetIndex: rev, ConnectionType: models.ConnectionTypeSequential,
				})
			}
		}
		for _, rev := range reviewers {
			connections = append(connections, BlueprintConnection{
				SourceIndex: rev, TargetIndex: orch, ConnectionType: models.ConnectionTypeFeedback,
			})
		}
		return connections
	}

	chain := make([]int, 0, len(members))
	chain = append(chain, routers...)
	chain = append(chain, workers...)
	chain = append(chain, reviewers...)
	if len(chain) == 0 {
		for i := range members {
			chain = append(chain, i)
		}
	}

	for i := 0; i+1 < len(chain); i++ {
		connections = append(connections, BlueprintConnection{
			SourceIndex: chain[i], TargetIndex: chain[i+1], ConnectionType: models.ConnectionTypeSequential,
		})
	}

	if len(reviewers) > 0 && len(workers) > 0 {
		connections = append(connections, BlueprintConnection{
			SourceIndex:    reviewers[len(reviewers)-1],
			TargetIndex:    workers[0],
			ConnectionType: models.ConnectionTypeFeedback,
		})
	}

	return connections
}
