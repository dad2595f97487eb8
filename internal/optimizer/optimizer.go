// Package optimizer computes pipeline analytics from recorded runs and
// generates topology suggestions. All rules are deterministic arithmetic over
// run outcomes; suggestion ids are stable per team and position so dismissals
// survive recomputation.
package optimizer

import (
	"fmt"
	"sort"

	"agentdeck/backend/internal/topology"
	"agentdeck/backend/pkg/models"
)

// minRunsForSuggestions gates all suggestion rules: a single run is not a
// trend.
const minRunsForSuggestions = 2

// Analyze builds the full analytics report for one team from its recorded
// runs and current topology.
func Analyze(teamID string, runs []models.PipelineRun, members []models.TeamMember, connections []models.TeamConnection) *models.PipelineAnalytics {
	totalRuns := int64(len(runs))
	var completedRuns, failedRuns int64
	for _, r := range runs {
		switch r.Status {
		case models.RunStatusCompleted:
			completedRuns++
		case models.RunStatusFailed:
			failedRuns++
		}
	}

	var successRate float64
	if totalRuns > 0 {
		successRate = float64(completedRuns) / float64(totalRuns)
	}

	nodeAnalytics := computeNodeAnalytics(runs, members)

	return &models.PipelineAnalytics{
		TeamID:          teamID,
		TotalRuns:       totalRuns,
		CompletedRuns:   completedRuns,
		FailedRuns:      failedRuns,
		SuccessRate:     successRate,
		AvgDurationSecs: averageDurationSecs(runs),
		NodeAnalytics:   nodeAnalytics,
		Suggestions:     generateSuggestions(teamID, nodeAnalytics, members, connections, totalRuns),
	}
}

func averageDurationSecs(runs []models.PipelineRun) float64 {
	var sum float64
	var count int
	for _, r := range runs {
		if r.CompletedAt == nil {
			continue
		}
		d := r.CompletedAt.Sub(r.StartedAt).Seconds()
		if d < 0 {
			continue
		}
		sum += d
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func computeNodeAnalytics(runs []models.PipelineRun, members []models.TeamMember) []models.NodeAnalytics {
	type stats struct {
		total, successes, failures int64
	}
	byMember := make(map[string]*stats, len(members))
	for _, m := range members {
		byMember[m.ID] = &stats{}
	}

	for _, run := range runs {
		for _, entry := range run.NodeStatuses {
			st, ok := byMember[entry.MemberID]
			if !ok {
				// Member since removed from the team.
				continue
			}
			st.total++
			switch entry.Status {
			case models.NodeRunStatusCompleted:
				st.successes++
			case models.NodeRunStatusFailed:
				st.failures++
			}
		}
	}

	out := make([]models.NodeAnalytics, 0, len(members))
	for _, m := range members {
		st := byMember[m.ID]
		var rate float64
		if st.total > 0 {
			rate = float64(st.successes) / float64(st.total)
		}
		out = append(out, models.NodeAnalytics{
			MemberID:    m.ID,
			PersonaID:   m.PersonaID,
			TotalRuns:   st.total,
			Successes:   st.successes,
			Failures:    st.failures,
			SuccessRate: rate,
		})
	}
	return out
}

func generateSuggestions(teamID string, nodeAnalytics []models.NodeAnalytics, members []models.TeamMember, connections []models.TeamConnection, totalRuns int64) []models.TopologySuggestion {
	suggestions := []models.TopologySuggestion{}
	if totalRuns < minRunsForSuggestions {
		return suggestions
	}

	idx := 0
	nextID := func() string {
		id := fmt.Sprintf("%s-suggestion-%d", teamID, idx)
		idx++
		return id
	}

	// Underperforming members.
	for _, na := range nodeAnalytics {
		if na.TotalRuns < 2 || na.SuccessRate >= 0.5 {
			continue
		}
		impact := models.SuggestionImpactMedium
		if na.SuccessRate < 0.25 {
			impact = models.SuggestionImpactHigh
		}
		confidence := 1 - na.SuccessRate
		if confidence > 0.95 {
			confidence = 0.95
		}
		suggestions = append(suggestions, models.TopologySuggestion{
			ID:             nextID(),
			SuggestionType: models.SuggestionTypeRemoveUnderperformer,
			Title:          "Underperforming Agent",
			Description: fmt.Sprintf(
				"Agent %s has a %.0f%% success rate across %d runs. Consider removing or replacing it.",
				na.PersonaID, na.SuccessRate*100, na.TotalRuns,
			),
			Confidence:        confidence,
			Impact:            impact,
			AffectedMemberIDs: []string{na.MemberID},
		})
	}

	// Parallelization opportunities.
	connType := models.ConnectionTypeParallel
	for _, pair := range findParallelizablePairs(members, connections) {
		source, target := pair[0], pair[1]
		suggestions = append(suggestions, models.TopologySuggestion{
			ID:                      nextID(),
			SuggestionType:          models.SuggestionTypeParallelize,
			Title:                   "Parallel Execution",
			Description:             "These agents have no data dependency. Running them in parallel could reduce total pipeline duration.",
			Confidence:              0.75,
			Impact:                  models.SuggestionImpactHigh,
			AffectedMemberIDs:       []string{source, target},
			SuggestedSource:         &source,
			SuggestedTarget:         &target,
			SuggestedConnectionType: &connType,
		})
	}

	// Reviewers without a feedback loop.
	feedbackType := models.ConnectionTypeFeedback
	for _, m := range members {
		if m.Role != models.MemberRoleReviewer {
			continue
		}
		hasFeedbackOut := false
		for _, c := range connections {
			if c.SourceMemberID == m.ID && c.ConnectionType == models.ConnectionTypeFeedback {
				hasFeedbackOut = true
				break
			}
		}
		if hasFeedbackOut {
			continue
		}
		var upstream string
		for _, c := range connections {
			if c.TargetMemberID == m.ID {
				upstream = c.SourceMemberID
				break
			}
		}
		if upstream == "" {
			continue
		}
		src := m.ID
		dst := upstream
		suggestions = append(suggestions, models.TopologySuggestion{
			ID:                      nextID(),
			SuggestionType:          models.SuggestionTypeAddFeedback,
			Title:                   "Add Feedback Loop",
			Description:             "This reviewer agent has no feedback connection back to its source. Adding one enables iterative refinement.",
			Confidence:              0.6,
			Impact:                  models.SuggestionImpactMedium,
			AffectedMemberIDs:       []string{m.ID, upstream},
			SuggestedSource:         &src,
			SuggestedTarget:         &dst,
			SuggestedConnectionType: &feedbackType,
		})
	}

	// Isolated members.
	connected := make(map[string]bool, len(connections)*2)
	for _, c := range connections {
		connected[c.SourceMemberID] = true
		connected[c.TargetMemberID] = true
	}
	for _, m := range members {
		if len(members) > 1 && !connected[m.ID] {
			suggestions = append(suggestions, models.TopologySuggestion{
				ID:                nextID(),
				SuggestionType:    models.SuggestionTypeConnectIsolated,
				Title:             "Isolated Agent",
				Description:       "This agent has no connections. Connect it to receive input from another agent or feed output downstream.",
				Confidence:        0.9,
				Impact:            models.SuggestionImpactHigh,
				AffectedMemberIDs: []string{m.ID},
			})
		}
	}

	// High-failure members early in the chain block everything downstream.
	analyticsByMember := make(map[string]models.NodeAnalytics, len(nodeAnalytics))
	for _, na := range nodeAnalytics {
		analyticsByMember[na.MemberID] = na
	}
	order := executionOrder(members, connections)
	for i, memberID := range order {
		if i >= len(order)/2 {
			break
		}
		na, ok := analyticsByMember[memberID]
		if !ok || na.TotalRuns < 3 || na.SuccessRate >= 0.6 {
			continue
		}
		suggestions = append(suggestions, models.TopologySuggestion{
			ID:             nextID(),
			SuggestionType: models.SuggestionTypeReorder,
			Title:          "Reorder Pipeline",
			Description: fmt.Sprintf(
				"This agent fails %.0f%% of the time and runs early in the pipeline, blocking downstream agents. Consider moving it later or adding conditional branching.",
				(1-na.SuccessRate)*100,
			),
			Confidence:        0.55,
			Impact:            models.SuggestionImpactMedium,
			AffectedMemberIDs: []string{memberID},
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	return suggestions
}

// findParallelizablePairs returns sibling pairs (children of the same parent)
// with no reachability between them in either direction, ordered pairs
// normalized lexicographically and de-duplicated.
func findParallelizablePairs(members []models.TeamMember, connections []models.TeamConnection) [][2]string {
	if len(members) < 2 {
		return nil
	}

	adjacency := make(map[string][]string, len(members))
	for _, m := range members {
		adjacency[m.ID] = nil
	}
	childrenOf := make(map[string][]string)
	for _, c := range connections {
		if _, ok := adjacency[c.SourceMemberID]; ok {
			adjacency[c.SourceMemberID] = append(adjacency[c.SourceMemberID], c.TargetMemberID)
		}
		childrenOf[c.SourceMemberID] = append(childrenOf[c.SourceMemberID], c.TargetMemberID)
	}

	reachable := make(map[string]map[string]bool, len(members))
	for _, m := range members {
		visited := make(map[string]bool)
		queue := []string{m.ID}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			if visited[node] {
				continue
			}
			visited[node] = true
			queue = append(queue, adjacency[node]...)
		}
		delete(visited, m.ID)
		reachable[m.ID] = visited
	}

	// Deterministic parent order keeps suggestion ids stable across calls.
	parents := make([]string, 0, len(childrenOf))
	for p := range childrenOf {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	seen := make(map[[2]string]bool)
	var pairs [][2]string
	for _, parent := range parents {
		children := childrenOf[parent]
		if len(children) < 2 {
			continue
		}
		for i := 0; i < len(children); i++ {
			for j := i + 1; j < len(children); j++ {
				a, b := children[i], children[j]
				if reachable[a][b] || reachable[b][a] {
					continue
				}
				pair := [2]string{a, b}
				if b < a {
					pair = [2]string{b, a}
				}
				if seen[pair] {
					continue
				}
				seen[pair] = true
				pairs = append(pairs, pair)
			}
		}
	}

	return pairs
}

// executionOrder is the topological order of the team graph; cycle members
// are appended at the end in member list order.
func executionOrder(members []models.TeamMember, connections []models.TeamConnection) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	edges := make([][2]string, 0, len(connections))
	for _, c := range connections {
		edges = append(edges, [2]string{c.SourceMemberID, c.TargetMemberID})
	}

	res := topology.NewNamedGraph(ids, edges).TopologicalSort()
	order := res.Order
	inOrder := make(map[string]bool, len(order))
	for _, id := range order {
		inOrder[id] = true
	}
	for _, id := range ids {
		if !inOrder[id] {
			order = append(order, id)
		}
	}
	return order
}
