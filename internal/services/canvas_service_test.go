package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdeck/backend/pkg/models"
)

func canvasFixture(t *testing.T) (*memStore, string, []string) {
	t.Helper()
	ctx := context.Background()
	store := newMemStore()
	ws := &models.Workspace{Name: "Acme", Domain: "acme.test"}
	require.NoError(t, store.CreateWorkspace(ctx, ws))
	team := &models.Team{WorkspaceID: ws.ID, Name: "Pipeline", Enabled: true}
	require.NoError(t, store.CreateTeam(ctx, team))

	var memberIDs []string
	names := []string{"Researcher", "Writer"}
	for _, name := range names {
		p := &models.Persona{WorkspaceID: ws.ID, Name: name, Color: "#0ea5e9", Enabled: true}
		require.NoError(t, store.CreatePersona(ctx, p))
		m := &models.TeamMember{TeamID: team.ID, PersonaID: p.ID, Role: models.MemberRoleWorker}
		require.NoError(t, store.AddMember(ctx, m))
		memberIDs = append(memberIDs, m.ID)
	}
	require.NoError(t, store.AddConnection(ctx, &models.TeamConnection{
		TeamID:         team.ID,
		SourceMemberID: memberIDs[0],
		TargetMemberID: memberIDs[1],
	}))
	return store, team.ID, memberIDs
}

func newCanvasFixture(t *testing.T) (*CanvasService, *memStore, string, []string) {
	t.Helper()
	store, teamID, memberIDs := canvasFixture(t)
	runs := NewRunService(store)
	debug := NewDebugService()
	return NewCanvasService(store, runs, debug, GridSnap), store, teamID, memberIDs
}

func TestCanvasGraphEmptyTeamID(t *testing.T) {
	svc, _, _, _ := newCanvasFixture(t)
	g, err := svc.Graph(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestCanvasGraphSynthesizesTeam(t *testing.T) {
	svc, _, teamID, memberIDs := newCanvasFixture(t)
	g, err := svc.Graph(context.Background(), teamID, "")
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, memberIDs[0], g.Nodes[0].ID)
	assert.Equal(t, "Researcher", g.Nodes[0].Data.Label)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, memberIDs[0], g.Edges[0].Source)
}

func TestCanvasGraphMemoizesPerTeam(t *testing.T) {
	svc, _, teamID, _ := newCanvasFixture(t)
	ctx := context.Background()

	first, err := svc.Graph(ctx, teamID, "")
	require.NoError(t, err)
	second, err := svc.Graph(ctx, teamID, "")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCanvasGraphRecomputesAfterEdit(t *testing.T) {
	svc, store, teamID, memberIDs := newCanvasFixture(t)
	ctx := context.Background()

	first, err := svc.Graph(ctx, teamID, "")
	require.NoError(t, err)

	require.NoError(t, store.UpdateMemberPosition(ctx, memberIDs[0], 300, 400))
	second, err := svc.Graph(ctx, teamID, "")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 300.0, second.Nodes[0].Position.X)
}

func TestCanvasGraphAttachesDebugSession(t *testing.T) {
	store, teamID, _ := canvasFixture(t)
	runs := NewRunService(store)
	debug := NewDebugService()
	svc := NewCanvasService(store, runs, debug, GridSnap)
	ctx := context.Background()

	members, err := store.ListMembers(ctx, teamID)
	require.NoError(t, err)
	connections, err := store.ListConnections(ctx, teamID)
	require.NoError(t, err)
	sess, err := debug.Start(teamID, members, connections)
	require.NoError(t, err)
	_, err = debug.Step(sess.ID)
	require.NoError(t, err)

	g, err := svc.Graph(ctx, teamID, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, g.Nodes[0].Data.DebugStatus)
	assert.Equal(t, models.NodeRunStatusRunning, *g.Nodes[0].Data.DebugStatus)
	require.NotNil(t, g.Nodes[0].Data.HasBreakpoint)

	// A session id belonging to another team is ignored.
	other := &models.Team{WorkspaceID: "elsewhere", Name: "Other", Enabled: true}
	require.NoError(t, store.CreateTeam(ctx, other))
	m := &models.TeamMember{TeamID: other.ID, PersonaID: "px"}
	require.NoError(t, store.AddMember(ctx, m))
	foreign, err := debug.Start(other.ID, []models.TeamMember{*m}, nil)
	require.NoError(t, err)

	g, err = svc.Graph(ctx, teamID, foreign.ID)
	require.NoError(t, err)
	assert.Nil(t, g.Nodes[0].Data.DebugStatus)
}

func TestCanvasAnalyticsFiltersDismissed(t *testing.T) {
	svc, store, teamID, memberIDs := newCanvasFixture(t)
	ctx := context.Background()

	// Two runs where the first member keeps failing: enough for suggestions.
	for i := 0; i < 3; i++ {
		started := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		completed := started.Add(20 * time.Second)
		require.NoError(t, store.CreateRun(ctx, &models.PipelineRun{
			TeamID:      teamID,
			Status:      models.RunStatusFailed,
			StartedAt:   started,
			CompletedAt: &completed,
			NodeStatuses: []models.NodeStatus{
				{MemberID: memberIDs[0], Status: models.NodeRunStatusFailed},
			},
		}))
	}

	analytics, err := svc.Analytics(ctx, teamID)
	require.NoError(t, err)
	require.NotEmpty(t, analytics.Suggestions)
	dismissedID := analytics.Suggestions[0].ID
	require.NoError(t, store.DismissSuggestion(ctx, teamID, dismissedID))

	analytics, err = svc.Analytics(ctx, teamID)
	require.NoError(t, err)
	for _, sg := range analytics.Suggestions {
		assert.NotEqual(t, dismissedID, sg.ID)
	}
}
