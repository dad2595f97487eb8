package services

import (
	"context"
	"errors"
	"math"
	"sync"

	"agentdeck/backend/internal/canvas"
	"agentdeck/backend/internal/optimizer"
	"agentdeck/backend/internal/repository"
	"agentdeck/backend/pkg/models"
)

// GridSnap rounds a canvas coordinate to the nearest 50px grid line. It is the
// default SnapFunc for server-side fallback placement.
func GridSnap(v float64) float64 {
	return math.Round(v/50) * 50
}

// CanvasService assembles the derivation snapshot for a team and returns the
// render-ready graph. One memoized deriver is kept per team so a poll loop
// that sees unchanged inputs gets the cached graph back.
type CanvasService struct {
	store repository.Store
	runs  *RunService
	debug *DebugService
	snap  canvas.SnapFunc

	mu       sync.Mutex
	derivers map[string]*canvas.Deriver
}

// NewCanvasService creates a new CanvasService. A nil snap leaves fallback
// positions unsnapped.
func NewCanvasService(store repository.Store, runs *RunService, debug *DebugService, snap canvas.SnapFunc) *CanvasService {
	return &CanvasService{
		store:    store,
		runs:     runs,
		debug:    debug,
		snap:     snap,
		derivers: make(map[string]*canvas.Deriver),
	}
}

// Graph derives the canvas graph for a team. An empty teamID yields an empty
// graph. debugSessionID is optional; when set it must name a session belonging
// to the team, otherwise the session is ignored.
func (s *CanvasService) Graph(ctx context.Context, teamID, debugSessionID string) (*models.Graph, error) {
	if teamID == "" {
		return canvas.Derive(canvas.Snapshot{}), nil
	}

	snap, err := s.buildSnapshot(ctx, teamID, debugSessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.derivers[teamID]
	if !ok {
		d = canvas.NewDeriver()
		s.derivers[teamID] = d
	}
	return d.Derive(snap), nil
}

// Analytics computes the analytics report for a team, with dismissed
// suggestions filtered out.
func (s *CanvasService) Analytics(ctx context.Context, teamID string) (*models.PipelineAnalytics, error) {
	members, err := s.store.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	connections, err := s.store.ListConnections(ctx, teamID)
	if err != nil {
		return nil, err
	}
	runs, err := s.runs.List(ctx, teamID)
	if err != nil {
		return nil, err
	}
	analytics := optimizer.Analyze(teamID, runs, members, connections)

	dismissed, err := s.dismissedSet(ctx, teamID)
	if err != nil {
		return nil, err
	}
	kept := analytics.Suggestions[:0]
	for _, sg := range analytics.Suggestions {
		if !dismissed[sg.ID] {
			kept = append(kept, sg)
		}
	}
	analytics.Suggestions = kept
	return analytics, nil
}

func (s *CanvasService) buildSnapshot(ctx context.Context, teamID, debugSessionID string) (canvas.Snapshot, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	members, err := s.store.ListMembers(ctx, teamID)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	connections, err := s.store.ListConnections(ctx, teamID)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	personas, err := s.store.ListPersonas(ctx, team.WorkspaceID)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	runs, err := s.runs.List(ctx, teamID)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	statuses, err := s.runs.LiveStatuses(ctx, teamID)
	if err != nil {
		return canvas.Snapshot{}, err
	}
	dismissed, err := s.dismissedSet(ctx, teamID)
	if err != nil {
		return canvas.Snapshot{}, err
	}

	var debug *models.DebugSession
	if debugSessionID != "" {
		debug, err = s.debug.Get(debugSessionID)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			return canvas.Snapshot{}, err
		}
		if debug != nil && debug.TeamID != teamID {
			debug = nil
		}
	}

	return canvas.Snapshot{
		TeamID:      teamID,
		Members:     members,
		Connections: connections,
		Personas:    personas,
		Statuses:    statuses,
		Analytics:   optimizer.Analyze(teamID, runs, members, connections),
		Dismissed:   dismissed,
		Debug:       debug,
		Snap:        s.snap,
	}, nil
}

func (s *CanvasService) dismissedSet(ctx context.Context, teamID string) (map[string]bool, error) {
	ids, err := s.store.ListDismissedSuggestions(ctx, teamID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
