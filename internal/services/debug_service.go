package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentdeck/backend/internal/topology"
	"agentdeck/backend/pkg/models"
)

// ErrSessionNotFound is returned for unknown or already-stopped debug sessions.
var ErrSessionNotFound = errors.New("services: debug session not found")

// ErrSessionFinished is returned when Step is called after the last node
// completed.
var ErrSessionFinished = errors.New("services: debug session already finished")

// DebugService is an in-memory registry of interactive step-through sessions.
// Sessions live only for the process lifetime; the canvas reads them as
// immutable snapshots, so every accessor returns a deep copy.
type DebugService struct {
	mu       sync.Mutex
	sessions map[string]*debugState
	byTeam   map[string]string
}

// debugState is the mutable server-side session. order is the execution order
// the cursor walks; cursor is the index of the currently running node, -1
// before the first step.
type debugState struct {
	session  models.DebugSession
	order    []string
	edgeKeys map[string]bool
	cursor   int
}

// NewDebugService creates an empty session registry.
func NewDebugService() *DebugService {
	return &DebugService{
		sessions: make(map[string]*debugState),
		byTeam:   make(map[string]string),
	}
}

// Start opens a debug session for a team. All nodes begin idle; the first Step
// call starts the first node in execution order. Starting a second session for
// the same team replaces the first.
func (s *DebugService) Start(teamID string, members []models.TeamMember, connections []models.TeamConnection) (*models.DebugSession, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("services: cannot debug team %s with no members", teamID)
	}

	statuses := make(map[string]models.NodeRunStatus, len(members))
	for _, m := range members {
		statuses[m.ID] = models.NodeRunStatusIdle
	}
	edgeKeys := make(map[string]bool, len(connections))
	for _, c := range connections {
		edgeKeys[models.EdgeKey(c.SourceMemberID, c.TargetMemberID)] = true
	}

	st := &debugState{
		session: models.DebugSession{
			ID:                  uuid.New().String(),
			TeamID:              teamID,
			NodeStatuses:        statuses,
			BreakpointMemberIDs: make(map[string]bool),
			CompletedEdgeKeys:   make(map[string]bool),
			StartedAt:           time.Now().UTC(),
		},
		order:    executionOrder(members, connections),
		edgeKeys: edgeKeys,
		cursor:   -1,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byTeam[teamID]; ok {
		delete(s.sessions, prev)
	}
	s.sessions[st.session.ID] = st
	s.byTeam[teamID] = st.session.ID
	return snapshotSession(st), nil
}

// Stop removes a session from the registry.
func (s *DebugService) Stop(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	if s.byTeam[st.session.TeamID] == sessionID {
		delete(s.byTeam, st.session.TeamID)
	}
	return nil
}

// Get returns the current state of a session.
func (s *DebugService) Get(sessionID string) (*models.DebugSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshotSession(st), nil
}

// GetByTeam returns the active session for a team, if any.
func (s *DebugService) GetByTeam(teamID string) (*models.DebugSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byTeam[teamID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshotSession(s.sessions[id]), nil
}

// ToggleBreakpoint flips a member's breakpoint flag and returns the updated
// session.
func (s *DebugService) ToggleBreakpoint(sessionID, memberID string) (*models.DebugSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if _, known := st.session.NodeStatuses[memberID]; !known {
		return nil, fmt.Errorf("services: member %s is not part of session %s", memberID, sessionID)
	}
	if st.session.BreakpointMemberIDs[memberID] {
		delete(st.session.BreakpointMemberIDs, memberID)
	} else {
		st.session.BreakpointMemberIDs[memberID] = true
	}
	return snapshotSession(st), nil
}

// Step advances the cursor one node. The first step marks the first node in
// execution order running. Each later step completes the current node, marks
// the edge to the next node (when one exists in the topology) as the active
// edge and the previously active edge as completed, then marks the next node
// running. Stepping past the last node completes it and clears the active
// edge; one more step returns ErrSessionFinished.
func (s *DebugService) Step(sessionID string) (*models.DebugSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.cursor >= len(st.order) {
		return nil, ErrSessionFinished
	}

	if st.session.ActiveEdgeKey != "" {
		st.session.CompletedEdgeKeys[st.session.ActiveEdgeKey] = true
		st.session.ActiveEdgeKey = ""
	}

	if st.cursor >= 0 {
		st.session.NodeStatuses[st.order[st.cursor]] = models.NodeRunStatusCompleted
	}
	st.cursor++
	if st.cursor < len(st.order) {
		next := st.order[st.cursor]
		if st.cursor > 0 {
			key := models.EdgeKey(st.order[st.cursor-1], next)
			if st.edgeKeys[key] {
				st.session.ActiveEdgeKey = key
			}
		}
		st.session.NodeStatuses[next] = models.NodeRunStatusRunning
	}
	return snapshotSession(st), nil
}

// snapshotSession deep-copies the session maps so callers can never observe a
// later mutation. Caller holds s.mu.
func snapshotSession(st *debugState) *models.DebugSession {
	out := st.session
	out.NodeStatuses = make(map[string]models.NodeRunStatus, len(st.session.NodeStatuses))
	for k, v := range st.session.NodeStatuses {
		out.NodeStatuses[k] = v
	}
	out.BreakpointMemberIDs = make(map[string]bool, len(st.session.BreakpointMemberIDs))
	for k := range st.session.BreakpointMemberIDs {
		out.BreakpointMemberIDs[k] = true
	}
	out.CompletedEdgeKeys = make(map[string]bool, len(st.session.CompletedEdgeKeys))
	for k := range st.session.CompletedEdgeKeys {
		out.CompletedEdgeKeys[k] = true
	}
	return &out
}

// executionOrder is the topological order of the team graph; members caught in
// a cycle are appended in member list order.
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
