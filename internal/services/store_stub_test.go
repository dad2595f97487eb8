package services

import (
	"context"
	"fmt"
	"sort"

	"agentdeck/backend/internal/repository"
	"agentdeck/backend/pkg/models"
)

// memStore is an in-memory repository.Store used by the service tests.
type memStore struct {
	workspaces  map[string]models.Workspace
	personas    map[string]models.Persona
	teams       map[string]models.Team
	members     []models.TeamMember
	connections []models.TeamConnection
	runs        []models.PipelineRun
	dismissed   map[string]map[string]bool
	nextID      int
}

func newMemStore() *memStore {
	return &memStore{
		workspaces: make(map[string]models.Workspace),
		personas:   make(map[string]models.Persona),
		teams:      make(map[string]models.Team),
		dismissed:  make(map[string]map[string]bool),
	}
}

var _ repository.Store = (*memStore)(nil)

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memStore) CreateSchema(context.Context) error { return nil }

func (s *memStore) CreateWorkspace(_ context.Context, ws *models.Workspace) error {
	if ws.ID == "" {
		ws.ID = s.id("ws")
	}
	s.workspaces[ws.ID] = *ws
	return nil
}

func (s *memStore) GetWorkspaceByDomain(_ context.Context, domain string) (*models.Workspace, error) {
	for _, ws := range s.workspaces {
		if ws.Domain == domain {
			out := ws
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) CreatePersona(_ context.Context, p *models.Persona) error {
	if p.ID == "" {
		p.ID = s.id("p")
	}
	s.personas[p.ID] = *p
	return nil
}

func (s *memStore) ListPersonas(_ context.Context, workspaceID string) ([]models.Persona, error) {
	var out []models.Persona
	for _, p := range s.personas {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) CreateTeam(_ context.Context, t *models.Team) error {
	if t.ID == "" {
		t.ID = s.id("t")
	}
	s.teams[t.ID] = *t
	return nil
}

func (s *memStore) GetTeam(_ context.Context, teamID string) (*models.Team, error) {
	t, ok := s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *memStore) ListTeams(_ context.Context, workspaceID string) ([]models.Team, error) {
	var out []models.Team
	for _, t := range s.teams {
		if t.WorkspaceID == workspaceID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListTeamCounts(_ context.Context, workspaceID string) ([]models.TeamCounts, error) {
	teams, _ := s.ListTeams(context.Background(), workspaceID)
	out := make([]models.TeamCounts, 0, len(teams))
	for _, t := range teams {
		tc := models.TeamCounts{TeamID: t.ID}
		for _, m := range s.members {
			if m.TeamID == t.ID {
				tc.MemberCount++
			}
		}
		for _, c := range s.connections {
			if c.TeamID == t.ID {
				tc.ConnectionCount++
			}
		}
		out = append(out, tc)
	}
	return out, nil
}

func (s *memStore) DeleteTeam(_ context.Context, teamID string) error {
	if _, ok := s.teams[teamID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.teams, teamID)
	return nil
}

func (s *memStore) AddMember(_ context.Context, m *models.TeamMember) error {
	if m.ID == "" {
		m.ID = s.id("m")
	}
	s.members = append(s.members, *m)
	return nil
}

func (s *memStore) ListMembers(_ context.Context, teamID string) ([]models.TeamMember, error) {
	var out []models.TeamMember
	for _, m := range s.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) UpdateMemberPosition(_ context.Context, memberID string, x, y float64) error {
	for i := range s.members {
		if s.members[i].ID == memberID {
			s.members[i].PositionX = &x
			s.members[i].PositionY = &y
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) RemoveMember(_ context.Context, memberID string) error {
	for i := range s.members {
		if s.members[i].ID == memberID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) AddConnection(_ context.Context, c *models.TeamConnection) error {
	if c.ID == "" {
		c.ID = s.id("c")
	}
	s.connections = append(s.connections, *c)
	return nil
}

func (s *memStore) ListConnections(_ context.Context, teamID string) ([]models.TeamConnection, error) {
	var out []models.TeamConnection
	for _, c := range s.connections {
		if c.TeamID == teamID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) RemoveConnection(_ context.Context, connectionID string) error {
	for i := range s.connections {
		if s.connections[i].ID == connectionID {
			s.connections = append(s.connections[:i], s.connections[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) CreateRun(_ context.Context, r *models.PipelineRun) error {
	if r.ID == "" {
		r.ID = s.id("run")
	}
	s.runs = append(s.runs, *r)
	return nil
}

func (s *memStore) UpdateRun(_ context.Context, r *models.PipelineRun) error {
	for i := range s.runs {
		if s.runs[i].ID == r.ID {
			s.runs[i] = *r
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) ListRecentRuns(_ context.Context, teamID string, limit int) ([]models.PipelineRun, error) {
	var out []models.PipelineRun
	for _, r := range s.runs {
		if r.TeamID == teamID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) DismissSuggestion(_ context.Context, teamID, suggestionID string) error {
	if s.dismissed[teamID] == nil {
		s.dismissed[teamID] = make(map[string]bool)
	}
	s.dismissed[teamID][suggestionID] = true
	return nil
}

func (s *memStore) ListDismissedSuggestions(_ context.Context, teamID string) ([]string, error) {
	var out []string
	for id := range s.dismissed[teamID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
