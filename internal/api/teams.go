// Package api contains the HTTP handlers for the agentdeck service
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"agentdeck/backend/internal/repository"
	"agentdeck/backend/internal/services"
	"agentdeck/backend/internal/topology"
	"agentdeck/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Store  repository.Store
	Canvas *services.CanvasService
	Runs   *services.RunService
	Debug  *services.DebugService
}

// NewServer creates a new Server.
func NewServer(store repository.Store, canvas *services.CanvasService, runs *services.RunService, debug *services.DebugService) *Server {
	return &Server{Store: store, Canvas: canvas, Runs: runs, Debug: debug}
}

// RegisterRoutes mounts all team, canvas, debug and run routes on a group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/teams", s.ListTeams)
	g.POST("/teams", s.CreateTeam)
	g.GET("/teams/:id", s.GetTeam)
	g.DELETE("/teams/:id", s.DeleteTeam)

	g.POST("/teams/:id/members", s.AddMember)
	g.PATCH("/members/:id/position", s.UpdateMemberPosition)
	g.DELETE("/members/:id", s.RemoveMember)

	g.POST("/teams/:id/connections", s.AddConnection)
	g.DELETE("/connections/:id", s.RemoveConnection)

	g.GET("/teams/:id/graph", s.GetGraph)
	g.GET("/teams/:id/analytics", s.GetAnalytics)
	g.POST("/teams/:id/suggestions/:sid/dismiss", s.DismissSuggestion)
	g.POST("/teams/:id/topology/suggest", s.SuggestTopology)

	g.POST("/teams/:id/debug", s.StartDebug)
	g.POST("/debug/:sid/step", s.StepDebug)
	g.POST("/debug/:sid/breakpoints/:memberID", s.ToggleBreakpoint)
	g.DELETE("/debug/:sid", s.StopDebug)

	g.POST("/teams/:id/runs", s.StartRun)
	g.GET("/teams/:id/runs", s.ListRuns)
	g.POST("/teams/:id/runs/node-status", s.SetNodeStatus)
	g.POST("/teams/:id/runs/finish", s.FinishRun)
}

func workspaceID(c echo.Context) (string, error) {
	id, ok := c.Request().Context().Value("workspace_id").(string)
	if !ok || id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Workspace ID not found in context")
	}
	return id, nil
}

func httpStatusFor(err error) int {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, services.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// TeamSummary is a team row for list views, with topology counts attached.
type TeamSummary struct {
	models.Team
	MemberCount     int `json:"member_count"`
	ConnectionCount int `json:"connection_count"`
}

// ListTeams returns all teams in the caller's workspace with member and
// connection counts
// (GET /api/v1/teams)
func (s *Server) ListTeams(c echo.Context) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	teams, err := s.Store.ListTeams(ctx, wsID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	counts, err := s.Store.ListTeamCounts(ctx, wsID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	countsByTeam := make(map[string]models.TeamCounts, len(counts))
	for _, tc := range counts {
		countsByTeam[tc.TeamID] = tc
	}

	summaries := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		tc := countsByTeam[t.ID]
		summaries = append(summaries, TeamSummary{
			Team:            t,
			MemberCount:     tc.MemberCount,
			ConnectionCount: tc.ConnectionCount,
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// CreateTeam creates a team in the caller's workspace
// (POST /api/v1/teams)
func (s *Server) CreateTeam(c echo.Context) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	var team models.Team
	if err := c.Bind(&team); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if team.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Team name is required")
	}
	team.WorkspaceID = wsID
	team.Enabled = true
	if err := s.Store.CreateTeam(c.Request().Context(), &team); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save team: "+err.Error())
	}
	return c.JSON(http.StatusCreated, team)
}

// TeamDetail is a team with its topology attached.
type TeamDetail struct {
	models.Team
	Members     []models.TeamMember     `json:"members"`
	Connections []models.TeamConnection `json:"connections"`
}

// GetTeam returns one team with members and connections
// (GET /api/v1/teams/:id)
func (s *Server) GetTeam(c echo.Context) error {
	ctx := c.Request().Context()
	team, err := s.Store.GetTeam(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	members, err := s.Store.ListMembers(ctx, team.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	connections, err := s.Store.ListConnections(ctx, team.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, TeamDetail{Team: *team, Members: members, Connections: connections})
}

// DeleteTeam removes a team and its topology
// (DELETE /api/v1/teams/:id)
func (s *Server) DeleteTeam(c echo.Context) error {
	if err := s.Store.DeleteTeam(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// AddMember places a persona on a team's canvas
// (POST /api/v1/teams/:id/members)
func (s *Server) AddMember(c echo.Context) error {
	var member models.TeamMember
	if err := c.Bind(&member); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if member.PersonaID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "persona_id is required")
	}
	member.TeamID = c.Param("id")
	if err := s.Store.AddMember(c.Request().Context(), &member); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save member: "+err.Error())
	}
	return c.JSON(http.StatusCreated, member)
}

type positionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UpdateMemberPosition persists node coordinates after a drag
// (PATCH /api/v1/members/:id/position)
func (s *Server) UpdateMemberPosition(c echo.Context) error {
	var pos positionRequest
	if err := c.Bind(&pos); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if err := s.Store.UpdateMemberPosition(c.Request().Context(), c.Param("id"), pos.X, pos.Y); err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveMember deletes a member and its connections
// (DELETE /api/v1/members/:id)
func (s *Server) RemoveMember(c echo.Context) error {
	if err := s.Store.RemoveMember(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// AddConnection wires two members together
// (POST /api/v1/teams/:id/connections)
func (s *Server) AddConnection(c echo.Context) error {
	var conn models.TeamConnection
	if err := c.Bind(&conn); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if conn.SourceMemberID == "" || conn.TargetMemberID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source_member_id and target_member_id are required")
	}
	conn.TeamID = c.Param("id")
	if err := s.Store.AddConnection(c.Request().Context(), &conn); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save connection: "+err.Error())
	}
	return c.JSON(http.StatusCreated, conn)
}

// RemoveConnection deletes a connection
// (DELETE /api/v1/connections/:id)
func (s *Server) RemoveConnection(c echo.Context) error {
	if err := s.Store.RemoveConnection(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetGraph returns the derived canvas graph for a team
// (GET /api/v1/teams/:id/graph?debug_session=)
func (s *Server) GetGraph(c echo.Context) error {
	graph, err := s.Canvas.Graph(c.Request().Context(), c.Param("id"), c.QueryParam("debug_session"))
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, graph)
}

// GetAnalytics returns run analytics and active suggestions for a team
// (GET /api/v1/teams/:id/analytics)
func (s *Server) GetAnalytics(c echo.Context) error {
	analytics, err := s.Canvas.Analytics(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, analytics)
}

// DismissSuggestion hides a suggestion for a team
// (POST /api/v1/teams/:id/suggestions/:sid/dismiss)
func (s *Server) DismissSuggestion(c echo.Context) error {
	if err := s.Store.DismissSuggestion(c.Request().Context(), c.Param("id"), c.Param("sid")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type suggestRequest struct {
	Query string `json:"query"`
}

// SuggestTopology proposes a team blueprint from a natural-language query
// (POST /api/v1/teams/:id/topology/suggest)
func (s *Server) SuggestTopology(c echo.Context) error {
	ctx := c.Request().Context()
	var req suggestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	team, err := s.Store.GetTeam(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	personas, err := s.Store.ListPersonas(ctx, team.WorkspaceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	members, err := s.Store.ListMembers(ctx, team.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	existing := make([]string, 0, len(members))
	for _, m := range members {
		existing = append(existing, m.PersonaID)
	}

	blueprint := topology.SuggestTopology(req.Query, personas, existing)
	return c.JSON(http.StatusOK, blueprint)
}

// StartDebug opens a step-through session for a team
// (POST /api/v1/teams/:id/debug)
func (s *Server) StartDebug(c echo.Context) error {
	ctx := c.Request().Context()
	teamID := c.Param("id")
	members, err := s.Store.ListMembers(ctx, teamID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	connections, err := s.Store.ListConnections(ctx, teamID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sess, err := s.Debug.Start(teamID, members, connections)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sess)
}

// StepDebug advances a session one node
// (POST /api/v1/debug/:sid/step)
func (s *Server) StepDebug(c echo.Context) error {
	sess, err := s.Debug.Step(c.Param("sid"))
	if err != nil {
		if errors.Is(err, services.ErrSessionFinished) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

// ToggleBreakpoint flips a breakpoint on a session member
// (POST /api/v1/debug/:sid/breakpoints/:memberID)
func (s *Server) ToggleBreakpoint(c echo.Context) error {
	sess, err := s.Debug.ToggleBreakpoint(c.Param("sid"), c.Param("memberID"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

// StopDebug closes a session
// (DELETE /api/v1/debug/:sid)
func (s *Server) StopDebug(c echo.Context) error {
	if err := s.Debug.Stop(c.Param("sid")); err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type startRunRequest struct {
	InputData *string `json:"input_data,omitempty"`
}

// StartRun records a new pipeline run with every member queued
// (POST /api/v1/teams/:id/runs)
func (s *Server) StartRun(c echo.Context) error {
	var req startRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	run, err := s.Runs.Start(c.Request().Context(), c.Param("id"), req.InputData)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, run)
}

// ListRuns returns recent run history for a team
// (GET /api/v1/teams/:id/runs)
func (s *Server) ListRuns(c echo.Context) error {
	runs, err := s.Runs.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

type nodeStatusRequest struct {
	MemberID string               `json:"member_id"`
	Status   models.NodeRunStatus `json:"status"`
	Output   *string              `json:"output,omitempty"`
	Error    *string              `json:"error,omitempty"`
}

// SetNodeStatus updates one member's status in the latest run
// (POST /api/v1/teams/:id/runs/node-status)
func (s *Server) SetNodeStatus(c echo.Context) error {
	var req nodeStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.MemberID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "member_id is required")
	}
	run, err := s.Runs.SetNodeStatus(c.Request().Context(), c.Param("id"), req.MemberID, req.Status, req.Output, req.Error)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

type finishRunRequest struct {
	Status models.RunStatus `json:"status"`
	Error  *string          `json:"error,omitempty"`
}

// FinishRun finalizes the latest run for a team
// (POST /api/v1/teams/:id/runs/finish)
func (s *Server) FinishRun(c echo.Context) error {
	var req finishRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	switch req.Status {
	case models.RunStatusCompleted, models.RunStatusFailed, models.RunStatusCancelled:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be completed, failed or cancelled")
	}
	run, err := s.Runs.Finish(c.Request().Context(), c.Param("id"), req.Status, req.Error)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, run)
}
