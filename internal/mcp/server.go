package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"agentdeck/backend/internal/repository"
	"agentdeck/backend/internal/services"
	"agentdeck/backend/internal/topology"
)

type Server struct {
	mcpServer *server.MCPServer
	store     repository.Store
	canvas    *services.CanvasService
}

func NewServer(store repository.Store, canvas *services.CanvasService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"AgentDeck Pipeline Canvas",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		store:  store,
		canvas: canvas,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_teams",
			mcp.WithDescription("List the agent teams in a workspace"),
			mcp.WithString("workspace_domain", mcp.Required(), mcp.Description("Email domain of the workspace")),
		),
		s.handleListTeams,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"pipeline_graph",
			mcp.WithDescription("Get the render-ready canvas graph for a team"),
			mcp.WithString("team_id", mcp.Required(), mcp.Description("The ID of the team")),
		),
		s.handlePipelineGraph,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"suggest_topology",
			mcp.WithDescription("Propose a team blueprint for a natural-language task"),
			mcp.WithString("workspace_domain", mcp.Required(), mcp.Description("Email domain of the workspace")),
			mcp.WithString("query", mcp.Required(), mcp.Description("What the pipeline should accomplish")),
		),
		s.handleSuggestTopology,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"dismiss_suggestion",
			mcp.WithDescription("Dismiss an optimizer suggestion for a team"),
			mcp.WithString("team_id", mcp.Required(), mcp.Description("The ID of the team")),
			mcp.WithString("suggestion_id", mcp.Required(), mcp.Description("The ID of the suggestion to dismiss")),
		),
		s.handleDismissSuggestion,
	)
}

func (s *Server) handleListTeams(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	domain, ok := args["workspace_domain"].(string)
	if !ok || domain == "" {
		return mcp.NewToolResultError("Missing required parameter: workspace_domain"), nil
	}

	ws, err := s.store.GetWorkspaceByDomain(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve workspace: %v", err)), nil
	}
	teams, err := s.store.ListTeams(ctx, ws.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list teams: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(teams)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handlePipelineGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	teamID, ok := args["team_id"].(string)
	if !ok || teamID == "" {
		return mcp.NewToolResultError("Missing required parameter: team_id"), nil
	}

	graph, err := s.canvas.Graph(ctx, teamID, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to derive graph: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(graph)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleSuggestTopology(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	domain, ok := args["workspace_domain"].(string)
	if !ok || domain == "" {
		return mcp.NewToolResultError("Missing required parameter: workspace_domain"), nil
	}
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("Missing required parameter: query"), nil
	}

	ws, err := s.store.GetWorkspaceByDomain(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve workspace: %v", err)), nil
	}
	personas, err := s.store.ListPersonas(ctx, ws.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list personas: %v", err)), nil
	}

	blueprint := topology.SuggestTopology(query, personas, nil)
	jsonBytes, _ := json.Marshal(blueprint)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleDismissSuggestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	teamID, ok := args["team_id"].(string)
	if !ok || teamID == "" {
		return mcp.NewToolResultError("Missing required parameter: team_id"), nil
	}
	suggestionID, ok := args["suggestion_id"].(string)
	if !ok || suggestionID == "" {
		return mcp.NewToolResultError("Missing required parameter: suggestion_id"), nil
	}

	if err := s.store.DismissSuggestion(ctx, teamID, suggestionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to dismiss suggestion: %v", err)), nil
	}

	return mcp.NewToolResultText("Suggestion dismissed"), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
