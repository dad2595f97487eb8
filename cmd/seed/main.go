package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"agentdeck/backend/internal/config"
	"agentdeck/backend/internal/logging"
	"agentdeck/backend/internal/repository"
	"agentdeck/backend/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func strPtr(s string) *string { return &s }

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	// 1. Ensure Workspace Exists
	domain := "localhost"
	workspace, err := store.GetWorkspaceByDomain(ctx, domain)
	if err != nil {
		logger.Info("Creating default workspace", "domain", domain)
		workspace = &models.Workspace{
			Name:   "Local Dev Workspace",
			Domain: domain,
		}
		if err := store.CreateWorkspace(ctx, workspace); err != nil {
			log.Fatalf("Failed to create workspace: %v", err)
		}
	} else {
		logger.Info("Found existing workspace", "id", workspace.ID)
	}

	// 2. Seed Personas (skip ones already present by name)
	existing, err := store.ListPersonas(ctx, workspace.ID)
	if err != nil {
		log.Fatalf("Failed to list personas: %v", err)
	}
	existingByName := make(map[string]models.Persona)
	for _, p := range existing {
		existingByName[p.Name] = p
	}

	seedPersonas := []models.Persona{
		{
			Name:         "Pipeline Lead",
			Description:  strPtr("Coordinates the other agents and assembles the final answer."),
			SystemPrompt: "You coordinate a team of agents: plan the work, delegate tasks and assemble the final result.",
			Icon:         strPtr("🧭"),
			Color:        "#8b5cf6",
			Enabled:      true,
		},
		{
			Name:         "Researcher",
			Description:  strPtr("Digs up background material and sources."),
			SystemPrompt: "You research topics thoroughly, gather data and summarize your findings with sources.",
			Icon:         strPtr("🔎"),
			Color:        "#0ea5e9",
			Enabled:      true,
		},
		{
			Name:         "Writer",
			Description:  strPtr("Turns research into polished prose."),
			SystemPrompt: "You write clear, engaging articles and content from research notes.",
			Icon:         strPtr("✍️"),
			Color:        "#22c55e",
			Enabled:      true,
		},
		{
			Name:         "Quality Reviewer",
			Description:  strPtr("Reviews output before it ships."),
			SystemPrompt: "You review and critique the output of other agents, checking quality and correctness.",
			Icon:         strPtr("✅"),
			Color:        "#f59e0b",
			Enabled:      true,
		},
	}

	personaByName := make(map[string]models.Persona, len(seedPersonas))
	for _, p := range seedPersonas {
		if found, ok := existingByName[p.Name]; ok {
			logger.Info("Skipping existing persona", "name", p.Name)
			personaByName[p.Name] = found
			continue
		}
		p.WorkspaceID = workspace.ID
		persona := p
		if err := store.CreatePersona(ctx, &persona); err != nil {
			log.Fatalf("Failed to create persona %s: %v", p.Name, err)
		}
		logger.Info("Seeded persona", "name", persona.Name, "id", persona.ID)
		personaByName[persona.Name] = persona
	}

	// 3. Seed a demo team with a research -> write -> review chain
	teams, err := store.ListTeams(ctx, workspace.ID)
	if err != nil {
		log.Fatalf("Failed to list teams: %v", err)
	}
	for _, t := range teams {
		if t.Name == "Content Pipeline" {
			logger.Info("Demo team already exists, skipping", "id", t.ID)
			return
		}
	}

	team := &models.Team{
		WorkspaceID: workspace.ID,
		Name:        "Content Pipeline",
		Description: strPtr("Research, draft and review content end to end."),
		Icon:        strPtr("📰"),
		Color:       "#6366f1",
		Enabled:     true,
	}
	if err := store.CreateTeam(ctx, team); err != nil {
		log.Fatalf("Failed to create team: %v", err)
	}
	logger.Info("Seeded team", "name", team.Name, "id", team.ID)

	addMember := func(personaName string, role models.MemberRole, x, y float64) *models.TeamMember {
		m := &models.TeamMember{
			TeamID:    team.ID,
			PersonaID: personaByName[personaName].ID,
			Role:      role,
			PositionX: &x,
			PositionY: &y,
		}
		if err := store.AddMember(ctx, m); err != nil {
			log.Fatalf("Failed to add member %s: %v", personaName, err)
		}
		return m
	}

	researcher := addMember("Researcher", models.MemberRoleWorker, 100, 150)
	writer := addMember("Writer", models.MemberRoleWorker, 350, 150)
	reviewer := addMember("Quality Reviewer", models.MemberRoleReviewer, 600, 150)

	addConnection := func(source, target *models.TeamMember, connType models.ConnectionType, label string) {
		c := &models.TeamConnection{
			TeamID:         team.ID,
			SourceMemberID: source.ID,
			TargetMemberID: target.ID,
			ConnectionType: connType,
		}
		if label != "" {
			c.Label = &label
		}
		if err := store.AddConnection(ctx, c); err != nil {
			log.Fatalf("Failed to add connection: %v", err)
		}
	}

	addConnection(researcher, writer, models.ConnectionTypeSequential, "notes")
	addConnection(writer, reviewer, models.ConnectionTypeSequential, "draft")
	addConnection(reviewer, writer, models.ConnectionTypeFeedback, "revisions")

	// 4. Seed run history so the analytics view has something to chew on
	seedRun := func(offset time.Duration, status models.RunStatus, nodeStatuses []models.NodeStatus) {
		started := time.Now().UTC().Add(-offset)
		completed := started.Add(45 * time.Second)
		run := &models.PipelineRun{
			TeamID:       team.ID,
			Status:       status,
			NodeStatuses: nodeStatuses,
			StartedAt:    started,
			CompletedAt:  &completed,
		}
		if err := store.CreateRun(ctx, run); err != nil {
			log.Fatalf("Failed to create run: %v", err)
		}
	}

	seedRun(3*time.Hour, models.RunStatusCompleted, []models.NodeStatus{
		{MemberID: researcher.ID, Status: models.NodeRunStatusCompleted},
		{MemberID: writer.ID, Status: models.NodeRunStatusCompleted},
		{MemberID: reviewer.ID, Status: models.NodeRunStatusCompleted},
	})
	seedRun(2*time.Hour, models.RunStatusFailed, []models.NodeStatus{
		{MemberID: researcher.ID, Status: models.NodeRunStatusCompleted},
		{MemberID: writer.ID, Status: models.NodeRunStatusFailed, Error: strPtr("draft generation timed out")},
		{MemberID: reviewer.ID, Status: models.NodeRunStatusIdle},
	})
	seedRun(time.Hour, models.RunStatusCompleted, []models.NodeStatus{
		{MemberID: researcher.ID, Status: models.NodeRunStatusCompleted},
		{MemberID: writer.ID, Status: models.NodeRunStatusCompleted},
		{MemberID: reviewer.ID, Status: models.NodeRunStatusCompleted},
	})

	logger.Info("Seeding complete!")
}
