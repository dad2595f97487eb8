package services

import (
	"context"
	"fmt"
	"time"

	"agentdeck/backend/internal/repository"
	"agentdeck/backend/pkg/models"
)

// recentRunsWindow caps how much run history analytics and live-status lookups
// read back.
const recentRunsWindow = 50

// RunService records pipeline runs and answers the "what is executing right
// now" question for the canvas.
type RunService struct {
	store repository.Store
}

// NewRunService creates a new RunService.
func NewRunService(store repository.Store) *RunService {
	return &RunService{store: store}
}

// Start records a new running pipeline run with every member queued.
func (s *RunService) Start(ctx context.Context, teamID string, inputData *string) (*models.PipelineRun, error) {
	members, err := s.store.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	statuses := make([]models.NodeStatus, 0, len(members))
	for _, m := range members {
		statuses = append(statuses, models.NodeStatus{
			MemberID: m.ID,
			Status:   models.NodeRunStatusQueued,
		})
	}
	run := &models.PipelineRun{
		TeamID:       teamID,
		Status:       models.RunStatusRunning,
		NodeStatuses: statuses,
		InputData:    inputData,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// SetNodeStatus updates one member's status within a team's latest run.
func (s *RunService) SetNodeStatus(ctx context.Context, teamID, memberID string, status models.NodeRunStatus, output, errMsg *string) (*models.PipelineRun, error) {
	run, err := s.latest(ctx, teamID)
	if err != nil {
		return nil, err
	}
	updated := false
	for i := range run.NodeStatuses {
		if run.NodeStatuses[i].MemberID == memberID {
			run.NodeStatuses[i].Status = status
			run.NodeStatuses[i].Output = output
			run.NodeStatuses[i].Error = errMsg
			updated = true
			break
		}
	}
	if !updated {
		return nil, fmt.Errorf("services: member %s has no entry in run %s", memberID, run.ID)
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Finish finalizes a team's latest run. Members still queued or running are
// settled to completed or failed to match the run outcome.
func (s *RunService) Finish(ctx context.Context, teamID string, status models.RunStatus, errMsg *string) (*models.PipelineRun, error) {
	run, err := s.latest(ctx, teamID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now
	run.ErrorMessage = errMsg

	settled := models.NodeRunStatusCompleted
	if status == models.RunStatusFailed || status == models.RunStatusCancelled {
		settled = models.NodeRunStatusFailed
	}
	for i := range run.NodeStatuses {
		switch run.NodeStatuses[i].Status {
		case models.NodeRunStatusQueued, models.NodeRunStatusRunning:
			run.NodeStatuses[i].Status = settled
		}
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns a team's recent run history, newest first.
func (s *RunService) List(ctx context.Context, teamID string) ([]models.PipelineRun, error) {
	return s.store.ListRecentRuns(ctx, teamID, recentRunsWindow)
}

// LiveStatuses returns the node statuses of a team's in-flight run. A team
// with no runs, or whose latest run already finished, has no live statuses.
func (s *RunService) LiveStatuses(ctx context.Context, teamID string) ([]models.NodeStatus, error) {
	runs, err := s.store.ListRecentRuns(ctx, teamID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	latest := runs[0]
	if latest.Status != models.RunStatusPending && latest.Status != models.RunStatusRunning {
		return nil, nil
	}
	return latest.NodeStatuses, nil
}

func (s *RunService) latest(ctx context.Context, teamID string) (*models.PipelineRun, error) {
	runs, err := s.store.ListRecentRuns(ctx, teamID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &runs[0], nil
}
