package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/pkg/models"
)

const kindWorkflow = "workflow"

// WorkflowService drives sequential, step-by-step approval workflows.
type WorkflowService struct {
	store   repository.WorkflowStore
	logger  Logger
	metrics *metrics
	now     func() time.Time
}

// NewWorkflowService creates a WorkflowService.
func NewWorkflowService(store repository.WorkflowStore, logger Logger) *WorkflowService {
	return &WorkflowService{
		store:   store,
		logger:  orNop(logger),
		metrics: newMetrics(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateWorkflow stores a workflow over steps, numbered 1..N in the given
// order, and returns it. A workflow with no steps is completed immediately.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, projectID, assessmentID string, steps []models.WorkflowStep) (*models.ApprovalWorkflow, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	if err := requireField("assessment_id", assessmentID); err != nil {
		return nil, err
	}

	now := s.now()
	wf := &models.ApprovalWorkflow{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		AssessmentID:  assessmentID,
		Steps:         make([]models.WorkflowStep, 0, len(steps)),
		CurrentStep:   1,
		OverallStatus: models.WorkflowNotStarted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, step := range steps {
		name := strings.TrimSpace(step.StepName)
		if name == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("steps[%d].step_name", i), Message: "must not be empty"}
		}
		approvers := step.RequiredApprovers
		if approvers == nil {
			approvers = []string{}
		}
		wf.Steps = append(wf.Steps, models.WorkflowStep{
			StepNumber:        i + 1,
			StepName:          name,
			Description:       step.Description,
			RequiredApprovers: append([]string(nil), approvers...),
			ParallelApproval:  step.ParallelApproval,
			Status:            models.StepPending,
		})
	}
	if len(wf.Steps) == 0 {
		at := now
		wf.OverallStatus = models.WorkflowCompleted
		wf.CompletedAt = &at
	}

	if err := s.store.CreateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}
	s.logger.Info("Created approval workflow",
		"workflow_id", wf.ID, "project_id", projectID, "assessment_id", assessmentID,
		"steps", len(wf.Steps), "status", wf.OverallStatus)
	return wf, nil
}

// AdvanceStep signs off the current step. Whether the step's approvers have
// agreed is the caller's call; advancing a completed workflow changes nothing.
func (s *WorkflowService) AdvanceStep(ctx context.Context, workflowID string) (*models.ApprovalWorkflow, error) {
	if err := requireField("workflow_id", workflowID); err != nil {
		return nil, err
	}
	wf, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, storeError(err, kindWorkflow, workflowID, "get workflow")
	}

	from := wf.CurrentStep
	now := s.now()
	if !wf.Advance(now) {
		s.logger.Debug("Workflow already completed", "workflow_id", workflowID)
		return wf, nil
	}
	wf.UpdatedAt = now

	if err := s.store.UpdateWorkflow(ctx, wf); err != nil {
		err = storeError(err, kindWorkflow, workflowID, "update workflow")
		if IsConflict(err) {
			s.metrics.add(ctx, s.metrics.conflicts, attribute.String("kind", "workflow"))
		}
		return nil, err
	}

	s.metrics.add(ctx, s.metrics.advanced, attribute.String("status", string(wf.OverallStatus)))
	s.logger.Info("Advanced approval workflow",
		"workflow_id", workflowID, "from_step", from, "to_step", wf.CurrentStep, "status", wf.OverallStatus)
	return wf, nil
}

// GetWorkflow returns a workflow by ID.
func (s *WorkflowService) GetWorkflow(ctx context.Context, workflowID string) (*models.ApprovalWorkflow, error) {
	if err := requireField("workflow_id", workflowID); err != nil {
		return nil, err
	}
	wf, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, storeError(err, kindWorkflow, workflowID, "get workflow")
	}
	return wf, nil
}

// GetWorkflowForAssessment returns the assessment's most recent workflow.
func (s *WorkflowService) GetWorkflowForAssessment(ctx context.Context, projectID, assessmentID string) (*models.ApprovalWorkflow, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	if err := requireField("assessment_id", assessmentID); err != nil {
		return nil, err
	}
	wf, err := s.store.GetLatestWorkflow(ctx, projectID, assessmentID)
	if err != nil {
		return nil, storeError(err, kindWorkflow, projectID+"/"+assessmentID, "get workflow")
	}
	return wf, nil
}
