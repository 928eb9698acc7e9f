package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sow-signoff/backend/pkg/models"
)

// CreateWorkflowRequest carries the steps of a new workflow. Omitting steps
// selects the default three-step sequence; an explicit empty list creates a
// workflow that is already completed.
type CreateWorkflowRequest struct {
	Steps []models.WorkflowStep `json:"steps"`
}

// CreateWorkflow starts a sequential approval workflow
// (POST /api/v1/projects/{projectId}/assessments/{assessmentId}/workflows)
func (h *Handler) CreateWorkflow(c echo.Context, projectID, assessmentID string) error {
	ctx := c.Request().Context()

	var req CreateWorkflowRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	steps := req.Steps
	if steps == nil {
		defaults, err := h.assignments.DefaultWorkflowSteps(ctx, projectID)
		if err != nil {
			return err
		}
		steps = defaults
	}

	workflow, err := h.workflows.CreateWorkflow(ctx, projectID, assessmentID, steps)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, workflow)
}

// GetLatestWorkflow returns the assessment's most recent workflow
// (GET /api/v1/projects/{projectId}/assessments/{assessmentId}/workflows/latest)
func (h *Handler) GetLatestWorkflow(c echo.Context, projectID, assessmentID string) error {
	workflow, err := h.workflows.GetWorkflowForAssessment(c.Request().Context(), projectID, assessmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, workflow)
}

// GetWorkflow returns a workflow
// (GET /api/v1/workflows/{workflowId})
func (h *Handler) GetWorkflow(c echo.Context, workflowID string) error {
	workflow, err := h.workflows.GetWorkflow(c.Request().Context(), workflowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, workflow)
}

// AdvanceWorkflow signs off the workflow's current step
// (POST /api/v1/workflows/{workflowId}/advance)
func (h *Handler) AdvanceWorkflow(c echo.Context, workflowID string) error {
	workflow, err := h.workflows.AdvanceStep(c.Request().Context(), workflowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, workflow)
}
