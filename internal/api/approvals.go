package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sow-signoff/backend/internal/services"
	"sow-signoff/backend/pkg/models"
)

// InitializeApprovalsRequest optionally overrides the configured sections.
type InitializeApprovalsRequest struct {
	Sections []models.SectionDefinition `json:"sections,omitempty"`
}

// DecisionRequest is a stakeholder's decision on a section.
type DecisionRequest struct {
	StakeholderID string `json:"stakeholder_id"`
	Status        string `json:"status"`
	Comments      string `json:"comments,omitempty"`
}

// InitializeApprovals creates the assessment's section records
// (POST /api/v1/projects/{projectId}/assessments/{assessmentId}/approvals/initialize)
func (h *Handler) InitializeApprovals(c echo.Context, projectID, assessmentID string) error {
	var req InitializeApprovalsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		res *services.InitializeResult
		err error
	)
	if len(req.Sections) > 0 {
		res, err = h.approvals.InitializeSections(ctx, projectID, assessmentID, req.Sections)
	} else {
		res, err = h.approvals.InitializeApprovals(ctx, projectID, assessmentID)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// GetApprovalStatus lists the assessment's section records
// (GET /api/v1/projects/{projectId}/assessments/{assessmentId}/approvals)
func (h *Handler) GetApprovalStatus(c echo.Context, projectID, assessmentID string) error {
	approvals, err := h.approvals.GetApprovalStatus(c.Request().Context(), projectID, assessmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, approvals)
}

// GetApprovalStatistics summarizes sign-off progress
// (GET /api/v1/projects/{projectId}/assessments/{assessmentId}/approvals/statistics)
func (h *Handler) GetApprovalStatistics(c echo.Context, projectID, assessmentID string) error {
	stats, err := h.approvals.GetStatistics(c.Request().Context(), projectID, assessmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// GetPendingApprovers lists outstanding approvers per section
// (GET /api/v1/projects/{projectId}/assessments/{assessmentId}/approvals/pending)
func (h *Handler) GetPendingApprovers(c echo.Context, projectID, assessmentID string) error {
	pending, err := h.approvals.GetPendingApprovers(c.Request().Context(), projectID, assessmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pending)
}

// AutoAssign recomputes every section's required approvers
// (POST /api/v1/projects/{projectId}/assessments/{assessmentId}/approvals/auto-assign)
func (h *Handler) AutoAssign(c echo.Context, projectID, assessmentID string) error {
	res, err := h.assignments.AutoAssign(c.Request().Context(), projectID, assessmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// SubmitDecision records a stakeholder's decision on a section
// (POST /api/v1/approvals/{approvalId}/decisions)
func (h *Handler) SubmitDecision(c echo.Context, approvalID string) error {
	var req DecisionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	approval, err := h.approvals.SubmitDecision(c.Request().Context(), services.DecisionInput{
		SectionApprovalID: approvalID,
		StakeholderID:     req.StakeholderID,
		Status:            models.DecisionStatus(req.Status),
		Comments:          req.Comments,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, approval)
}
