package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// SuggestStakeholdersParams defines parameters for SuggestStakeholders.
type SuggestStakeholdersParams struct {
	Tier     *string `form:"tier,omitempty" json:"tier,omitempty"`
	Phase    *string `form:"phase,omitempty" json:"phase,omitempty"`
	Question *string `form:"question,omitempty" json:"question,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /projects/{projectId}/assessments/{assessmentId}/approvals/initialize)
	InitializeApprovals(ctx echo.Context, projectID string, assessmentID string) error
	// (GET /projects/{projectId}/assessments/{assessmentId}/approvals)
	GetApprovalStatus(ctx echo.Context, projectID string, assessmentID string) error
	// (GET /projects/{projectId}/assessments/{assessmentId}/approvals/statistics)
	GetApprovalStatistics(ctx echo.Context, projectID string, assessmentID string) error
	// (GET /projects/{projectId}/assessments/{assessmentId}/approvals/pending)
	GetPendingApprovers(ctx echo.Context, projectID string, assessmentID string) error
	// (POST /projects/{projectId}/assessments/{assessmentId}/approvals/auto-assign)
	AutoAssign(ctx echo.Context, projectID string, assessmentID string) error
	// (POST /approvals/{approvalId}/decisions)
	SubmitDecision(ctx echo.Context, approvalID string) error
	// (POST /projects/{projectId}/assessments/{assessmentId}/workflows)
	CreateWorkflow(ctx echo.Context, projectID string, assessmentID string) error
	// (GET /projects/{projectId}/assessments/{assessmentId}/workflows/latest)
	GetLatestWorkflow(ctx echo.Context, projectID string, assessmentID string) error
	// (GET /workflows/{workflowId})
	GetWorkflow(ctx echo.Context, workflowID string) error
	// (POST /workflows/{workflowId}/advance)
	AdvanceWorkflow(ctx echo.Context, workflowID string) error
	// (GET /projects/{projectId}/suggestions)
	SuggestStakeholders(ctx echo.Context, projectID string, params SuggestStakeholdersParams) error
	// (POST /projects/{projectId}/question-assignments)
	AssignQuestions(ctx echo.Context, projectID string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindPathParam(ctx echo.Context, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func bindAssessmentScope(ctx echo.Context) (string, string, error) {
	var projectID, assessmentID string
	if err := bindPathParam(ctx, "projectId", &projectID); err != nil {
		return "", "", err
	}
	if err := bindPathParam(ctx, "assessmentId", &assessmentID); err != nil {
		return "", "", err
	}
	return projectID, assessmentID, nil
}

// InitializeApprovals converts echo context to params.
func (w *ServerInterfaceWrapper) InitializeApprovals(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.InitializeApprovals(ctx, projectID, assessmentID)
}

// GetApprovalStatus converts echo context to params.
func (w *ServerInterfaceWrapper) GetApprovalStatus(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetApprovalStatus(ctx, projectID, assessmentID)
}

// GetApprovalStatistics converts echo context to params.
func (w *ServerInterfaceWrapper) GetApprovalStatistics(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetApprovalStatistics(ctx, projectID, assessmentID)
}

// GetPendingApprovers converts echo context to params.
func (w *ServerInterfaceWrapper) GetPendingApprovers(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetPendingApprovers(ctx, projectID, assessmentID)
}

// AutoAssign converts echo context to params.
func (w *ServerInterfaceWrapper) AutoAssign(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.AutoAssign(ctx, projectID, assessmentID)
}

// SubmitDecision converts echo context to params.
func (w *ServerInterfaceWrapper) SubmitDecision(ctx echo.Context) error {
	var approvalID string
	if err := bindPathParam(ctx, "approvalId", &approvalID); err != nil {
		return err
	}
	return w.Handler.SubmitDecision(ctx, approvalID)
}

// CreateWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) CreateWorkflow(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.CreateWorkflow(ctx, projectID, assessmentID)
}

// GetLatestWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) GetLatestWorkflow(ctx echo.Context) error {
	projectID, assessmentID, err := bindAssessmentScope(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetLatestWorkflow(ctx, projectID, assessmentID)
}

// GetWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) GetWorkflow(ctx echo.Context) error {
	var workflowID string
	if err := bindPathParam(ctx, "workflowId", &workflowID); err != nil {
		return err
	}
	return w.Handler.GetWorkflow(ctx, workflowID)
}

// AdvanceWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) AdvanceWorkflow(ctx echo.Context) error {
	var workflowID string
	if err := bindPathParam(ctx, "workflowId", &workflowID); err != nil {
		return err
	}
	return w.Handler.AdvanceWorkflow(ctx, workflowID)
}

// SuggestStakeholders converts echo context to params.
func (w *ServerInterfaceWrapper) SuggestStakeholders(ctx echo.Context) error {
	var projectID string
	if err := bindPathParam(ctx, "projectId", &projectID); err != nil {
		return err
	}

	var params SuggestStakeholdersParams
	for name, dest := range map[string]**string{
		"tier":     &params.Tier,
		"phase":    &params.Phase,
		"question": &params.Question,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, ctx.QueryParams(), dest); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
		}
	}
	return w.Handler.SuggestStakeholders(ctx, projectID, params)
}

// AssignQuestions converts echo context to params.
func (w *ServerInterfaceWrapper) AssignQuestions(ctx echo.Context) error {
	var projectID string
	if err := bindPathParam(ctx, "projectId", &projectID); err != nil {
		return err
	}
	return w.Handler.AssignQuestions(ctx, projectID)
}

// EchoRouter is the subset of echo routing used to register handlers; both
// *echo.Echo and *echo.Group satisfy it.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	const scope = "/projects/:projectId/assessments/:assessmentId"
	router.POST(scope+"/approvals/initialize", wrapper.InitializeApprovals)
	router.GET(scope+"/approvals", wrapper.GetApprovalStatus)
	router.GET(scope+"/approvals/statistics", wrapper.GetApprovalStatistics)
	router.GET(scope+"/approvals/pending", wrapper.GetPendingApprovers)
	router.POST(scope+"/approvals/auto-assign", wrapper.AutoAssign)
	router.POST(scope+"/workflows", wrapper.CreateWorkflow)
	router.GET(scope+"/workflows/latest", wrapper.GetLatestWorkflow)
	router.POST("/approvals/:approvalId/decisions", wrapper.SubmitDecision)
	router.GET("/workflows/:workflowId", wrapper.GetWorkflow)
	router.POST("/workflows/:workflowId/advance", wrapper.AdvanceWorkflow)
	router.GET("/projects/:projectId/suggestions", wrapper.SuggestStakeholders)
	router.POST("/projects/:projectId/question-assignments", wrapper.AssignQuestions)
}
