package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"sow-signoff/backend/pkg/models"
)

// AssignQuestionsRequest is a batch of questions to pre-assign.
type AssignQuestionsRequest struct {
	Questions []models.Question `json:"questions"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SuggestStakeholders ranks the project's stakeholders for a question
// (GET /api/v1/projects/{projectId}/suggestions)
func (h *Handler) SuggestStakeholders(c echo.Context, projectID string, params SuggestStakeholdersParams) error {
	ranking, err := h.assignments.SuggestStakeholders(c.Request().Context(), projectID,
		models.Tier(strings.ToUpper(deref(params.Tier))),
		models.Phase(strings.ToUpper(deref(params.Phase))),
		deref(params.Question),
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ranking)
}

// AssignQuestions pre-selects an assignee for each question
// (POST /api/v1/projects/{projectId}/question-assignments)
func (h *Handler) AssignQuestions(c echo.Context, projectID string) error {
	var req AssignQuestionsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	out, err := h.assignments.AssignQuestions(c.Request().Context(), projectID, req.Questions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
