// Package api contains the HTTP handlers for the SOW sign-off service
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sow-signoff/backend/internal/services"
	"sow-signoff/backend/pkg/models"
)

const (
	serviceName    = "sow-signoff"
	serviceVersion = "1.0.0"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers for the sign-off REST API
type Handler struct {
	approvals   *services.ApprovalService
	assignments *services.AssignmentService
	workflows   *services.WorkflowService
	store       Pinger
	logger      services.Logger
}

// NewHandler creates a new Handler with required dependencies
func NewHandler(approvals *services.ApprovalService, assignments *services.AssignmentService, workflows *services.WorkflowService, store Pinger, logger services.Logger) *Handler {
	return &Handler{
		approvals:   approvals,
		assignments: assignments,
		workflows:   workflows,
		store:       store,
		logger:      logger,
	}
}

var _ ServerInterface = (*Handler)(nil)

// HandleHealth reports service health; the store check turns the response
// into a 503 when the store cannot be reached.
// (GET /health)
func (h *Handler) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"store": "ok"},
	}
	code := http.StatusOK
	if err := h.store.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.Checks["store"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// ProblemErrorHandler renders every error as an RFC 7807 Problem Details
// response. Service errors map to 404, 400 and 409; anything unexpected is
// logged and reported as a 500 without internals.
func ProblemErrorHandler(logger services.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := http.StatusInternalServerError, "internal server error"
		var he *echo.HTTPError
		switch {
		case services.IsNotFound(err):
			status, detail = http.StatusNotFound, err.Error()
		case services.IsValidation(err):
			status, detail = http.StatusBadRequest, err.Error()
		case services.IsConflict(err):
			status, detail = http.StatusConflict, err.Error()
		case errors.As(err, &he):
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				detail = msg
			} else {
				detail = http.StatusText(he.Code)
			}
		default:
			logger.Error("Unhandled request error",
				"method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		}

		problem := models.ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Instance: c.Request().URL.Path,
		}
		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, problem)
		}
		if err != nil {
			logger.Error("Failed to write error response", "error", err)
		}
	}
}

func bindBody(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}
