// Package mcp exposes the sign-off engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sow-signoff/backend/internal/services"
	"sow-signoff/backend/pkg/models"
)

type Server struct {
	mcpServer   *server.MCPServer
	approvals   *services.ApprovalService
	assignments *services.AssignmentService
	workflows   *services.WorkflowService
}

func NewServer(approvals *services.ApprovalService, assignments *services.AssignmentService, workflows *services.WorkflowService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"SOW Sign-off",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		approvals:   approvals,
		assignments: assignments,
		workflows:   workflows,
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
			"suggest_stakeholders",
			mcp.WithDescription("Rank a project's stakeholders for an interview question"),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("The project to search")),
			mcp.WithString("tier", mcp.Description("Capability tier, e.g. DATA or AI")),
			mcp.WithString("phase", mcp.Description("Engagement phase, e.g. DISCOVERY")),
			mcp.WithString("question", mcp.Description("The question text")),
		),
		s.handleSuggestStakeholders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_decision",
			mcp.WithDescription("Record a stakeholder's decision on a SOW section"),
			mcp.WithString("approval_id", mcp.Required(), mcp.Description("The section approval ID")),
			mcp.WithString("stakeholder_id", mcp.Required(), mcp.Description("The deciding stakeholder")),
			mcp.WithString("status", mcp.Required(), mcp.Description("approved, rejected or changes_requested"),
				mcp.Enum(string(models.DecisionApproved), string(models.DecisionRejected), string(models.DecisionChangesRequested))),
			mcp.WithString("comments", mcp.Description("Rationale; required when status is rejected or changes_requested")),
		),
		s.handleSubmitDecision,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"approval_status",
			mcp.WithDescription("List the section approvals of an assessment"),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("The project ID")),
			mcp.WithString("assessment_id", mcp.Required(), mcp.Description("The assessment ID")),
		),
		s.handleApprovalStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"approval_statistics",
			mcp.WithDescription("Summarize sign-off progress of an assessment"),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("The project ID")),
			mcp.WithString("assessment_id", mcp.Required(), mcp.Description("The assessment ID")),
		),
		s.handleApprovalStatistics,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"advance_workflow",
			mcp.WithDescription("Sign off the current step of an approval workflow"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow ID")),
		),
		s.handleAdvanceWorkflow,
	)
}

// stringArgs extracts string arguments; names listed in required must be
// present and non-empty.
func stringArgs(request mcp.CallToolRequest, required []string, optional ...string) (map[string]string, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("Invalid arguments type")
	}
	out := make(map[string]string, len(required)+len(optional))
	for _, name := range required {
		v, ok := args[name].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return nil, mcp.NewToolResultError("Missing required parameter: " + name)
		}
		out[name] = v
	}
	for _, name := range optional {
		if v, ok := args[name].(string); ok {
			out[name] = v
		}
	}
	return out, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleSuggestStakeholders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := stringArgs(request, []string{"project_id"}, "tier", "phase", "question")
	if errResult != nil {
		return errResult, nil
	}

	ranking, err := s.assignments.SuggestStakeholders(ctx, args["project_id"],
		models.Tier(strings.ToUpper(args["tier"])),
		models.Phase(strings.ToUpper(args["phase"])),
		args["question"],
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to suggest stakeholders: %v", err)), nil
	}
	return jsonResult(ranking)
}

func (s *Server) handleSubmitDecision(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := stringArgs(request, []string{"approval_id", "stakeholder_id", "status"}, "comments")
	if errResult != nil {
		return errResult, nil
	}

	approval, err := s.approvals.SubmitDecision(ctx, services.DecisionInput{
		SectionApprovalID: args["approval_id"],
		StakeholderID:     args["stakeholder_id"],
		Status:            models.DecisionStatus(args["status"]),
		Comments:          args["comments"],
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to submit decision: %v", err)), nil
	}
	return jsonResult(approval)
}

func (s *Server) handleApprovalStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := stringArgs(request, []string{"project_id", "assessment_id"})
	if errResult != nil {
		return errResult, nil
	}

	approvals, err := s.approvals.GetApprovalStatus(ctx, args["project_id"], args["assessment_id"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get approval status: %v", err)), nil
	}
	return jsonResult(approvals)
}

func (s *Server) handleApprovalStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := stringArgs(request, []string{"project_id", "assessment_id"})
	if errResult != nil {
		return errResult, nil
	}

	stats, err := s.approvals.GetStatistics(ctx, args["project_id"], args["assessment_id"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get approval statistics: %v", err)), nil
	}
	return jsonResult(stats)
}

func (s *Server) handleAdvanceWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := stringArgs(request, []string{"workflow_id"})
	if errResult != nil {
		return errResult, nil
	}

	workflow, err := s.workflows.AdvanceStep(ctx, args["workflow_id"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to advance workflow: %v", err)), nil
	}
	return jsonResult(workflow)
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
