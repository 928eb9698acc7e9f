package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/internal/services"
	"sow-signoff/backend/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *services.ApprovalService, *services.WorkflowService) {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, st := range []*models.Stakeholder{
		{ID: "S1", ProjectID: "p1", Role: "CEO", KnowledgeAreas: []models.Tier{models.TierAI}},
		{ID: "S2", ProjectID: "p1", Role: "Data Engineer", Specializations: []string{"feature store"}},
	} {
		require.NoError(t, store.UpsertStakeholder(ctx, st))
	}

	approvals := services.NewApprovalService(store, store, nil, nil)
	workflows := services.NewWorkflowService(store, nil)
	s := NewServer(approvals, services.NewAssignmentService(store, store, nil), workflows)
	return s, approvals, workflows
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func TestSuggestStakeholdersTool(t *testing.T) {
	s, _, _ := newTestServer(t)

	res, err := s.handleSuggestStakeholders(context.Background(), callRequest("suggest_stakeholders", map[string]interface{}{
		"project_id": "p1",
		"tier":       "ai",
		"phase":      "intelligence",
		"question":   "Do you run a feature store?",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var ranking services.Ranking
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &ranking))
	require.Len(t, ranking.Suggestions, 2)
	// S1: tier expertise plus the intelligence bonus; S2: specialization plus the bonus.
	assert.Equal(t, "S1", ranking.Suggestions[0].Stakeholder.ID)
	assert.Equal(t, 70, ranking.Suggestions[0].Score)
	assert.Equal(t, 30, ranking.Suggestions[1].Score)
}

func TestSubmitDecisionTool(t *testing.T) {
	s, approvals, _ := newTestServer(t)
	ctx := context.Background()

	res, err := approvals.InitializeSections(ctx, "p1", "a1", []models.SectionDefinition{
		{Name: "Executive Summary", ApprovalRequired: true, Roles: []string{"CEO"}},
	})
	require.NoError(t, err)
	sectionID := res.Created[0].ID

	out, err := s.handleSubmitDecision(ctx, callRequest("submit_decision", map[string]interface{}{
		"approval_id":    sectionID,
		"stakeholder_id": "S1",
		"status":         "rejected",
	}))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Contains(t, resultText(t, out), "comments")

	out, err = s.handleSubmitDecision(ctx, callRequest("submit_decision", map[string]interface{}{
		"approval_id":    sectionID,
		"stakeholder_id": "S1",
		"status":         "approved",
	}))
	require.NoError(t, err)
	require.False(t, out.IsError, resultText(t, out))

	var approval models.SectionApproval
	require.NoError(t, json.Unmarshal([]byte(resultText(t, out)), &approval))
	assert.Equal(t, models.ApprovalApproved, approval.Status)

	out, err = s.handleApprovalStatistics(ctx, callRequest("approval_statistics", map[string]interface{}{
		"project_id": "p1", "assessment_id": "a1",
	}))
	require.NoError(t, err)
	var stats models.ApprovalStatistics
	require.NoError(t, json.Unmarshal([]byte(resultText(t, out)), &stats))
	assert.Equal(t, 100, stats.CompletionPercentage)

	out, err = s.handleApprovalStatus(ctx, callRequest("approval_status", map[string]interface{}{
		"project_id": "p1", "assessment_id": "a1",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, out), `"section_name":"Executive Summary"`)
}

func TestToolErrors(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSubmitDecision(ctx, callRequest("submit_decision", map[string]interface{}{
		"approval_id": "missing", "stakeholder_id": "S1", "status": "approved",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")

	res, err = s.handleAdvanceWorkflow(ctx, callRequest("advance_workflow", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Missing required parameter: workflow_id", resultText(t, res))

	var bad mcp.CallToolRequest
	bad.Params.Arguments = "not a map"
	res, err = s.handleApprovalStatus(ctx, bad)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAdvanceWorkflowTool(t *testing.T) {
	s, _, workflows := newTestServer(t)
	ctx := context.Background()

	wf, err := workflows.CreateWorkflow(ctx, "p1", "a1", []models.WorkflowStep{{StepName: "Only"}})
	require.NoError(t, err)

	res, err := s.handleAdvanceWorkflow(ctx, callRequest("advance_workflow", map[string]interface{}{"workflow_id": wf.ID}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var advanced models.ApprovalWorkflow
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &advanced))
	assert.Equal(t, models.WorkflowCompleted, advanced.OverallStatus)
	assert.Equal(t, 2, advanced.CurrentStep)
}
