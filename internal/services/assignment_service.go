package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/pkg/models"
)

// AutoAssignResult reports the outcome of an AutoAssign run.
type AutoAssignResult struct {
	Updated   []*models.SectionApproval `json:"updated"`
	Unchanged []string                  `json:"unchanged,omitempty"`
	Skipped   []SkippedEntry            `json:"skipped,omitempty"`
}

// Err returns a *PartialFailure when any section was skipped.
func (r *AutoAssignResult) Err() error {
	return partialFailure("auto-assign", r.Skipped)
}

// QuestionAssignment pairs a question with its pre-selected assignee.
type QuestionAssignment struct {
	QuestionID string                        `json:"question_id"`
	Suggestion *models.StakeholderSuggestion `json:"suggestion"`
}

// QuestionAssignments is the outcome of AssignQuestions. Questions with no
// suitable candidate are listed in Unassigned.
type QuestionAssignments struct {
	Assignments []QuestionAssignment `json:"assignments"`
	Unassigned  []string             `json:"unassigned,omitempty"`
	Skipped     []SkippedEntry       `json:"skipped,omitempty"`
}

// AssignmentService derives approval duties and question assignees from the
// stakeholder directory.
type AssignmentService struct {
	approvals repository.SectionApprovalStore
	directory repository.StakeholderDirectory
	ranking   *RankingService
	logger    Logger
	metrics   *metrics
	now       func() time.Time
}

// NewAssignmentService creates an AssignmentService.
func NewAssignmentService(approvals repository.SectionApprovalStore, directory repository.StakeholderDirectory, logger Logger) *AssignmentService {
	logger = orNop(logger)
	return &AssignmentService{
		approvals: approvals,
		directory: directory,
		ranking:   NewRankingService(directory, logger),
		logger:    logger,
		metrics:   newMetrics(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// sectionApprovers returns, in directory order, the stakeholders with
// authority over the section: those whose approval authorities cover it and
// every APPROVER.
func sectionApprovers(stakeholders []*models.Stakeholder, sectionName string) []string {
	ids := []string{}
	for _, st := range stakeholders {
		if st.ID == "" {
			continue
		}
		if st.InvolvementLevel == models.InvolvementApprover || canApproveSection(st, sectionName) {
			ids = append(ids, st.ID)
		}
	}
	return ids
}

// AutoAssign replaces every section's required approvers with the
// stakeholders who hold approval authority over it, re-deriving status in
// the same write. Sections that fail to update are skipped and reported.
func (s *AssignmentService) AutoAssign(ctx context.Context, projectID, assessmentID string) (*AutoAssignResult, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	if err := requireField("assessment_id", assessmentID); err != nil {
		return nil, err
	}
	stakeholders, err := s.directory.ListStakeholders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}
	approvals, err := s.approvals.ListSectionApprovals(ctx, projectID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list section approvals: %w", err)
	}

	result := &AutoAssignResult{Updated: []*models.SectionApproval{}}
	now := s.now()
	for _, a := range approvals {
		approvers := sectionApprovers(stakeholders, a.SectionName)
		derived := models.DeriveStatus(approvers, a.Decisions)
		if sameMembers(a.RequiredApprovers, approvers) && derived == a.Status {
			result.Unchanged = append(result.Unchanged, a.SectionName)
			continue
		}

		a.RequiredApprovers = approvers
		a.Refresh("", now)
		a.UpdatedAt = now
		if err := s.approvals.UpdateSectionApproval(ctx, a); err != nil {
			err = storeError(err, kindSectionApproval, a.ID, "update section approval")
			if IsConflict(err) {
				s.metrics.add(ctx, s.metrics.conflicts, attribute.String("kind", "section_approval"))
			}
			s.logger.Warn("Skipping section during auto-assign",
				"section_approval_id", a.ID, "section", a.SectionName, "error", err)
			result.Skipped = append(result.Skipped, SkippedEntry{ID: a.ID, Name: a.SectionName, Reason: err.Error()})
			continue
		}
		s.metrics.add(ctx, s.metrics.autoAssigned)
		result.Updated = append(result.Updated, a)
	}

	s.logger.Info("Auto-assigned section approvers",
		"project_id", projectID, "assessment_id", assessmentID,
		"updated", len(result.Updated), "unchanged", len(result.Unchanged), "skipped", len(result.Skipped))
	return result, nil
}

// SuggestStakeholders ranks the project's stakeholders for a question.
func (s *AssignmentService) SuggestStakeholders(ctx context.Context, projectID string, tier models.Tier, phase models.Phase, question string) (*Ranking, error) {
	return s.ranking.SuggestStakeholders(ctx, projectID, tier, phase, question)
}

// SuggestDefaultAssignee picks the stakeholder a question should be
// pre-assigned to: the best-ranked RESPONSIBLE or ACCOUNTABLE candidate,
// otherwise the best candidate with high or medium confidence. It returns
// nil when nobody qualifies.
func (s *AssignmentService) SuggestDefaultAssignee(ctx context.Context, projectID string, q models.Question) (*models.StakeholderSuggestion, error) {
	ranking, err := s.ranking.SuggestStakeholders(ctx, projectID, q.Tier, q.Phase, q.Text)
	if err != nil {
		return nil, err
	}
	return defaultAssignee(ranking.Suggestions), nil
}

func defaultAssignee(suggestions []models.StakeholderSuggestion) *models.StakeholderSuggestion {
	for i := range suggestions {
		switch suggestions[i].Stakeholder.InvolvementLevel {
		case models.InvolvementResponsible, models.InvolvementAccountable:
			return &suggestions[i]
		}
	}
	if len(suggestions) > 0 && suggestions[0].Confidence != models.ConfidenceLow {
		return &suggestions[0]
	}
	return nil
}

// AssignQuestions pre-selects an assignee for each question. The directory
// is read once; questions without an ID are skipped.
func (s *AssignmentService) AssignQuestions(ctx context.Context, projectID string, questions []models.Question) (*QuestionAssignments, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	stakeholders, err := s.directory.ListStakeholders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}

	out := &QuestionAssignments{Assignments: []QuestionAssignment{}}
	for i, q := range questions {
		if q.ID == "" {
			out.Skipped = append(out.Skipped, SkippedEntry{ID: fmt.Sprintf("#%d", i), Reason: "question has no id"})
			continue
		}
		ranking := Rank(stakeholders, q.Tier, q.Phase, q.Text)
		pick := defaultAssignee(ranking.Suggestions)
		if pick == nil {
			out.Unassigned = append(out.Unassigned, q.ID)
			continue
		}
		out.Assignments = append(out.Assignments, QuestionAssignment{QuestionID: q.ID, Suggestion: pick})
	}
	s.logger.Info("Assigned questions",
		"project_id", projectID, "assigned", len(out.Assignments),
		"unassigned", len(out.Unassigned), "skipped", len(out.Skipped))
	return out, nil
}

var (
	technicalRoleHints = []string{"architect", "cto", "engineer", "engineering", "technical", "technology"}
	businessRoleHints  = []string{"product", "director", "manager", "business"}
)

// DefaultWorkflowSteps builds the standard three-step sign-off sequence
// with approvers drawn from the project's directory.
func (s *AssignmentService) DefaultWorkflowSteps(ctx context.Context, projectID string) ([]models.WorkflowStep, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	stakeholders, err := s.directory.ListStakeholders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}

	technical, business := []string{}, []string{}
	for _, st := range stakeholders {
		if st.ID == "" {
			continue
		}
		if matchesRoleWords(st, technicalRoleHints) {
			technical = append(technical, st.ID)
		}
		if st.InvolvementLevel == models.InvolvementAccountable || matchesRoleWords(st, businessRoleHints) {
			business = append(business, st.ID)
		}
	}

	return []models.WorkflowStep{
		{
			StepName:          "Technical Review",
			Description:       "Architecture and delivery leads confirm technical scope",
			RequiredApprovers: technical,
			ParallelApproval:  true,
		},
		{
			StepName:          "Business Review",
			Description:       "Business owners confirm scope, timeline and commercials",
			RequiredApprovers: business,
			ParallelApproval:  true,
		},
		{
			StepName:          "Executive Sign-off",
			Description:       "Final approval of the statement of work",
			RequiredApprovers: sectionApprovers(stakeholders, "Executive Sign-off"),
		},
	}, nil
}
