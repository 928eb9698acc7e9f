package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/pkg/models"
)

const (
	kindSectionApproval = "section approval"
	kindStakeholder     = "stakeholder"
)

// InitializeResult lists what an initialization created and what already existed.
type InitializeResult struct {
	Created []*models.SectionApproval `json:"created"`
	Skipped []string                  `json:"skipped,omitempty"`
}

// DecisionInput is one stakeholder's verdict on a section.
type DecisionInput struct {
	SectionApprovalID string
	StakeholderID     string
	Status            models.DecisionStatus
	Comments          string
}

// ApprovalService tracks per-section sign-off for an assessment.
type ApprovalService struct {
	store     repository.SectionApprovalStore
	directory repository.StakeholderDirectory
	sections  []models.SectionDefinition
	logger    Logger
	metrics   *metrics
	now       func() time.Time
}

// NewApprovalService creates an ApprovalService. An empty sections list
// selects DefaultSections.
func NewApprovalService(store repository.SectionApprovalStore, directory repository.StakeholderDirectory, sections []models.SectionDefinition, logger Logger) *ApprovalService {
	if len(sections) == 0 {
		sections = DefaultSections()
	}
	return &ApprovalService{
		store:     store,
		directory: directory,
		sections:  sections,
		logger:    orNop(logger),
		metrics:   newMetrics(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sections returns the section definitions InitializeApprovals uses.
func (s *ApprovalService) Sections() []models.SectionDefinition {
	return append([]models.SectionDefinition(nil), s.sections...)
}

// InitializeApprovals creates a record for each configured section that the
// assessment does not have yet.
func (s *ApprovalService) InitializeApprovals(ctx context.Context, projectID, assessmentID string) (*InitializeResult, error) {
	return s.InitializeSections(ctx, projectID, assessmentID, s.sections)
}

// InitializeSections creates a record for each definition whose name is not
// yet present for the assessment. Existing records are left untouched.
// Required approvers are the stakeholders whose role or title matches one of
// the section's role hints; sections that need no approval get none.
func (s *ApprovalService) InitializeSections(ctx context.Context, projectID, assessmentID string, defs []models.SectionDefinition) (*InitializeResult, error) {
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
	existing, err := s.store.ListSectionApprovals(ctx, projectID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list section approvals: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, a := range existing {
		present[a.SectionName] = true
	}

	result := &InitializeResult{Created: []*models.SectionApproval{}}
	now := s.now()
	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, &ValidationError{Field: "section.name", Message: "must not be empty"}
		}
		if present[name] {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		approval := &models.SectionApproval{
			ID:                uuid.New().String(),
			ProjectID:         projectID,
			AssessmentID:      assessmentID,
			SectionName:       name,
			ApprovalRequired:  def.ApprovalRequired,
			RequiredApprovers: []string{},
			Decisions:         []models.ApprovalDecision{},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if def.ApprovalRequired {
			for _, st := range stakeholders {
				if st.ID != "" && matchesRole(st, def.Roles) {
					approval.RequiredApprovers = append(approval.RequiredApprovers, st.ID)
				}
			}
		}
		approval.Refresh("", now)

		created, err := s.store.CreateSectionApproval(ctx, approval)
		if err != nil {
			return nil, fmt.Errorf("failed to create section approval %q: %w", name, err)
		}
		present[name] = true
		if !created {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		result.Created = append(result.Created, approval)
	}

	s.logger.Info("Initialized section approvals",
		"project_id", projectID, "assessment_id", assessmentID,
		"created", len(result.Created), "skipped", len(result.Skipped))
	return result, nil
}

// GetApprovalStatus returns the assessment's sections in creation order.
func (s *ApprovalService) GetApprovalStatus(ctx context.Context, projectID, assessmentID string) ([]*models.SectionApproval, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	if err := requireField("assessment_id", assessmentID); err != nil {
		return nil, err
	}
	approvals, err := s.store.ListSectionApprovals(ctx, projectID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list section approvals: %w", err)
	}
	if approvals == nil {
		approvals = []*models.SectionApproval{}
	}
	for _, a := range approvals {
		s.rederive(a)
	}
	return approvals, nil
}

// GetSectionApproval returns a single section record.
func (s *ApprovalService) GetSectionApproval(ctx context.Context, id string) (*models.SectionApproval, error) {
	if err := requireField("approval_id", id); err != nil {
		return nil, err
	}
	approval, err := s.store.GetSectionApproval(ctx, id)
	if err != nil {
		return nil, storeError(err, kindSectionApproval, id, "get section approval")
	}
	s.rederive(approval)
	return approval, nil
}

// rederive corrects a stored status that disagrees with the decisions.
func (s *ApprovalService) rederive(a *models.SectionApproval) {
	derived := models.DeriveStatus(a.RequiredApprovers, a.Decisions)
	if derived != a.Status {
		s.logger.Warn("Stored section status is stale",
			"section_approval_id", a.ID, "stored", a.Status, "derived", derived)
		a.Status = derived
	}
}

// SubmitDecision records a stakeholder's decision, replacing any earlier
// decision of theirs, and re-derives the section status in the same write.
// Rejections and change requests must carry comments. The stakeholder must
// belong to the section's project.
func (s *ApprovalService) SubmitDecision(ctx context.Context, in DecisionInput) (*models.SectionApproval, error) {
	if err := requireField("approval_id", in.SectionApprovalID); err != nil {
		return nil, err
	}
	if err := requireField("stakeholder_id", in.StakeholderID); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown decision %q", in.Status)}
	}
	if in.Status != models.DecisionApproved && strings.TrimSpace(in.Comments) == "" {
		return nil, &ValidationError{Field: "comments", Message: "required when rejecting or requesting changes"}
	}

	approval, err := s.store.GetSectionApproval(ctx, in.SectionApprovalID)
	if err != nil {
		return nil, storeError(err, kindSectionApproval, in.SectionApprovalID, "get section approval")
	}
	if err := s.requireStakeholder(ctx, approval.ProjectID, in.StakeholderID); err != nil {
		return nil, err
	}

	now := s.now()
	approval.RecordDecision(models.ApprovalDecision{
		StakeholderID: in.StakeholderID,
		Status:        in.Status,
		Comments:      strings.TrimSpace(in.Comments),
		DecidedAt:     now,
	})
	prev := approval.Status
	approval.Refresh(in.StakeholderID, now)
	approval.UpdatedAt = now

	if err := s.store.UpdateSectionApproval(ctx, approval); err != nil {
		err = storeError(err, kindSectionApproval, in.SectionApprovalID, "update section approval")
		if IsConflict(err) {
			s.metrics.add(ctx, s.metrics.conflicts, attribute.String("kind", "section_approval"))
		}
		return nil, err
	}

	s.metrics.add(ctx, s.metrics.decisions, attribute.String("status", string(in.Status)))
	s.logger.Info("Recorded approval decision",
		"section_approval_id", approval.ID, "section", approval.SectionName,
		"stakeholder_id", in.StakeholderID, "decision", in.Status,
		"from", prev, "to", approval.Status)
	return approval, nil
}

// requireStakeholder fails with a NotFoundError unless the directory holds
// the stakeholder within the project.
func (s *ApprovalService) requireStakeholder(ctx context.Context, projectID, stakeholderID string) error {
	st, err := s.directory.GetStakeholder(ctx, stakeholderID)
	if err != nil {
		return storeError(err, kindStakeholder, stakeholderID, "get stakeholder")
	}
	if st.ProjectID != projectID {
		return &NotFoundError{Kind: kindStakeholder, ID: stakeholderID}
	}
	return nil
}

// GetStatistics summarizes the assessment's sign-off progress. The
// completion percentage counts only sections that require approval and is
// 0 when there are none.
func (s *ApprovalService) GetStatistics(ctx context.Context, projectID, assessmentID string) (*models.ApprovalStatistics, error) {
	approvals, err := s.GetApprovalStatus(ctx, projectID, assessmentID)
	if err != nil {
		return nil, err
	}
	return Statistics(approvals), nil
}

// Statistics computes the summary of a set of section records.
func Statistics(approvals []*models.SectionApproval) *models.ApprovalStatistics {
	stats := &models.ApprovalStatistics{TotalSections: len(approvals)}
	var required, requiredApproved int
	for _, a := range approvals {
		status := models.DeriveStatus(a.RequiredApprovers, a.Decisions)
		switch status {
		case models.ApprovalApproved:
			stats.Approved++
		case models.ApprovalRejected:
			stats.Rejected++
		case models.ApprovalChangesRequested:
			stats.ChangesRequested++
		default:
			stats.Pending++
		}
		if a.ApprovalRequired {
			required++
			if status == models.ApprovalApproved {
				requiredApproved++
			}
		}
	}
	if required > 0 {
		stats.CompletionPercentage = int(math.Round(float64(requiredApproved) * 100 / float64(required)))
	}
	return stats
}

// GetPendingApprovers maps each non-approved section to the required
// approvers who have not approved it yet. Sections with nobody outstanding
// are omitted; approver IDs missing from the directory are skipped.
func (s *ApprovalService) GetPendingApprovers(ctx context.Context, projectID, assessmentID string) (map[string][]*models.Stakeholder, error) {
	approvals, err := s.GetApprovalStatus(ctx, projectID, assessmentID)
	if err != nil {
		return nil, err
	}
	stakeholders, err := s.directory.ListStakeholders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}
	byID := make(map[string]*models.Stakeholder, len(stakeholders))
	for _, st := range stakeholders {
		byID[st.ID] = st
	}

	pending := make(map[string][]*models.Stakeholder)
	for _, a := range approvals {
		if a.Status == models.ApprovalApproved {
			continue
		}
		for _, id := range a.PendingApprovers() {
			st, ok := byID[id]
			if !ok {
				s.logger.Warn("Required approver not in stakeholder directory",
					"section_approval_id", a.ID, "stakeholder_id", id)
				continue
			}
			pending[a.SectionName] = append(pending[a.SectionName], st)
		}
	}
	return pending, nil
}
