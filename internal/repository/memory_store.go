package repository

import (
	"context"
	"sync"
	"time"

	"sow-signoff/backend/pkg/models"
)

// MemoryStore is an in-process implementation of Repository. Records are
// copied on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu sync.RWMutex

	approvals     map[string]*models.SectionApproval
	approvalOrder []string
	workflows     map[string]*models.ApprovalWorkflow
	workflowOrder []string
	stakeholders  map[string]*models.Stakeholder
	stakeOrder    []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		approvals:    make(map[string]*models.SectionApproval),
		workflows:    make(map[string]*models.ApprovalWorkflow),
		stakeholders: make(map[string]*models.Stakeholder),
	}
}

// CreateSectionApproval inserts a section approval unless its section already exists.
func (s *MemoryStore) CreateSectionApproval(ctx context.Context, approval *models.SectionApproval) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.approvalOrder {
		existing := s.approvals[id]
		if existing.ProjectID == approval.ProjectID &&
			existing.AssessmentID == approval.AssessmentID &&
			existing.SectionName == approval.SectionName {
			return false, nil
		}
	}

	now := time.Now().UTC()
	approval.Version = 1
	approval.CreatedAt = now
	approval.UpdatedAt = now
	s.approvals[approval.ID] = approval.Clone()
	s.approvalOrder = append(s.approvalOrder, approval.ID)
	return true, nil
}

// GetSectionApproval retrieves a section approval by its ID.
func (s *MemoryStore) GetSectionApproval(ctx context.Context, id string) (*models.SectionApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	approval, ok := s.approvals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return approval.Clone(), nil
}

// ListSectionApprovals returns an assessment's section approvals in creation order.
func (s *MemoryStore) ListSectionApprovals(ctx context.Context, projectID, assessmentID string) ([]*models.SectionApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.SectionApproval
	for _, id := range s.approvalOrder {
		a := s.approvals[id]
		if a.ProjectID == projectID && a.AssessmentID == assessmentID {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// UpdateSectionApproval replaces a section approval if the version matches.
func (s *MemoryStore) UpdateSectionApproval(ctx context.Context, approval *models.SectionApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.approvals[approval.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != approval.Version {
		return ErrVersionConflict
	}

	approval.Version++
	approval.UpdatedAt = time.Now().UTC()
	approval.CreatedAt = existing.CreatedAt
	s.approvals[approval.ID] = approval.Clone()
	return nil
}

// CreateWorkflow inserts a workflow.
func (s *MemoryStore) CreateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	workflow.Version = 1
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	s.workflows[workflow.ID] = workflow.Clone()
	s.workflowOrder = append(s.workflowOrder, workflow.ID)
	return nil
}

// GetWorkflow retrieves a workflow by its ID.
func (s *MemoryStore) GetWorkflow(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return workflow.Clone(), nil
}

// GetLatestWorkflow returns the newest workflow of an assessment.
func (s *MemoryStore) GetLatestWorkflow(ctx context.Context, projectID, assessmentID string) (*models.ApprovalWorkflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.workflowOrder) - 1; i >= 0; i-- {
		w := s.workflows[s.workflowOrder[i]]
		if w.ProjectID == projectID && w.AssessmentID == assessmentID {
			return w.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// UpdateWorkflow replaces a workflow if the version matches.
func (s *MemoryStore) UpdateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workflows[workflow.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != workflow.Version {
		return ErrVersionConflict
	}

	workflow.Version++
	workflow.UpdatedAt = time.Now().UTC()
	workflow.CreatedAt = existing.CreatedAt
	s.workflows[workflow.ID] = workflow.Clone()
	return nil
}

// ListStakeholders returns a project's stakeholders in insertion order.
func (s *MemoryStore) ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Stakeholder
	for _, id := range s.stakeOrder {
		st := s.stakeholders[id]
		if st.ProjectID == projectID {
			out = append(out, cloneStakeholder(st))
		}
	}
	return out, nil
}

// GetStakeholder retrieves a stakeholder by its ID.
func (s *MemoryStore) GetStakeholder(ctx context.Context, id string) (*models.Stakeholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stakeholders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneStakeholder(st), nil
}

// UpsertStakeholder inserts or replaces a stakeholder, keeping its original position.
func (s *MemoryStore) UpsertStakeholder(ctx context.Context, stakeholder *models.Stakeholder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.stakeholders[stakeholder.ID]; ok {
		stakeholder.CreatedAt = existing.CreatedAt
	} else {
		stakeholder.CreatedAt = now
		s.stakeOrder = append(s.stakeOrder, stakeholder.ID)
	}
	stakeholder.UpdatedAt = now
	s.stakeholders[stakeholder.ID] = cloneStakeholder(stakeholder)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func cloneStakeholder(st *models.Stakeholder) *models.Stakeholder {
	c := *st
	c.KnowledgeAreas = append([]models.Tier(nil), st.KnowledgeAreas...)
	c.Specializations = append([]string(nil), st.Specializations...)
	c.Responsibilities = append([]string(nil), st.Responsibilities...)
	c.CanApprove = append([]string(nil), st.CanApprove...)
	if st.ReportsTo != nil {
		r := *st.ReportsTo
		c.ReportsTo = &r
	}
	return &c
}
