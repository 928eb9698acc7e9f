package repository

import (
	"context"
	"errors"

	"sow-signoff/backend/pkg/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when an update was based on a stale read.
	ErrVersionConflict = errors.New("record version conflict")
)

// SectionApprovalStore persists per-section sign-off records.
type SectionApprovalStore interface {
	// CreateSectionApproval inserts a record. It reports false, without
	// error, when the (project, assessment, section) triple already exists.
	CreateSectionApproval(ctx context.Context, approval *models.SectionApproval) (bool, error)
	// GetSectionApproval retrieves a record by its ID.
	GetSectionApproval(ctx context.Context, id string) (*models.SectionApproval, error)
	// ListSectionApprovals returns the records of an assessment in creation order.
	ListSectionApprovals(ctx context.Context, projectID, assessmentID string) ([]*models.SectionApproval, error)
	// UpdateSectionApproval writes the record if its Version still matches
	// the stored one, then increments Version.
	UpdateSectionApproval(ctx context.Context, approval *models.SectionApproval) error
}

// WorkflowStore persists sequential approval workflows.
type WorkflowStore interface {
	// CreateWorkflow inserts a workflow.
	CreateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error
	// GetWorkflow retrieves a workflow by its ID.
	GetWorkflow(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
	// GetLatestWorkflow returns the most recently created workflow of an assessment.
	GetLatestWorkflow(ctx context.Context, projectID, assessmentID string) (*models.ApprovalWorkflow, error)
	// UpdateWorkflow writes the workflow under the same version rule as
	// UpdateSectionApproval.
	UpdateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error
}

// StakeholderDirectory is the read-only view of project stakeholders.
type StakeholderDirectory interface {
	// ListStakeholders returns a project's stakeholders in directory order.
	ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error)
	// GetStakeholder retrieves a stakeholder by its ID.
	GetStakeholder(ctx context.Context, id string) (*models.Stakeholder, error)
}

// StakeholderWriter is the directory's admin surface, used for seeding.
type StakeholderWriter interface {
	UpsertStakeholder(ctx context.Context, stakeholder *models.Stakeholder) error
}

// Repository is the full storage surface of the service.
type Repository interface {
	SectionApprovalStore
	WorkflowStore
	StakeholderDirectory
	StakeholderWriter
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases the store's resources.
	Close() error
}
