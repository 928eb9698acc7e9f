package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sow-signoff/backend/pkg/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS stakeholders (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	knowledge_areas JSONB NOT NULL DEFAULT '[]',
	specializations JSONB NOT NULL DEFAULT '[]',
	responsibilities JSONB NOT NULL DEFAULT '[]',
	can_approve JSONB NOT NULL DEFAULT '[]',
	involvement_level TEXT NOT NULL DEFAULT '',
	reports_to TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS stakeholders_project_idx ON stakeholders (project_id, seq);

CREATE TABLE IF NOT EXISTS section_approvals (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	assessment_id TEXT NOT NULL,
	section_name TEXT NOT NULL,
	approval_required BOOLEAN NOT NULL,
	required_approvers JSONB NOT NULL DEFAULT '[]',
	decisions JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	finalized_at TIMESTAMPTZ,
	finalized_by TEXT,
	version INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, assessment_id, section_name)
);

CREATE TABLE IF NOT EXISTS approval_workflows (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	assessment_id TEXT NOT NULL,
	steps JSONB NOT NULL DEFAULT '[]',
	current_step INT NOT NULL,
	overall_status TEXT NOT NULL,
	completed_at TIMESTAMPTZ,
	version INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS approval_workflows_scope_idx ON approval_workflows (project_id, assessment_id, seq);
`

const (
	approvalColumnsSQL = `id, project_id, assessment_id, section_name, approval_required,
	required_approvers, decisions, status, finalized_at, finalized_by, version, created_at, updated_at`
	workflowColumnsSQL = `id, project_id, assessment_id, steps, current_step, overall_status,
	completed_at, version, created_at, updated_at`
	stakeholderColumnsSQL = `id, project_id, name, title, role, email, knowledge_areas,
	specializations, responsibilities, can_approve, involvement_level, reports_to, created_at, updated_at`
)

// PostgresStore is a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the store's tables if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateSectionApproval inserts a section approval unless its section already exists.
func (s *PostgresStore) CreateSectionApproval(ctx context.Context, approval *models.SectionApproval) (bool, error) {
	cols, err := encodeApproval(approval)
	if err != nil {
		return false, err
	}

	err = s.db.QueryRow(ctx, `
INSERT INTO section_approvals (id, project_id, assessment_id, section_name, approval_required,
	required_approvers, decisions, status, finalized_at, finalized_by, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
ON CONFLICT (project_id, assessment_id, section_name) DO NOTHING
RETURNING version, created_at, updated_at`,
		approval.ID, approval.ProjectID, approval.AssessmentID, approval.SectionName, approval.ApprovalRequired,
		cols.required, cols.decisions, string(approval.Status), approval.FinalizedAt, approval.FinalizedBy,
	).Scan(&approval.Version, &approval.CreatedAt, &approval.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to insert section approval: %w", err)
	}
	return true, nil
}

// GetSectionApproval retrieves a section approval by its ID.
func (s *PostgresStore) GetSectionApproval(ctx context.Context, id string) (*models.SectionApproval, error) {
	row := s.db.QueryRow(ctx, "SELECT "+approvalColumnsSQL+" FROM section_approvals WHERE id = $1", id)
	approval, err := scanApproval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return approval, err
}

// ListSectionApprovals returns an assessment's section approvals in creation order.
func (s *PostgresStore) ListSectionApprovals(ctx context.Context, projectID, assessmentID string) ([]*models.SectionApproval, error) {
	rows, err := s.db.Query(ctx, "SELECT "+approvalColumnsSQL+
		" FROM section_approvals WHERE project_id = $1 AND assessment_id = $2 ORDER BY seq", projectID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list section approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*models.SectionApproval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// UpdateSectionApproval writes a section approval if its version is current.
func (s *PostgresStore) UpdateSectionApproval(ctx context.Context, approval *models.SectionApproval) error {
	cols, err := encodeApproval(approval)
	if err != nil {
		return err
	}

	err = s.db.QueryRow(ctx, `
UPDATE section_approvals
SET required_approvers = $3, decisions = $4, status = $5, finalized_at = $6, finalized_by = $7,
	version = version + 1, updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version, updated_at`,
		approval.ID, approval.Version, cols.required, cols.decisions, string(approval.Status),
		approval.FinalizedAt, approval.FinalizedBy,
	).Scan(&approval.Version, &approval.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.missingOrConflict(ctx, "section_approvals", approval.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update section approval: %w", err)
	}
	return nil
}

// CreateWorkflow inserts a workflow.
func (s *PostgresStore) CreateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	steps, err := encodeJSON(workflow.Steps)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx, `
INSERT INTO approval_workflows (id, project_id, assessment_id, steps, current_step, overall_status, completed_at, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
RETURNING version, created_at, updated_at`,
		workflow.ID, workflow.ProjectID, workflow.AssessmentID, steps, workflow.CurrentStep,
		string(workflow.OverallStatus), workflow.CompletedAt,
	).Scan(&workflow.Version, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow by its ID.
func (s *PostgresStore) GetWorkflow(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	row := s.db.QueryRow(ctx, "SELECT "+workflowColumnsSQL+" FROM approval_workflows WHERE id = $1", id)
	workflow, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return workflow, err
}

// GetLatestWorkflow returns the newest workflow of an assessment.
func (s *PostgresStore) GetLatestWorkflow(ctx context.Context, projectID, assessmentID string) (*models.ApprovalWorkflow, error) {
	row := s.db.QueryRow(ctx, "SELECT "+workflowColumnsSQL+
		" FROM approval_workflows WHERE project_id = $1 AND assessment_id = $2 ORDER BY seq DESC LIMIT 1",
		projectID, assessmentID)
	workflow, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return workflow, err
}

// UpdateWorkflow writes a workflow if its version is current.
func (s *PostgresStore) UpdateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	steps, err := encodeJSON(workflow.Steps)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx, `
UPDATE approval_workflows
SET steps = $3, current_step = $4, overall_status = $5, completed_at = $6,
	version = version + 1, updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version, updated_at`,
		workflow.ID, workflow.Version, steps, workflow.CurrentStep, string(workflow.OverallStatus), workflow.CompletedAt,
	).Scan(&workflow.Version, &workflow.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.missingOrConflict(ctx, "approval_workflows", workflow.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	return nil
}

// ListStakeholders returns a project's stakeholders in insertion order.
func (s *PostgresStore) ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error) {
	rows, err := s.db.Query(ctx, "SELECT "+stakeholderColumnsSQL+" FROM stakeholders WHERE project_id = $1 ORDER BY seq", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}
	defer rows.Close()

	var stakeholders []*models.Stakeholder
	for rows.Next() {
		st, err := scanStakeholder(rows)
		if err != nil {
			return nil, err
		}
		stakeholders = append(stakeholders, st)
	}
	return stakeholders, rows.Err()
}

// GetStakeholder retrieves a stakeholder by its ID.
func (s *PostgresStore) GetStakeholder(ctx context.Context, id string) (*models.Stakeholder, error) {
	st, err := scanStakeholder(s.db.QueryRow(ctx, "SELECT "+stakeholderColumnsSQL+" FROM stakeholders WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

// UpsertStakeholder inserts or replaces a stakeholder.
func (s *PostgresStore) UpsertStakeholder(ctx context.Context, st *models.Stakeholder) error {
	cols, err := encodeStakeholder(st)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx, `
INSERT INTO stakeholders (id, project_id, name, title, role, email, knowledge_areas,
	specializations, responsibilities, can_approve, involvement_level, reports_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	project_id = EXCLUDED.project_id, name = EXCLUDED.name, title = EXCLUDED.title, role = EXCLUDED.role,
	email = EXCLUDED.email, knowledge_areas = EXCLUDED.knowledge_areas,
	specializations = EXCLUDED.specializations, responsibilities = EXCLUDED.responsibilities,
	can_approve = EXCLUDED.can_approve, involvement_level = EXCLUDED.involvement_level,
	reports_to = EXCLUDED.reports_to, updated_at = now()
RETURNING created_at, updated_at`,
		st.ID, st.ProjectID, st.Name, st.Title, st.Role, st.Email, cols.knowledge, cols.specializations,
		cols.responsibilities, cols.canApprove, string(st.InvolvementLevel), st.ReportsTo,
	).Scan(&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert stakeholder: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) missingOrConflict(ctx context.Context, table, id string) error {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func scanApproval(row pgx.Row) (*models.SectionApproval, error) {
	var (
		a      models.SectionApproval
		cols   approvalColumns
		status string
	)
	err := row.Scan(&a.ID, &a.ProjectID, &a.AssessmentID, &a.SectionName, &a.ApprovalRequired,
		&cols.required, &cols.decisions, &status, &a.FinalizedAt, &a.FinalizedBy, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.ApprovalStatus(status)
	if err := cols.decodeInto(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanWorkflow(row pgx.Row) (*models.ApprovalWorkflow, error) {
	var (
		w      models.ApprovalWorkflow
		steps  []byte
		status string
	)
	err := row.Scan(&w.ID, &w.ProjectID, &w.AssessmentID, &steps, &w.CurrentStep, &status,
		&w.CompletedAt, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.OverallStatus = models.WorkflowStatus(status)
	if err := decodeJSON(steps, &w.Steps); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanStakeholder(row pgx.Row) (*models.Stakeholder, error) {
	var (
		st          models.Stakeholder
		cols        stakeholderColumns
		involvement string
	)
	err := row.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Title, &st.Role, &st.Email, &cols.knowledge,
		&cols.specializations, &cols.responsibilities, &cols.canApprove, &involvement, &st.ReportsTo,
		&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.InvolvementLevel = models.InvolvementLevel(involvement)
	if err := cols.decodeInto(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
