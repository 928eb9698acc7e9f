package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"sow-signoff/backend/pkg/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stakeholders (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	knowledge_areas TEXT NOT NULL DEFAULT '[]',
	specializations TEXT NOT NULL DEFAULT '[]',
	responsibilities TEXT NOT NULL DEFAULT '[]',
	can_approve TEXT NOT NULL DEFAULT '[]',
	involvement_level TEXT NOT NULL DEFAULT '',
	reports_to TEXT,
	created_at_ms INTEGER NOT NULL,
	updated_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS stakeholders_project_idx ON stakeholders (project_id, seq);

CREATE TABLE IF NOT EXISTS section_approvals (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	project_id TEXT NOT NULL,
	assessment_id TEXT NOT NULL,
	section_name TEXT NOT NULL,
	approval_required INTEGER NOT NULL,
	required_approvers TEXT NOT NULL DEFAULT '[]',
	decisions TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	finalized_at_ms INTEGER,
	finalized_by TEXT,
	version INTEGER NOT NULL DEFAULT 1,
	created_at_ms INTEGER NOT NULL,
	updated_at_ms INTEGER NOT NULL,
	UNIQUE (project_id, assessment_id, section_name)
);

CREATE TABLE IF NOT EXISTS approval_workflows (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	project_id TEXT NOT NULL,
	assessment_id TEXT NOT NULL,
	steps TEXT NOT NULL DEFAULT '[]',
	current_step INTEGER NOT NULL,
	overall_status TEXT NOT NULL,
	completed_at_ms INTEGER,
	version INTEGER NOT NULL DEFAULT 1,
	created_at_ms INTEGER NOT NULL,
	updated_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS approval_workflows_scope_idx ON approval_workflows (project_id, assessment_id, seq);
`

const (
	sqliteApprovalColumns = `id, project_id, assessment_id, section_name, approval_required, required_approvers,
	decisions, status, finalized_at_ms, finalized_by, version, created_at_ms, updated_at_ms`
	sqliteWorkflowColumns = `id, project_id, assessment_id, steps, current_step, overall_status,
	completed_at_ms, version, created_at_ms, updated_at_ms`
	sqliteStakeholderColumns = `id, project_id, name, title, role, email, knowledge_areas, specializations,
	responsibilities, can_approve, involvement_level, reports_to, created_at_ms, updated_at_ms`
)

// SQLiteStore is a SQLite implementation of the Repository interface, for
// single-node deployments and local development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and migrates it.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("missing sqlite dsn")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time; the version column still guards read-modify-write.
	db.SetMaxOpenConns(1)

	s := newSQLiteStore(db)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite pragmas: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Migrate creates the store's tables if they are missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// CreateSectionApproval inserts a section approval unless its section already exists.
func (s *SQLiteStore) CreateSectionApproval(ctx context.Context, approval *models.SectionApproval) (bool, error) {
	cols, err := encodeApproval(approval)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
INSERT INTO section_approvals (id, project_id, assessment_id, section_name, approval_required,
	required_approvers, decisions, status, finalized_at_ms, finalized_by, version, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
ON CONFLICT (project_id, assessment_id, section_name) DO NOTHING`,
		approval.ID, approval.ProjectID, approval.AssessmentID, approval.SectionName, approval.ApprovalRequired,
		string(cols.required), string(cols.decisions), string(approval.Status),
		nullUnixMilli(approval.FinalizedAt), nullString(approval.FinalizedBy), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert section approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	approval.Version = 1
	approval.CreatedAt = fromUnixMilli(now.UnixMilli())
	approval.UpdatedAt = approval.CreatedAt
	return true, nil
}

// GetSectionApproval retrieves a section approval by its ID.
func (s *SQLiteStore) GetSectionApproval(ctx context.Context, id string) (*models.SectionApproval, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteApprovalColumns+" FROM section_approvals WHERE id = ?", id)
	approval, err := scanSQLiteApproval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return approval, err
}

// ListSectionApprovals returns an assessment's section approvals in creation order.
func (s *SQLiteStore) ListSectionApprovals(ctx context.Context, projectID, assessmentID string) ([]*models.SectionApproval, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sqliteApprovalColumns+
		" FROM section_approvals WHERE project_id = ? AND assessment_id = ? ORDER BY seq", projectID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list section approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*models.SectionApproval
	for rows.Next() {
		approval, err := scanSQLiteApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// UpdateSectionApproval writes a section approval if its version is current.
func (s *SQLiteStore) UpdateSectionApproval(ctx context.Context, approval *models.SectionApproval) error {
	cols, err := encodeApproval(approval)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	result, err := s.db.ExecContext(ctx, `
UPDATE section_approvals
SET required_approvers = ?, decisions = ?, status = ?, finalized_at_ms = ?, finalized_by = ?,
	version = version + 1, updated_at_ms = ?
WHERE id = ? AND version = ?`,
		string(cols.required), string(cols.decisions), string(approval.Status),
		nullUnixMilli(approval.FinalizedAt), nullString(approval.FinalizedBy), now,
		approval.ID, approval.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update section approval: %w", err)
	}
	if err := s.checkUpdated(ctx, result, "section_approvals", approval.ID); err != nil {
		return err
	}
	approval.Version++
	approval.UpdatedAt = fromUnixMilli(now)
	return nil
}

// CreateWorkflow inserts a workflow.
func (s *SQLiteStore) CreateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	steps, err := encodeJSON(workflow.Steps)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO approval_workflows (id, project_id, assessment_id, steps, current_step, overall_status,
	completed_at_ms, version, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		workflow.ID, workflow.ProjectID, workflow.AssessmentID, string(steps), workflow.CurrentStep,
		string(workflow.OverallStatus), nullUnixMilli(workflow.CompletedAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	workflow.Version = 1
	workflow.CreatedAt = fromUnixMilli(now)
	workflow.UpdatedAt = workflow.CreatedAt
	return nil
}

// GetWorkflow retrieves a workflow by its ID.
func (s *SQLiteStore) GetWorkflow(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteWorkflowColumns+" FROM approval_workflows WHERE id = ?", id)
	workflow, err := scanSQLiteWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return workflow, err
}

// GetLatestWorkflow returns the newest workflow of an assessment.
func (s *SQLiteStore) GetLatestWorkflow(ctx context.Context, projectID, assessmentID string) (*models.ApprovalWorkflow, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteWorkflowColumns+
		" FROM approval_workflows WHERE project_id = ? AND assessment_id = ? ORDER BY seq DESC LIMIT 1",
		projectID, assessmentID)
	workflow, err := scanSQLiteWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return workflow, err
}

// UpdateWorkflow writes a workflow if its version is current.
func (s *SQLiteStore) UpdateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	steps, err := encodeJSON(workflow.Steps)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	result, err := s.db.ExecContext(ctx, `
UPDATE approval_workflows
SET steps = ?, current_step = ?, overall_status = ?, completed_at_ms = ?,
	version = version + 1, updated_at_ms = ?
WHERE id = ? AND version = ?`,
		string(steps), workflow.CurrentStep, string(workflow.OverallStatus), nullUnixMilli(workflow.CompletedAt), now,
		workflow.ID, workflow.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	if err := s.checkUpdated(ctx, result, "approval_workflows", workflow.ID); err != nil {
		return err
	}
	workflow.Version++
	workflow.UpdatedAt = fromUnixMilli(now)
	return nil
}

// ListStakeholders returns a project's stakeholders in insertion order.
func (s *SQLiteStore) ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sqliteStakeholderColumns+
		" FROM stakeholders WHERE project_id = ? ORDER BY seq", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}
	defer rows.Close()

	var stakeholders []*models.Stakeholder
	for rows.Next() {
		st, err := scanSQLiteStakeholder(rows)
		if err != nil {
			return nil, err
		}
		stakeholders = append(stakeholders, st)
	}
	return stakeholders, rows.Err()
}

// GetStakeholder retrieves a stakeholder by its ID.
func (s *SQLiteStore) GetStakeholder(ctx context.Context, id string) (*models.Stakeholder, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteStakeholderColumns+" FROM stakeholders WHERE id = ?", id)
	st, err := scanSQLiteStakeholder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

// UpsertStakeholder inserts or replaces a stakeholder, keeping its directory position.
func (s *SQLiteStore) UpsertStakeholder(ctx context.Context, st *models.Stakeholder) error {
	cols, err := encodeStakeholder(st)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO stakeholders (id, project_id, name, title, role, email, knowledge_areas, specializations,
	responsibilities, can_approve, involvement_level, reports_to, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	project_id = excluded.project_id, name = excluded.name, title = excluded.title, role = excluded.role,
	email = excluded.email, knowledge_areas = excluded.knowledge_areas,
	specializations = excluded.specializations, responsibilities = excluded.responsibilities,
	can_approve = excluded.can_approve, involvement_level = excluded.involvement_level,
	reports_to = excluded.reports_to, updated_at_ms = excluded.updated_at_ms`,
		st.ID, st.ProjectID, st.Name, st.Title, st.Role, st.Email, string(cols.knowledge),
		string(cols.specializations), string(cols.responsibilities), string(cols.canApprove),
		string(st.InvolvementLevel), nullString(st.ReportsTo), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stakeholder: %w", err)
	}
	st.UpdatedAt = fromUnixMilli(now)
	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) checkUpdated(ctx context.Context, result sql.Result, table, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table+" WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteApproval(row sqlScanner) (*models.SectionApproval, error) {
	var (
		a                  models.SectionApproval
		required, decided  string
		status             string
		finalizedAt        sql.NullInt64
		finalizedBy        sql.NullString
		createdAt, updated int64
	)
	err := row.Scan(&a.ID, &a.ProjectID, &a.AssessmentID, &a.SectionName, &a.ApprovalRequired, &required,
		&decided, &status, &finalizedAt, &finalizedBy, &a.Version, &createdAt, &updated)
	if err != nil {
		return nil, err
	}
	a.Status = models.ApprovalStatus(status)
	a.FinalizedAt = nullTime(finalizedAt)
	if finalizedBy.Valid {
		by := finalizedBy.String
		a.FinalizedBy = &by
	}
	a.CreatedAt = fromUnixMilli(createdAt)
	a.UpdatedAt = fromUnixMilli(updated)
	cols := approvalColumns{required: []byte(required), decisions: []byte(decided)}
	if err := cols.decodeInto(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanSQLiteWorkflow(row sqlScanner) (*models.ApprovalWorkflow, error) {
	var (
		w                  models.ApprovalWorkflow
		steps, status      string
		completedAt        sql.NullInt64
		createdAt, updated int64
	)
	err := row.Scan(&w.ID, &w.ProjectID, &w.AssessmentID, &steps, &w.CurrentStep, &status,
		&completedAt, &w.Version, &createdAt, &updated)
	if err != nil {
		return nil, err
	}
	w.OverallStatus = models.WorkflowStatus(status)
	w.CompletedAt = nullTime(completedAt)
	w.CreatedAt = fromUnixMilli(createdAt)
	w.UpdatedAt = fromUnixMilli(updated)
	if err := decodeJSON([]byte(steps), &w.Steps); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanSQLiteStakeholder(row sqlScanner) (*models.Stakeholder, error) {
	var (
		st                                  models.Stakeholder
		knowledge, specs, resps, canApprove string
		involvement                         string
		reportsTo                           sql.NullString
		createdAt, updated                  int64
	)
	err := row.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Title, &st.Role, &st.Email, &knowledge, &specs,
		&resps, &canApprove, &involvement, &reportsTo, &createdAt, &updated)
	if err != nil {
		return nil, err
	}
	st.InvolvementLevel = models.InvolvementLevel(involvement)
	if reportsTo.Valid {
		r := reportsTo.String
		st.ReportsTo = &r
	}
	st.CreatedAt = fromUnixMilli(createdAt)
	st.UpdatedAt = fromUnixMilli(updated)
	cols := stakeholderColumns{
		knowledge:        []byte(knowledge),
		specializations:  []byte(specs),
		responsibilities: []byte(resps),
		canApprove:       []byte(canApprove),
	}
	if err := cols.decodeInto(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func nullUnixMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnixMilli(v.Int64)
	return &t
}

func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
