package repository

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sow-signoff/backend/pkg/models"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "signoff.db")

	store, err := NewSQLiteStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	runRepositorySuite(t, store)

	// Migrating an existing database is harmless.
	assert.NoError(t, store.Migrate(ctx))
}

func TestNewSQLiteStore_MissingDSN(t *testing.T) {
	_, err := NewSQLiteStore(context.Background(), "  ")
	assert.Error(t, err)
}

func TestSQLiteStore_UpdateConflictDetection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := newSQLiteStore(db)
	ctx := context.Background()
	approval := &models.SectionApproval{ID: "sa-1", Version: 3, Status: models.ApprovalPending}

	// Stale version: no row updated, but the record exists.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE section_approvals")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM section_approvals WHERE id = ?")).
		WithArgs("sa-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err = store.UpdateSectionApproval(ctx, approval)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 3, approval.Version)

	// Missing record.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE section_approvals")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM section_approvals WHERE id = ?")).
		WithArgs("sa-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err = store.UpdateSectionApproval(ctx, approval)
	assert.ErrorIs(t, err, ErrNotFound)

	// Successful write bumps the caller's version.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE section_approvals")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateSectionApproval(ctx, approval))
	assert.Equal(t, 4, approval.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_WorkflowUpdateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := newSQLiteStore(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_workflows")).
		WillReturnError(sqlmock.ErrCancelled)

	err = store.UpdateWorkflow(context.Background(), &models.ApprovalWorkflow{ID: "wf-1", Version: 1})
	assert.ErrorIs(t, err, sqlmock.ErrCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_DuplicateSectionNotCreated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := newSQLiteStore(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO section_approvals")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.CreateSectionApproval(context.Background(), &models.SectionApproval{
		ID:           "sa-2",
		ProjectID:    "p",
		AssessmentID: "a",
		SectionName:  "Scope",
		Status:       models.ApprovalPending,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
