package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/pkg/models"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Warn(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// MockDirectory satisfies repository.StakeholderDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ListStakeholders(ctx context.Context, projectID string) ([]*models.Stakeholder, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stakeholder), args.Error(1)
}

func (m *MockDirectory) GetStakeholder(ctx context.Context, id string) (*models.Stakeholder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stakeholder), args.Error(1)
}

// conflictStore fails every update as if another writer got there first.
type conflictStore struct {
	*repository.MemoryStore
}

func (s *conflictStore) UpdateSectionApproval(ctx context.Context, approval *models.SectionApproval) error {
	return repository.ErrVersionConflict
}

func (s *conflictStore) UpdateWorkflow(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	return repository.ErrVersionConflict
}

const (
	testProject    = "proj-1"
	testAssessment = "assess-1"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// fixedClock returns a clock that advances one minute per call.
func fixedClock() func() time.Time {
	t := testNow
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seedStakeholders(t *testing.T, store *repository.MemoryStore, stakeholders ...*models.Stakeholder) {
	t.Helper()
	for _, st := range stakeholders {
		if st.ProjectID == "" {
			st.ProjectID = testProject
		}
		require.NoError(t, store.UpsertStakeholder(context.Background(), st))
	}
}

func newApprovalFixture(t *testing.T, stakeholders ...*models.Stakeholder) (*ApprovalService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	seedStakeholders(t, store, stakeholders...)
	svc := NewApprovalService(store, store, nil, &NoOpLogger{})
	svc.now = fixedClock()
	return svc, store
}
