package services

import (
	"context"

	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOpportunityRepository is a mock implementation of OpportunityRepositoryInterface
type MockOpportunityRepository struct {
	mock.Mock
}

// Ensure MockOpportunityRepository implements the interface
var _ repository.OpportunityRepositoryInterface = (*MockOpportunityRepository)(nil)

// WithTransaction executes the callback with the mock itself, simulating a transaction
func (m *MockOpportunityRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.OpportunityRepositoryInterface) error) error {
	return fn(m)
}

func (m *MockOpportunityRepository) CreateOpportunity(ctx context.Context, opp *models.Opportunity) error {
	args := m.Called(ctx, opp)
	if args.Error(0) == nil && opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockOpportunityRepository) GetOpportunityByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) GetOpportunityByRemoteID(ctx context.Context, source, remoteID string) (*models.Opportunity, error) {
	args := m.Called(ctx, source, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) UpdateOpportunityFields(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error {
	args := m.Called(ctx, opp, updates)
	return args.Error(0)
}

func (m *MockOpportunityRepository) UpdateOpportunityStatus(ctx context.Context, opp *models.Opportunity, newStatus string, updates map[string]interface{}) error {
	args := m.Called(ctx, opp, newStatus, updates)
	if args.Error(0) == nil {
		opp.WorkflowStatus = newStatus
	}
	return args.Error(0)
}

func (m *MockOpportunityRepository) UpdateOpportunityVersioned(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error {
	args := m.Called(ctx, opp, updates)
	if args.Error(0) == nil {
		opp.VersionNo++
		if status, ok := updates["workflow_status"].(string); ok {
			opp.WorkflowStatus = status
		}
	}
	return args.Error(0)
}

func (m *MockOpportunityRepository) CreateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error {
	args := m.Called(ctx, assessment)
	if args.Error(0) == nil && assessment.ID == uuid.Nil {
		assessment.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockOpportunityRepository) UpdateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockOpportunityRepository) GetActiveDraft(ctx context.Context, oppID uuid.UUID) (*models.ScoreAssessment, error) {
	args := m.Called(ctx, oppID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreAssessment), args.Error(1)
}

func (m *MockOpportunityRepository) SupersedeDraft(ctx context.Context, oppID uuid.UUID) error {
	args := m.Called(ctx, oppID)
	return args.Error(0)
}

func (m *MockOpportunityRepository) GetAssessmentBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.ScoreAssessment, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreAssessment), args.Error(1)
}

func (m *MockOpportunityRepository) ListSubmittedAssessments(ctx context.Context, oppID uuid.UUID) ([]models.ScoreAssessment, error) {
	args := m.Called(ctx, oppID)
	return args.Get(0).([]models.ScoreAssessment), args.Error(1)
}

func (m *MockOpportunityRepository) CreateAssignment(ctx context.Context, record *models.AssignmentRecord) error {
	args := m.Called(ctx, record)
	if args.Error(0) == nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockOpportunityRepository) SupersedeAssignments(ctx context.Context, oppID uuid.UUID, role string) error {
	args := m.Called(ctx, oppID, role)
	return args.Error(0)
}

func (m *MockOpportunityRepository) ListAssignments(ctx context.Context, oppID uuid.UUID) ([]models.AssignmentRecord, error) {
	args := m.Called(ctx, oppID)
	return args.Get(0).([]models.AssignmentRecord), args.Error(1)
}

func (m *MockOpportunityRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.WorkflowUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowUser), args.Error(1)
}

func (m *MockOpportunityRepository) ListUsersByRole(ctx context.Context, role string) ([]models.WorkflowUser, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.WorkflowUser), args.Error(1)
}

func (m *MockOpportunityRepository) ListActionRequired(ctx context.Context, actorID uuid.UUID, flagRoles []string, assessor bool, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	args := m.Called(ctx, actorID, flagRoles, assessor, scope, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult), args.Error(1)
}

func (m *MockOpportunityRepository) ListInProgress(ctx context.Context, actorID uuid.UUID, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	args := m.Called(ctx, actorID, scope, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult), args.Error(1)
}

func (m *MockOpportunityRepository) ListInReview(ctx context.Context, statuses []string, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	args := m.Called(ctx, statuses, scope, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult), args.Error(1)
}

func (m *MockOpportunityRepository) ListCompleted(ctx context.Context, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	args := m.Called(ctx, scope, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult), args.Error(1)
}

func (m *MockOpportunityRepository) ListAll(ctx context.Context, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	args := m.Called(ctx, scope, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult), args.Error(1)
}

func (m *MockOpportunityRepository) CreateSyncLog(ctx context.Context, log *models.SyncLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockOpportunityRepository) UpdateSyncLog(ctx context.Context, log *models.SyncLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}
