package repository

import (
	"context"
	"errors"
	"time"

	"bid-qualification-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict - record was modified by another request")
	ErrStatusConflict  = errors.New("status conflict - workflow status changed underneath this request")
)

// Scope restricts listings to a practice and/or region. Empty fields match all.
type Scope struct {
	Practice string
	Region   string
}

// Page controls listing pagination. A non-positive limit returns counts only.
type Page struct {
	Limit  int
	Offset int
}

// ListResult bundles a page of opportunities with the total match count and
// the summed deal value across all matches.
type ListResult struct {
	Items      []models.Opportunity
	Total      int64
	TotalValue float64
}

// OpportunityRepositoryInterface defines the persistence operations the
// workflow services depend on. Kept as an interface so service tests can
// substitute a mock.
type OpportunityRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(txRepo OpportunityRepositoryInterface) error) error

	CreateOpportunity(ctx context.Context, opp *models.Opportunity) error
	GetOpportunityByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	GetOpportunityByRemoteID(ctx context.Context, source, remoteID string) (*models.Opportunity, error)
	UpdateOpportunityFields(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error
	UpdateOpportunityStatus(ctx context.Context, opp *models.Opportunity, newStatus string, updates map[string]interface{}) error
	UpdateOpportunityVersioned(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error

	CreateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error
	UpdateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error
	GetActiveDraft(ctx context.Context, oppID uuid.UUID) (*models.ScoreAssessment, error)
	SupersedeDraft(ctx context.Context, oppID uuid.UUID) error
	GetAssessmentBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.ScoreAssessment, error)
	ListSubmittedAssessments(ctx context.Context, oppID uuid.UUID) ([]models.ScoreAssessment, error)

	CreateAssignment(ctx context.Context, record *models.AssignmentRecord) error
	SupersedeAssignments(ctx context.Context, oppID uuid.UUID, role string) error
	ListAssignments(ctx context.Context, oppID uuid.UUID) ([]models.AssignmentRecord, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (*models.WorkflowUser, error)
	ListUsersByRole(ctx context.Context, role string) ([]models.WorkflowUser, error)

	ListActionRequired(ctx context.Context, actorID uuid.UUID, flagRoles []string, assessor bool, scope Scope, page Page) (*ListResult, error)
	ListInProgress(ctx context.Context, actorID uuid.UUID, scope Scope, page Page) (*ListResult, error)
	ListInReview(ctx context.Context, statuses []string, scope Scope, page Page) (*ListResult, error)
	ListCompleted(ctx context.Context, scope Scope, page Page) (*ListResult, error)
	ListAll(ctx context.Context, scope Scope, page Page) (*ListResult, error)

	CreateSyncLog(ctx context.Context, log *models.SyncLog) error
	UpdateSyncLog(ctx context.Context, log *models.SyncLog) error
}

// OpportunityRepository handles database operations for the workflow
type OpportunityRepository struct {
	db *gorm.DB
}

var _ OpportunityRepositoryInterface = (*OpportunityRepository)(nil)

// NewOpportunityRepository creates a new OpportunityRepository
func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// WithTransaction runs fn with a repository bound to a database transaction.
func (r *OpportunityRepository) WithTransaction(ctx context.Context, fn func(txRepo OpportunityRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OpportunityRepository{db: tx})
	})
}

// --- Opportunity Methods ---

// CreateOpportunity creates a new opportunity
func (r *OpportunityRepository) CreateOpportunity(ctx context.Context, opp *models.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

// GetOpportunityByID retrieves an opportunity by ID
func (r *OpportunityRepository) GetOpportunityByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&opp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// GetOpportunityByRemoteID retrieves an opportunity by its CRM identity
func (r *OpportunityRepository) GetOpportunityByRemoteID(ctx context.Context, source, remoteID string) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := r.db.WithContext(ctx).
		Where("source = ? AND remote_id = ?", source, remoteID).
		First(&opp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// UpdateOpportunityFields applies unguarded field updates (commercial
// attributes from CRM sync, assignment slots). Workflow status changes must
// go through UpdateOpportunityStatus instead.
func (r *OpportunityRepository) UpdateOpportunityFields(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(opp).
		Where("id = ?", opp.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOpportunityStatus moves the workflow status with a compare-and-swap
// on the current status, so two actors racing the same transition cannot both
// apply it.
func (r *OpportunityRepository) UpdateOpportunityStatus(ctx context.Context, opp *models.Opportunity, newStatus string, updates map[string]interface{}) error {
	oldStatus := opp.WorkflowStatus

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["workflow_status"] = newStatus
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(opp).
		Where("id = ? AND workflow_status = ?", opp.ID, oldStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}

	opp.WorkflowStatus = newStatus
	return nil
}

// UpdateOpportunityVersioned applies updates guarded by version_no and bumps
// it by exactly one. Used for score submissions: a stale version means a
// concurrent submission already landed.
func (r *OpportunityRepository) UpdateOpportunityVersioned(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error {
	oldVersion := opp.VersionNo

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version_no"] = oldVersion + 1
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(opp).
		Where("id = ? AND version_no = ?", opp.ID, oldVersion).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	opp.VersionNo = oldVersion + 1
	if status, ok := updates["workflow_status"].(string); ok {
		opp.WorkflowStatus = status
	}
	return nil
}

// --- Assessment Methods ---

// CreateAssessment appends a new score assessment
func (r *OpportunityRepository) CreateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

// UpdateAssessment saves changes to a draft assessment. Submitted
// assessments are immutable and never pass through here.
func (r *OpportunityRepository) UpdateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error {
	result := r.db.WithContext(ctx).Model(assessment).
		Where("id = ? AND is_draft = true", assessment.ID).
		Updates(map[string]interface{}{
			"sections":       assessment.Sections,
			"weighted_score": assessment.WeightedScore,
			"max_possible":   assessment.MaxPossible,
			"percentage":     assessment.Percentage,
			"verdict":        assessment.Verdict,
			"notes":          assessment.Notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActiveDraft retrieves the current non-superseded draft for an opportunity
func (r *OpportunityRepository) GetActiveDraft(ctx context.Context, oppID uuid.UUID) (*models.ScoreAssessment, error) {
	var assessment models.ScoreAssessment
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ? AND is_draft = true AND superseded = false", oppID).
		Order("created_at DESC").
		First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// SupersedeDraft invalidates any in-flight draft for an opportunity.
// The row is kept; assessments are append-only.
func (r *OpportunityRepository) SupersedeDraft(ctx context.Context, oppID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.ScoreAssessment{}).
		Where("opportunity_id = ? AND is_draft = true AND superseded = false", oppID).
		Update("superseded", true).Error
}

// GetAssessmentBySubmissionID retrieves a submitted assessment by its client
// submission ID, used to detect retried submissions.
func (r *OpportunityRepository) GetAssessmentBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.ScoreAssessment, error) {
	var assessment models.ScoreAssessment
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// ListSubmittedAssessments retrieves submitted assessments ordered by version
func (r *OpportunityRepository) ListSubmittedAssessments(ctx context.Context, oppID uuid.UUID) ([]models.ScoreAssessment, error) {
	var assessments []models.ScoreAssessment
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ? AND is_draft = false", oppID).
		Order("version ASC").
		Find(&assessments).Error
	return assessments, err
}

// --- Assignment Methods ---

// CreateAssignment appends an assignment record
func (r *OpportunityRepository) CreateAssignment(ctx context.Context, record *models.AssignmentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// SupersedeAssignments closes out the active assignment record(s) for a role slot
func (r *OpportunityRepository) SupersedeAssignments(ctx context.Context, oppID uuid.UUID, role string) error {
	return r.db.WithContext(ctx).Model(&models.AssignmentRecord{}).
		Where("opportunity_id = ? AND role = ? AND superseded_at IS NULL", oppID, role).
		Update("superseded_at", time.Now()).Error
}

// ListAssignments retrieves the full assignment history for an opportunity
func (r *OpportunityRepository) ListAssignments(ctx context.Context, oppID uuid.UUID) ([]models.AssignmentRecord, error) {
	var records []models.AssignmentRecord
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", oppID).
		Order("assigned_at ASC").
		Find(&records).Error
	return records, err
}

// --- User Methods ---

// GetUserByID retrieves a workflow user
func (r *OpportunityRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.WorkflowUser, error) {
	var user models.WorkflowUser
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsersByRole retrieves active users holding the given canonical role tag
func (r *OpportunityRepository) ListUsersByRole(ctx context.Context, role string) ([]models.WorkflowUser, error) {
	var users []models.WorkflowUser
	err := r.db.WithContext(ctx).
		Where("is_active = true AND ? = ANY(roles)", role).
		Order("display_name ASC").
		Find(&users).Error
	return users, err
}

// --- Listing Methods ---

func scoped(query *gorm.DB, scope Scope) *gorm.DB {
	if scope.Practice != "" {
		query = query.Where("practice = ?", scope.Practice)
	}
	if scope.Region != "" {
		query = query.Where("region = ?", scope.Region)
	}
	return query
}

// fetch runs the assembled query, returning count, summed deal value and
// (when the page has a positive limit) the rows themselves.
func (r *OpportunityRepository) fetch(query *gorm.DB, page Page) (*ListResult, error) {
	result := &ListResult{}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	if err := query.Select("COALESCE(SUM(deal_value), 0)").Row().Scan(&result.TotalValue); err != nil {
		return nil, err
	}

	if page.Limit > 0 {
		err := query.Select("*").
			Order("created_at DESC").
			Limit(page.Limit).
			Offset(page.Offset).
			Find(&result.Items).Error
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ListActionRequired retrieves opportunities waiting on the actor: their
// approval flag is PENDING for any of flagRoles, or (for assessors) they hold
// the SA/SP slot and no score has been submitted yet.
func (r *OpportunityRepository) ListActionRequired(ctx context.Context, actorID uuid.UUID, flagRoles []string, assessor bool, scope Scope, page Page) (*ListResult, error) {
	var conds []string
	var args []interface{}

	for _, role := range flagRoles {
		switch role {
		case "GH":
			conds = append(conds, "gh_approval_status = 'PENDING'")
		case "PH":
			conds = append(conds, "ph_approval_status = 'PENDING'")
		case "SH":
			conds = append(conds, "sh_approval_status = 'PENDING'")
		}
	}
	if assessor {
		conds = append(conds,
			"((assigned_sa = ? OR assigned_sa_secondary = ? OR assigned_sp = ?) AND version_no = 0 AND workflow_status IN (?, ?))")
		args = append(args, actorID, actorID, actorID, models.StatusAssignedToSA, models.StatusUnderAssessment)
	}

	if len(conds) == 0 {
		return &ListResult{}, nil
	}

	where := "(" + conds[0]
	for _, c := range conds[1:] {
		where += " OR " + c
	}
	where += ")"

	query := scoped(r.db.WithContext(ctx).Model(&models.Opportunity{}).Where(where, args...), scope)
	return r.fetch(query, page)
}

// ListInProgress retrieves opportunities the actor is actively scoring
func (r *OpportunityRepository) ListInProgress(ctx context.Context, actorID uuid.UUID, scope Scope, page Page) (*ListResult, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("workflow_status = ?", models.StatusUnderAssessment).
		Where("assigned_sa = ? OR assigned_sa_secondary = ? OR assigned_sp = ?", actorID, actorID, actorID), scope)
	return r.fetch(query, page)
}

// ListInReview retrieves opportunities sitting at the given review statuses
func (r *OpportunityRepository) ListInReview(ctx context.Context, statuses []string, scope Scope, page Page) (*ListResult, error) {
	if len(statuses) == 0 {
		return &ListResult{}, nil
	}
	query := scoped(r.db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("workflow_status IN ?", statuses), scope)
	return r.fetch(query, page)
}

// ListCompleted retrieves opportunities in a terminal state
func (r *OpportunityRepository) ListCompleted(ctx context.Context, scope Scope, page Page) (*ListResult, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("workflow_status IN ?", []string{models.StatusFinalApproved, models.StatusClosedNoBid, models.StatusRejected}), scope)
	return r.fetch(query, page)
}

// ListAll retrieves every opportunity visible in the scope
func (r *OpportunityRepository) ListAll(ctx context.Context, scope Scope, page Page) (*ListResult, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.Opportunity{}), scope)
	return r.fetch(query, page)
}

// --- Sync Log Methods ---

// CreateSyncLog records the start of an ingestion run
func (r *OpportunityRepository) CreateSyncLog(ctx context.Context, log *models.SyncLog) error {
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// UpdateSyncLog records the outcome of an ingestion run
func (r *OpportunityRepository) UpdateSyncLog(ctx context.Context, log *models.SyncLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}
