package services

import (
	"context"
	"testing"
	"time"

	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"bid-qualification-service/internal/roles"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory OpportunityRepositoryInterface for exercising whole
// workflow runs without a database. It mirrors the real repository's
// compare-and-swap behavior on status and version.
type memRepo struct {
	opps        map[uuid.UUID]*models.Opportunity
	assessments []*models.ScoreAssessment
	assignments []*models.AssignmentRecord
	users       map[uuid.UUID]*models.WorkflowUser
	syncLogs    []*models.SyncLog
}

var _ repository.OpportunityRepositoryInterface = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		opps:  make(map[uuid.UUID]*models.Opportunity),
		users: make(map[uuid.UUID]*models.WorkflowUser),
	}
}

func (r *memRepo) WithTransaction(ctx context.Context, fn func(txRepo repository.OpportunityRepositoryInterface) error) error {
	return fn(r)
}

func (r *memRepo) CreateOpportunity(ctx context.Context, opp *models.Opportunity) error {
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	stored := *opp
	r.opps[opp.ID] = &stored
	return nil
}

func (r *memRepo) GetOpportunityByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	stored, ok := r.opps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *stored
	return &copy, nil
}

func (r *memRepo) GetOpportunityByRemoteID(ctx context.Context, source, remoteID string) (*models.Opportunity, error) {
	for _, stored := range r.opps {
		if stored.Source == source && stored.RemoteID == remoteID {
			copy := *stored
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func applyOppUpdates(o *models.Opportunity, updates map[string]interface{}) {
	setUUID := func(dst **uuid.UUID, v interface{}) {
		if v == nil {
			*dst = nil
			return
		}
		id := v.(uuid.UUID)
		*dst = &id
	}
	setTime := func(dst **time.Time, v interface{}) {
		if v == nil {
			*dst = nil
			return
		}
		t := v.(time.Time)
		*dst = &t
	}
	for key, value := range updates {
		switch key {
		case "customer":
			o.Customer = value.(string)
		case "practice":
			o.Practice = value.(string)
		case "region":
			o.Region = value.(string)
		case "deal_value":
			o.DealValue = value.(float64)
		case "currency":
			o.Currency = value.(string)
		case "sales_stage":
			o.SalesStage = value.(string)
		case "close_date":
			o.CloseDate = value.(*time.Time)
		case "workflow_status":
			o.WorkflowStatus = value.(string)
		case "version_no":
			o.VersionNo = value.(int)
		case "win_probability":
			o.WinProbability = value.(int)
		case "gh_approval_status":
			o.GHApprovalStatus = value.(string)
		case "ph_approval_status":
			o.PHApprovalStatus = value.(string)
		case "sh_approval_status":
			o.SHApprovalStatus = value.(string)
		case "practice_head_comments":
			o.PracticeHeadComments = value.(string)
		case "sales_head_comments":
			o.SalesHeadComments = value.(string)
		case "management_comments":
			o.ManagementComments = value.(string)
		case "locked_by":
			setUUID(&o.LockedBy, value)
		case "locked_at":
			setTime(&o.LockedAt, value)
		case "assigned_practice_head":
			setUUID(&o.AssignedPracticeHead, value)
		case "assigned_sales_head":
			setUUID(&o.AssignedSalesHead, value)
		case "assigned_sa":
			setUUID(&o.AssignedSA, value)
		case "assigned_sa_secondary":
			setUUID(&o.AssignedSASecondary, value)
		case "assigned_sp":
			setUUID(&o.AssignedSP, value)
		case "assigned_to_practice_at":
			setTime(&o.AssignedToPracticeAt, value)
		case "assigned_to_sa_at":
			setTime(&o.AssignedToSAAt, value)
		case "submitted_for_review_at":
			setTime(&o.SubmittedForReviewAt, value)
		case "approved_by_practice_at":
			setTime(&o.ApprovedByPracticeAt, value)
		case "final_decision_at":
			setTime(&o.FinalDecisionAt, value)
		}
	}
}

func (r *memRepo) UpdateOpportunityFields(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error {
	stored, ok := r.opps[opp.ID]
	if !ok {
		return repository.ErrNotFound
	}
	applyOppUpdates(stored, updates)
	return nil
}

func (r *memRepo) UpdateOpportunityStatus(ctx context.Context, opp *models.Opportunity, newStatus string, updates map[string]interface{}) error {
	stored, ok := r.opps[opp.ID]
	if !ok || stored.WorkflowStatus != opp.WorkflowStatus {
		return repository.ErrStatusConflict
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["workflow_status"] = newStatus
	applyOppUpdates(stored, updates)
	opp.WorkflowStatus = newStatus
	return nil
}

func (r *memRepo) UpdateOpportunityVersioned(ctx context.Context, opp *models.Opportunity, updates map[string]interface{}) error {
	stored, ok := r.opps[opp.ID]
	if !ok || stored.VersionNo != opp.VersionNo {
		return repository.ErrVersionConflict
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version_no"] = opp.VersionNo + 1
	applyOppUpdates(stored, updates)
	opp.VersionNo = stored.VersionNo
	if status, ok := updates["workflow_status"].(string); ok {
		opp.WorkflowStatus = status
	}
	return nil
}

func (r *memRepo) CreateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error {
	if assessment.ID == uuid.Nil {
		assessment.ID = uuid.New()
	}
	assessment.CreatedAt = time.Now()
	stored := *assessment
	r.assessments = append(r.assessments, &stored)
	return nil
}

func (r *memRepo) UpdateAssessment(ctx context.Context, assessment *models.ScoreAssessment) error {
	for _, stored := range r.assessments {
		if stored.ID == assessment.ID && stored.IsDraft {
			*stored = *assessment
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memRepo) GetActiveDraft(ctx context.Context, oppID uuid.UUID) (*models.ScoreAssessment, error) {
	for _, stored := range r.assessments {
		if stored.OpportunityID == oppID && stored.IsDraft && !stored.Superseded {
			copy := *stored
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) SupersedeDraft(ctx context.Context, oppID uuid.UUID) error {
	for _, stored := range r.assessments {
		if stored.OpportunityID == oppID && stored.IsDraft && !stored.Superseded {
			stored.Superseded = true
		}
	}
	return nil
}

func (r *memRepo) GetAssessmentBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.ScoreAssessment, error) {
	for _, stored := range r.assessments {
		if stored.SubmissionID != nil && *stored.SubmissionID == submissionID {
			copy := *stored
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) ListSubmittedAssessments(ctx context.Context, oppID uuid.UUID) ([]models.ScoreAssessment, error) {
	var out []models.ScoreAssessment
	for _, stored := range r.assessments {
		if stored.OpportunityID == oppID && !stored.IsDraft {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *memRepo) CreateAssignment(ctx context.Context, record *models.AssignmentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.AssignedAt = time.Now()
	stored := *record
	r.assignments = append(r.assignments, &stored)
	return nil
}

func (r *memRepo) SupersedeAssignments(ctx context.Context, oppID uuid.UUID, role string) error {
	now := time.Now()
	for _, stored := range r.assignments {
		if stored.OpportunityID == oppID && stored.Role == role && stored.SupersededAt == nil {
			stored.SupersededAt = &now
		}
	}
	return nil
}

func (r *memRepo) ListAssignments(ctx context.Context, oppID uuid.UUID) ([]models.AssignmentRecord, error) {
	var out []models.AssignmentRecord
	for _, stored := range r.assignments {
		if stored.OpportunityID == oppID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *memRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.WorkflowUser, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *memRepo) ListUsersByRole(ctx context.Context, role string) ([]models.WorkflowUser, error) {
	var out []models.WorkflowUser
	for _, user := range r.users {
		if !user.IsActive {
			continue
		}
		for _, held := range user.Roles {
			if held == role {
				out = append(out, *user)
			}
		}
	}
	return out, nil
}

func (r *memRepo) ListActionRequired(ctx context.Context, actorID uuid.UUID, flagRoles []string, assessor bool, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (r *memRepo) ListInProgress(ctx context.Context, actorID uuid.UUID, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (r *memRepo) ListInReview(ctx context.Context, statuses []string, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (r *memRepo) ListCompleted(ctx context.Context, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (r *memRepo) ListAll(ctx context.Context, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (r *memRepo) CreateSyncLog(ctx context.Context, log *models.SyncLog) error {
	stored := *log
	r.syncLogs = append(r.syncLogs, &stored)
	return nil
}

func (r *memRepo) UpdateSyncLog(ctx context.Context, log *models.SyncLog) error {
	return nil
}

// --- test fixtures ---

func (r *memRepo) addUser(displayName string, roleTags ...string) uuid.UUID {
	id := uuid.New()
	r.users[id] = &models.WorkflowUser{
		ID:          id,
		DisplayName: displayName,
		Email:       displayName + "@example.com",
		Practice:    "Cloud",
		Region:      "EMEA",
		Roles:       pq.StringArray(roleTags),
		IsActive:    true,
	}
	return id
}

func (r *memRepo) addOpportunity(status string) uuid.UUID {
	id := uuid.New()
	r.opps[id] = &models.Opportunity{
		ID:               id,
		RemoteID:         "OPP-" + id.String()[:8],
		Source:           "crm",
		Customer:         "Acme Corp",
		Practice:         "Cloud",
		Region:           "EMEA",
		DealValue:        250000,
		Origin:           models.OriginPracticeLed,
		WorkflowStatus:   status,
		GHApprovalStatus: models.ApprovalNone,
		PHApprovalStatus: models.ApprovalNone,
		SHApprovalStatus: models.ApprovalNone,
	}
	return id
}

type workflowFixture struct {
	repo     *memRepo
	workflow *WorkflowService
	assign   *AssignmentService
	gh       uuid.UUID
	ph       uuid.UUID
	sh       uuid.UUID
	sa       uuid.UUID
	sp       uuid.UUID
}

func newWorkflowFixture(policy GatePolicy) *workflowFixture {
	repo := newMemRepo()
	return &workflowFixture{
		repo:     repo,
		workflow: NewWorkflowService(repo, nil, nil, DefaultScoringTemplate(), policy),
		assign:   NewAssignmentService(repo, nil, nil),
		gh:       repo.addUser("gloria", "GH"),
		ph:       repo.addUser("priya", "PH"),
		sh:       repo.addUser("sam", "SH"),
		sa:       repo.addUser("sofia", "SA"),
		sp:       repo.addUser("stefan", "SP"),
	}
}

func (f *workflowFixture) mustAssign(t *testing.T, oppID, actorID uuid.UUID, role string, assigneeID uuid.UUID) {
	t.Helper()
	_, err := f.assign.Assign(context.Background(), oppID, actorID, AssignInput{Role: role, AssigneeID: assigneeID})
	require.NoError(t, err)
}

func (f *workflowFixture) opp(t *testing.T, id uuid.UUID) *models.Opportunity {
	t.Helper()
	opp, err := f.repo.GetOpportunityByID(context.Background(), id)
	require.NoError(t, err)
	return opp
}

// --- end-to-end flow ---

func TestWorkflow_FullPipelineToFinalApproval(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture(GatePHOnly)
	oppID := f.repo.addOpportunity(models.StatusNew)

	f.mustAssign(t, oppID, f.gh, "PH", f.ph)
	assert.Equal(t, models.StatusAssigned, f.opp(t, oppID).WorkflowStatus)

	f.mustAssign(t, oppID, f.ph, "SA", f.sa)
	assert.Equal(t, models.StatusAssignedToSA, f.opp(t, oppID).WorkflowStatus)

	started, err := f.workflow.StartAssessment(ctx, oppID, f.sa)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderAssessment, started.WorkflowStatus)
	require.NotNil(t, f.opp(t, oppID).LockedBy)
	assert.Equal(t, f.sa, *f.opp(t, oppID).LockedBy)

	// Partial draft is allowed before submission
	draft, err := f.workflow.SaveDraft(ctx, oppID, f.sa, SaveDraftInput{
		Sections: fullScoreSet(4)[:2],
	})
	require.NoError(t, err)
	assert.True(t, draft.IsDraft)

	submissionID := uuid.New()
	assessment, err := f.workflow.SubmitScore(ctx, oppID, f.sa, SubmitScoreInput{
		Sections:     fullScoreSet(4),
		VersionNo:    0,
		SubmissionID: &submissionID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, assessment.Version)
	assert.Equal(t, 80, assessment.Percentage)
	assert.Equal(t, models.VerdictGo, assessment.Verdict)

	opp := f.opp(t, oppID)
	assert.Equal(t, models.StatusSubmitted, opp.WorkflowStatus)
	assert.Equal(t, 1, opp.VersionNo)
	assert.Equal(t, 80, opp.WinProbability)
	assert.Equal(t, models.ApprovalPending, opp.PHApprovalStatus)
	assert.Nil(t, opp.LockedBy)
	_, err = f.repo.GetActiveDraft(ctx, oppID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	approved, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.ph, "solid technical story")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingGHApproval, approved.WorkflowStatus)
	assert.Equal(t, models.ApprovalApproved, f.opp(t, oppID).PHApprovalStatus)
	assert.Equal(t, models.ApprovalPending, f.opp(t, oppID).GHApprovalStatus)

	final, err := f.workflow.FinalDecision(ctx, oppID, f.gh, models.DecisionGo, "pursue")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinalApproved, final.WorkflowStatus)
	assert.Equal(t, models.ApprovalApproved, f.opp(t, oppID).GHApprovalStatus)
	assert.True(t, f.opp(t, oppID).IsTerminal())

	history, err := f.repo.ListSubmittedAssessments(ctx, oppID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// --- transition table ---

func TestWorkflow_IllegalTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		status string
		run    func(f *workflowFixture, oppID uuid.UUID) error
	}{
		{
			"submit from NEW",
			models.StatusNew,
			func(f *workflowFixture, oppID uuid.UUID) error {
				_, err := f.workflow.SubmitScore(ctx, oppID, f.sa, SubmitScoreInput{Sections: fullScoreSet(3)})
				return err
			},
		},
		{
			"approve before submission",
			models.StatusUnderAssessment,
			func(f *workflowFixture, oppID uuid.UUID) error {
				_, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.ph, "")
				return err
			},
		},
		{
			"final decision before review",
			models.StatusSubmitted,
			func(f *workflowFixture, oppID uuid.UUID) error {
				_, err := f.workflow.FinalDecision(ctx, oppID, f.gh, models.DecisionGo, "")
				return err
			},
		},
		{
			"start assessment from terminal state",
			models.StatusFinalApproved,
			func(f *workflowFixture, oppID uuid.UUID) error {
				_, err := f.workflow.StartAssessment(ctx, oppID, f.sa)
				return err
			},
		},
		{
			"approve with an assessor role",
			models.StatusSubmitted,
			func(f *workflowFixture, oppID uuid.UUID) error {
				_, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.sa, "")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(GatePHOnly)
			oppID := f.repo.addOpportunity(tt.status)
			saID := f.sa
			f.repo.opps[oppID].AssignedSA = &saID
			if tt.status == models.StatusSubmitted {
				f.repo.opps[oppID].PHApprovalStatus = models.ApprovalPending
			}

			err := tt.run(f, oppID)

			var transitionErr *IllegalTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tt.status, transitionErr.Status)
		})
	}
}

func TestWorkflow_StartAssessmentRequiresAssignee(t *testing.T) {
	f := newWorkflowFixture(GatePHOnly)
	oppID := f.repo.addOpportunity(models.StatusAssignedToSA)
	other := f.repo.addUser("someone-else", "SA")
	saID := f.sa
	f.repo.opps[oppID].AssignedSA = &saID

	_, err := f.workflow.StartAssessment(context.Background(), oppID, other)

	assert.ErrorIs(t, err, ErrUnauthorized)
}

// --- rejection rules ---

func submittedFixture(t *testing.T, policy GatePolicy) (*workflowFixture, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	f := newWorkflowFixture(policy)
	oppID := f.repo.addOpportunity(models.StatusNew)
	f.mustAssign(t, oppID, f.gh, "PH", f.ph)
	f.mustAssign(t, oppID, f.gh, "SH", f.sh)
	f.mustAssign(t, oppID, f.ph, "SA", f.sa)
	_, err := f.workflow.StartAssessment(ctx, oppID, f.sa)
	require.NoError(t, err)
	_, err = f.workflow.SubmitScore(ctx, oppID, f.sa, SubmitScoreInput{
		Sections:  fullScoreSet(3),
		VersionNo: 0,
	})
	require.NoError(t, err)
	return f, oppID
}

func TestWorkflow_RejectRequiresReason(t *testing.T) {
	f, oppID := submittedFixture(t, GatePHOnly)

	for _, comment := range []string{"", "bad"} {
		_, err := f.workflow.RejectGate(context.Background(), oppID, roles.PracticeHead, f.ph, comment)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "comment", validationErr.Field)
		// No state changed
		assert.Equal(t, models.StatusSubmitted, f.opp(t, oppID).WorkflowStatus)
	}
}

func TestWorkflow_RejectReturnsForRework(t *testing.T) {
	ctx := context.Background()
	f, oppID := submittedFixture(t, GatePHOnly)

	opp, err := f.workflow.RejectGate(ctx, oppID, roles.PracticeHead, f.ph, "insufficient technical fit")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderAssessment, opp.WorkflowStatus)
	assert.Equal(t, models.ApprovalRejected, f.opp(t, oppID).PHApprovalStatus)
	assert.Equal(t, "insufficient technical fit", f.opp(t, oppID).PracticeHeadComments)

	// Rework and resubmit against the bumped version
	resubmitted, err := f.workflow.SubmitScore(ctx, oppID, f.sa, SubmitScoreInput{
		Sections:  fullScoreSet(4),
		VersionNo: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resubmitted.Version)
	assert.Equal(t, models.ApprovalPending, f.opp(t, oppID).PHApprovalStatus)

	history, err := f.repo.ListSubmittedAssessments(ctx, oppID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

// --- concurrency and idempotency ---

func TestWorkflow_SubmitStaleVersion(t *testing.T) {
	f, oppID := submittedFixture(t, GatePHOnly)
	_, err := f.workflow.RejectGate(context.Background(), oppID, roles.PracticeHead, f.ph, "needs more detail")
	require.NoError(t, err)

	// Version is now 1; a client still holding version 0 must not overwrite
	_, err = f.workflow.SubmitScore(context.Background(), oppID, f.sa, SubmitScoreInput{
		Sections:  fullScoreSet(5),
		VersionNo: 0,
	})

	assert.ErrorIs(t, err, ErrStaleVersion)
}

func TestWorkflow_SubmitRetryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture(GatePHOnly)
	oppID := f.repo.addOpportunity(models.StatusNew)
	f.mustAssign(t, oppID, f.gh, "PH", f.ph)
	f.mustAssign(t, oppID, f.ph, "SA", f.sa)
	_, err := f.workflow.StartAssessment(ctx, oppID, f.sa)
	require.NoError(t, err)

	submissionID := uuid.New()
	input := SubmitScoreInput{Sections: fullScoreSet(4), VersionNo: 0, SubmissionID: &submissionID}

	first, err := f.workflow.SubmitScore(ctx, oppID, f.sa, input)
	require.NoError(t, err)

	second, err := f.workflow.SubmitScore(ctx, oppID, f.sa, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.opp(t, oppID).VersionNo)
	history, err := f.repo.ListSubmittedAssessments(ctx, oppID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestWorkflow_ApproveRetryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f, oppID := submittedFixture(t, GatePHOnly)

	_, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.ph, "looks good")
	require.NoError(t, err)

	retried, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.ph, "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingGHApproval, retried.WorkflowStatus)
}

func TestWorkflow_FinalDecisionRetryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f, oppID := submittedFixture(t, GatePHOnly)
	_, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.ph, "")
	require.NoError(t, err)
	_, err = f.workflow.FinalDecision(ctx, oppID, f.gh, models.DecisionNoGo, "margin too thin")
	require.NoError(t, err)

	retried, err := f.workflow.FinalDecision(ctx, oppID, f.gh, models.DecisionNoGo, "margin too thin")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosedNoBid, retried.WorkflowStatus)
}

// --- gate topologies ---

func TestWorkflow_BothGatesMustApprove(t *testing.T) {
	ctx := context.Background()
	f, oppID := submittedFixture(t, GateBoth)

	opp := f.opp(t, oppID)
	assert.Equal(t, models.ApprovalPending, opp.PHApprovalStatus)
	assert.Equal(t, models.ApprovalPending, opp.SHApprovalStatus)

	afterPH, err := f.workflow.ApproveGate(ctx, oppID, roles.PracticeHead, f.ph, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, afterPH.WorkflowStatus)

	afterSH, err := f.workflow.ApproveGate(ctx, oppID, roles.SalesHead, f.sh, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingGHApproval, afterSH.WorkflowStatus)
}

func TestWorkflow_EitherGateSuffices(t *testing.T) {
	ctx := context.Background()
	f, oppID := submittedFixture(t, GateEither)

	afterSH, err := f.workflow.ApproveGate(ctx, oppID, roles.SalesHead, f.sh, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingGHApproval, afterSH.WorkflowStatus)
	// The untaken PH gate is disarmed rather than left actionable
	assert.Equal(t, models.ApprovalNone, f.opp(t, oppID).PHApprovalStatus)
}

func TestWorkflow_SalesHeadCommentsPersist(t *testing.T) {
	ctx := context.Background()
	f, oppID := submittedFixture(t, GateSHOnly)

	_, err := f.workflow.RejectGate(ctx, oppID, roles.SalesHead, f.sh, "pricing not competitive")
	require.NoError(t, err)
	// The rejection reason is stored on the opportunity, not just emitted
	assert.Equal(t, "pricing not competitive", f.opp(t, oppID).SalesHeadComments)

	_, err = f.workflow.SubmitScore(ctx, oppID, f.sa, SubmitScoreInput{
		Sections:  fullScoreSet(4),
		VersionNo: 1,
	})
	require.NoError(t, err)

	approved, err := f.workflow.ApproveGate(ctx, oppID, roles.SalesHead, f.sh, "revised pricing works")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingGHApproval, approved.WorkflowStatus)
	assert.Equal(t, "revised pricing works", f.opp(t, oppID).SalesHeadComments)
}

// --- reassignment mid-assessment ---

func TestWorkflow_ReassignDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture(GatePHOnly)
	oppID := f.repo.addOpportunity(models.StatusNew)
	f.mustAssign(t, oppID, f.gh, "PH", f.ph)
	f.mustAssign(t, oppID, f.ph, "SA", f.sa)
	_, err := f.workflow.StartAssessment(ctx, oppID, f.sa)
	require.NoError(t, err)
	_, err = f.workflow.SaveDraft(ctx, oppID, f.sa, SaveDraftInput{Sections: fullScoreSet(3)[:4]})
	require.NoError(t, err)

	newSA := f.repo.addUser("replacement", "SA")
	f.mustAssign(t, oppID, f.ph, "SA", newSA)

	opp := f.opp(t, oppID)
	assert.Equal(t, models.StatusAssignedToSA, opp.WorkflowStatus)
	assert.Nil(t, opp.LockedBy)
	require.NotNil(t, opp.AssignedSA)
	assert.Equal(t, newSA, *opp.AssignedSA)

	// The departing assessor's draft is superseded, not inherited
	_, err = f.repo.GetActiveDraft(ctx, oppID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWorkflow_SecondarySAKeepsPrimaryDraft(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture(GatePHOnly)
	oppID := f.repo.addOpportunity(models.StatusNew)
	f.mustAssign(t, oppID, f.gh, "PH", f.ph)
	f.mustAssign(t, oppID, f.ph, "SA", f.sa)
	_, err := f.workflow.StartAssessment(ctx, oppID, f.sa)
	require.NoError(t, err)
	_, err = f.workflow.SaveDraft(ctx, oppID, f.sa, SaveDraftInput{Sections: fullScoreSet(3)[:4]})
	require.NoError(t, err)

	// Seating the empty secondary slot does not replace the scoring assessor
	second := f.repo.addUser("shadow", "SA")
	_, err = f.assign.Assign(ctx, oppID, f.ph, AssignInput{Role: "SA", AssigneeID: second, Secondary: true})
	require.NoError(t, err)

	opp := f.opp(t, oppID)
	assert.Equal(t, models.StatusUnderAssessment, opp.WorkflowStatus)
	require.NotNil(t, opp.LockedBy)
	assert.Equal(t, f.sa, *opp.LockedBy)
	require.NotNil(t, opp.AssignedSASecondary)
	assert.Equal(t, second, *opp.AssignedSASecondary)

	// The primary assessor's draft survives intact
	draft, err := f.repo.GetActiveDraft(ctx, oppID)
	require.NoError(t, err)
	assert.Equal(t, f.sa, draft.CreatedBy)
	assert.True(t, draft.IsDraft)
}
