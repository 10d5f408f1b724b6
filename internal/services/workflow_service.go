package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bid-qualification-service/internal/events"
	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"bid-qualification-service/internal/roles"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Action names the workflow operations governed by the transition table.
type Action string

const (
	ActionAssignPHSH      Action = "ASSIGN_PH_SH"
	ActionAssignToSA      Action = "ASSIGN_TO_SA"
	ActionStartAssessment Action = "START_ASSESSMENT"
	ActionSaveDraft       Action = "SAVE_DRAFT"
	ActionSubmitScore     Action = "SUBMIT_SCORE"
	ActionApprove         Action = "APPROVE"
	ActionReject          Action = "REJECT"
	ActionFinalApprove    Action = "FINAL_APPROVE"
	ActionDropBid         Action = "DROP_BID"
)

// GatePolicy selects which review gates must clear before an opportunity
// reaches Management. The source pipelines run both PH-only and SH-inclusive
// topologies, so this is configuration rather than a hard-coded rule.
type GatePolicy string

const (
	GatePHOnly   GatePolicy = "ph_only"
	GateSHOnly   GatePolicy = "sh_only"
	GateBoth     GatePolicy = "both"
	GateEither   GatePolicy = "either"
	GateByOrigin GatePolicy = "by_origin" // practice_led -> PH gate, sales_led -> SH gate
)

// ParseGatePolicy validates a configured gate policy string.
func ParseGatePolicy(s string) (GatePolicy, error) {
	switch GatePolicy(s) {
	case GatePHOnly, GateSHOnly, GateBoth, GateEither, GateByOrigin:
		return GatePolicy(s), nil
	case "":
		return GatePHOnly, nil
	}
	return "", fmt.Errorf("unknown gate policy %q", s)
}

type transitionRule struct {
	actors []roles.Role
	to     string
}

// transitionTable is the closed set of legal (status, action, actor-role)
// triples. Anything not present fails with IllegalTransitionError; status
// values are never compared ad hoc at call sites.
var transitionTable = map[string]map[Action]transitionRule{
	models.StatusNew: {
		ActionAssignPHSH: {actors: []roles.Role{roles.PracticeHead, roles.SalesHead, roles.GlobalHead}, to: models.StatusAssigned},
	},
	models.StatusUnassigned: {
		ActionAssignPHSH: {actors: []roles.Role{roles.PracticeHead, roles.SalesHead, roles.GlobalHead}, to: models.StatusAssigned},
	},
	models.StatusAssigned: {
		ActionAssignPHSH: {actors: []roles.Role{roles.PracticeHead, roles.SalesHead, roles.GlobalHead}, to: models.StatusAssigned},
		ActionAssignToSA: {actors: []roles.Role{roles.PracticeHead, roles.SalesHead}, to: models.StatusAssignedToSA},
	},
	models.StatusAssignedToSA: {
		ActionAssignPHSH:      {actors: []roles.Role{roles.PracticeHead, roles.SalesHead, roles.GlobalHead}, to: models.StatusAssignedToSA},
		ActionAssignToSA:      {actors: []roles.Role{roles.PracticeHead, roles.SalesHead}, to: models.StatusAssignedToSA},
		ActionStartAssessment: {actors: []roles.Role{roles.SolutionArchitect, roles.SalesPerson}, to: models.StatusUnderAssessment},
	},
	models.StatusUnderAssessment: {
		ActionAssignPHSH: {actors: []roles.Role{roles.PracticeHead, roles.SalesHead, roles.GlobalHead}, to: models.StatusUnderAssessment},
		// Replacing the scoring assessor rolls back to ASSIGNED_TO_SA in the
		// assignment flow; seating an idle slot keeps the assessment running
		ActionAssignToSA:  {actors: []roles.Role{roles.PracticeHead, roles.SalesHead}, to: models.StatusUnderAssessment},
		ActionSaveDraft:   {actors: []roles.Role{roles.SolutionArchitect, roles.SalesPerson}, to: models.StatusUnderAssessment},
		ActionSubmitScore: {actors: []roles.Role{roles.SolutionArchitect, roles.SalesPerson}, to: models.StatusSubmitted},
	},
	models.StatusSubmitted: {
		ActionApprove: {actors: []roles.Role{roles.PracticeHead, roles.SalesHead}, to: models.StatusPendingGHApproval},
		ActionReject:  {actors: []roles.Role{roles.PracticeHead, roles.SalesHead}, to: models.StatusUnderAssessment},
	},
	models.StatusPendingGHApproval: {
		ActionFinalApprove: {actors: []roles.Role{roles.GlobalHead}, to: models.StatusFinalApproved},
		ActionDropBid:      {actors: []roles.Role{roles.GlobalHead}, to: models.StatusClosedNoBid},
	},
}

// authorizeTransition checks the (status, action, actor-role) triple against
// the transition table.
func authorizeTransition(status string, action Action, actor roles.Set) (transitionRule, error) {
	byAction, ok := transitionTable[status]
	if !ok {
		return transitionRule{}, &IllegalTransitionError{Status: status, Action: string(action)}
	}
	rule, ok := byAction[action]
	if !ok {
		return transitionRule{}, &IllegalTransitionError{Status: status, Action: string(action)}
	}
	if !actor.HasAny(rule.actors...) {
		return transitionRule{}, &IllegalTransitionError{Status: status, Action: string(action)}
	}
	return rule, nil
}

// WorkflowService is the approval state machine: it owns every status change
// after assignment, the per-role gate flags, and the scoring lifecycle.
type WorkflowService struct {
	repo       repository.OpportunityRepositoryInterface
	publisher  *events.Publisher
	logger     *logrus.Logger
	template   ScoringTemplate
	gatePolicy GatePolicy
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(repo repository.OpportunityRepositoryInterface, publisher *events.Publisher, logger *logrus.Logger, template ScoringTemplate, gatePolicy GatePolicy) *WorkflowService {
	if logger == nil {
		logger = logrus.New()
	}
	return &WorkflowService{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		template:   template,
		gatePolicy: gatePolicy,
	}
}

func (s *WorkflowService) getOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	opp, err := s.repo.GetOpportunityByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, err
	}
	return opp, nil
}

// actorRoles resolves the actor's role set from the user directory. Claims
// arriving with the request are advisory; the stored membership is the truth
// every authorization check runs against.
func (s *WorkflowService) actorRoles(ctx context.Context, actorID uuid.UUID) (roles.Set, error) {
	user, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	set, err := roles.NewSet(user.Roles)
	if err != nil {
		return nil, fmt.Errorf("stored roles for user %s: %w", actorID, err)
	}
	return set, nil
}

// reviewGates returns the gates armed (flag -> PENDING) when a score is
// submitted, per the configured policy and the opportunity's origin.
func (s *WorkflowService) reviewGates(origin string) []roles.Role {
	switch s.gatePolicy {
	case GateSHOnly:
		return []roles.Role{roles.SalesHead}
	case GateBoth, GateEither:
		return []roles.Role{roles.PracticeHead, roles.SalesHead}
	case GateByOrigin:
		if origin == models.OriginSalesLed {
			return []roles.Role{roles.SalesHead}
		}
		return []roles.Role{roles.PracticeHead}
	default:
		return []roles.Role{roles.PracticeHead}
	}
}

// gatesSatisfied reports whether the review stage is cleared given the
// current flag values.
func (s *WorkflowService) gatesSatisfied(opp *models.Opportunity) bool {
	phApproved := opp.PHApprovalStatus == models.ApprovalApproved
	shApproved := opp.SHApprovalStatus == models.ApprovalApproved

	switch s.gatePolicy {
	case GateSHOnly:
		return shApproved
	case GateBoth:
		return phApproved && shApproved
	case GateEither:
		return phApproved || shApproved
	case GateByOrigin:
		if opp.Origin == models.OriginSalesLed {
			return shApproved
		}
		return phApproved
	default:
		return phApproved
	}
}

func gateFlag(opp *models.Opportunity, gate roles.Role) string {
	if gate == roles.SalesHead {
		return opp.SHApprovalStatus
	}
	return opp.PHApprovalStatus
}

func gateFlagColumn(gate roles.Role) string {
	if gate == roles.SalesHead {
		return "sh_approval_status"
	}
	return "ph_approval_status"
}

// StartAssessment moves an opportunity into active scoring and takes the
// single-writer assessment lock for the actor.
func (s *WorkflowService) StartAssessment(ctx context.Context, oppID, actorID uuid.UUID) (*models.Opportunity, error) {
	opp, err := s.getOpportunity(ctx, oppID)
	if err != nil {
		return nil, err
	}

	// Retried start from the same assessor is a no-op
	if opp.WorkflowStatus == models.StatusUnderAssessment && opp.LockedBy != nil && *opp.LockedBy == actorID {
		return opp, nil
	}

	actor, err := s.actorRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTransition(opp.WorkflowStatus, ActionStartAssessment, actor); err != nil {
		return nil, err
	}
	if !opp.IsAssessor(actorID) {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	err = s.repo.UpdateOpportunityStatus(ctx, opp, models.StatusUnderAssessment, map[string]interface{}{
		"locked_by": actorID,
		"locked_at": now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}
	opp.LockedBy = &actorID
	opp.LockedAt = &now

	return opp, nil
}

// SaveDraftInput carries a partial or complete scoring draft.
type SaveDraftInput struct {
	Sections []models.ScoreSection `json:"sections"`
	Notes    string                `json:"notes,omitempty"`
}

// SaveDraft persists an in-progress scoring draft. Drafts may be partial;
// completeness is only enforced at submission.
func (s *WorkflowService) SaveDraft(ctx context.Context, oppID, actorID uuid.UUID, input SaveDraftInput) (*models.ScoreAssessment, error) {
	opp, err := s.getOpportunity(ctx, oppID)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTransition(opp.WorkflowStatus, ActionSaveDraft, actor); err != nil {
		return nil, err
	}
	if !opp.IsAssessor(actorID) {
		return nil, ErrUnauthorized
	}
	if opp.LockedBy != nil && *opp.LockedBy != actorID {
		return nil, ErrUnauthorized
	}

	if err := ValidateSections(input.Sections); err != nil {
		return nil, err
	}
	sections := s.template.ApplyWeights(input.Sections)
	breakdown := ComputeVerdict(sections)

	payload, err := models.EncodeSections(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sections: %w", err)
	}

	draft, err := s.repo.GetActiveDraft(ctx, oppID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		draft = &models.ScoreAssessment{
			OpportunityID: oppID,
			Version:       opp.VersionNo + 1,
			Sections:      payload,
			WeightedScore: breakdown.WeightedScore,
			MaxPossible:   breakdown.MaxPossible,
			Percentage:    breakdown.Percentage,
			Verdict:       breakdown.Verdict,
			IsDraft:       true,
			Notes:         input.Notes,
			CreatedBy:     actorID,
		}
		if err := s.repo.CreateAssessment(ctx, draft); err != nil {
			return nil, fmt.Errorf("failed to create draft: %w", err)
		}
		return draft, nil
	}

	draft.Sections = payload
	draft.WeightedScore = breakdown.WeightedScore
	draft.MaxPossible = breakdown.MaxPossible
	draft.Percentage = breakdown.Percentage
	draft.Verdict = breakdown.Verdict
	draft.Notes = input.Notes
	if err := s.repo.UpdateAssessment(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return draft, nil
}

// SubmitScoreInput carries a complete scoring submission. VersionNo is the
// opportunity version the client scored against; SubmissionID lets retries
// be detected instead of double-applied.
type SubmitScoreInput struct {
	Sections     []models.ScoreSection `json:"sections"`
	Notes        string                `json:"notes,omitempty"`
	VersionNo    int                   `json:"versionNo"`
	SubmissionID *uuid.UUID            `json:"submissionId,omitempty"`
}

// SubmitScore finalizes the assessment: validates completeness, persists an
// immutable ScoreAssessment, bumps version_no by exactly one and moves the
// opportunity into review with the configured gates armed.
func (s *WorkflowService) SubmitScore(ctx context.Context, oppID, actorID uuid.UUID, input SubmitScoreInput) (*models.ScoreAssessment, error) {
	// Idempotent retry: an already-recorded submission returns the prior result
	if input.SubmissionID != nil {
		if existing, err := s.repo.GetAssessmentBySubmissionID(ctx, *input.SubmissionID); err == nil {
			return existing, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	opp, err := s.getOpportunity(ctx, oppID)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTransition(opp.WorkflowStatus, ActionSubmitScore, actor); err != nil {
		return nil, err
	}
	if !opp.IsAssessor(actorID) {
		return nil, ErrUnauthorized
	}
	if opp.LockedBy != nil && *opp.LockedBy != actorID {
		return nil, ErrUnauthorized
	}
	if input.VersionNo != opp.VersionNo {
		return nil, ErrStaleVersion
	}

	sections := s.template.ApplyWeights(input.Sections)
	if err := ValidateSections(sections); err != nil {
		return nil, err
	}
	if err := s.template.ValidateComplete(sections); err != nil {
		return nil, err
	}
	breakdown := ComputeVerdict(sections)

	payload, err := models.EncodeSections(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sections: %w", err)
	}

	assessment := &models.ScoreAssessment{
		OpportunityID: oppID,
		Version:       opp.VersionNo + 1,
		Sections:      payload,
		WeightedScore: breakdown.WeightedScore,
		MaxPossible:   breakdown.MaxPossible,
		Percentage:    breakdown.Percentage,
		Verdict:       breakdown.Verdict,
		IsDraft:       false,
		SubmissionID:  input.SubmissionID,
		Notes:         input.Notes,
		CreatedBy:     actorID,
	}

	now := time.Now()
	updates := map[string]interface{}{
		"workflow_status":         models.StatusSubmitted,
		"win_probability":         breakdown.Percentage,
		"submitted_for_review_at": now,
		"locked_by":               nil,
		"locked_at":               nil,
	}
	armed := s.reviewGates(opp.Origin)
	for _, gate := range armed {
		updates[gateFlagColumn(gate)] = models.ApprovalPending
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.OpportunityRepositoryInterface) error {
		if err := txRepo.SupersedeDraft(ctx, oppID); err != nil {
			return fmt.Errorf("failed to supersede draft: %w", err)
		}
		if err := txRepo.CreateAssessment(ctx, assessment); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		if err := txRepo.UpdateOpportunityVersioned(ctx, opp, updates); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	for _, gate := range armed {
		if gate == roles.SalesHead {
			opp.SHApprovalStatus = models.ApprovalPending
		} else {
			opp.PHApprovalStatus = models.ApprovalPending
		}
	}
	opp.LockedBy = nil
	opp.LockedAt = nil

	s.publisher.Publish(events.SubjectSubmitted, opp, func(e *events.OpportunityEvent) {
		e.ActorID = actorID.String()
		e.Percentage = breakdown.Percentage
		e.Verdict = breakdown.Verdict
	})

	return assessment, nil
}

// ApproveGate records a PH or SH review approval. The opportunity advances to
// Management only once the configured gate subset is fully approved; with
// concurrent gates the other flag simply stays PENDING.
func (s *WorkflowService) ApproveGate(ctx context.Context, oppID uuid.UUID, gate roles.Role, actorID uuid.UUID, comment string) (*models.Opportunity, error) {
	if gate != roles.PracticeHead && gate != roles.SalesHead {
		return nil, ErrInvalidRole
	}

	opp, err := s.getOpportunity(ctx, oppID)
	if err != nil {
		return nil, err
	}

	// Idempotent retry: the gate already cleared
	if gateFlag(opp, gate) == models.ApprovalApproved {
		return opp, nil
	}

	actor, err := s.actorRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTransition(opp.WorkflowStatus, ActionApprove, actor); err != nil {
		return nil, err
	}
	if !roles.CanReviewGate(actor, gate) {
		return nil, &IllegalTransitionError{Status: opp.WorkflowStatus, Action: string(ActionApprove)}
	}
	if gateFlag(opp, gate) != models.ApprovalPending {
		return nil, &IllegalTransitionError{Status: opp.WorkflowStatus, Action: string(ActionApprove)}
	}

	now := time.Now()
	updates := map[string]interface{}{
		gateFlagColumn(gate): models.ApprovalApproved,
	}
	if gate == roles.PracticeHead {
		opp.PHApprovalStatus = models.ApprovalApproved
		updates["approved_by_practice_at"] = now
		if comment != "" {
			updates["practice_head_comments"] = comment
		}
	} else {
		opp.SHApprovalStatus = models.ApprovalApproved
		if comment != "" {
			updates["sales_head_comments"] = comment
		}
	}

	newStatus := models.StatusSubmitted
	if s.gatesSatisfied(opp) {
		newStatus = models.StatusPendingGHApproval
		updates["gh_approval_status"] = models.ApprovalPending
		opp.GHApprovalStatus = models.ApprovalPending
		// Under an either-gate topology the untaken gate is no longer actionable
		if s.gatePolicy == GateEither {
			if opp.PHApprovalStatus == models.ApprovalPending {
				updates["ph_approval_status"] = models.ApprovalNone
				opp.PHApprovalStatus = models.ApprovalNone
			}
			if opp.SHApprovalStatus == models.ApprovalPending {
				updates["sh_approval_status"] = models.ApprovalNone
				opp.SHApprovalStatus = models.ApprovalNone
			}
		}
	}

	if err := s.repo.UpdateOpportunityStatus(ctx, opp, newStatus, updates); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	s.publisher.Publish(events.SubjectGateApproved, opp, func(e *events.OpportunityEvent) {
		e.ActorID = actorID.String()
		e.Role = string(gate)
		e.Comment = comment
		e.PreviousStatus = models.StatusSubmitted
	})

	return opp, nil
}

// minRejectionReason is the shortest acceptable rejection comment.
const minRejectionReason = 5

// RejectGate records a PH or SH review rejection and returns the opportunity
// to the assessor for rework. The reason is validated before the transition
// is attempted.
func (s *WorkflowService) RejectGate(ctx context.Context, oppID uuid.UUID, gate roles.Role, actorID uuid.UUID, comment string) (*models.Opportunity, error) {
	if len(comment) < minRejectionReason {
		return nil, &ValidationError{Field: "comment", Message: fmt.Sprintf("rejection reason must be at least %d characters", minRejectionReason)}
	}
	if gate != roles.PracticeHead && gate != roles.SalesHead {
		return nil, ErrInvalidRole
	}

	opp, err := s.getOpportunity(ctx, oppID)
	if err != nil {
		return nil, err
	}

	// Idempotent retry: the rejection already landed
	if opp.WorkflowStatus == models.StatusUnderAssessment && gateFlag(opp, gate) == models.ApprovalRejected {
		return opp, nil
	}

	actor, err := s.actorRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTransition(opp.WorkflowStatus, ActionReject, actor); err != nil {
		return nil, err
	}
	if !roles.CanReviewGate(actor, gate) {
		return nil, &IllegalTransitionError{Status: opp.WorkflowStatus, Action: string(ActionReject)}
	}
	if gateFlag(opp, gate) != models.ApprovalPending {
		return nil, &IllegalTransitionError{Status: opp.WorkflowStatus, Action: string(ActionReject)}
	}

	updates := map[string]interface{}{
		gateFlagColumn(gate): models.ApprovalRejected,
		"locked_by":          nil,
		"locked_at":          nil,
	}
	if gate == roles.PracticeHead {
		opp.PHApprovalStatus = models.ApprovalRejected
		updates["practice_head_comments"] = comment
	} else {
		opp.SHApprovalStatus = models.ApprovalRejected
		updates["sales_head_comments"] = comment
	}
	// The sibling gate is disarmed until the reworked score is resubmitted
	if gate != roles.PracticeHead && opp.PHApprovalStatus == models.ApprovalPending {
		updates["ph_approval_status"] = models.ApprovalNone
		opp.PHApprovalStatus = models.ApprovalNone
	}
	if gate != roles.SalesHead && opp.SHApprovalStatus == models.ApprovalPending {
		updates["sh_approval_status"] = models.ApprovalNone
		opp.SHApprovalStatus = models.ApprovalNone
	}

	if err := s.repo.UpdateOpportunityStatus(ctx, opp, models.StatusUnderAssessment, updates); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}
	opp.LockedBy = nil
	opp.LockedAt = nil

	s.publisher.Publish(events.SubjectGateRejected, opp, func(e *events.OpportunityEvent) {
		e.ActorID = actorID.String()
		e.Role = string(gate)
		e.Comment = comment
		e.PreviousStatus = models.StatusSubmitted
	})

	return opp, nil
}

// FinalDecision records the Global Head's GO/NO-GO governance decision.
// Both outcomes are terminal.
func (s *WorkflowService) FinalDecision(ctx context.Context, oppID, actorID uuid.UUID, decision, comment string) (*models.Opportunity, error) {
	var action Action
	var newStatus string
	switch decision {
	case models.DecisionGo:
		action = ActionFinalApprove
		newStatus = models.StatusFinalApproved
	case models.DecisionNoGo:
		action = ActionDropBid
		newStatus = models.StatusClosedNoBid
	default:
		return nil, &ValidationError{Field: "decision", Message: "decision must be GO or NO_GO"}
	}

	opp, err := s.getOpportunity(ctx, oppID)
	if err != nil {
		return nil, err
	}

	// Idempotent retry: the decision is already recorded
	if opp.WorkflowStatus == newStatus {
		return opp, nil
	}

	actor, err := s.actorRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeTransition(opp.WorkflowStatus, action, actor); err != nil {
		return nil, err
	}

	ghFlag := models.ApprovalApproved
	if decision == models.DecisionNoGo {
		ghFlag = models.ApprovalRejected
	}

	now := time.Now()
	updates := map[string]interface{}{
		"gh_approval_status": ghFlag,
		"final_decision_at":  now,
	}
	if comment != "" {
		updates["management_comments"] = comment
	}

	if err := s.repo.UpdateOpportunityStatus(ctx, opp, newStatus, updates); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}
	opp.GHApprovalStatus = ghFlag
	opp.FinalDecisionAt = &now
	if comment != "" {
		opp.ManagementComments = comment
	}

	s.logger.WithFields(logrus.Fields{
		"opportunityId": opp.ID,
		"decision":      decision,
	}).Info("Final governance decision recorded")

	s.publisher.Publish(events.SubjectFinalDecision, opp, func(e *events.OpportunityEvent) {
		e.ActorID = actorID.String()
		e.Role = string(roles.GlobalHead)
		e.Decision = decision
		e.Comment = comment
		e.PreviousStatus = models.StatusPendingGHApproval
	})

	return opp, nil
}
