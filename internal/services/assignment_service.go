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

// AssignInput describes one assignment: which role slot to fill and with whom.
type AssignInput struct {
	Role       string    `json:"role" binding:"required"`
	AssigneeID uuid.UUID `json:"assigneeId" binding:"required"`
	Priority   string    `json:"priority,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Secondary  bool      `json:"secondary,omitempty"` // fills the secondary SA slot
}

// BatchAssignResult reports the outcome for one opportunity in a batch assign.
type BatchAssignResult struct {
	OpportunityID uuid.UUID `json:"opportunityId"`
	Assigned      bool      `json:"assigned"`
	Error         string    `json:"error,omitempty"`
}

// AssignmentService seats users into opportunity role slots, enforcing the
// who-may-assign-whom capability table and recording append-only history.
type AssignmentService struct {
	repo      repository.OpportunityRepositoryInterface
	publisher *events.Publisher
	logger    *logrus.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(repo repository.OpportunityRepositoryInterface, publisher *events.Publisher, logger *logrus.Logger) *AssignmentService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AssignmentService{repo: repo, publisher: publisher, logger: logger}
}

func slotColumn(role roles.Role, secondary bool) string {
	switch role {
	case roles.PracticeHead:
		return "assigned_practice_head"
	case roles.SalesHead:
		return "assigned_sales_head"
	case roles.SolutionArchitect:
		if secondary {
			return "assigned_sa_secondary"
		}
		return "assigned_sa"
	case roles.SalesPerson:
		return "assigned_sp"
	}
	return ""
}

func slotTag(role roles.Role, secondary bool) string {
	if role == roles.SolutionArchitect && secondary {
		return "SA_SECONDARY"
	}
	return string(role)
}

func currentHolder(opp *models.Opportunity, role roles.Role, secondary bool) *uuid.UUID {
	if role == roles.SolutionArchitect && secondary {
		return opp.AssignedSASecondary
	}
	return opp.AssigneeFor(string(role))
}

// Assign seats a user into a role slot on an opportunity. Re-assigning the
// same holder is a no-op. Replacing the assessor who already began scoring
// discards the in-flight draft and returns the opportunity to ASSIGNED_TO_SA;
// filling an empty or idle slot leaves the assessment untouched.
func (s *AssignmentService) Assign(ctx context.Context, oppID, actorID uuid.UUID, input AssignInput) (*models.Opportunity, error) {
	role, err := roles.Normalize(input.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}
	if slotColumn(role, input.Secondary) == "" {
		return nil, ErrInvalidRole
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	switch priority {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
	default:
		return nil, &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", input.Priority)}
	}

	opp, err := s.repo.GetOpportunityByID(ctx, oppID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, err
	}

	actorUser, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	actor, err := roles.NewSet(actorUser.Roles)
	if err != nil {
		return nil, fmt.Errorf("stored roles for user %s: %w", actorID, err)
	}
	if !roles.CanAssign(actor, role) {
		return nil, ErrUnauthorized
	}

	action := ActionAssignPHSH
	if roles.IsAssessor(role) {
		action = ActionAssignToSA
	}
	rule, err := authorizeTransition(opp.WorkflowStatus, action, actor)
	if err != nil {
		return nil, err
	}

	// The assignee must actively hold the target role; assignment never
	// grants a role
	assignee, err := s.repo.GetUserByID(ctx, input.AssigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	assigneeSet, err := roles.NewSet(assignee.Roles)
	if err != nil {
		return nil, fmt.Errorf("stored roles for user %s: %w", assignee.ID, err)
	}
	if !assignee.IsActive || !assigneeSet.Has(role) {
		return nil, ErrUserRoleMismatch
	}

	// Seating the same holder again is a no-op, not a reassignment
	prevHolder := currentHolder(opp, role, input.Secondary)
	if prevHolder != nil && *prevHolder == input.AssigneeID {
		return opp, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		slotColumn(role, input.Secondary): input.AssigneeID,
	}
	switch role {
	case roles.PracticeHead, roles.SalesHead:
		updates["assigned_to_practice_at"] = now
	case roles.SolutionArchitect, roles.SalesPerson:
		updates["assigned_to_sa_at"] = now
	}

	newStatus := rule.to
	// Only replacing the slot whose holder took the assessment lock invalidates
	// the work in flight
	reassignedMidAssessment := opp.WorkflowStatus == models.StatusUnderAssessment &&
		roles.IsAssessor(role) &&
		prevHolder != nil && opp.LockedBy != nil && *prevHolder == *opp.LockedBy
	if reassignedMidAssessment {
		newStatus = models.StatusAssignedToSA
		updates["locked_by"] = nil
		updates["locked_at"] = nil
	}

	record := &models.AssignmentRecord{
		OpportunityID: oppID,
		Role:          slotTag(role, input.Secondary),
		AssignedTo:    input.AssigneeID,
		AssignedBy:    actorID,
		Priority:      priority,
		Notes:         input.Notes,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.OpportunityRepositoryInterface) error {
		if err := txRepo.SupersedeAssignments(ctx, oppID, record.Role); err != nil {
			return fmt.Errorf("failed to supersede assignments: %w", err)
		}
		if err := txRepo.CreateAssignment(ctx, record); err != nil {
			return fmt.Errorf("failed to create assignment record: %w", err)
		}
		if reassignedMidAssessment {
			if err := txRepo.SupersedeDraft(ctx, oppID); err != nil {
				return fmt.Errorf("failed to supersede draft: %w", err)
			}
		}
		return txRepo.UpdateOpportunityStatus(ctx, opp, newStatus, updates)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	if reassignedMidAssessment {
		opp.LockedBy = nil
		opp.LockedAt = nil
	}
	assigneeID := input.AssigneeID
	switch slotColumn(role, input.Secondary) {
	case "assigned_practice_head":
		opp.AssignedPracticeHead = &assigneeID
	case "assigned_sales_head":
		opp.AssignedSalesHead = &assigneeID
	case "assigned_sa":
		opp.AssignedSA = &assigneeID
	case "assigned_sa_secondary":
		opp.AssignedSASecondary = &assigneeID
	case "assigned_sp":
		opp.AssignedSP = &assigneeID
	}

	s.logger.WithFields(logrus.Fields{
		"opportunityId": opp.ID,
		"role":          record.Role,
		"assigneeId":    input.AssigneeID,
	}).Info("Opportunity assigned")

	s.publisher.Publish(events.SubjectAssigned, opp, func(e *events.OpportunityEvent) {
		e.ActorID = actorID.String()
		e.Role = record.Role
	})

	return opp, nil
}

// AssignBatch applies the same assignment to several opportunities. Failures
// are per-opportunity; one bad ID never aborts the rest.
func (s *AssignmentService) AssignBatch(ctx context.Context, oppIDs []uuid.UUID, actorID uuid.UUID, input AssignInput) []BatchAssignResult {
	results := make([]BatchAssignResult, 0, len(oppIDs))
	for _, id := range oppIDs {
		result := BatchAssignResult{OpportunityID: id, Assigned: true}
		if _, err := s.Assign(ctx, id, actorID, input); err != nil {
			result.Assigned = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// ListAssignmentHistory returns the full append-only assignment trail.
func (s *AssignmentService) ListAssignmentHistory(ctx context.Context, oppID uuid.UUID) ([]models.AssignmentRecord, error) {
	if _, err := s.repo.GetOpportunityByID(ctx, oppID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, err
	}
	return s.repo.ListAssignments(ctx, oppID)
}
