package services

import (
	"context"
	"errors"
	"fmt"

	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"bid-qualification-service/internal/roles"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WorkflowTab names a workbench listing.
type WorkflowTab string

const (
	TabActionRequired WorkflowTab = "action_required"
	TabInProgress     WorkflowTab = "in_progress"
	TabInReview       WorkflowTab = "in_review"
	TabCompleted      WorkflowTab = "completed"
	TabAll            WorkflowTab = "all"
)

// ParseTab validates a tab query parameter, defaulting to the all listing.
func ParseTab(s string) (WorkflowTab, error) {
	switch WorkflowTab(s) {
	case TabActionRequired, TabInProgress, TabInReview, TabCompleted, TabAll:
		return WorkflowTab(s), nil
	case "":
		return TabAll, nil
	}
	return "", &ValidationError{Field: "tab", Message: fmt.Sprintf("unknown tab %q", s)}
}

// OpportunityList is a workbench page: the rows, the total match count, the
// summed deal value across all matches, and per-tab counts for the actor.
type OpportunityList struct {
	Items      []models.Opportunity `json:"items"`
	Total      int64                `json:"total"`
	TotalValue float64              `json:"totalValue"`
	Counts     map[WorkflowTab]int64 `json:"countsByTab"`
}

// QueryService serves the role-scoped workbench listings. Strictly read-only:
// nothing here mutates workflow state.
type QueryService struct {
	repo   repository.OpportunityRepositoryInterface
	logger *logrus.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(repo repository.OpportunityRepositoryInterface, logger *logrus.Logger) *QueryService {
	if logger == nil {
		logger = logrus.New()
	}
	return &QueryService{repo: repo, logger: logger}
}

// scopeFor derives the visibility scope from the actor's roles. GH sees
// everything, PH their practice, SH their region, assessors their practice.
func scopeFor(actor roles.Set, user *models.WorkflowUser) repository.Scope {
	if actor.Has(roles.GlobalHead) {
		return repository.Scope{}
	}
	scope := repository.Scope{}
	if actor.HasAny(roles.PracticeHead, roles.SolutionArchitect, roles.SalesPerson) {
		scope.Practice = user.Practice
	}
	if actor.Has(roles.SalesHead) {
		scope.Region = user.Region
	}
	return scope
}

// flagRolesFor returns the approval-flag roles whose PENDING state counts as
// action required for this actor.
func flagRolesFor(actor roles.Set) []string {
	var out []string
	for _, r := range []roles.Role{roles.GlobalHead, roles.PracticeHead, roles.SalesHead} {
		if actor.Has(r) {
			out = append(out, string(r))
		}
	}
	return out
}

// reviewStatuses returns the review-stage statuses whose gate the actor sits
// on: SUBMITTED waits on the PH/SH gates, PENDING_GH_APPROVAL on the GH gate.
// Assessors sit on no gate, so their review tab is empty.
func reviewStatuses(actor roles.Set) []string {
	var statuses []string
	if actor.HasAny(roles.PracticeHead, roles.SalesHead) {
		statuses = append(statuses, models.StatusSubmitted)
	}
	if actor.Has(roles.GlobalHead) {
		statuses = append(statuses, models.StatusPendingGHApproval)
	}
	return statuses
}

func (s *QueryService) listTab(ctx context.Context, tab WorkflowTab, actorID uuid.UUID, actor roles.Set, scope repository.Scope, page repository.Page) (*repository.ListResult, error) {
	switch tab {
	case TabActionRequired:
		return s.repo.ListActionRequired(ctx, actorID, flagRolesFor(actor), actor.HasAny(roles.SolutionArchitect, roles.SalesPerson), scope, page)
	case TabInProgress:
		return s.repo.ListInProgress(ctx, actorID, scope, page)
	case TabInReview:
		statuses := reviewStatuses(actor)
		if len(statuses) == 0 {
			return &repository.ListResult{}, nil
		}
		return s.repo.ListInReview(ctx, statuses, scope, page)
	case TabCompleted:
		return s.repo.ListCompleted(ctx, scope, page)
	default:
		return s.repo.ListAll(ctx, scope, page)
	}
}

// List returns one workbench tab for the actor, along with counts across all
// tabs so the UI can badge them without extra round trips.
func (s *QueryService) List(ctx context.Context, actorID uuid.UUID, tab WorkflowTab, page repository.Page) (*OpportunityList, error) {
	user, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	actor, err := roles.NewSet(user.Roles)
	if err != nil {
		return nil, fmt.Errorf("stored roles for user %s: %w", actorID, err)
	}
	scope := scopeFor(actor, user)

	result, err := s.listTab(ctx, tab, actorID, actor, scope, page)
	if err != nil {
		return nil, err
	}

	list := &OpportunityList{
		Items:      result.Items,
		Total:      result.Total,
		TotalValue: result.TotalValue,
		Counts:     map[WorkflowTab]int64{tab: result.Total},
	}
	for _, other := range []WorkflowTab{TabActionRequired, TabInProgress, TabInReview, TabCompleted, TabAll} {
		if other == tab {
			continue
		}
		counts, err := s.listTab(ctx, other, actorID, actor, scope, repository.Page{})
		if err != nil {
			return nil, err
		}
		list.Counts[other] = counts.Total
	}
	if list.Items == nil {
		list.Items = []models.Opportunity{}
	}
	return list, nil
}

// GetOpportunity retrieves a single opportunity.
func (s *QueryService) GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	opp, err := s.repo.GetOpportunityByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, err
	}
	return opp, nil
}

// GetAssessmentHistory returns every submitted assessment for an opportunity
// in version order. Drafts and superseded drafts are never exposed here.
func (s *QueryService) GetAssessmentHistory(ctx context.Context, oppID uuid.UUID) ([]models.ScoreAssessment, error) {
	if _, err := s.GetOpportunity(ctx, oppID); err != nil {
		return nil, err
	}
	assessments, err := s.repo.ListSubmittedAssessments(ctx, oppID)
	if err != nil {
		return nil, err
	}
	if assessments == nil {
		assessments = []models.ScoreAssessment{}
	}
	return assessments, nil
}

// ListUsersByRole returns the active users holding a role, for assignment
// pickers.
func (s *QueryService) ListUsersByRole(ctx context.Context, rawRole string) ([]models.WorkflowUser, error) {
	role, err := roles.Normalize(rawRole)
	if err != nil {
		return nil, ErrInvalidRole
	}
	users, err := s.repo.ListUsersByRole(ctx, string(role))
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.WorkflowUser{}
	}
	return users, nil
}
