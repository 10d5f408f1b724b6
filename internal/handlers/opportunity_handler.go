package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bid-qualification-service/internal/crm"
	"bid-qualification-service/internal/middleware"
	"bid-qualification-service/internal/repository"
	"bid-qualification-service/internal/roles"
	"bid-qualification-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OpportunityHandler handles HTTP requests for the qualification workflow
type OpportunityHandler struct {
	workflow   *services.WorkflowService
	assignment *services.AssignmentService
	query      *services.QueryService
	ingest     *services.IngestService
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(workflow *services.WorkflowService, assignment *services.AssignmentService, query *services.QueryService, ingest *services.IngestService) *OpportunityHandler {
	return &OpportunityHandler{
		workflow:   workflow,
		assignment: assignment,
		query:      query,
		ingest:     ingest,
	}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var transitionErr *services.IllegalTransitionError
	var validationErr *services.ValidationError

	switch {
	case errors.Is(err, services.ErrOpportunityNotFound), errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrUserRoleMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr), errors.Is(err, services.ErrStaleVersion):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr), errors.Is(err, services.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrIncompleteAssessment):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
	}
}

func actorFrom(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
	}
	return id, ok
}

func oppIDFrom(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
		return uuid.Nil, false
	}
	return id, true
}

func pageFrom(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// List returns the actor's workbench tab
// @Summary List opportunities for a workbench tab
// @Tags Opportunities
// @Produce json
// @Param tab query string false "Tab" Enums(action_required, in_progress, in_review, completed, all)
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.OpportunityList
// @Router /api/v1/opportunities [get]
func (h *OpportunityHandler) List(c *gin.Context) {
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}
	tab, err := services.ParseTab(c.Query("tab"))
	if err != nil {
		respondError(c, err)
		return
	}

	list, err := h.query.List(c.Request.Context(), actorID, tab, pageFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get retrieves one opportunity
// @Summary Get opportunity
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} models.Opportunity
// @Router /api/v1/opportunities/{id} [get]
func (h *OpportunityHandler) Get(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	opp, err := h.query.GetOpportunity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// Assign seats a user into a role slot
// @Summary Assign a role slot
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body services.AssignInput true "Assignment"
// @Success 200 {object} models.Opportunity
// @Router /api/v1/opportunities/{id}/assign [post]
func (h *OpportunityHandler) Assign(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}
	var input services.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opp, err := h.assignment.Assign(c.Request.Context(), id, actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

type batchAssignRequest struct {
	OpportunityIDs []uuid.UUID           `json:"opportunityIds" binding:"required,min=1"`
	services.AssignInput
}

// AssignBatch applies one assignment to several opportunities
// @Summary Batch-assign a role slot
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body batchAssignRequest true "Batch assignment"
// @Success 200 {array} services.BatchAssignResult
// @Router /api/v1/opportunities/assign-batch [post]
func (h *OpportunityHandler) AssignBatch(c *gin.Context) {
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}
	var req batchAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.assignment.AssignBatch(c.Request.Context(), req.OpportunityIDs, actorID, req.AssignInput)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// StartAssessment begins scoring
// @Summary Start an assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} models.Opportunity
// @Router /api/v1/opportunities/{id}/start-assessment [post]
func (h *OpportunityHandler) StartAssessment(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}

	opp, err := h.workflow.StartAssessment(c.Request.Context(), id, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// SaveDraft stores a partial scoring draft
// @Summary Save a scoring draft
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body services.SaveDraftInput true "Draft"
// @Success 200 {object} models.ScoreAssessment
// @Router /api/v1/opportunities/{id}/draft [post]
func (h *OpportunityHandler) SaveDraft(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}
	var input services.SaveDraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.workflow.SaveDraft(c.Request.Context(), id, actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// SubmitScore finalizes the assessment
// @Summary Submit a completed score
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body services.SubmitScoreInput true "Submission"
// @Success 201 {object} models.ScoreAssessment
// @Router /api/v1/opportunities/{id}/submit [post]
func (h *OpportunityHandler) SubmitScore(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}
	var input services.SubmitScoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.workflow.SubmitScore(c.Request.Context(), id, actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

type gateDecisionRequest struct {
	Role    string `json:"role" binding:"required"`
	Comment string `json:"comment,omitempty"`
}

func (h *OpportunityHandler) bindGateDecision(c *gin.Context) (uuid.UUID, roles.Role, uuid.UUID, string, bool) {
	id, ok := oppIDFrom(c)
	if !ok {
		return uuid.Nil, "", uuid.Nil, "", false
	}
	actorID, ok := actorFrom(c)
	if !ok {
		return uuid.Nil, "", uuid.Nil, "", false
	}
	var req gateDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, "", uuid.Nil, "", false
	}
	gate, err := roles.Normalize(req.Role)
	if err != nil {
		respondError(c, services.ErrInvalidRole)
		return uuid.Nil, "", uuid.Nil, "", false
	}
	return id, gate, actorID, req.Comment, true
}

// Approve records a review gate approval
// @Summary Approve at a review gate
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body gateDecisionRequest true "Gate decision"
// @Success 200 {object} models.Opportunity
// @Router /api/v1/opportunities/{id}/approve [post]
func (h *OpportunityHandler) Approve(c *gin.Context) {
	id, gate, actorID, comment, ok := h.bindGateDecision(c)
	if !ok {
		return
	}
	opp, err := h.workflow.ApproveGate(c.Request.Context(), id, gate, actorID, comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// Reject records a review gate rejection and returns the bid for rework
// @Summary Reject at a review gate
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body gateDecisionRequest true "Gate decision"
// @Success 200 {object} models.Opportunity
// @Router /api/v1/opportunities/{id}/reject [post]
func (h *OpportunityHandler) Reject(c *gin.Context) {
	id, gate, actorID, comment, ok := h.bindGateDecision(c)
	if !ok {
		return
	}
	opp, err := h.workflow.RejectGate(c.Request.Context(), id, gate, actorID, comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

type finalDecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment,omitempty"`
}

// FinalDecision records the GO/NO-GO governance decision
// @Summary Record the final GO/NO-GO decision
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body finalDecisionRequest true "Decision"
// @Success 200 {object} models.Opportunity
// @Router /api/v1/opportunities/{id}/final-decision [post]
func (h *OpportunityHandler) FinalDecision(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	actorID, ok := actorFrom(c)
	if !ok {
		return
	}
	var req finalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opp, err := h.workflow.FinalDecision(c.Request.Context(), id, actorID, req.Decision, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// ListAssessments returns the submitted assessment history
// @Summary List submitted assessments
// @Tags Assessments
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {array} models.ScoreAssessment
// @Router /api/v1/opportunities/{id}/assessments [get]
func (h *OpportunityHandler) ListAssessments(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	assessments, err := h.query.GetAssessmentHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": assessments})
}

// ListAssignments returns the assignment history
// @Summary List assignment history
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {array} models.AssignmentRecord
// @Router /api/v1/opportunities/{id}/assignments [get]
func (h *OpportunityHandler) ListAssignments(c *gin.Context) {
	id, ok := oppIDFrom(c)
	if !ok {
		return
	}
	records, err := h.assignment.ListAssignmentHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": records})
}

type ingestRequest struct {
	Source  string       `json:"source" binding:"required"`
	Records []crm.Record `json:"records" binding:"required"`
}

// Ingest accepts a pushed batch of CRM records
// @Summary Ingest CRM opportunity records
// @Tags CRM
// @Accept json
// @Produce json
// @Param request body ingestRequest true "CRM batch"
// @Success 200 {object} services.IngestSummary
// @Router /api/v1/crm/ingest [post]
func (h *OpportunityHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.ingest.Ingest(c.Request.Context(), req.Source, req.Records)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
