package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is a sales deal imported from the CRM and tracked through the
// qualification workflow. It is the root entity; assessments and assignment
// records hang off it and are append-only.
type Opportunity struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RemoteID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_opportunities_source_remote" json:"remoteId"`
	Source   string    `gorm:"type:varchar(50);not null;default:'crm';uniqueIndex:idx_opportunities_source_remote" json:"source"`

	// Commercial attributes (informational, owned by the CRM)
	Customer       string     `gorm:"type:varchar(255)" json:"customer"`
	Practice       string     `gorm:"type:varchar(100);index" json:"practice"`
	Region         string     `gorm:"type:varchar(100);index" json:"region"`
	DealValue      float64    `json:"dealValue"`
	Currency       string     `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	WinProbability int        `json:"winProbability"` // 0-100, overwritten by the latest submitted score
	SalesStage     string     `gorm:"type:varchar(100)" json:"salesStage"`
	CloseDate      *time.Time `json:"closeDate,omitempty"`
	Origin         string     `gorm:"type:varchar(20);default:'practice_led'" json:"origin"` // practice_led, sales_led

	// Workflow state
	WorkflowStatus string `gorm:"type:varchar(30);not null;default:'NEW';index" json:"workflowStatus"`

	// Assignments (at most one holder per slot; history lives in assignment_records)
	AssignedPracticeHead *uuid.UUID `gorm:"type:uuid;index" json:"assignedPracticeHead,omitempty"`
	AssignedSalesHead    *uuid.UUID `gorm:"type:uuid;index" json:"assignedSalesHead,omitempty"`
	AssignedSA           *uuid.UUID `gorm:"type:uuid;index" json:"assignedSa,omitempty"`
	AssignedSASecondary  *uuid.UUID `gorm:"type:uuid" json:"assignedSaSecondary,omitempty"`
	AssignedSP           *uuid.UUID `gorm:"type:uuid;index" json:"assignedSp,omitempty"`

	// Per-role approval flags; independent sub-states that gate progression
	GHApprovalStatus string `gorm:"type:varchar(10);not null;default:'NONE'" json:"ghApprovalStatus"`
	PHApprovalStatus string `gorm:"type:varchar(10);not null;default:'NONE'" json:"phApprovalStatus"`
	SHApprovalStatus string `gorm:"type:varchar(10);not null;default:'NONE'" json:"shApprovalStatus"`

	// Score artifacts
	VersionNo            int    `gorm:"not null;default:0" json:"versionNo"` // increments per score submission; optimistic lock
	PracticeHeadComments string `gorm:"type:text" json:"practiceHeadComments,omitempty"`
	SalesHeadComments    string `gorm:"type:text" json:"salesHeadComments,omitempty"`
	ManagementComments   string `gorm:"type:text" json:"managementComments,omitempty"`

	// Audit timestamps
	AssignedToPracticeAt *time.Time `json:"assignedToPracticeAt,omitempty"`
	AssignedToSAAt       *time.Time `json:"assignedToSaAt,omitempty"`
	SubmittedForReviewAt *time.Time `json:"submittedForReviewAt,omitempty"`
	ApprovedByPracticeAt *time.Time `json:"approvedByPracticeAt,omitempty"`
	FinalDecisionAt      *time.Time `json:"finalDecisionAt,omitempty"`

	// In-assessment lock (single writer per opportunity)
	LockedBy *uuid.UUID `gorm:"type:uuid" json:"lockedBy,omitempty"`
	LockedAt *time.Time `json:"lockedAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Assessments []ScoreAssessment  `gorm:"foreignKey:OpportunityID" json:"assessments,omitempty"`
	Assignments []AssignmentRecord `gorm:"foreignKey:OpportunityID" json:"assignments,omitempty"`
}

// TableName returns the table name for Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}

// Workflow status constants. REJECTED is the permanently-closed label used
// when a rejected bid is not returned for rework.
const (
	StatusNew               = "NEW"
	StatusUnassigned        = "UNASSIGNED"
	StatusAssigned          = "ASSIGNED"
	StatusAssignedToSA      = "ASSIGNED_TO_SA"
	StatusUnderAssessment   = "UNDER_ASSESSMENT"
	StatusSubmitted         = "SUBMITTED"
	StatusPendingGHApproval = "PENDING_GH_APPROVAL"
	StatusFinalApproved     = "FINAL_APPROVED"
	StatusRejected          = "REJECTED"
	StatusClosedNoBid       = "CLOSED_NO_BID"
)

// Approval flag constants for the per-role gate trackers
const (
	ApprovalNone     = "NONE"
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Origin constants
const (
	OriginPracticeLed = "practice_led"
	OriginSalesLed    = "sales_led"
)

// IsTerminal returns true if the workflow status is a terminal state
func (o *Opportunity) IsTerminal() bool {
	return o.WorkflowStatus == StatusFinalApproved ||
		o.WorkflowStatus == StatusRejected ||
		o.WorkflowStatus == StatusClosedNoBid
}

// AssigneeFor returns the holder of the assignment slot for the given role
// tag, or nil when the slot is empty.
func (o *Opportunity) AssigneeFor(role string) *uuid.UUID {
	switch role {
	case "PH":
		return o.AssignedPracticeHead
	case "SH":
		return o.AssignedSalesHead
	case "SA":
		return o.AssignedSA
	case "SP":
		return o.AssignedSP
	}
	return nil
}

// IsAssessor reports whether the user holds the active SA or SP slot.
func (o *Opportunity) IsAssessor(userID uuid.UUID) bool {
	if o.AssignedSA != nil && *o.AssignedSA == userID {
		return true
	}
	if o.AssignedSASecondary != nil && *o.AssignedSASecondary == userID {
		return true
	}
	if o.AssignedSP != nil && *o.AssignedSP == userID {
		return true
	}
	return false
}
