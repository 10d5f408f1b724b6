package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentRecord is one assignment of an opportunity into a role slot.
// Records are append-only: reassignment stamps superseded_at on the prior
// record instead of deleting it, so the full seating history is retained.
type AssignmentRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OpportunityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"opportunityId"`
	Role          string     `gorm:"type:varchar(20);not null;index" json:"role"`
	AssignedTo    uuid.UUID  `gorm:"type:uuid;not null;index" json:"assignedTo"`
	AssignedBy    uuid.UUID  `gorm:"type:uuid;not null" json:"assignedBy"`
	Priority      string     `gorm:"type:varchar(20);default:'normal'" json:"priority"`
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`
	SupersededAt  *time.Time `json:"supersededAt,omitempty"`
	AssignedAt    time.Time  `gorm:"autoCreateTime" json:"assignedAt"`
}

// TableName returns the table name for AssignmentRecord
func (AssignmentRecord) TableName() string {
	return "assignment_records"
}

// Priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// IsActive reports whether the record is the current holder of its slot.
func (r *AssignmentRecord) IsActive() bool {
	return r.SupersededAt == nil
}
