package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// WorkflowUser is the in-service mirror of the user directory: just enough
// identity and role membership to validate assignments server-side and to
// populate assignment candidate lists.
type WorkflowUser struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DisplayName string         `gorm:"type:varchar(255);not null" json:"displayName"`
	Email       string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Practice    string         `gorm:"type:varchar(100)" json:"practice,omitempty"`
	Region      string         `gorm:"type:varchar(100)" json:"region,omitempty"`
	Roles       pq.StringArray `gorm:"type:text[];not null" json:"roles"` // canonical role tags
	IsActive    bool           `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for WorkflowUser
func (WorkflowUser) TableName() string {
	return "workflow_users"
}
