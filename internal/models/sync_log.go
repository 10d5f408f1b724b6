package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncLog records one CRM ingestion run: how many remote opportunities were
// fetched and what happened to each. Display of these logs is a UI concern;
// recording them is not.
type SyncLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Source     string     `gorm:"type:varchar(50);not null;index" json:"source"`
	StartedAt  time.Time  `gorm:"not null" json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Fetched    int        `json:"fetched"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Failed     int        `json:"failed"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
}

// TableName returns the table name for SyncLog
func (SyncLog) TableName() string {
	return "sync_logs"
}
