package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScoreSection is one scored qualification category inside an assessment.
type ScoreSection struct {
	SectionCode string  `json:"section_code"`
	Weight      float64 `json:"weight"`
	Score       int     `json:"score"` // 0-5
	Notes       string  `json:"notes,omitempty"`
}

// ScoreAssessment is one draft or submitted scoring of an opportunity.
// Submitted assessments (is_draft=false) are immutable; any rework cycle
// creates a new version. Superseded marks drafts invalidated by reassignment.
type ScoreAssessment struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OpportunityID uuid.UUID      `gorm:"type:uuid;not null;index" json:"opportunityId"`
	Version       int            `gorm:"not null" json:"version"`
	Sections      datatypes.JSON `gorm:"type:jsonb;not null" json:"sections"`
	WeightedScore float64        `json:"weightedScore"`
	MaxPossible   float64        `json:"maxPossible"`
	Percentage    int            `json:"percentage"`
	Verdict       string         `gorm:"type:varchar(30)" json:"verdict,omitempty"`
	IsDraft       bool           `gorm:"not null;default:true" json:"isDraft"`
	Superseded    bool           `gorm:"not null;default:false" json:"superseded"`
	SubmissionID  *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"submissionId,omitempty"` // client retry idempotency
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for ScoreAssessment
func (ScoreAssessment) TableName() string {
	return "score_assessments"
}

// Verdict constants derived from the weighted percentage bands
const (
	VerdictGo     = "PURSUE AGGRESSIVELY"
	VerdictReview = "PURSUE WITH CAUTION"
	VerdictNoGo   = "NO GO / HIGH RISK"
)

// Final governance decision constants
const (
	DecisionGo   = "GO"
	DecisionNoGo = "NO_GO"
)

// DecodeSections unmarshals the stored section payload.
func (a *ScoreAssessment) DecodeSections() ([]ScoreSection, error) {
	var sections []ScoreSection
	if len(a.Sections) == 0 {
		return sections, nil
	}
	if err := json.Unmarshal(a.Sections, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// EncodeSections marshals sections into the stored JSON payload.
func EncodeSections(sections []ScoreSection) (datatypes.JSON, error) {
	raw, err := json.Marshal(sections)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
