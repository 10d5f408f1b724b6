package services

import (
	"fmt"
	"math"

	"bid-qualification-service/internal/models"
)

// MaxSectionScore is the fixed per-section score ceiling.
const MaxSectionScore = 5

// ScoreBreakdown is the scoring engine's output for a set of scored sections.
type ScoreBreakdown struct {
	WeightedScore float64 `json:"weightedScore"`
	MaxPossible   float64 `json:"maxPossible"`
	Percentage    int     `json:"percentage"`
	Verdict       string  `json:"verdict"`
}

// ComputeVerdict derives the weighted qualification score and recommendation
// verdict from scored sections. Pure: identical input always yields identical
// output, and an empty section list yields percentage 0 rather than a
// division by zero.
func ComputeVerdict(sections []models.ScoreSection) ScoreBreakdown {
	var weighted, totalWeight float64
	for _, s := range sections {
		weighted += float64(s.Score) * s.Weight
		totalWeight += s.Weight
	}

	maxPossible := totalWeight * MaxSectionScore

	percentage := 0
	if maxPossible > 0 {
		percentage = int(math.Round(weighted / maxPossible * 100))
	}

	verdict := models.VerdictNoGo
	switch {
	case percentage >= 80:
		verdict = models.VerdictGo
	case percentage >= 60:
		verdict = models.VerdictReview
	}

	return ScoreBreakdown{
		WeightedScore: weighted,
		MaxPossible:   maxPossible,
		Percentage:    percentage,
		Verdict:       verdict,
	}
}

// TemplateSection is one required qualification category with its fixed weight.
type TemplateSection struct {
	Code   string  `json:"code"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// ScoringTemplate is the configured set of qualification categories an
// assessment must cover before it can be submitted. Drafts may be partial;
// only submission validates against the template.
type ScoringTemplate struct {
	Sections []TemplateSection
}

// DefaultScoringTemplate returns the reference eight-category configuration,
// weights summing to 1.0.
func DefaultScoringTemplate() ScoringTemplate {
	return ScoringTemplate{
		Sections: []TemplateSection{
			{Code: "STRATEGIC_FIT", Label: "Strategic Fit", Weight: 0.15},
			{Code: "CUSTOMER_RELATIONSHIP", Label: "Customer Relationship", Weight: 0.10},
			{Code: "COMPETITIVE_POSITION", Label: "Competitive Position", Weight: 0.15},
			{Code: "DELIVERY_CAPABILITY", Label: "Delivery Capability", Weight: 0.15},
			{Code: "FINANCIAL_VIABILITY", Label: "Financial Viability", Weight: 0.15},
			{Code: "RISK_EXPOSURE", Label: "Risk Exposure", Weight: 0.10},
			{Code: "PRICING_COMPETITIVENESS", Label: "Pricing Competitiveness", Weight: 0.10},
			{Code: "PARTNER_ECOSYSTEM", Label: "Partner Ecosystem", Weight: 0.10},
		},
	}
}

// ValidateSections checks score ranges; applies to drafts and submissions.
func ValidateSections(sections []models.ScoreSection) error {
	for _, s := range sections {
		if s.SectionCode == "" {
			return &ValidationError{Field: "sections", Message: "section_code is required"}
		}
		if s.Score < 0 || s.Score > MaxSectionScore {
			return &ValidationError{
				Field:   "sections",
				Message: fmt.Sprintf("score for %s must be between 0 and %d", s.SectionCode, MaxSectionScore),
			}
		}
		if s.Weight < 0 {
			return &ValidationError{Field: "sections", Message: fmt.Sprintf("weight for %s must not be negative", s.SectionCode)}
		}
	}
	return nil
}

// ValidateComplete checks that every template section is present exactly once.
// Only SUBMIT_SCORE runs this; SAVE_DRAFT never does.
func (t ScoringTemplate) ValidateComplete(sections []models.ScoreSection) error {
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		seen[s.SectionCode] = true
	}
	for _, required := range t.Sections {
		if !seen[required.Code] {
			return fmt.Errorf("%w: %s", ErrIncompleteAssessment, required.Code)
		}
	}
	return nil
}

// ApplyWeights overwrites each section's weight with the configured template
// weight, so clients cannot tilt the verdict by sending their own weights.
func (t ScoringTemplate) ApplyWeights(sections []models.ScoreSection) []models.ScoreSection {
	weights := make(map[string]float64, len(t.Sections))
	for _, s := range t.Sections {
		weights[s.Code] = s.Weight
	}
	out := make([]models.ScoreSection, len(sections))
	for i, s := range sections {
		if w, ok := weights[s.SectionCode]; ok {
			s.Weight = w
		}
		out[i] = s
	}
	return out
}
