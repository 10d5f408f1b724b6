package seeders

import (
	"log"

	"bid-qualification-service/internal/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedDemoUsers creates or updates a demo user per pipeline role. Intended
// for development and demo environments; production gets its directory from
// the identity sync.
func SeedDemoUsers(db *gorm.DB) error {
	users := []models.WorkflowUser{
		{
			DisplayName: "Gloria Hart",
			Email:       "gloria.hart@example.com",
			Practice:    "Cloud & Infrastructure",
			Region:      "Global",
			Roles:       pq.StringArray{"GH"},
			IsActive:    true,
		},
		{
			DisplayName: "Priya Haldar",
			Email:       "priya.haldar@example.com",
			Practice:    "Cloud & Infrastructure",
			Region:      "EMEA",
			Roles:       pq.StringArray{"PH"},
			IsActive:    true,
		},
		{
			DisplayName: "Sam Hughes",
			Email:       "sam.hughes@example.com",
			Practice:    "Cloud & Infrastructure",
			Region:      "EMEA",
			Roles:       pq.StringArray{"SH"},
			IsActive:    true,
		},
		{
			DisplayName: "Sofia Alvarez",
			Email:       "sofia.alvarez@example.com",
			Practice:    "Cloud & Infrastructure",
			Region:      "EMEA",
			Roles:       pq.StringArray{"SA"},
			IsActive:    true,
		},
		{
			DisplayName: "Stefan Petrov",
			Email:       "stefan.petrov@example.com",
			Practice:    "Cloud & Infrastructure",
			Region:      "EMEA",
			Roles:       pq.StringArray{"SP"},
			IsActive:    true,
		},
	}

	for _, user := range users {
		// Use upsert (ON CONFLICT DO UPDATE) to create or update
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "practice", "region", "roles", "is_active", "updated_at"}),
		}).Create(&user)

		if result.Error != nil {
			log.Printf("Failed to seed user %s: %v", user.Email, result.Error)
			return result.Error
		}
		log.Printf("Seeded user: %s (%v)", user.Email, user.Roles)
	}

	return nil
}
