package services

import (
	"fmt"
	"log"

	"service-market-gamification/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedAchievements upserts the static catalogs into the achievements table
// so grants have a real FK target. Codes are role-prefixed latin slugs of
// the Russian titles ("Активный мастер" → "executor-aktivnyi-master"),
// which keeps the two tracks from ever colliding; a duplicate code is a
// catalog-definition bug and aborts startup.
func SeedAchievements(db *gorm.DB) error {
	seen := map[string]bool{}
	total := 0

	for _, role := range []models.Role{models.RoleClient, models.RoleExecutor} {
		for _, def := range models.AchievementsFor(role) {
			code := slug.Make(string(role) + " " + def.Title)
			if seen[code] {
				return fmt.Errorf("duplicate achievement code %q in catalog", code)
			}
			seen[code] = true

			row := models.Achievement{
				ID:          uuid.NewString(),
				Code:        code,
				Role:        role,
				Title:       def.Title,
				Description: def.Description,
				Icon:        def.Icon,
				XPReward:    def.XPReward,
				Category:    def.Category,
				Rarity:      def.Rarity,
				Conditions:  def.Conditions,
			}
			err := db.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"title", "description", "icon", "xp_reward", "category", "rarity", "conditions",
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("seed achievement %q: %w", code, err)
			}
			total++
		}
	}

	log.Printf("📚 Achievement catalog seeded: %d entries", total)
	return nil
}
