package services

import (
	"errors"
	"log"
	"time"

	"service-market-gamification/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// conditionsMet evaluates a catalog entry's clauses against a snapshot.
// All clauses must hold; an empty condition list never grants.
func conditionsMet(clauses []models.ConditionClause, snap *StatsSnapshot) bool {
	if len(clauses) == 0 {
		return false
	}
	for _, c := range clauses {
		if !c.Satisfied(snap.Stat(c.Stat)) {
			return false
		}
	}
	return true
}

// CheckAchievements evaluates every not-yet-earned achievement on the
// user's track against a fresh statistics snapshot and grants the satisfied
// ones. Granting awards XP, which can satisfy further conditions, so the
// evaluation runs as a drain loop instead of recursing through AddXP: each
// pass re-snapshots and re-scans, and stops once a pass grants nothing.
// Termination is guaranteed because the ungranted set strictly shrinks.
//
// Returns only the achievements granted by this call.
func (s *GamificationService) CheckAchievements(userID uint) ([]models.Achievement, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var catalog []models.Achievement
	if err := s.DB.Where("role = ?", user.Role).Find(&catalog).Error; err != nil {
		return nil, err
	}

	earned := map[string]bool{}
	var grants []models.UserAchievement
	if err := s.DB.Where("user_id = ?", userID).Find(&grants).Error; err != nil {
		return nil, err
	}
	for _, g := range grants {
		earned[g.AchievementID] = true
	}

	var newlyGranted []models.Achievement
	for {
		snap, err := s.buildSnapshot(&user)
		if err != nil {
			// Fail safe: the XP grant that triggered us is already
			// committed; report what was granted so far.
			return newlyGranted, err
		}

		grantedThisPass := 0
		for i := range catalog {
			a := catalog[i]
			if earned[a.ID] {
				continue
			}
			if !conditionsMet(a.Conditions, snap) {
				continue
			}

			ok, err := s.grantAchievement(&user, &a)
			if err != nil {
				return newlyGranted, err
			}
			earned[a.ID] = true
			if !ok {
				continue // lost the insert race — already granted elsewhere
			}
			newlyGranted = append(newlyGranted, a)
			grantedThisPass++
		}

		if grantedThisPass == 0 {
			return newlyGranted, nil
		}

		// Rewards changed the counters; reload before the next pass.
		if err := s.DB.First(&user, userID).Error; err != nil {
			return newlyGranted, err
		}
	}
}

// grantAchievement inserts the junction row and pays out the reward. The
// (user_id, achievement_id) unique index is the idempotency guard: losing
// the insert race means some concurrent evaluation already granted it, so
// we skip without error and without re-awarding XP.
func (s *GamificationService) grantAchievement(user *models.User, a *models.Achievement) (bool, error) {
	ua := models.UserAchievement{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		AchievementID: a.ID,
		XPEarned:      a.XPReward,
		EarnedAt:      s.now(),
	}
	if err := s.DB.Create(&ua).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}

	log.Printf("🏅 Achievement granted: user=%d %q (+%d XP)", user.ID, a.Title, a.XPReward)

	if a.XPReward > 0 {
		result, err := s.applyGrant(user.ID, a.XPReward, "achievement",
			"Достижение: "+a.Title, map[string]any{"achievement_code": a.Code})
		if err != nil {
			// The grant row stands; the reward failing is logged, not fatal.
			log.Printf("[Gamification] achievement reward for user %d failed: %v", user.ID, err)
		} else {
			s.afterGrant(result)
		}
	}

	s.Notifier.NotifyAchievement(user.ID, a)
	return true, nil
}

// GrantedAchievement is an achievement joined with its grant record.
type GrantedAchievement struct {
	models.Achievement
	XPEarned int       `json:"xp_earned"`
	EarnedAt time.Time `json:"earned_at"`
}

// GetUserAchievements returns everything the user has earned, most recent
// first.
func (s *GamificationService) GetUserAchievements(userID uint) ([]GrantedAchievement, error) {
	var grants []models.UserAchievement
	err := s.DB.Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return []GrantedAchievement{}, nil
	}

	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.AchievementID)
	}
	var rows []models.Achievement
	if err := s.DB.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Achievement, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	result := make([]GrantedAchievement, 0, len(grants))
	for _, g := range grants {
		a, ok := byID[g.AchievementID]
		if !ok {
			continue // catalog row retired; keep the grant out of the view
		}
		result = append(result, GrantedAchievement{
			Achievement: a,
			XPEarned:    g.XPEarned,
			EarnedAt:    g.EarnedAt,
		})
	}
	return result, nil
}
