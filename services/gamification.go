package services

import (
	"context"
	"errors"
	"log"
	"time"

	"service-market-gamification/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GamificationService owns every mutation of the XP counters and the cached
// level. No other code path writes experience_points, current_level, or the
// rolling counters — that single-writer discipline is what keeps the
// level invariant enforceable.
type GamificationService struct {
	DB          *gorm.DB
	Notifier    Notifier
	Leaderboard *LeaderboardService

	// now is swappable so counter-boundary behavior is testable.
	now func() time.Time
}

func NewGamificationService(db *gorm.DB, notifier Notifier, leaderboard *LeaderboardService) *GamificationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GamificationService{
		DB:          db,
		Notifier:    notifier,
		Leaderboard: leaderboard,
		now:         time.Now,
	}
}

// LevelUpInfo describes a level transition caused by an XP grant.
type LevelUpInfo struct {
	OldLevel int                     `json:"old_level"`
	NewLevel int                     `json:"new_level"`
	Config   *models.LevelDefinition `json:"config,omitempty"`
}

// XPGrantResult is returned from AddXP.
type XPGrantResult struct {
	UserID    uint         `json:"user_id"`
	Role      models.Role  `json:"role"`
	Amount    int          `json:"amount"`
	NewXP     int          `json:"new_xp"`
	LeveledUp bool         `json:"leveled_up"`
	LevelUp   *LevelUpInfo `json:"level_up,omitempty"`
}

// AddXP grants XP to a user: one ledger append plus one atomic counter
// update, then level-up notification, leaderboard refresh, and achievement
// re-evaluation. The grant itself is transactional; everything after the
// commit is non-essential fan-out and can never roll it back.
func (s *GamificationService) AddXP(userID uint, amount int, source, description string, metadata map[string]any) (*XPGrantResult, error) {
	result, err := s.applyGrant(userID, amount, source, description, metadata)
	if err != nil {
		return nil, err
	}
	s.afterGrant(result)

	// Every grant can unlock achievements. Evaluation failures are logged
	// and swallowed — the user keeps the XP either way.
	if _, err := s.CheckAchievements(userID); err != nil {
		log.Printf("[Gamification] achievement check for user %d skipped: %v", userID, err)
	}
	return result, nil
}

// applyGrant performs the transactional part of an XP grant: load counters,
// roll the time-windowed ones, re-resolve the level, persist the user row
// and exactly one ledger entry. No partial writes on failure.
func (s *GamificationService) applyGrant(userID uint, amount int, source, description string, metadata map[string]any) (*XPGrantResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidXPAmount
	}

	now := s.now()
	var result *XPGrantResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent grants for the same user. SQLite (tests)
		// serializes writers on its own and rejects FOR UPDATE.
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var user models.User
		if err := q.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		oldLevel := user.CurrentLevel
		newXP := user.ExperiencePoints + amount

		if isNewDay(user.LastXPEarnedAt, now) {
			user.DailyXPEarned = amount
		} else {
			user.DailyXPEarned += amount
		}
		if isNewWeek(user.LastXPEarnedAt, now) {
			user.WeeklyXPEarned = amount
		} else {
			user.WeeklyXPEarned += amount
		}
		if isNewMonth(user.LastXPEarnedAt, now) {
			user.MonthlyXPEarned = amount
		} else {
			user.MonthlyXPEarned += amount
		}

		user.ExperiencePoints = newXP
		user.TotalXPEarned += amount
		user.CurrentLevel = ResolveLevel(newXP, user.Role)
		user.LastXPEarnedAt = &now

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		entry := models.XPHistory{
			ID:          uuid.NewString(),
			UserID:      userID,
			Amount:      amount,
			Source:      source,
			Description: description,
			Metadata:    metadata,
			EarnedAt:    now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result = &XPGrantResult{
			UserID:    userID,
			Role:      user.Role,
			Amount:    amount,
			NewXP:     newXP,
			LeveledUp: user.CurrentLevel > oldLevel,
		}
		if result.LeveledUp {
			result.LevelUp = &LevelUpInfo{
				OldLevel: oldLevel,
				NewLevel: user.CurrentLevel,
				Config:   LevelConfig(user.CurrentLevel, user.Role),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎮 XP granted: user=%d +%d (%s) → xp=%d lvl_up=%t",
		userID, amount, source, result.NewXP, result.LeveledUp)
	return result, nil
}

// afterGrant runs the fire-and-forget fan-out of a committed grant.
func (s *GamificationService) afterGrant(result *XPGrantResult) {
	if result.LeveledUp {
		s.Notifier.NotifyLevelUp(result.UserID, result.LevelUp.OldLevel, result.LevelUp.NewLevel, result.LevelUp.Config)
	}
	if s.Leaderboard != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Leaderboard.SetScore(ctx, result.Role, result.UserID, result.NewXP); err != nil {
			log.Printf("[Gamification] leaderboard update for user %d failed: %v", result.UserID, err)
		}
	}
}

// UserLevel is the read-side level view.
type UserLevel struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// GetUserLevel returns the user's current level with its display config.
func (s *GamificationService) GetUserLevel(userID uint) (*UserLevel, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	cfg := LevelConfig(user.CurrentLevel, user.Role)
	if cfg == nil {
		cfg = &models.LevelsFor(user.Role)[0]
	}
	return &UserLevel{Level: cfg.Level, Title: cfg.Title, Icon: cfg.Icon, Color: cfg.Color}, nil
}

// GetXPHistory returns the user's ledger, most recent first.
func (s *GamificationService) GetXPHistory(userID uint, page, size int) ([]models.XPHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	var total int64
	if err := s.DB.Model(&models.XPHistory{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.XPHistory
	err := s.DB.Where("user_id = ?", userID).
		Order("earned_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&entries).Error
	return entries, total, err
}

// Rolling counter boundaries. Day and month follow the calendar; the week
// starts on Sunday. A counter resets only when the new grant falls in a
// later window than the previous grant, never mid-window.

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func isNewDay(last *time.Time, now time.Time) bool {
	return last == nil || last.Before(startOfDay(now))
}

func isNewWeek(last *time.Time, now time.Time) bool {
	return last == nil || last.Before(startOfWeek(now))
}

func isNewMonth(last *time.Time, now time.Time) bool {
	return last == nil || last.Year() != now.Year() || last.Month() != now.Month()
}
