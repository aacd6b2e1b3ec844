package services

import (
	"errors"
	"time"

	"service-market-gamification/models"

	"gorm.io/gorm"
)

// StatsSnapshot is a point-in-time aggregation of a user's activity,
// computed fresh for every achievement evaluation and never persisted.
type StatsSnapshot struct {
	CompletedOrders            int64
	MonthlyOrders              int64
	ConsecutiveCompletedOrders int64
	TotalSpent                 float64
	TotalReviews               int64
	AverageRating              float64
	ReferralCount              int64
	AccountAgeMonths           int64
	TotalXP                    int64
	CurrentLevel               int64
}

// Stat resolves a statistic by the name used in catalog condition clauses.
// Unknown names read as zero, so a malformed clause can never be satisfied
// by accident (all catalog thresholds are positive).
func (s *StatsSnapshot) Stat(name string) float64 {
	switch name {
	case "completed_orders":
		return float64(s.CompletedOrders)
	case "monthly_orders":
		return float64(s.MonthlyOrders)
	case "consecutive_completed_orders":
		return float64(s.ConsecutiveCompletedOrders)
	case "total_spent":
		return s.TotalSpent
	case "total_reviews":
		return float64(s.TotalReviews)
	case "average_rating":
		return s.AverageRating
	case "referral_count":
		return float64(s.ReferralCount)
	case "account_age_months":
		return float64(s.AccountAgeMonths)
	case "total_xp":
		return float64(s.TotalXP)
	case "current_level":
		return float64(s.CurrentLevel)
	}
	return 0
}

// buildSnapshot aggregates collaborator tables (orders, reviews) for one
// user. Clients are measured by the orders they placed and the reviews they
// wrote; executors by the orders they completed and the reviews they
// received.
func (s *GamificationService) buildSnapshot(user *models.User) (*StatsSnapshot, error) {
	now := s.now()
	snap := &StatsSnapshot{
		ReferralCount: int64(user.ReferralCount),
		TotalXP:       int64(user.TotalXPEarned),
		CurrentLevel:  int64(user.CurrentLevel),
	}

	months := int64(now.Sub(user.CreatedAt).Hours() / (24 * 30))
	if months > 0 {
		snap.AccountAgeMonths = months
	}

	ownerColumn := "executor_id"
	reviewColumn := "target_id"
	if user.Role == models.RoleClient {
		ownerColumn = "client_id"
		reviewColumn = "author_id"
	}

	completed := s.DB.Model(&models.Order{}).
		Where(ownerColumn+" = ? AND status = ?", user.ID, models.OrderStatusCompleted)
	if err := completed.Count(&snap.CompletedOrders).Error; err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	err := s.DB.Model(&models.Order{}).
		Where(ownerColumn+" = ? AND status = ? AND completed_at >= ?", user.ID, models.OrderStatusCompleted, monthStart).
		Count(&snap.MonthlyOrders).Error
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleClient {
		var spent *float64
		err = s.DB.Model(&models.Order{}).
			Where("client_id = ? AND status = ?", user.ID, models.OrderStatusCompleted).
			Select("SUM(price)").Scan(&spent).Error
		if err != nil {
			return nil, err
		}
		if spent != nil {
			snap.TotalSpent = *spent
		}
	} else {
		streak, err := s.consecutiveCompleted(user.ID)
		if err != nil {
			return nil, err
		}
		snap.ConsecutiveCompletedOrders = streak
	}

	err = s.DB.Model(&models.Review{}).
		Where(reviewColumn+" = ?", user.ID).
		Count(&snap.TotalReviews).Error
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleExecutor && snap.TotalReviews > 0 {
		var avg *float64
		err = s.DB.Model(&models.Review{}).
			Where("target_id = ?", user.ID).
			Select("AVG(rating)").Scan(&avg).Error
		if err != nil {
			return nil, err
		}
		if avg != nil {
			snap.AverageRating = *avg
		}
	}

	return snap, nil
}

// consecutiveCompleted counts the executor's current streak of completed
// orders, walking finished orders newest-first until a cancellation breaks
// it.
func (s *GamificationService) consecutiveCompleted(executorID uint) (int64, error) {
	var orders []models.Order
	err := s.DB.Where("executor_id = ? AND status IN ?", executorID,
		[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Order("created_at DESC").
		Limit(200).
		Find(&orders).Error
	if err != nil {
		return 0, err
	}

	var streak int64
	for _, o := range orders {
		if o.Status != models.OrderStatusCompleted {
			break
		}
		streak++
	}
	return streak, nil
}

// UserStats is the dashboard aggregation for one user.
type UserStats struct {
	User         *models.User           `json:"user"`
	Level        *UserLevel             `json:"level"`
	XP           map[string]int         `json:"xp"`
	Achievements map[string]any         `json:"achievements"`
	XPHistory    []models.XPHistory     `json:"xp_history"`
	NextLevel    *NextLevelInfo         `json:"next_level,omitempty"`
}

// GetUserStats returns the full gamification profile: counters, level with
// progress toward the next one, achievement totals by rarity, and the most
// recent ledger entries.
func (s *GamificationService) GetUserStats(userID uint) (*UserStats, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	level, err := s.GetUserLevel(userID)
	if err != nil {
		return nil, err
	}

	granted, err := s.GetUserAchievements(userID)
	if err != nil {
		return nil, err
	}
	byRarity := map[string]int{}
	for _, g := range granted {
		byRarity[g.Rarity]++
	}
	recent := granted
	if len(recent) > 5 {
		recent = recent[:5]
	}

	history, _, err := s.GetXPHistory(userID, 1, 10)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		User:  &user,
		Level: level,
		XP: map[string]int{
			"current": user.ExperiencePoints,
			"total":   user.TotalXPEarned,
			"daily":   user.DailyXPEarned,
			"weekly":  user.WeeklyXPEarned,
			"monthly": user.MonthlyXPEarned,
		},
		Achievements: map[string]any{
			"total":     len(granted),
			"recent":    recent,
			"by_rarity": byRarity,
		},
		XPHistory: history,
		NextLevel: NextLevel(user.ExperiencePoints, user.Role),
	}, nil
}
