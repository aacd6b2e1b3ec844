package services

import (
	"context"
	"log"
	"time"

	"service-market-gamification/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartPayoutScheduler settles registration referral rewards: rows older
// than 24h that are still unpaid get marked paid. Subscription bonuses are
// paid at grant time and never pass through here.
func (s *ReferralService) StartPayoutScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			settled, err := s.SettlePendingRewards()
			if err != nil {
				log.Printf("[Scheduler] referral payout sweep failed: %v", err)
				return
			}
			if settled > 0 {
				log.Printf("💸 Referral payout sweep: %d rewards settled", settled)
			}
		}),
	)
}

// SettlePendingRewards marks registration rewards older than 24h as paid
// and returns how many were settled.
func (s *ReferralService) SettlePendingRewards() (int64, error) {
	now := s.now()
	cutoff := now.Add(-24 * time.Hour)
	res := s.DB.Model(&models.ReferralReward{}).
		Where("is_paid = ? AND created_at <= ?", false, cutoff).
		Updates(map[string]any{"is_paid": true, "paid_at": now})
	return res.RowsAffected, res.Error
}

// StartRebuildScheduler rebuilds the Redis leaderboards from Postgres every
// 10 minutes so the sorted sets converge after a Redis restart or flush.
func (l *LeaderboardService) StartRebuildScheduler(db *gorm.DB) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := l.Rebuild(ctx, db); err != nil {
				log.Printf("[Scheduler] leaderboard rebuild failed: %v", err)
			}
		}),
	)
}
