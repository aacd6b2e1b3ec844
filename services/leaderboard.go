package services

import (
	"context"
	"fmt"
	"strconv"

	"service-market-gamification/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LeaderboardService keeps one Redis sorted set of XP per role track,
// refreshed on every grant and periodically rebuilt from Postgres. Best
// effort only: the ledger in Postgres is the source of truth.
type LeaderboardService struct {
	client *redis.Client
}

func NewLeaderboardService(client *redis.Client) *LeaderboardService {
	return &LeaderboardService{client: client}
}

func leaderboardKey(role models.Role) string {
	return fmt.Sprintf("leaderboard:%s", role)
}

// SetScore writes a user's XP total into their track's sorted set.
func (l *LeaderboardService) SetScore(ctx context.Context, role models.Role, userID uint, xp int) error {
	err := l.client.ZAdd(ctx, leaderboardKey(role), redis.Z{
		Score:  float64(xp),
		Member: strconv.FormatUint(uint64(userID), 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard zadd: %w", err)
	}
	return nil
}

// LeaderboardEntry is one row of the top-N view.
type LeaderboardEntry struct {
	Rank   int  `json:"rank"`
	UserID uint `json:"user_id"`
	XP     int  `json:"xp"`
}

// Top returns the highest-XP users of a track, best first.
func (l *LeaderboardService) Top(ctx context.Context, role models.Role, n int) ([]LeaderboardEntry, error) {
	if n < 1 || n > 100 {
		n = 10
	}
	rows, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey(role), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard zrevrange: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, z := range rows {
		id, err := strconv.ParseUint(z.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			UserID: uint(id),
			XP:     int(z.Score),
		})
	}
	return entries, nil
}

// Rebuild repopulates both track sets from the users table. Run at startup
// and on a schedule so a flushed or restarted Redis converges back.
func (l *LeaderboardService) Rebuild(ctx context.Context, db *gorm.DB) error {
	for _, role := range []models.Role{models.RoleClient, models.RoleExecutor} {
		var users []models.User
		err := db.Select("id", "experience_points").
			Where("role = ?", role).
			Find(&users).Error
		if err != nil {
			return fmt.Errorf("leaderboard rebuild query (%s): %w", role, err)
		}

		key := leaderboardKey(role)
		pipe := l.client.TxPipeline()
		pipe.Del(ctx, key)
		for _, u := range users {
			pipe.ZAdd(ctx, key, redis.Z{
				Score:  float64(u.ExperiencePoints),
				Member: strconv.FormatUint(uint64(u.ID), 10),
			})
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("leaderboard rebuild pipeline (%s): %w", role, err)
		}
	}
	return nil
}
