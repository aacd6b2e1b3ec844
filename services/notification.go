package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"service-market-gamification/models"

	"github.com/redis/go-redis/v9"
)

// Notifier is the outbound notification sink. Implementations must be safe
// to call fire-and-forget: a failing sink never fails the core operation.
type Notifier interface {
	NotifyLevelUp(userID uint, oldLevel, newLevel int, config *models.LevelDefinition)
	NotifyAchievement(userID uint, achievement *models.Achievement)
	NotifyReferral(userID uint, kind string, data map[string]any)
}

// NopNotifier discards all notifications. Used in tests and when Redis is
// not configured.
type NopNotifier struct{}

func (NopNotifier) NotifyLevelUp(uint, int, int, *models.LevelDefinition) {}
func (NopNotifier) NotifyAchievement(uint, *models.Achievement)           {}
func (NopNotifier) NotifyReferral(uint, string, map[string]any)           {}

// RedisNotifier publishes notification events to per-user Redis pub/sub
// channels. The web layer subscribes and pushes to connected clients.
type RedisNotifier struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, timeout: 2 * time.Second}
}

func (n *RedisNotifier) publish(userID uint, event string, payload map[string]any) {
	payload["event"] = event
	payload["at"] = time.Now().UTC()

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Notifier] marshal %s for user %d failed: %v", event, userID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	channel := fmt.Sprintf("notify:user:%d", userID)
	if err := n.client.Publish(ctx, channel, body).Err(); err != nil {
		log.Printf("[Notifier] publish %s to %s failed: %v", event, channel, err)
	}
}

func (n *RedisNotifier) NotifyLevelUp(userID uint, oldLevel, newLevel int, config *models.LevelDefinition) {
	payload := map[string]any{
		"old_level": oldLevel,
		"new_level": newLevel,
	}
	if config != nil {
		payload["title"] = config.Title
		payload["icon"] = config.Icon
		payload["color"] = config.Color
	}
	n.publish(userID, "level_up", payload)
}

func (n *RedisNotifier) NotifyAchievement(userID uint, achievement *models.Achievement) {
	n.publish(userID, "achievement", map[string]any{
		"code":      achievement.Code,
		"title":     achievement.Title,
		"icon":      achievement.Icon,
		"rarity":    achievement.Rarity,
		"xp_reward": achievement.XPReward,
	})
}

func (n *RedisNotifier) NotifyReferral(userID uint, kind string, data map[string]any) {
	payload := map[string]any{"kind": kind}
	for k, v := range data {
		payload[k] = v
	}
	n.publish(userID, "referral", payload)
}
