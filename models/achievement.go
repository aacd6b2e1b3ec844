package models

import "time"

// Rarity tiers affect presentation and the implicit XP scale of the reward.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// ConditionClause is one threshold comparison over a named statistic of the
// user's statistics snapshot. Conditions are data, not code: a small
// interpreter in the achievement service evaluates them, which keeps the
// catalog serializable and testable. A missing statistic reads as zero,
// so absent data never satisfies a ">=" clause with a positive value.
type ConditionClause struct {
	Stat  string  `json:"stat"`  // e.g. "completed_orders", "average_rating"
	Op    string  `json:"op"`    // ">=", "<=", "=="
	Value float64 `json:"value"`
}

// Satisfied reports whether the clause holds for the given statistic value.
// Unknown operators never match.
func (c ConditionClause) Satisfied(v float64) bool {
	switch c.Op {
	case ">=":
		return v >= c.Value
	case "<=":
		return v <= c.Value
	case "==":
		return v == c.Value
	}
	return false
}

// Achievement is a seeded catalog row. The catalog is defined statically
// below and upserted by code at startup; Code is a role-prefixed slug, so
// it stays unique across both role tracks.
type Achievement struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string            `gorm:"uniqueIndex;type:varchar(80);not null" json:"code"`
	Role        Role              `gorm:"type:varchar(16);not null;index" json:"role"`
	Title       string            `gorm:"type:varchar(255);not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Icon        string            `gorm:"type:varchar(16)" json:"icon"`
	XPReward    int               `gorm:"default:0" json:"xp_reward"`
	Category    string            `gorm:"type:varchar(32)" json:"category"`
	Rarity      string            `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	Conditions  []ConditionClause `gorm:"serializer:json" json:"conditions"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// UserAchievement records a grant. The composite unique index is the
// idempotency guard: a concurrent double evaluation loses the second
// insert instead of double-granting XP.
type UserAchievement struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	XPEarned      int       `gorm:"default:0" json:"xp_earned"`
	EarnedAt      time.Time `gorm:"index;not null" json:"earned_at"`
	IsNotified    bool      `gorm:"default:false" json:"is_notified"`
}

// AchievementDefinition is a static catalog entry before seeding assigns it
// a row id and a slugged code.
type AchievementDefinition struct {
	Title       string
	Description string
	Icon        string
	XPReward    int
	Category    string
	Rarity      string
	Conditions  []ConditionClause
}

// ClientAchievements is the client track catalog.
var ClientAchievements = []AchievementDefinition{
	{
		Title: "Первые шаги", Description: "Заработайте первые 100 XP", Icon: "👣",
		XPReward: 25, Category: "activity", Rarity: RarityCommon,
		Conditions: []ConditionClause{{Stat: "total_xp", Op: ">=", Value: 100}},
	},
	{
		Title: "Первый заказ", Description: "Завершите свой первый заказ", Icon: "📦",
		XPReward: 50, Category: "orders", Rarity: RarityCommon,
		Conditions: []ConditionClause{{Stat: "completed_orders", Op: ">=", Value: 1}},
	},
	{
		Title: "Критик", Description: "Оставьте 5 отзывов", Icon: "✍️",
		XPReward: 100, Category: "reviews", Rarity: RarityCommon,
		Conditions: []ConditionClause{{Stat: "total_reviews", Op: ">=", Value: 5}},
	},
	{
		Title: "Постоянный клиент", Description: "Завершите 10 заказов", Icon: "🔁",
		XPReward: 150, Category: "orders", Rarity: RarityRare,
		Conditions: []ConditionClause{{Stat: "completed_orders", Op: ">=", Value: 10}},
	},
	{
		Title: "Ветеран", Description: "Год на платформе", Icon: "🗓️",
		XPReward: 200, Category: "loyalty", Rarity: RarityRare,
		Conditions: []ConditionClause{{Stat: "account_age_months", Op: ">=", Value: 12}},
	},
	{
		Title: "Амбассадор", Description: "Пригласите 5 друзей", Icon: "📣",
		XPReward: 250, Category: "referral", Rarity: RarityRare,
		Conditions: []ConditionClause{{Stat: "referral_count", Op: ">=", Value: 5}},
	},
	{
		Title: "Щедрый заказчик", Description: "Потратьте 50 000 ₽ на услуги", Icon: "💰",
		XPReward: 300, Category: "orders", Rarity: RarityEpic,
		Conditions: []ConditionClause{{Stat: "total_spent", Op: ">=", Value: 50000}},
	},
	{
		Title: "Легенда сервиса", Description: "Завершите 50 заказов", Icon: "🏆",
		XPReward: 500, Category: "orders", Rarity: RarityLegendary,
		Conditions: []ConditionClause{{Stat: "completed_orders", Op: ">=", Value: 50}},
	},
}

// ExecutorAchievements is the executor track catalog.
var ExecutorAchievements = []AchievementDefinition{
	{
		Title: "Первый выполненный заказ", Description: "Выполните свой первый заказ", Icon: "🔨",
		XPReward: 75, Category: "orders", Rarity: RarityCommon,
		Conditions: []ConditionClause{{Stat: "completed_orders", Op: ">=", Value: 1}},
	},
	{
		Title: "Старожил", Description: "Полгода на платформе", Icon: "🗓️",
		XPReward: 150, Category: "loyalty", Rarity: RarityCommon,
		Conditions: []ConditionClause{{Stat: "account_age_months", Op: ">=", Value: 6}},
	},
	{
		Title: "Надёжный мастер", Description: "Выполните 25 заказов", Icon: "🛡️",
		XPReward: 200, Category: "orders", Rarity: RarityRare,
		Conditions: []ConditionClause{{Stat: "completed_orders", Op: ">=", Value: 25}},
	},
	{
		Title: "Наставник", Description: "Пригласите 3 мастеров", Icon: "🤝",
		XPReward: 250, Category: "referral", Rarity: RarityRare,
		Conditions: []ConditionClause{{Stat: "referral_count", Op: ">=", Value: 3}},
	},
	{
		Title: "Серийный исполнитель", Description: "10 выполненных заказов подряд без отмен", Icon: "⚡",
		XPReward: 300, Category: "orders", Rarity: RarityRare,
		Conditions: []ConditionClause{{Stat: "consecutive_completed_orders", Op: ">=", Value: 10}},
	},
	{
		Title: "Высокий рейтинг", Description: "Рейтинг 4.8+ при 10 и более отзывах", Icon: "🌟",
		XPReward: 350, Category: "reviews", Rarity: RarityEpic,
		Conditions: []ConditionClause{
			{Stat: "average_rating", Op: ">=", Value: 4.8},
			{Stat: "total_reviews", Op: ">=", Value: 10},
		},
	},
	{
		Title: "Активный мастер", Description: "Выполните 30 заказов за месяц", Icon: "🔥",
		XPReward: 400, Category: "orders", Rarity: RarityEpic,
		Conditions: []ConditionClause{{Stat: "monthly_orders", Op: ">=", Value: 30}},
	},
	{
		Title: "Легенда платформы", Description: "Выполните 100 заказов", Icon: "🏆",
		XPReward: 1000, Category: "orders", Rarity: RarityLegendary,
		Conditions: []ConditionClause{{Stat: "completed_orders", Op: ">=", Value: 100}},
	},
}

// AchievementsFor returns the static catalog for a role track.
func AchievementsFor(role Role) []AchievementDefinition {
	if role == RoleExecutor {
		return ExecutorAchievements
	}
	return ClientAchievements
}
