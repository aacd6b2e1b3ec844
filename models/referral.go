package models

import "time"

// RewardType classifies a referral reward record.
type RewardType string

const (
	RewardTypeXP          RewardType = "xp"
	RewardTypeBonus       RewardType = "bonus"
	RewardTypeAchievement RewardType = "achievement"
)

// ReferralReward is the append-only reward ledger for the referral program.
// XPAmount mirrors what went through the XP ledger; RewardAmount is the
// monetary-equivalent part (may be zero for pure-XP rewards).
type ReferralReward struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID   uint       `gorm:"index;not null" json:"referrer_id"`
	ReferredID   uint       `gorm:"index;not null" json:"referred_id"`
	RewardType   RewardType `gorm:"type:varchar(16);not null" json:"reward_type"`
	RewardAmount float64    `gorm:"default:0" json:"reward_amount"`
	XPAmount     int        `gorm:"default:0" json:"xp_amount"`
	Description  string     `gorm:"type:text" json:"description"`
	IsPaid       bool       `gorm:"default:false;index" json:"is_paid"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
