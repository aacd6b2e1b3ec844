package models

import "time"

// XPHistory is the append-only XP ledger. Every grant — direct action,
// achievement reward, or referral reward — produces exactly one row.
// Rows are never updated or deleted.
type XPHistory struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Amount      int            `gorm:"not null" json:"amount"`
	Source      string         `gorm:"type:varchar(64);not null;index" json:"source"` // e.g. "order_completion", "achievement", "referral"
	Description string         `gorm:"type:text" json:"description"`
	Metadata    map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`
	EarnedAt    time.Time      `gorm:"index;not null" json:"earned_at"`
}
