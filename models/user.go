package models

import (
	"time"

	"gorm.io/gorm"
)

// Role selects which level/achievement track applies to a user.
type Role string

const (
	RoleClient   Role = "client"
	RoleExecutor Role = "executor"
)

// User carries the gamification columns of the marketplace user row.
// Profile fields (contacts, auth, etc.) are owned by the profile service;
// this service only touches the columns below, and only through
// GamificationService.AddXP and the referral engine.
type User struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Role Role   `gorm:"type:varchar(16);not null;default:'client';index" json:"role"`
	Name string `gorm:"type:varchar(255)" json:"name"`

	// Core progression. CurrentLevel is a cached ResolveLevel(xp, role);
	// the invariant is re-established inside every XP grant transaction.
	ExperiencePoints int `gorm:"default:0" json:"experience_points"`
	CurrentLevel     int `gorm:"default:1" json:"current_level"`

	// Rolling counters. Daily/weekly/monthly reset when a grant lands in a
	// new calendar day / Sunday-started week / calendar month relative to
	// LastXPEarnedAt.
	TotalXPEarned   int        `gorm:"default:0" json:"total_xp_earned"`
	DailyXPEarned   int        `gorm:"default:0" json:"daily_xp_earned"`
	WeeklyXPEarned  int        `gorm:"default:0" json:"weekly_xp_earned"`
	MonthlyXPEarned int        `gorm:"default:0" json:"monthly_xp_earned"`
	LastXPEarnedAt  *time.Time `json:"last_xp_earned_at,omitempty"`

	// Referral dimension. ReferredByID is set at most once, ever.
	ReferralCode     *string `gorm:"uniqueIndex;type:varchar(16)" json:"referral_code,omitempty"`
	ReferredByID     *uint   `gorm:"index" json:"referred_by_id,omitempty"`
	ReferralCount    int     `gorm:"default:0" json:"referral_count"`
	ReferralEarnings float64 `gorm:"default:0" json:"referral_earnings"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
