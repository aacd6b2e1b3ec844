package models

import "time"

// SubscriptionStatus is the subset of the billing service's states the
// referral engine needs to recognize a purchased subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a read-only collaborator table: the referral engine only
// counts a referred executor's subscriptions to gate the one-time
// subscription bonus for their referrer.
type Subscription struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	UserID    uint               `gorm:"index;not null" json:"user_id"`
	Status    SubscriptionStatus `gorm:"type:varchar(16);not null" json:"status"`
	StartedAt time.Time          `json:"started_at"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`

	Timestamps
}
