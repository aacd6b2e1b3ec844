package models

import "time"

// OrderStatus mirrors the marketplace order lifecycle. Only the subset the
// statistics snapshot cares about is modeled here.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a read-only collaborator table: the order service owns it, the
// gamification core only queries it to build statistics snapshots.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ClientID    uint        `gorm:"index;not null" json:"client_id"`
	ExecutorID  *uint       `gorm:"index" json:"executor_id,omitempty"`
	Status      OrderStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Price       float64     `gorm:"default:0" json:"price"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`

	Timestamps
}
