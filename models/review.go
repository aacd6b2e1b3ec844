package models

// Review is a read-only collaborator table owned by the review service.
// AuthorID wrote the review, TargetID received it.
type Review struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OrderID  uint   `gorm:"index;not null" json:"order_id"`
	AuthorID uint   `gorm:"index;not null" json:"author_id"`
	TargetID uint   `gorm:"index;not null" json:"target_id"`
	Rating   int    `gorm:"not null" json:"rating"` // 1..5
	Comment  string `gorm:"type:text" json:"comment"`

	Timestamps
}
