package models

import "time"

// Review is a customer's star rating and comment for a café. A café may
// answer each review once.
type Review struct {
	ID         string     `gorm:"column:id;primaryKey"`
	CafeID     string     `gorm:"column:cafe_id;not null"`
	AuthorName string     `gorm:"column:author_name;not null"`
	Rating     int        `gorm:"column:rating;not null"`
	Body       string     `gorm:"column:body;not null"`
	ReplyText  *string    `gorm:"column:reply_text"`
	RepliedAt  *time.Time `gorm:"column:replied_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (Review) TableName() string { return "reviews" }
