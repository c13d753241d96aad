package models

import (
	"time"
)

type Doubt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Did       string    `gorm:"uniqueIndex;size:36;not null" json:"did"`
	AskedByID uint      `gorm:"not null;index" json:"asked_by_id"`
	AskedBy   User      `gorm:"foreignKey:AskedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"asked_by"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Subject   string    `gorm:"not null;index" json:"subject"`
	Semester  int       `gorm:"not null;index" json:"semester"` // 1-8, validated at creation
	Tags      []string  `gorm:"serializer:json" json:"tags"`
	IsSolved  bool      `gorm:"default:false" json:"is_solved"`
	Upvotes   int       `gorm:"default:0" json:"upvotes"`   // maintained by the vote ledger
	Downvotes int       `gorm:"default:0" json:"downvotes"` // maintained by the vote ledger
	Answers   []Answer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Filled on list queries, not a database column
	AnswerCount int `gorm:"-" json:"answer_count"`
}

// Answer lives and dies with its doubt; rows are append-only and read back
// in creation order.
type Answer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Aid       string    `gorm:"uniqueIndex;size:36;not null" json:"aid"`
	DoubtID   uint      `gorm:"not null;index" json:"doubt_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answered_by"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Upvotes   int       `gorm:"default:0" json:"upvotes"`
	Downvotes int       `gorm:"default:0" json:"downvotes"`
	CreatedAt time.Time `json:"created_at"`
}
