package models

import (
	"time"
)

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Eid         string    `gorm:"uniqueIndex;size:36;not null" json:"eid"`
	CreatedByID uint      `gorm:"not null;index" json:"created_by_id"`
	CreatedBy   User      `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"created_by"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Filled on queries, not a database column
	RSVPCount int `gorm:"-" json:"rsvp_count"`
}

// RSVP - one row per attending user per event.
type RSVP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_event" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	EventID   uint      `gorm:"not null;index;uniqueIndex:idx_user_event" json:"event_id"`
	Event     Event     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"event"`
	CreatedAt time.Time `json:"created_at"`
}
