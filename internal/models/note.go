package models

import (
	"time"
)

// Note is study material metadata; the file itself lives in external storage
// and is referenced by URL only.
type Note struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Nid          string    `gorm:"uniqueIndex;size:36;not null" json:"nid"`
	UploadedByID uint      `gorm:"not null;index" json:"uploaded_by_id"`
	UploadedBy   User      `gorm:"foreignKey:UploadedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"uploaded_by"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Subject      string    `gorm:"not null;index" json:"subject"`
	Semester     int       `gorm:"not null;index" json:"semester"`
	Tags         []string  `gorm:"serializer:json" json:"tags"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	FileURL      string    `json:"file_url"`
	Downloads    int       `gorm:"default:0" json:"downloads"`
	Likes        int       `gorm:"default:0" json:"likes"` // maintained by the vote ledger
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
