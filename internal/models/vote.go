package models

import (
	"time"
)

// Vote is one ledger entry: a voter holds at most one row per target.
// Exactly one of DoubtID / AnswerID / NoteID is set. Postgres handles the
// composite unique indexes correctly since NULLs never collide.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_doubt_vote;uniqueIndex:idx_answer_vote;uniqueIndex:idx_note_vote" json:"user_id"`
	DoubtID   *uint     `gorm:"index;uniqueIndex:idx_doubt_vote" json:"doubt_id"`
	AnswerID  *uint     `gorm:"index;uniqueIndex:idx_answer_vote" json:"answer_id"`
	NoteID    *uint     `gorm:"index;uniqueIndex:idx_note_vote" json:"note_id"`
	Value     int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
}
