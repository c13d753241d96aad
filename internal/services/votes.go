package services

import (
	"errors"

	"github.com/codrzexl/UniHub/internal/apperr"
	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// VoteOutcome is the ledger state after a cast: the fresh tallies plus the
// direction the calling voter now holds (nil when the vote was toggled off).
type VoteOutcome struct {
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
	UserVote  *string `json:"user_vote"`
}

func voteValue(voteType string) (int, error) {
	switch voteType {
	case VoteUp:
		return 1, nil
	case VoteDown:
		return -1, nil
	default:
		return 0, apperr.Validation("type", "vote type must be upvote or downvote")
	}
}

// lockForUpdate takes a row lock on Postgres so mutations on the same
// aggregate serialize. SQLite (tests) serializes writers on its own and
// rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// applyVote enforces the one-vote-per-voter rule for a single (voter, target)
// pair inside tx: no existing vote creates one, the same direction removes it
// (toggle-off), the opposite direction replaces it. Returns the previous and
// current held values (-1, 0, +1).
func applyVote(tx *gorm.DB, cond map[string]interface{}, attach func(*models.Vote), userID uint, value int) (prev, cur int, err error) {
	var existing models.Vote
	findErr := tx.Where(cond).First(&existing).Error
	switch {
	case findErr == nil && existing.Value == value:
		// Same direction again: un-vote.
		if err := tx.Delete(&existing).Error; err != nil {
			return 0, 0, err
		}
		return existing.Value, 0, nil
	case findErr == nil:
		// Opposite direction: replace in place.
		if err := tx.Model(&existing).UpdateColumn("value", value).Error; err != nil {
			return 0, 0, err
		}
		return existing.Value, value, nil
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		vote := models.Vote{UserID: userID, Value: value}
		attach(&vote)
		if err := tx.Create(&vote).Error; err != nil {
			return 0, 0, err
		}
		return 0, value, nil
	default:
		return 0, 0, findErr
	}
}

// tallyDeltas converts a prev->cur vote transition into tally adjustments.
func tallyDeltas(prev, cur int) (up, down int) {
	if prev == 1 {
		up--
	}
	if prev == -1 {
		down--
	}
	if cur == 1 {
		up++
	}
	if cur == -1 {
		down++
	}
	return up, down
}

func outcome(upvotes, downvotes, cur int) *VoteOutcome {
	out := &VoteOutcome{Upvotes: upvotes, Downvotes: downvotes}
	switch cur {
	case 1:
		v := VoteUp
		out.UserVote = &v
	case -1:
		v := VoteDown
		out.UserVote = &v
	}
	return out
}

// CastDoubtVote applies a voter's up/down click on a doubt and maintains the
// doubt's tallies incrementally in the same transaction.
func CastDoubtVote(did string, userID uint, voteType string) (*VoteOutcome, error) {
	value, err := voteValue(voteType)
	if err != nil {
		return nil, err
	}

	var out *VoteOutcome
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var doubt models.Doubt
		if err := lockForUpdate(tx).Where("did = ?", did).First(&doubt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("question not found")
			}
			return err
		}

		cond := map[string]interface{}{"user_id": userID, "doubt_id": doubt.ID}
		prev, cur, err := applyVote(tx, cond, func(v *models.Vote) { v.DoubtID = &doubt.ID }, userID, value)
		if err != nil {
			return err
		}

		up, down := tallyDeltas(prev, cur)
		if err := tx.Model(&models.Doubt{}).Where("id = ?", doubt.ID).UpdateColumns(map[string]interface{}{
			"upvotes":   gorm.Expr("upvotes + ?", up),
			"downvotes": gorm.Expr("downvotes + ?", down),
		}).Error; err != nil {
			return err
		}

		out = outcome(doubt.Upvotes+up, doubt.Downvotes+down, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CastAnswerVote applies a voter's up/down click on one answer of a doubt.
// The doubt row is locked first: the doubt is the aggregate boundary for all
// of its answers.
func CastAnswerVote(did, aid string, userID uint, voteType string) (*VoteOutcome, error) {
	value, err := voteValue(voteType)
	if err != nil {
		return nil, err
	}

	var out *VoteOutcome
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var doubt models.Doubt
		if err := lockForUpdate(tx).Where("did = ?", did).First(&doubt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("question not found")
			}
			return err
		}

		var answer models.Answer
		if err := tx.Where("aid = ? AND doubt_id = ?", aid, doubt.ID).First(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("answer not found")
			}
			return err
		}

		cond := map[string]interface{}{"user_id": userID, "answer_id": answer.ID}
		prev, cur, err := applyVote(tx, cond, func(v *models.Vote) { v.AnswerID = &answer.ID }, userID, value)
		if err != nil {
			return err
		}

		up, down := tallyDeltas(prev, cur)
		if err := tx.Model(&models.Answer{}).Where("id = ?", answer.ID).UpdateColumns(map[string]interface{}{
			"upvotes":   gorm.Expr("upvotes + ?", up),
			"downvotes": gorm.Expr("downvotes + ?", down),
		}).Error; err != nil {
			return err
		}

		out = outcome(answer.Upvotes+up, answer.Downvotes+down, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CastNoteLike toggles a user's like on a note. Likes are an upvote-only
// ledger over the same votes table.
func CastNoteLike(nid string, userID uint) (*VoteOutcome, error) {
	var out *VoteOutcome
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var note models.Note
		if err := lockForUpdate(tx).Where("nid = ?", nid).First(&note).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("note not found")
			}
			return err
		}

		cond := map[string]interface{}{"user_id": userID, "note_id": note.ID}
		prev, cur, err := applyVote(tx, cond, func(v *models.Vote) { v.NoteID = &note.ID }, userID, 1)
		if err != nil {
			return err
		}

		up, _ := tallyDeltas(prev, cur)
		if err := tx.Model(&models.Note{}).Where("id = ?", note.ID).
			UpdateColumn("likes", gorm.Expr("likes + ?", up)).Error; err != nil {
			return err
		}

		out = outcome(note.Likes+up, 0, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UserVoteOn reports the direction userID currently holds on the given vote
// target condition, for decorating read responses.
func UserVoteOn(cond map[string]interface{}) *string {
	var vote models.Vote
	if err := db.DB.Where(cond).First(&vote).Error; err != nil {
		return nil
	}
	v := VoteUp
	if vote.Value == -1 {
		v = VoteDown
	}
	return &v
}
