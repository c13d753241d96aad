package services

import (
	"errors"
	"strings"

	"github.com/codrzexl/UniHub/internal/apperr"
	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoubtInput carries the caller-supplied fields for asking a question.
type DoubtInput struct {
	Title    string
	Content  string
	Subject  string
	Semester int
	Tags     []string
}

// validate reports the first violated field, normalizing trimmed fields in
// place.
func (in *DoubtInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validation("title", "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return apperr.Validation("content", "content is required")
	}
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Subject == "" {
		return apperr.Validation("subject", "subject is required")
	}
	if in.Semester < 1 || in.Semester > 8 {
		return apperr.Validation("semester", "semester must be between 1 and 8")
	}

	// Tags keep caller order; duplicates are allowed, empties are not.
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	in.Tags = tags
	return nil
}

// CreateDoubt validates and persists a new question. The asker is fixed for
// the doubt's lifetime.
func CreateDoubt(in DoubtInput, asker *models.User) (*models.Doubt, error) {
	if asker == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	doubt := models.Doubt{
		Did:       uuid.NewString(),
		AskedByID: asker.ID,
		Title:     in.Title,
		Content:   in.Content,
		Subject:   in.Subject,
		Semester:  in.Semester,
		Tags:      in.Tags,
	}
	if err := db.DB.Create(&doubt).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	doubt.AskedBy = *asker
	return &doubt, nil
}

// ToggleSolved flips the solved flag. Only the asker may do this, regardless
// of what the calling interface displays.
func ToggleSolved(did string, requester *models.User) (bool, error) {
	var newState bool
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var doubt models.Doubt
		if err := lockForUpdate(tx).Where("did = ?", did).First(&doubt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("question not found")
			}
			return err
		}

		if !Can(requester, ActionSolveDoubt, &doubt) {
			return apperr.Forbidden("only the asker can update the solved status")
		}

		newState = !doubt.IsSolved
		return tx.Model(&doubt).UpdateColumn("is_solved", newState).Error
	})
	if err != nil {
		return false, err
	}
	return newState, nil
}

// PostAnswer appends an answer to a doubt. Anyone authenticated may answer,
// including the asker. Answers are append-only; creation order is the read
// order.
func PostAnswer(did string, author *models.User, content string) (*models.Answer, error) {
	if author == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content", "answer content is required")
	}

	var answer models.Answer
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var doubt models.Doubt
		if err := lockForUpdate(tx).Where("did = ?", did).First(&doubt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("question not found")
			}
			return err
		}

		answer = models.Answer{
			Aid:     uuid.NewString(),
			DoubtID: doubt.ID,
			UserID:  author.ID,
			Content: content,
		}
		return tx.Create(&answer).Error
	})
	if err != nil {
		return nil, err
	}
	answer.User = *author
	return &answer, nil
}

// DeleteDoubt removes a doubt with all of its answers and vote ledger rows.
// Votes and answers are deleted explicitly so the cascade holds on databases
// that do not enforce foreign keys.
func DeleteDoubt(did string, requester *models.User) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		var doubt models.Doubt
		if err := lockForUpdate(tx).Where("did = ?", did).First(&doubt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("question not found")
			}
			return err
		}

		if !Can(requester, ActionDeleteDoubt, &doubt) {
			return apperr.Forbidden("only the asker can delete this question")
		}

		var answerIDs []uint
		if err := tx.Model(&models.Answer{}).Where("doubt_id = ?", doubt.ID).
			Pluck("id", &answerIDs).Error; err != nil {
			return err
		}
		if len(answerIDs) > 0 {
			if err := tx.Where("answer_id IN ?", answerIDs).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("doubt_id = ?", doubt.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("doubt_id = ?", doubt.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&doubt).Error
	})
}
