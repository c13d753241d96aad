package services

import (
	"testing"

	"github.com/codrzexl/UniHub/internal/apperr"
	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countVotes(t *testing.T, cond map[string]interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.DB.Model(&models.Vote{}).Where(cond).Count(&n).Error)
	return n
}

func reloadDoubt(t *testing.T, did string) *models.Doubt {
	t.Helper()
	var doubt models.Doubt
	require.NoError(t, db.DB.Where("did = ?", did).First(&doubt).Error)
	return &doubt
}

func TestCastDoubtVote(t *testing.T) {
	t.Run("toggle sequence keeps at most one ledger row", func(t *testing.T) {
		setupTestDB(t)
		asker := createUser(t, "asker", models.RoleStudent)
		voter := createUser(t, "voter", models.RoleStudent)
		doubt := createDoubt(t, asker, "binary search bounds")

		// First upvote creates the row.
		out, err := CastDoubtVote(doubt.Did, voter.ID, VoteUp)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Upvotes)
		assert.Equal(t, 0, out.Downvotes)
		require.NotNil(t, out.UserVote)
		assert.Equal(t, VoteUp, *out.UserVote)

		// Same direction again toggles it off.
		out, err = CastDoubtVote(doubt.Did, voter.ID, VoteUp)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Upvotes)
		assert.Equal(t, 0, out.Downvotes)
		assert.Nil(t, out.UserVote)
		assert.EqualValues(t, 0, countVotes(t, map[string]interface{}{"user_id": voter.ID, "doubt_id": doubt.ID}))

		// Opposite direction from empty creates a downvote.
		out, err = CastDoubtVote(doubt.Did, voter.ID, VoteDown)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Upvotes)
		assert.Equal(t, 1, out.Downvotes)
		require.NotNil(t, out.UserVote)
		assert.Equal(t, VoteDown, *out.UserVote)

		fresh := reloadDoubt(t, doubt.Did)
		assert.Equal(t, 0, fresh.Upvotes)
		assert.Equal(t, 1, fresh.Downvotes)
	})

	t.Run("opposite direction replaces in place", func(t *testing.T) {
		setupTestDB(t)
		asker := createUser(t, "asker", models.RoleStudent)
		voter := createUser(t, "voter", models.RoleStudent)
		doubt := createDoubt(t, asker, "pointer aliasing")

		_, err := CastDoubtVote(doubt.Did, voter.ID, VoteUp)
		require.NoError(t, err)

		out, err := CastDoubtVote(doubt.Did, voter.ID, VoteDown)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Upvotes)
		assert.Equal(t, 1, out.Downvotes)
		assert.EqualValues(t, 1, countVotes(t, map[string]interface{}{"user_id": voter.ID, "doubt_id": doubt.ID}))
	})

	t.Run("tallies sum across voters", func(t *testing.T) {
		setupTestDB(t)
		asker := createUser(t, "asker", models.RoleStudent)
		doubt := createDoubt(t, asker, "recursion depth")

		for i, direction := range []string{VoteUp, VoteUp, VoteDown} {
			voter := createUser(t, "voter"+string(rune('a'+i)), models.RoleStudent)
			_, err := CastDoubtVote(doubt.Did, voter.ID, direction)
			require.NoError(t, err)
		}

		fresh := reloadDoubt(t, doubt.Did)
		assert.Equal(t, 2, fresh.Upvotes)
		assert.Equal(t, 1, fresh.Downvotes)
	})

	t.Run("rejects unknown vote type", func(t *testing.T) {
		setupTestDB(t)
		asker := createUser(t, "asker", models.RoleStudent)
		doubt := createDoubt(t, asker, "sorting stability")

		_, err := CastDoubtVote(doubt.Did, asker.ID, "sideways")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("missing doubt is not found", func(t *testing.T) {
		setupTestDB(t)
		voter := createUser(t, "voter", models.RoleStudent)

		_, err := CastDoubtVote("no-such-did", voter.ID, VoteUp)
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestCastAnswerVote(t *testing.T) {
	setupTestDB(t)
	asker := createUser(t, "asker", models.RoleStudent)
	helper := createUser(t, "helper", models.RoleStudent)
	voter := createUser(t, "voter", models.RoleStudent)
	doubt := createDoubt(t, asker, "tail call optimization")

	answer, err := PostAnswer(doubt.Did, helper, "use an accumulator")
	require.NoError(t, err)

	out, err := CastAnswerVote(doubt.Did, answer.Aid, voter.ID, VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Upvotes)
	assert.Equal(t, 0, out.Downvotes)

	// Answer votes never bleed into the doubt's own tallies.
	fresh := reloadDoubt(t, doubt.Did)
	assert.Equal(t, 0, fresh.Upvotes)
	assert.Equal(t, 0, fresh.Downvotes)

	// Toggle off.
	out, err = CastAnswerVote(doubt.Did, answer.Aid, voter.ID, VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Upvotes)
	assert.Nil(t, out.UserVote)

	_, err = CastAnswerVote(doubt.Did, "no-such-aid", voter.ID, VoteUp)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCastNoteLike(t *testing.T) {
	setupTestDB(t)
	uploader := createUser(t, "uploader", models.RoleStudent)
	fan := createUser(t, "fan", models.RoleStudent)

	note := models.Note{
		Nid:          "note-1",
		UploadedByID: uploader.ID,
		Title:        "OS scheduling summary",
		Subject:      "OS",
		Semester:     4,
	}
	require.NoError(t, db.DB.Create(&note).Error)

	out, err := CastNoteLike(note.Nid, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Upvotes)
	require.NotNil(t, out.UserVote)

	out, err = CastNoteLike(note.Nid, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Upvotes)
	assert.Nil(t, out.UserVote)

	var fresh models.Note
	require.NoError(t, db.DB.Where("nid = ?", note.Nid).First(&fresh).Error)
	assert.Equal(t, 0, fresh.Likes)
}

func TestUserVoteOn(t *testing.T) {
	setupTestDB(t)
	asker := createUser(t, "asker", models.RoleStudent)
	voter := createUser(t, "voter", models.RoleStudent)
	doubt := createDoubt(t, asker, "graph coloring")

	cond := map[string]interface{}{"user_id": voter.ID, "doubt_id": doubt.ID}
	assert.Nil(t, UserVoteOn(cond))

	_, err := CastDoubtVote(doubt.Did, voter.ID, VoteDown)
	require.NoError(t, err)

	held := UserVoteOn(cond)
	require.NotNil(t, held)
	assert.Equal(t, VoteDown, *held)
}
