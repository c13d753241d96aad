package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDoubtViaAPI(t *testing.T, r *gin.Engine, cookies []*http.Cookie, title, subject string, semester int) string {
	t.Helper()

	body := fmt.Sprintf(`{"title":%q,"content":"please explain","subject":%q,"semester":%d,"tags":["exam"]}`,
		title, subject, semester)
	w := doJSON(t, r, http.MethodPost, "/api/doubts", body, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["did"].(string)
}

func TestDoubtListFilters(t *testing.T) {
	r, _ := newTestRouter(t)
	cookies := register(t, r, "asker", "Student")

	createDoubtViaAPI(t, r, cookies, "heap vs stack", "DSA", 3)
	createDoubtViaAPI(t, r, cookies, "paging basics", "OS", 4)
	createDoubtViaAPI(t, r, cookies, "tree traversal", "DSA", 3)

	t.Run("subject filter", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/doubts?subject=DSA", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		doubts := resp["doubts"].([]interface{})
		require.Len(t, doubts, 2)
		for _, d := range doubts {
			assert.Equal(t, "DSA", d.(map[string]interface{})["subject"])
		}
		assert.EqualValues(t, 2, resp["total"])
	})

	t.Run("semester filter", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/doubts?semester=4", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		doubts := decode(t, w)["doubts"].([]interface{})
		require.Len(t, doubts, 1)
		assert.Equal(t, "paging basics", doubts[0].(map[string]interface{})["title"])
	})

	t.Run("newest first", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/doubts?subject=DSA", "", nil)
		doubts := decode(t, w)["doubts"].([]interface{})
		require.Len(t, doubts, 2)
		assert.Equal(t, "tree traversal", doubts[0].(map[string]interface{})["title"])
		assert.Equal(t, "heap vs stack", doubts[1].(map[string]interface{})["title"])
	})

	t.Run("pagination metadata", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/doubts?limit=2&page=2", "", nil)
		resp := decode(t, w)
		assert.EqualValues(t, 3, resp["total"])
		assert.EqualValues(t, 2, resp["page"])
		assert.EqualValues(t, 2, resp["pages"])
		assert.Len(t, resp["doubts"].([]interface{}), 1)
	})
}

func TestDoubtListSearchTreatsWildcardsLiterally(t *testing.T) {
	r, _ := newTestRouter(t)
	cookies := register(t, r, "asker", "Student")

	createDoubtViaAPI(t, r, cookies, "100% proof of correctness", "Math", 2)
	createDoubtViaAPI(t, r, cookies, "1009 proof sketch", "Math", 2)
	createDoubtViaAPI(t, r, cookies, "big_o notation", "DSA", 2)
	createDoubtViaAPI(t, r, cookies, "bigro notation", "DSA", 2)

	w := doJSON(t, r, http.MethodGet, "/api/doubts?search=100%25", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doubts := decode(t, w)["doubts"].([]interface{})
	require.Len(t, doubts, 1)
	assert.Equal(t, "100% proof of correctness", doubts[0].(map[string]interface{})["title"])

	// An underscore must not act as a single-character wildcard.
	w = doJSON(t, r, http.MethodGet, "/api/doubts?search=big_o", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doubts = decode(t, w)["doubts"].([]interface{})
	require.Len(t, doubts, 1)
	assert.Equal(t, "big_o notation", doubts[0].(map[string]interface{})["title"])
}

func TestAnswerInvalidatesListCache(t *testing.T) {
	r, _ := newTestRouter(t)
	asker := register(t, r, "asker", "Student")
	helper := register(t, r, "helper", "Student")

	did := createDoubtViaAPI(t, r, asker, "cache coherence", "OS", 6)

	// Prime the cached default list.
	w := doJSON(t, r, http.MethodGet, "/api/doubts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doubts := decode(t, w)["doubts"].([]interface{})
	require.Len(t, doubts, 1)
	assert.EqualValues(t, 0, doubts[0].(map[string]interface{})["answer_count"])

	w = doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/answers", `{"content":"MESI states"}`, helper)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/doubts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doubts = decode(t, w)["doubts"].([]interface{})
	require.Len(t, doubts, 1)
	assert.EqualValues(t, 1, doubts[0].(map[string]interface{})["answer_count"])
}

func TestDoubtCreateRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/doubts",
		`{"title":"t","content":"c","subject":"s","semester":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDoubtCreateValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	cookies := register(t, r, "asker", "Student")

	w := doJSON(t, r, http.MethodPost, "/api/doubts",
		`{"title":"t","content":"c","subject":"s","semester":9}`, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "semester must be between 1 and 8", decode(t, w)["message"])
}

func TestDoubtVoting(t *testing.T) {
	r, _ := newTestRouter(t)
	asker := register(t, r, "asker", "Student")
	voter := register(t, r, "voter", "Student")

	did := createDoubtViaAPI(t, r, asker, "channel deadlock", "OS", 5)

	w := doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/vote", `{"type":"upvote"}`, voter)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 1, resp["upvotes"])
	assert.Equal(t, "upvote", resp["user_vote"])

	// Same click again toggles the vote off.
	w = doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/vote", `{"type":"upvote"}`, voter)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.EqualValues(t, 0, resp["upvotes"])
	assert.Nil(t, resp["user_vote"])

	w = doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/vote", `{"type":"sideways"}`, voter)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDoubtSolveAuthorization(t *testing.T) {
	r, _ := newTestRouter(t)
	asker := register(t, r, "asker", "Student")
	faculty := register(t, r, "prof", "Faculty")

	did := createDoubtViaAPI(t, r, asker, "virtual memory", "OS", 4)

	// Even faculty cannot flip someone else's solved flag.
	w := doJSON(t, r, http.MethodPatch, "/api/doubts/"+did+"/solve", "", faculty)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/doubts/"+did+"/solve", "", asker)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["is_solved"])

	w = doJSON(t, r, http.MethodPatch, "/api/doubts/"+did+"/solve", "", asker)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_solved"])
}

func TestDoubtAnswers(t *testing.T) {
	r, _ := newTestRouter(t)
	asker := register(t, r, "asker", "Student")
	helper := register(t, r, "helper", "Student")

	did := createDoubtViaAPI(t, r, asker, "two phase commit", "DBMS", 6)

	w := doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/answers", `{"content":"first answer"}`, helper)
	require.Equal(t, http.StatusCreated, w.Code)
	firstAid := decode(t, w)["aid"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/answers", `{"content":"second answer"}`, asker)
	require.Equal(t, http.StatusCreated, w.Code)

	// Detail reads answers back in creation order.
	w = doJSON(t, r, http.MethodGet, "/api/doubts/"+did, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	answers := detail["answers"].([]interface{})
	require.Len(t, answers, 2)
	assert.Equal(t, "first answer", answers[0].(map[string]interface{})["content"])
	assert.Equal(t, "second answer", answers[1].(map[string]interface{})["content"])
	assert.EqualValues(t, 2, detail["answer_count"])

	// Vote on one answer; the voter's held direction comes back on detail.
	w = doJSON(t, r, http.MethodPost, "/api/doubts/"+did+"/answers/"+firstAid+"/vote", `{"type":"downvote"}`, asker)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["downvotes"])

	w = doJSON(t, r, http.MethodGet, "/api/doubts/"+did, "", asker)
	answers = decode(t, w)["answers"].([]interface{})
	assert.Equal(t, "downvote", answers[0].(map[string]interface{})["user_vote"])
	assert.Nil(t, answers[1].(map[string]interface{})["user_vote"])
}

func TestDoubtDelete(t *testing.T) {
	r, _ := newTestRouter(t)
	asker := register(t, r, "asker", "Student")
	other := register(t, r, "other", "Student")

	did := createDoubtViaAPI(t, r, asker, "dangling pointers", "C", 2)

	w := doJSON(t, r, http.MethodDelete, "/api/doubts/"+did, "", other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/doubts/"+did, "", asker)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/doubts/"+did, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
