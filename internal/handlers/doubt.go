package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/middleware"
	"github.com/codrzexl/UniHub/internal/models"
	"github.com/codrzexl/UniHub/internal/search"
	"github.com/codrzexl/UniHub/internal/services"
	"github.com/codrzexl/UniHub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const doubtListCacheKey = "doubts:list:first"

type DoubtHandler struct{}

func NewDoubtHandler() *DoubtHandler {
	return &DoubtHandler{}
}

type doubtSummary struct {
	Did         string      `json:"did"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Subject     string      `json:"subject"`
	Semester    int         `json:"semester"`
	Tags        []string    `json:"tags"`
	IsSolved    bool        `json:"is_solved"`
	Upvotes     int         `json:"upvotes"`
	Downvotes   int         `json:"downvotes"`
	AnswerCount int         `json:"answer_count"`
	AskedBy     userSummary `json:"asked_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

type answerView struct {
	Aid         string      `json:"aid"`
	Content     string      `json:"content"`
	ContentHTML string      `json:"content_html"`
	AnsweredBy  userSummary `json:"answered_by"`
	Upvotes     int         `json:"upvotes"`
	Downvotes   int         `json:"downvotes"`
	UserVote    *string     `json:"user_vote"`
	CreatedAt   time.Time   `json:"created_at"`
}

type doubtView struct {
	doubtSummary
	ContentHTML string       `json:"content_html"`
	UserVote    *string      `json:"user_vote"`
	Answers     []answerView `json:"answers"`
}

func summarize(d *models.Doubt) doubtSummary {
	return doubtSummary{
		Did:         d.Did,
		Title:       d.Title,
		Content:     d.Content,
		Subject:     d.Subject,
		Semester:    d.Semester,
		Tags:        d.Tags,
		IsSolved:    d.IsSolved,
		Upvotes:     d.Upvotes,
		Downvotes:   d.Downvotes,
		AnswerCount: d.AnswerCount,
		AskedBy:     userSummary{ID: d.AskedBy.ID, Username: d.AskedBy.Username, Role: d.AskedBy.Role},
		CreatedAt:   d.CreatedAt,
	}
}

// fillAnswerCounts batch-fills the answer count for a page of doubts.
func fillAnswerCounts(doubts []models.Doubt) {
	if len(doubts) == 0 {
		return
	}

	doubtIDs := make([]uint, len(doubts))
	for i, d := range doubts {
		doubtIDs[i] = d.ID
	}

	type countResult struct {
		DoubtID uint
		Count   int
	}
	var results []countResult
	db.DB.Model(&models.Answer{}).
		Select("doubt_id, COUNT(*) as count").
		Where("doubt_id IN ?", doubtIDs).
		Group("doubt_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.DoubtID] = r.Count
	}

	for i := range doubts {
		doubts[i].AnswerCount = countMap[doubts[i].ID]
	}
}

// List returns a page of doubts matching the conjunction of the provided
// filters. Unset filters impose no constraint; ordering is recency-first and
// stable across pages.
func (h *DoubtHandler) List(c *gin.Context) {
	page := utils.PositiveInt(c.Query("page"), 1)
	limit := utils.LimitParam(c.Query("limit"), 10, 50)

	semester := c.Query("semester")
	subject := c.Query("subject")
	solved := c.Query("solved")
	searchText := c.Query("search")

	unfiltered := semester == "" && subject == "" && solved == "" && searchText == ""
	cacheable := unfiltered && page == 1 && limit == 10
	if cacheable {
		if cached := utils.GetCache().Get(doubtListCacheKey); cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	query := db.DB.Model(&models.Doubt{})
	if semester != "" {
		query = query.Where("semester = ?", utils.ToInt(semester))
	}
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if solved != "" {
		query = query.Where("is_solved = ?", solved == "true")
	}
	if searchText != "" {
		pattern := likePattern(searchText)
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	query.Count(&total)

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages == 0 {
		pages = 1
	}

	var doubts []models.Doubt
	query.Preload("AskedBy").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&doubts)

	fillAnswerCounts(doubts)

	summaries := make([]doubtSummary, len(doubts))
	for i := range doubts {
		summaries[i] = summarize(&doubts[i])
	}

	response := gin.H{
		"doubts": summaries,
		"total":  total,
		"page":   page,
		"pages":  pages,
	}
	if cacheable {
		utils.GetCache().Set(doubtListCacheKey, response, 1*time.Minute)
	}

	c.JSON(http.StatusOK, response)
}

// Detail returns one doubt with its answers in creation order, decorated
// with the caller's own vote state when authenticated.
func (h *DoubtHandler) Detail(c *gin.Context) {
	did := c.Param("id")

	var doubt models.Doubt
	err := db.DB.Preload("AskedBy").
		Preload("Answers", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("Answers.User").
		Where("did = ?", did).
		First(&doubt).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "question not found"})
		return
	}

	var userID uint
	if user := middleware.CurrentUser(c); user != nil {
		userID = user.ID
	}

	view := doubtView{
		doubtSummary: summarize(&doubt),
		ContentHTML:  utils.RenderMarkdown(doubt.Content),
		Answers:      make([]answerView, len(doubt.Answers)),
	}
	view.AnswerCount = len(doubt.Answers)

	if userID > 0 {
		view.UserVote = services.UserVoteOn(map[string]interface{}{"user_id": userID, "doubt_id": doubt.ID})
	}

	for i := range doubt.Answers {
		a := &doubt.Answers[i]
		av := answerView{
			Aid:         a.Aid,
			Content:     a.Content,
			ContentHTML: utils.RenderMarkdown(a.Content),
			AnsweredBy:  userSummary{ID: a.User.ID, Username: a.User.Username, Role: a.User.Role},
			Upvotes:     a.Upvotes,
			Downvotes:   a.Downvotes,
			CreatedAt:   a.CreatedAt,
		}
		if userID > 0 {
			av.UserVote = services.UserVoteOn(map[string]interface{}{"user_id": userID, "answer_id": a.ID})
		}
		view.Answers[i] = av
	}

	c.JSON(http.StatusOK, view)
}

type createDoubtRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Subject  string   `json:"subject"`
	Semester int      `json:"semester"`
	Tags     []string `json:"tags"`
}

func (h *DoubtHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createDoubtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	doubt, err := services.CreateDoubt(services.DoubtInput{
		Title:    req.Title,
		Content:  req.Content,
		Subject:  req.Subject,
		Semester: req.Semester,
		Tags:     req.Tags,
	}, user)
	if err != nil {
		Fail(c, err)
		return
	}

	utils.GetCache().Delete(doubtListCacheKey)
	services.GetIndexer().ScheduleUpsert(search.KindDoubt, doubt.Did)

	c.JSON(http.StatusCreated, summarize(doubt))
}

type voteRequest struct {
	Type string `json:"type"`
}

func (h *DoubtHandler) Vote(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	out, err := services.CastDoubtVote(c.Param("id"), user.ID, req.Type)
	if err != nil {
		Fail(c, err)
		return
	}

	utils.GetCache().Delete(doubtListCacheKey)
	c.JSON(http.StatusOK, out)
}

func (h *DoubtHandler) ToggleSolved(c *gin.Context) {
	user := middleware.CurrentUser(c)

	solved, err := services.ToggleSolved(c.Param("id"), user)
	if err != nil {
		Fail(c, err)
		return
	}

	utils.GetCache().Delete(doubtListCacheKey)

	message := "Question marked as unsolved"
	if solved {
		message = "Question marked as solved"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "is_solved": solved})
}

type createAnswerRequest struct {
	Content string `json:"content"`
}

func (h *DoubtHandler) CreateAnswer(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	answer, err := services.PostAnswer(c.Param("id"), user, req.Content)
	if err != nil {
		Fail(c, err)
		return
	}

	// The cached default list carries answer counts.
	utils.GetCache().Delete(doubtListCacheKey)

	c.JSON(http.StatusCreated, answerView{
		Aid:         answer.Aid,
		Content:     answer.Content,
		ContentHTML: utils.RenderMarkdown(answer.Content),
		AnsweredBy:  userSummary{ID: answer.User.ID, Username: answer.User.Username, Role: answer.User.Role},
		CreatedAt:   answer.CreatedAt,
	})
}

func (h *DoubtHandler) VoteAnswer(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	out, err := services.CastAnswerVote(c.Param("id"), c.Param("answerId"), user.ID, req.Type)
	if err != nil {
		Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *DoubtHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	did := c.Param("id")

	if err := services.DeleteDoubt(did, user); err != nil {
		Fail(c, err)
		return
	}

	utils.GetCache().Delete(doubtListCacheKey)
	services.GetIndexer().ScheduleDelete(search.KindDoubt, did)

	c.JSON(http.StatusOK, gin.H{"message": "question deleted"})
}
