package handlers

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/middleware"
	"github.com/codrzexl/UniHub/internal/models"
	"github.com/codrzexl/UniHub/internal/search"
	"github.com/codrzexl/UniHub/internal/services"
	"github.com/codrzexl/UniHub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteHandler struct{}

func NewNoteHandler() *NoteHandler {
	return &NoteHandler{}
}

type noteSummary struct {
	Nid         string      `json:"nid"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Subject     string      `json:"subject"`
	Semester    int         `json:"semester"`
	Tags        []string    `json:"tags"`
	FileName    string      `json:"file_name"`
	FileSize    int64       `json:"file_size"`
	Downloads   int         `json:"downloads"`
	Likes       int         `json:"likes"`
	UploadedBy  userSummary `json:"uploaded_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

func summarizeNote(n *models.Note) noteSummary {
	return noteSummary{
		Nid:         n.Nid,
		Title:       n.Title,
		Description: n.Description,
		Subject:     n.Subject,
		Semester:    n.Semester,
		Tags:        n.Tags,
		FileName:    n.FileName,
		FileSize:    n.FileSize,
		Downloads:   n.Downloads,
		Likes:       n.Likes,
		UploadedBy:  userSummary{ID: n.UploadedBy.ID, Username: n.UploadedBy.Username, Role: n.UploadedBy.Role},
		CreatedAt:   n.CreatedAt,
	}
}

func (h *NoteHandler) List(c *gin.Context) {
	page := utils.PositiveInt(c.Query("page"), 1)
	limit := utils.LimitParam(c.Query("limit"), 12, 50)

	query := db.DB.Model(&models.Note{})
	if semester := c.Query("semester"); semester != "" {
		query = query.Where("semester = ?", utils.ToInt(semester))
	}
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if searchText := c.Query("search"); searchText != "" {
		pattern := likePattern(searchText)
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	query.Count(&total)

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages == 0 {
		pages = 1
	}

	var notes []models.Note
	query.Preload("UploadedBy").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&notes)

	summaries := make([]noteSummary, len(notes))
	for i := range notes {
		summaries[i] = summarizeNote(&notes[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"notes": summaries,
		"total": total,
		"page":  page,
		"pages": pages,
	})
}

func (h *NoteHandler) Detail(c *gin.Context) {
	var note models.Note
	if err := db.DB.Preload("UploadedBy").Where("nid = ?", c.Param("id")).First(&note).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "note not found"})
		return
	}

	var liked bool
	if user := middleware.CurrentUser(c); user != nil {
		liked = services.UserVoteOn(map[string]interface{}{"user_id": user.ID, "note_id": note.ID}) != nil
	}

	c.JSON(http.StatusOK, gin.H{
		"note":             summarizeNote(&note),
		"description_html": utils.RenderMarkdown(note.Description),
		"file_url":         note.FileURL,
		"liked":            liked,
	})
}

type createNoteRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	Semester    int      `json:"semester"`
	Tags        []string `json:"tags"`
	FileName    string   `json:"file_name"`
	FileSize    int64    `json:"file_size"`
	FileURL     string   `json:"file_url"`
}

// Create records note metadata. The file itself was already uploaded to the
// external storage collaborator; only its reference is stored here.
func (h *NoteHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
		return
	}
	if req.Subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "subject is required"})
		return
	}
	if req.Semester < 1 || req.Semester > 8 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "semester must be between 1 and 8"})
		return
	}

	tags := make([]string, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	note := models.Note{
		Nid:          uuid.NewString(),
		UploadedByID: user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Subject:      req.Subject,
		Semester:     req.Semester,
		Tags:         tags,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		FileURL:      req.FileURL,
	}
	if err := db.DB.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	note.UploadedBy = *user

	services.GetIndexer().ScheduleUpsert(search.KindNote, note.Nid)

	c.JSON(http.StatusCreated, summarizeNote(&note))
}

// Like toggles the caller's like on a note.
func (h *NoteHandler) Like(c *gin.Context) {
	user := middleware.CurrentUser(c)

	out, err := services.CastNoteLike(c.Param("id"), user.ID)
	if err != nil {
		Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"likes": out.Upvotes,
		"liked": out.UserVote != nil,
	})
}

// Download counts a download and hands back the file reference.
func (h *NoteHandler) Download(c *gin.Context) {
	var note models.Note
	if err := db.DB.Where("nid = ?", c.Param("id")).First(&note).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "note not found"})
		return
	}

	db.DB.Model(&note).UpdateColumn("downloads", gorm.Expr("downloads + 1"))

	c.JSON(http.StatusOK, gin.H{
		"file_url":  note.FileURL,
		"file_name": note.FileName,
		"downloads": note.Downloads + 1,
	})
}
