package handlers

import (
	"errors"
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

type EventHandler struct{}

func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

type eventSummary struct {
	Eid         string      `json:"eid"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	Location    string      `json:"location"`
	RSVPCount   int         `json:"rsvp_count"`
	CreatedBy   userSummary `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

func summarizeEvent(e *models.Event) eventSummary {
	return eventSummary{
		Eid:         e.Eid,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Location:    e.Location,
		RSVPCount:   e.RSVPCount,
		CreatedBy:   userSummary{ID: e.CreatedBy.ID, Username: e.CreatedBy.Username, Role: e.CreatedBy.Role},
		CreatedAt:   e.CreatedAt,
	}
}

// fillRSVPCounts batch-fills attendee counts for a page of events.
func fillRSVPCounts(events []models.Event) {
	if len(events) == 0 {
		return
	}

	eventIDs := make([]uint, len(events))
	for i, e := range events {
		eventIDs[i] = e.ID
	}

	type countResult struct {
		EventID uint
		Count   int
	}
	var results []countResult
	db.DB.Model(&models.RSVP{}).
		Select("event_id, COUNT(*) as count").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.EventID] = r.Count
	}

	for i := range events {
		events[i].RSVPCount = countMap[events[i].ID]
	}
}

// List returns events, soonest-first. With upcoming=true only events whose
// date has not passed are returned.
func (h *EventHandler) List(c *gin.Context) {
	limit := utils.LimitParam(c.Query("limit"), 20, 50)

	query := db.DB.Model(&models.Event{})
	if c.Query("upcoming") == "true" {
		query = query.Where("date >= ?", time.Now())
	}

	var events []models.Event
	query.Preload("CreatedBy").
		Order("date ASC, id ASC").
		Limit(limit).
		Find(&events)

	fillRSVPCounts(events)

	summaries := make([]eventSummary, len(events))
	for i := range events {
		summaries[i] = summarizeEvent(&events[i])
	}

	c.JSON(http.StatusOK, gin.H{"events": summaries})
}

func (h *EventHandler) Detail(c *gin.Context) {
	var event models.Event
	if err := db.DB.Preload("CreatedBy").Where("eid = ?", c.Param("id")).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "event not found"})
		return
	}

	var rsvps []models.RSVP
	db.DB.Preload("User").Where("event_id = ?", event.ID).
		Order("created_at ASC").Find(&rsvps)
	event.RSVPCount = len(rsvps)

	attendees := make([]userSummary, len(rsvps))
	attending := false
	user := middleware.CurrentUser(c)
	for i, r := range rsvps {
		attendees[i] = userSummary{ID: r.User.ID, Username: r.User.Username, Role: r.User.Role}
		if user != nil && r.UserID == user.ID {
			attending = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"event":            summarizeEvent(&event),
		"description_html": utils.RenderMarkdown(event.Description),
		"attendees":        attendees,
		"attending":        attending,
	})
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
}

// Create registers a new event. Faculty only.
func (h *EventHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !services.Can(user, services.ActionCreateEvent, nil) {
		c.JSON(http.StatusForbidden, gin.H{"message": "only faculty can create events"})
		return
	}

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		date, err = time.Parse("2006-01-02", req.Date)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be RFC 3339 or YYYY-MM-DD"})
		return
	}

	event := models.Event{
		Eid:         uuid.NewString(),
		CreatedByID: user.ID,
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    strings.TrimSpace(req.Location),
	}
	if err := db.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	event.CreatedBy = *user

	services.GetIndexer().ScheduleUpsert(search.KindEvent, event.Eid)

	c.JSON(http.StatusCreated, summarizeEvent(&event))
}

// RSVP toggles the caller's attendance on an event.
func (h *EventHandler) RSVP(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var event models.Event
	if err := db.DB.Where("eid = ?", c.Param("id")).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "event not found"})
		return
	}

	var attending bool
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.RSVP
		err := tx.Where("user_id = ? AND event_id = ?", user.ID, event.ID).First(&existing).Error
		switch {
		case err == nil:
			attending = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			attending = true
			return tx.Create(&models.RSVP{UserID: user.ID, EventID: event.ID}).Error
		default:
			return err
		}
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	var count int64
	db.DB.Model(&models.RSVP{}).Where("event_id = ?", event.ID).Count(&count)

	c.JSON(http.StatusOK, gin.H{
		"attending":  attending,
		"rsvp_count": count,
	})
}
