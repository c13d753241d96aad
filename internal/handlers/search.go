package handlers

import (
	"net/http"

	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/logger"
	"github.com/codrzexl/UniHub/internal/models"
	"github.com/codrzexl/UniHub/internal/search"
	"github.com/codrzexl/UniHub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	index *search.Index
}

func NewSearchHandler(index *search.Index) *SearchHandler {
	return &SearchHandler{index: index}
}

// searchKind maps the public type filter values onto index kinds. An unknown
// value means no filter.
func searchKind(t string) string {
	switch t {
	case "doubts":
		return search.KindDoubt
	case "notes":
		return search.KindNote
	case "events":
		return search.KindEvent
	}
	return ""
}

func emptyBuckets(degraded bool) gin.H {
	return gin.H{
		"doubts":   []doubtSummary{},
		"notes":    []noteSummary{},
		"events":   []eventSummary{},
		"degraded": degraded,
	}
}

// Search runs a federated query across doubts, notes and events and resolves
// the index hits back to database rows, grouped per kind in rank order. Index
// failures degrade to empty buckets instead of a request error.
func (h *SearchHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusOK, emptyBuckets(false))
		return
	}

	limit := utils.LimitParam(c.Query("limit"), 20, 50)

	hits, err := h.index.Query(q, searchKind(c.Query("type")), limit)
	if err != nil {
		logger.L().Error("search degraded", zap.String("query", q), zap.Error(err))
		c.JSON(http.StatusOK, emptyBuckets(true))
		return
	}

	var doubtIDs, noteIDs, eventIDs []string
	for _, hit := range hits {
		switch hit.Kind {
		case search.KindDoubt:
			doubtIDs = append(doubtIDs, hit.RefID)
		case search.KindNote:
			noteIDs = append(noteIDs, hit.RefID)
		case search.KindEvent:
			eventIDs = append(eventIDs, hit.RefID)
		}
	}

	doubtsByID := make(map[string]*models.Doubt)
	if len(doubtIDs) > 0 {
		var doubts []models.Doubt
		db.DB.Preload("AskedBy").Where("did IN ?", doubtIDs).Find(&doubts)
		fillAnswerCounts(doubts)
		for i := range doubts {
			doubtsByID[doubts[i].Did] = &doubts[i]
		}
	}

	notesByID := make(map[string]*models.Note)
	if len(noteIDs) > 0 {
		var notes []models.Note
		db.DB.Preload("UploadedBy").Where("nid IN ?", noteIDs).Find(&notes)
		for i := range notes {
			notesByID[notes[i].Nid] = &notes[i]
		}
	}

	eventsByID := make(map[string]*models.Event)
	if len(eventIDs) > 0 {
		var events []models.Event
		db.DB.Preload("CreatedBy").Where("eid IN ?", eventIDs).Find(&events)
		fillRSVPCounts(events)
		for i := range events {
			eventsByID[events[i].Eid] = &events[i]
		}
	}

	// Rebuild each bucket in hit order. Hits whose row is gone (deleted since
	// the last index pass) are silently skipped.
	doubtResults := make([]doubtSummary, 0, len(doubtIDs))
	noteResults := make([]noteSummary, 0, len(noteIDs))
	eventResults := make([]eventSummary, 0, len(eventIDs))
	for _, hit := range hits {
		switch hit.Kind {
		case search.KindDoubt:
			if d, ok := doubtsByID[hit.RefID]; ok {
				doubtResults = append(doubtResults, summarize(d))
			}
		case search.KindNote:
			if n, ok := notesByID[hit.RefID]; ok {
				noteResults = append(noteResults, summarizeNote(n))
			}
		case search.KindEvent:
			if e, ok := eventsByID[hit.RefID]; ok {
				eventResults = append(eventResults, summarizeEvent(e))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"doubts":   doubtResults,
		"notes":    noteResults,
		"events":   eventResults,
		"degraded": false,
	})
}

// Suggestions returns typeahead completions for the partial query.
func (h *SearchHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.index.Suggest(c.Query("q"))
	if err != nil {
		logger.L().Error("suggestions degraded", zap.Error(err))
		suggestions = nil
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
