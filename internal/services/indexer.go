package services

import (
	"sync"
	"time"

	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/logger"
	"github.com/codrzexl/UniHub/internal/models"
	"github.com/codrzexl/UniHub/internal/search"

	"go.uber.org/zap"
)

// IndexerService keeps the search index in sync with the database,
// asynchronously: mutations schedule a job, a background worker re-reads the
// entity and upserts (or removes) its search document. A reader may briefly
// miss a fresh entity, but a deleted one leaves the index within one cycle.
type IndexerService struct {
	index   *search.Index
	queue   chan indexJob
	pending map[string]bool
	mu      sync.Mutex
}

type indexJob struct {
	kind   string
	refID  string
	remove bool
}

func (j indexJob) key() string {
	if j.remove {
		return "del:" + j.kind + ":" + j.refID
	}
	return j.kind + ":" + j.refID
}

var (
	indexerService *IndexerService
	indexerOnce    sync.Once
)

// InitIndexer wires the singleton indexer to an open search index and starts
// its worker. Called once at startup.
func InitIndexer(idx *search.Index) *IndexerService {
	indexerOnce.Do(func() {
		indexerService = NewIndexer(idx)
	})
	return indexerService
}

// GetIndexer returns the singleton; nil before InitIndexer (scheduling on a
// nil indexer is a no-op, so handlers never need to care).
func GetIndexer() *IndexerService {
	return indexerService
}

// NewIndexer builds an indexer with its own worker, independent of the
// singleton.
func NewIndexer(idx *search.Index) *IndexerService {
	s := &IndexerService{
		index:   idx,
		queue:   make(chan indexJob, 1000), // buffered so handlers never block
		pending: make(map[string]bool),
	}
	go s.worker()
	return s
}

// ScheduleUpsert queues a reindex of one entity. Duplicate requests for an
// entity already queued are dropped.
func (s *IndexerService) ScheduleUpsert(kind, refID string) {
	s.schedule(indexJob{kind: kind, refID: refID})
}

// ScheduleDelete queues removal of an entity's search document.
func (s *IndexerService) ScheduleDelete(kind, refID string) {
	s.schedule(indexJob{kind: kind, refID: refID, remove: true})
}

func (s *IndexerService) schedule(job indexJob) {
	if s == nil {
		return
	}

	key := job.key()
	s.mu.Lock()
	if s.pending[key] {
		s.mu.Unlock()
		return
	}
	s.pending[key] = true
	s.mu.Unlock()

	select {
	case s.queue <- job:
	default:
		// Queue full: drop and clear the pending mark so a later mutation
		// can reschedule.
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		logger.L().Warn("search index queue full, dropping job",
			zap.String("kind", job.kind), zap.String("ref_id", job.refID))
	}
}

func (s *IndexerService) worker() {
	batch := make([]indexJob, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case job := <-s.queue:
			batch = append(batch, job)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *IndexerService) processBatch(jobs []indexJob) {
	for _, job := range jobs {
		s.process(job)

		s.mu.Lock()
		delete(s.pending, job.key())
		s.mu.Unlock()
	}
}

// ProcessSync runs one upsert job immediately, for call sites that need the
// entity searchable before returning.
func (s *IndexerService) ProcessSync(kind, refID string) {
	if s == nil {
		return
	}
	s.process(indexJob{kind: kind, refID: refID})
}

func (s *IndexerService) process(job indexJob) {
	if job.remove {
		if err := s.index.Delete(job.kind, job.refID); err != nil {
			logger.L().Warn("search deindex failed",
				zap.String("kind", job.kind), zap.String("ref_id", job.refID), zap.Error(err))
		}
		return
	}

	doc, found := s.load(job.kind, job.refID)
	if !found {
		// Entity vanished between scheduling and processing.
		_ = s.index.Delete(job.kind, job.refID)
		return
	}
	if doc == nil {
		return
	}

	if err := s.index.Upsert(doc); err != nil {
		logger.L().Warn("search index update failed",
			zap.String("kind", job.kind), zap.String("ref_id", job.refID), zap.Error(err))
	}
}

func (s *IndexerService) load(kind, refID string) (*search.Document, bool) {
	switch kind {
	case search.KindDoubt:
		var doubt models.Doubt
		if err := db.DB.Where("did = ?", refID).First(&doubt).Error; err != nil {
			return nil, false
		}
		return search.DocFromDoubt(&doubt), true
	case search.KindNote:
		var note models.Note
		if err := db.DB.Where("nid = ?", refID).First(&note).Error; err != nil {
			return nil, false
		}
		return search.DocFromNote(&note), true
	case search.KindEvent:
		var event models.Event
		if err := db.DB.Where("eid = ?", refID).First(&event).Error; err != nil {
			return nil, false
		}
		return search.DocFromEvent(&event), true
	default:
		logger.L().Warn("unknown search document kind", zap.String("kind", kind))
		return nil, true
	}
}
