// Package search maintains the Bleve index behind federated search across
// doubts, notes and events.
package search

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/codrzexl/UniHub/internal/models"
)

const (
	KindDoubt = "doubt"
	KindNote  = "note"
	KindEvent = "event"
)

// Relative field weights are a hard contract: a title match must never rank
// below a content-only match for the same tokens.
const (
	boostTitle   = 3.0
	boostSubject = 2.0
	boostContent = 1.0
	boostTags    = 0.5
)

const maxSuggestions = 5

// Document is the denormalized, searchable projection of an entity. It is
// derived state: regenerated on every textual change, never edited directly.
type Document struct {
	Kind      string    `json:"kind"`
	RefID     string    `json:"ref_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Subject   string    `json:"subject"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`

	// Lowercased copy of Title kept as a single term, so suggestions can
	// prefix-match the whole observed title rather than individual words.
	// Filled by Upsert.
	TitleRaw string `json:"title_raw"`
}

// Hit is a single ranked search result reference.
type Hit struct {
	Kind  string
	RefID string
	Score float64
}

type Index struct {
	index bleve.Index
}

// New creates or opens a Bleve index at path. An existing index is reused;
// remove the directory to force a full rebuild after mapping changes.
func New(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// the exact words users typed.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("subject", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("ref_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("title_raw", keywordFieldMapping)

	dateFieldMapping := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt("updated_at", dateFieldMapping)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open search index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{index: index}, nil
}

func docID(kind, refID string) string {
	return kind + ":" + refID
}

// Upsert indexes (or reindexes) one document.
func (i *Index) Upsert(doc *Document) error {
	doc.TitleRaw = strings.ToLower(doc.Title)
	return i.index.Index(docID(doc.Kind, doc.RefID), doc)
}

// Delete removes a document from the index.
func (i *Index) Delete(kind, refID string) error {
	return i.index.Delete(docID(kind, refID))
}

// Query runs a weighted multi-field search. A document matches when at least
// one field contains all whitespace-delimited tokens of text; field boosts
// keep title matches ahead of content-only matches. kind narrows results to
// one entity kind when non-empty.
func (i *Index) Query(text, kind string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	fieldQuery := func(field string, boost float64) blevequery.Query {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(field)
		mq.Operator = blevequery.MatchQueryOperatorAnd
		mq.SetBoost(boost)
		return mq
	}

	var q blevequery.Query = bleve.NewDisjunctionQuery(
		fieldQuery("title", boostTitle),
		fieldQuery("subject", boostSubject),
		fieldQuery("content", boostContent),
		fieldQuery("tags", boostTags),
	)

	if kind != "" {
		kindQuery := bleve.NewTermQuery(kind)
		kindQuery.SetField("kind")
		q = bleve.NewConjunctionQuery(q, kindQuery)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"kind", "ref_id"}

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		kindField, _ := hit.Fields["kind"].(string)
		refField, _ := hit.Fields["ref_id"].(string)
		if kindField == "" || refField == "" {
			continue
		}
		hits = append(hits, Hit{Kind: kindField, RefID: refField, Score: hit.Score})
	}
	return hits, nil
}

// Suggest returns up to maxSuggestions distinct titles that start with
// partial, newest source document first. The whole observed title is the
// match target, so a partial may span word boundaries. Inputs shorter than
// 2 characters yield nothing.
func (i *Index) Suggest(partial string) ([]string, error) {
	partial = strings.ToLower(strings.TrimSpace(partial))
	if len(partial) < 2 {
		return nil, nil
	}

	pq := bleve.NewPrefixQuery(partial)
	pq.SetField("title_raw")

	req := bleve.NewSearchRequest(pq)
	req.Size = maxSuggestions * 5 // room for duplicate titles before dedup
	req.Fields = []string{"title"}
	req.SortBy([]string{"-updated_at"})

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("suggestion query failed: %w", err)
	}

	suggestions := make([]string, 0, maxSuggestions)
	seen := make(map[string]struct{})
	for _, hit := range results.Hits {
		title, _ := hit.Fields["title"].(string)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, title)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions, nil
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}

// DocFromDoubt projects a doubt into its search document.
func DocFromDoubt(d *models.Doubt) *Document {
	return &Document{
		Kind:      KindDoubt,
		RefID:     d.Did,
		Title:     d.Title,
		Content:   d.Content,
		Subject:   d.Subject,
		Tags:      d.Tags,
		UpdatedAt: d.UpdatedAt,
	}
}

// DocFromNote projects a note into its search document.
func DocFromNote(n *models.Note) *Document {
	return &Document{
		Kind:      KindNote,
		RefID:     n.Nid,
		Title:     n.Title,
		Content:   n.Description,
		Subject:   n.Subject,
		Tags:      n.Tags,
		UpdatedAt: n.UpdatedAt,
	}
}

// DocFromEvent projects an event into its search document.
func DocFromEvent(e *models.Event) *Document {
	return &Document{
		Kind:      KindEvent,
		RefID:     e.Eid,
		Title:     e.Title,
		Content:   e.Description,
		Subject:   e.Location,
		UpdatedAt: e.UpdatedAt,
	}
}
