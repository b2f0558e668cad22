// Package search keeps a full-text index over the contents of the metadata
// store: glossary and dictionary fields, policy rules, sections and domains,
// and sample dataset columns.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"metadata-validator/internal/logger"
	"metadata-validator/internal/metrics"
	"metadata-validator/internal/models"
	"metadata-validator/internal/store"
)

// Document types
const (
	TypeField   = "field"
	TypeRule    = "rule"
	TypeSection = "section"
	TypeDomain  = "domain"
	TypeColumn  = "column"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
	batchSize    = 100
)

// ErrEmptyQuery is returned for blank queries
var ErrEmptyQuery = errors.New("search query is empty")

// Document is one indexed item
type Document struct {
	ID       string `json:"-"`
	Type     string `json:"type"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Table    string `json:"table,omitempty"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Hit is a scored search match
type Hit struct {
	Document
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Results is the response to a query
type Results struct {
	Query     string `json:"query"`
	TotalHits int    `json:"total_hits"`
	Hits      []Hit  `json:"hits"`
}

// Documents flattens a store snapshot into indexable documents
func Documents(snap store.Snapshot) []Document {
	var docs []Document

	datasets := map[store.Slot]*models.ParsedDataset{
		store.SlotGlossary:   snap.Glossary,
		store.SlotDictionary: snap.Dictionary,
	}
	for _, slot := range []store.Slot{store.SlotGlossary, store.SlotDictionary} {
		d := datasets[slot]
		if d == nil {
			continue
		}
		for i, f := range d.Fields {
			docs = append(docs, Document{
				ID:       fmt.Sprintf("%s/field/%d", slot, i),
				Type:     TypeField,
				Source:   string(slot),
				Title:    f.FieldName,
				Body:     f.Definition,
				Table:    f.TableName,
				Category: f.DataType,
				Severity: f.Sensitivity,
			})
		}
	}

	if p := snap.Policy; p != nil {
		for i, r := range p.PolicyRules {
			docs = append(docs, Document{
				ID:       fmt.Sprintf("policy/rule/%d", i),
				Type:     TypeRule,
				Source:   string(store.SlotPolicy),
				Title:    r.Name,
				Body:     r.Description,
				Category: r.Category,
				Severity: string(r.Severity),
			})
		}
		for i, s := range p.Sections {
			docs = append(docs, Document{
				ID:     fmt.Sprintf("policy/section/%d", i),
				Type:   TypeSection,
				Source: string(store.SlotPolicy),
				Title:  s.Name,
				Body:   s.Content,
			})
		}
		for i, d := range p.DomainHierarchy {
			docs = append(docs, Document{
				ID:     fmt.Sprintf("policy/domain/%d", i),
				Type:   TypeDomain,
				Source: string(store.SlotPolicy),
				Title:  d.Name,
				Body:   strings.TrimSpace(d.Description + " " + strings.Join(d.SubDomains, ", ")),
				Table:  strings.Join(d.Tables, ", "),
			})
		}
	}

	if s := snap.Sample; s != nil {
		for i, c := range s.Columns {
			docs = append(docs, Document{
				ID:     fmt.Sprintf("sample/column/%d", i),
				Type:   TypeColumn,
				Source: string(store.SlotSample),
				Title:  c.Name,
			})
		}
	}
	return docs
}

func newMapping() mapping.IndexMapping {
	typeField := bleve.NewTextFieldMapping()
	typeField.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("type", typeField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// BuildIndex creates an in-memory index holding docs
func BuildIndex(docs []Document) (Index, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	batch := index.NewBatch()
	for i, d := range docs {
		if err := batch.Index(d.ID, d); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to add document %s to batch: %w", d.ID, err)
		}
		if (i+1)%batchSize == 0 {
			if err := index.Batch(batch); err != nil {
				index.Close()
				return nil, fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return NewBleveIndexWrapper(index), nil
}

// Searcher serves queries against the current index and swaps in a new one
// whenever the store changes. Searches never block on a rebuild.
type Searcher struct {
	current atomic.Pointer[Index]

	// rebuildMu serializes rebuilds
	rebuildMu sync.Mutex
	// inflight is read-held by searches so that a replaced index is closed
	// only after the searches using it have returned
	inflight sync.RWMutex

	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// NewSearcher creates a searcher over an empty index
func NewSearcher() (*Searcher, error) {
	s := &Searcher{Log: logger.Nop()}
	if err := s.Rebuild(store.Snapshot{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Attach indexes the current contents of st and re-indexes on every change.
// Each rebuild reads the store under rebuildMu, so a notification delivered
// late can never put an older snapshot back in place.
func (s *Searcher) Attach(st *store.Store) error {
	st.Subscribe(func(slot store.Slot, _ store.Snapshot) {
		if err := s.rebuild(st.Snapshot); err != nil {
			s.Log.Error().Err(err).Str("slot", string(slot)).Msg("Failed to rebuild search index")
		}
	})
	return s.rebuild(st.Snapshot)
}

// Rebuild replaces the index with one built from snap
func (s *Searcher) Rebuild(snap store.Snapshot) error {
	return s.rebuild(func() store.Snapshot { return snap })
}

func (s *Searcher) rebuild(load func() store.Snapshot) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	docs := Documents(load())
	index, err := BuildIndex(docs)
	if err != nil {
		return err
	}
	s.swap(index)

	s.Log.Debug().
		Int("documents", len(docs)).
		Dur("duration", time.Since(start)).
		Msg("Search index rebuilt")
	return nil
}

func (s *Searcher) swap(index Index) {
	old := s.current.Swap(&index)
	if old == nil {
		return
	}
	s.inflight.Lock()
	s.inflight.Unlock()
	if err := (*old).Close(); err != nil {
		s.Log.Warn().Err(err).Msg("Failed to close replaced search index")
	}
}

// DocCount returns the number of indexed documents
func (s *Searcher) DocCount() (uint64, error) {
	s.inflight.RLock()
	defer s.inflight.RUnlock()
	return (*s.current.Load()).DocCount()
}

// Search runs a match query. When types are given only documents of those
// types are returned. limit is clamped to [1, MaxLimit], 0 meaning DefaultLimit.
func (s *Searcher) Search(q string, limit int, types ...string) (Results, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Results{}, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	if s.Metrics != nil {
		s.Metrics.SearchQueries.Inc()
	}

	var bq query.Query = bleve.NewMatchQuery(q)
	if len(types) > 0 {
		filters := make([]query.Query, 0, len(types))
		for _, t := range types {
			tq := bleve.NewTermQuery(strings.ToLower(t))
			tq.SetField("type")
			filters = append(filters, tq)
		}
		bq = bleve.NewConjunctionQuery(bq, bleve.NewDisjunctionQuery(filters...))
	}

	req := bleve.NewSearchRequest(bq)
	req.Size = limit
	req.Fields = []string{"*"}

	s.inflight.RLock()
	res, err := (*s.current.Load()).Search(req)
	s.inflight.RUnlock()
	if err != nil {
		return Results{}, fmt.Errorf("search failed: %w", err)
	}

	out := Results{Query: q, TotalHits: int(res.Total), Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:    h.ID,
			Score: h.Score,
			Document: Document{
				Type:     stringField(h.Fields, "type"),
				Source:   stringField(h.Fields, "source"),
				Title:    stringField(h.Fields, "title"),
				Body:     stringField(h.Fields, "body"),
				Table:    stringField(h.Fields, "table"),
				Category: stringField(h.Fields, "category"),
				Severity: stringField(h.Fields, "severity"),
			},
		})
	}
	return out, nil
}

// Close closes the current index
func (s *Searcher) Close() error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	s.inflight.Lock()
	defer s.inflight.Unlock()
	return (*s.current.Load()).Close()
}

func stringField(fields map[string]interface{}, name string) string {
	v, _ := fields[name].(string)
	return v
}
