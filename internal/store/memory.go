package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sajulotto/service/internal/model"
)

// Memory is an in-process Store with the same ordering and matching
// semantics as SQLite. Nothing survives the process.
type Memory struct {
	mu          sync.RWMutex
	records     []memRecord
	predictions []model.SavedPrediction
	termStats   map[termKey]int64
	nextID      int64
	nextPredID  int64
	closed      bool
}

// memRecord carries the serialized matched terms so substring search
// sees exactly what the SQLite column would hold.
type memRecord struct {
	rec       model.KnowledgeRecord
	termsJSON string
}

type termKey struct {
	term     string
	category string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		termStats:  make(map[termKey]int64),
		nextID:     1,
		nextPredID: 1,
	}
}

// Close marks the store unusable. Later calls fail with ErrStoreUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Append validates and stores a copy of the record.
func (m *Memory) Append(ctx context.Context, rec *model.KnowledgeRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	terms, err := json.Marshal(rec.MatchedTerms)
	if err != nil {
		return 0, fmt.Errorf("marshal matched terms: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("append: %w", model.ErrStoreUnavailable)
	}

	stored := cloneRecord(*rec)
	stored.ID = m.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.nextID++
	m.records = append(m.records, memRecord{rec: stored, termsJSON: string(terms)})

	for category, occurrences := range stored.MatchedTerms {
		for _, term := range occurrences {
			m.termStats[termKey{term: term, category: category}]++
		}
	}

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// Search matches the query literally against content and serialized terms.
func (m *Memory) Search(ctx context.Context, query string, limit int) ([]model.KnowledgeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("search: %w", model.ErrStoreUnavailable)
	}

	var matched []memRecord
	for _, mr := range m.records {
		if strings.Contains(mr.rec.Content, query) || strings.Contains(mr.termsJSON, query) {
			matched = append(matched, mr)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].rec, matched[j].rec
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return collectRecords(matched, limit), nil
}

// Recent returns the newest records first.
func (m *Memory) Recent(ctx context.Context, limit int) ([]model.KnowledgeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("recent: %w", model.ErrStoreUnavailable)
	}

	ordered := append([]memRecord(nil), m.records...)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].rec, ordered[j].rec
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return collectRecords(ordered, limit), nil
}

// Summary recomputes the aggregate view from the current contents.
func (m *Memory) Summary(ctx context.Context) (*model.KnowledgeSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("summary: %w", model.ErrStoreUnavailable)
	}

	summary := &model.KnowledgeSummary{
		TotalCount:       int64(len(m.records)),
		PerSource:        make(map[string]int64),
		TypeDistribution: make(map[model.SentenceType]int64),
	}
	var confidenceSum float64
	for _, mr := range m.records {
		summary.PerSource[mr.rec.SourceID]++
		summary.TypeDistribution[mr.rec.SentenceType]++
		confidenceSum += mr.rec.Confidence
	}
	if len(m.records) > 0 {
		summary.AverageConfidence = confidenceSum / float64(len(m.records))
	}

	ranking := make([]model.TermCount, 0, len(m.termStats))
	for key, freq := range m.termStats {
		ranking = append(ranking, model.TermCount{Term: key.term, Category: key.category, Frequency: freq})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Frequency != ranking[j].Frequency {
			return ranking[i].Frequency > ranking[j].Frequency
		}
		if ranking[i].Term != ranking[j].Term {
			return ranking[i].Term < ranking[j].Term
		}
		return ranking[i].Category < ranking[j].Category
	})
	if len(ranking) > topTermCount {
		ranking = ranking[:topTermCount]
	}
	if len(ranking) > 0 {
		summary.TopTerms = ranking
	}
	return summary, nil
}

// PurgeBelow deletes records with confidence strictly below threshold.
func (m *Memory) PurgeBelow(ctx context.Context, threshold float64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("purge: %w", model.ErrStoreUnavailable)
	}

	kept := m.records[:0]
	var removed int64
	for _, mr := range m.records {
		if mr.rec.Confidence < threshold {
			removed++
			continue
		}
		kept = append(kept, mr)
	}
	m.records = kept
	return removed, nil
}

// SavePrediction stores a copy of the prediction and assigns its id.
func (m *Memory) SavePrediction(ctx context.Context, p *model.SavedPrediction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("save prediction: %w", model.ErrStoreUnavailable)
	}

	stored := *p
	stored.ID = m.nextPredID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.Numbers = append([]int(nil), p.Numbers...)
	m.nextPredID++
	m.predictions = append(m.predictions, stored)

	p.ID = stored.ID
	p.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// Predictions returns saved predictions, newest first.
func (m *Memory) Predictions(ctx context.Context, limit int) ([]model.SavedPrediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("predictions: %w", model.ErrStoreUnavailable)
	}

	ordered := append([]model.SavedPrediction(nil), m.predictions...)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID > ordered[j].ID
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	out := make([]model.SavedPrediction, len(ordered))
	for i, p := range ordered {
		out[i] = p
		out[i].Numbers = append([]int(nil), p.Numbers...)
	}
	return out, nil
}

func collectRecords(ordered []memRecord, limit int) []model.KnowledgeRecord {
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	var out []model.KnowledgeRecord
	for _, mr := range ordered {
		out = append(out, cloneRecord(mr.rec))
	}
	return out
}

func cloneRecord(rec model.KnowledgeRecord) model.KnowledgeRecord {
	if rec.MatchedTerms != nil {
		terms := make(map[string][]string, len(rec.MatchedTerms))
		for category, list := range rec.MatchedTerms {
			terms[category] = append([]string(nil), list...)
		}
		rec.MatchedTerms = terms
	}
	return rec
}
