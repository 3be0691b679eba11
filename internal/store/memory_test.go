package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sajulotto/service/internal/model"
)

func TestMemory_SearchOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	low := testRecord("src", "목 기운 문장 하나입니다.", 0.3, base)
	high := testRecord("src", "목 기운 문장 둘입니다.", 0.9, base.Add(time.Minute))
	tiedOld := testRecord("src", "목 기운 문장 셋입니다.", 0.9, base)
	for _, rec := range []*model.KnowledgeRecord{low, high, tiedOld} {
		if _, err := m.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := m.Search(ctx, "기운", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	if got[0].ID != high.ID || got[1].ID != tiedOld.ID || got[2].ID != low.ID {
		t.Errorf("Expected order [%d %d %d], got [%d %d %d]",
			high.ID, tiedOld.ID, low.ID, got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestMemory_SearchMatchesSerializedTerms(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := testRecord("src", "목 기운이 강한 사람입니다.", 0.5, time.Now().UTC())
	if _, err := m.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := m.Search(ctx, "elements", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected category name to match via serialized terms, got %d results", len(got))
	}

	got, err = m.Search(ctx, "불", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no match, got %d results", len(got))
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := testRecord("src", "목 기운이 강한 사람입니다.", 0.5, time.Now().UTC())
	if _, err := m.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	first, err := m.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	first[0].MatchedTerms["elements"][0] = "corrupted"

	second, err := m.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if second[0].MatchedTerms["elements"][0] != "목" {
		t.Error("Expected stored record to be isolated from caller mutation")
	}
}

func TestMemory_PurgeBelow(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, c := range []float64{0.1, 0.4, 0.7} {
		rec := testRecord("src", fmt.Sprintf("목 기운 문장 %d번입니다.", i), c, base)
		if _, err := m.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	removed, err := m.PurgeBelow(ctx, 0.5)
	if err != nil {
		t.Fatalf("PurgeBelow failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	summary, err := m.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalCount != 1 {
		t.Errorf("Expected 1 record left, got %d", summary.TotalCount)
	}
}

func TestMemory_SummaryAggregates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Now().UTC()

	records := []*model.KnowledgeRecord{
		{
			SourceID:     "a",
			Content:      "목 기운과 목 성향이 보입니다.",
			MatchedTerms: map[string][]string{"elements": {"목", "목"}},
			SentenceType: model.SentencePersonality,
			Confidence:   0.2,
			CreatedAt:    base,
		},
		{
			SourceID:     "b",
			Content:      "재물 운이 좋아집니다.",
			MatchedTerms: map[string][]string{"wealth": {"재물"}},
			SentenceType: model.SentenceWealth,
			Confidence:   0.8,
			CreatedAt:    base,
		},
	}
	for _, rec := range records {
		if _, err := m.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	summary, err := m.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalCount != 2 {
		t.Errorf("Expected total 2, got %d", summary.TotalCount)
	}
	if summary.AverageConfidence != 0.5 {
		t.Errorf("Expected average 0.5, got %v", summary.AverageConfidence)
	}
	if summary.PerSource["a"] != 1 || summary.PerSource["b"] != 1 {
		t.Errorf("Unexpected per-source counts: %v", summary.PerSource)
	}
	if len(summary.TopTerms) == 0 || summary.TopTerms[0].Term != "목" || summary.TopTerms[0].Frequency != 2 {
		t.Errorf("Expected 목 with frequency 2 on top, got %v", summary.TopTerms)
	}
}

func TestMemory_ClosedFailsWithErrStoreUnavailable(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Close()

	rec := testRecord("src", "목 기운이 강한 사람입니다.", 0.5, time.Now().UTC())
	if _, err := m.Append(ctx, rec); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Append, got %v", err)
	}
	if _, err := m.Search(ctx, "기운", 1); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Search, got %v", err)
	}
	if _, err := m.Summary(ctx); !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Summary, got %v", err)
	}
}

func TestMemory_ConcurrentUse(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				rec := testRecord(fmt.Sprintf("src-%d", w),
					fmt.Sprintf("목 기운 병렬 문장 %d-%d번입니다.", w, i), 0.5, time.Now().UTC())
				if _, err := m.Append(ctx, rec); err != nil {
					errs <- err
					return
				}
				if _, err := m.Recent(ctx, 5); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Concurrent use failed: %v", err)
	}

	summary, err := m.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalCount != 40 {
		t.Errorf("Expected 40 records, got %d", summary.TotalCount)
	}
}

func TestMemory_SavePredictionAssignsIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	p1 := &model.SavedPrediction{BirthDate: "1990-05-15", BirthHour: 10, Numbers: []int{1, 2, 3, 4, 5, 6}, Method: model.MethodSajuWeighted}
	p2 := &model.SavedPrediction{BirthDate: "1984-02-02", BirthHour: -1, Numbers: []int{7, 8, 9, 10, 11, 12}, Method: model.MethodSajuWeighted}

	id1, err := m.SavePrediction(ctx, p1)
	if err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}
	id2, err := m.SavePrediction(ctx, p2)
	if err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}
	if id1 == id2 {
		t.Errorf("Expected distinct ids, got %d twice", id1)
	}
	if p1.CreatedAt.IsZero() {
		t.Error("Expected created time to be stamped")
	}

	got, err := m.Predictions(ctx, 1)
	if err != nil {
		t.Fatalf("Predictions failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != id2 {
		t.Errorf("Expected newest prediction (id %d), got %+v", id2, got)
	}
}
