package enhance

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sajulotto/service/internal/model"
	"github.com/sajulotto/service/internal/store"
)

func testProfile() *model.ElementProfile {
	return &model.ElementProfile{
		StemTags:   []string{"갑", "신", "무"},
		BranchTags: []string{"자", "인", "진"},
		Histogram: map[model.Element]int{
			model.ElementWood:  2,
			model.ElementFire:  0,
			model.ElementEarth: 2,
			model.ElementMetal: 1,
			model.ElementWater: 1,
		},
	}
}

func appendRecord(t *testing.T, st store.Store, sourceID, content string, kind model.SentenceType) {
	t.Helper()
	rec := &model.KnowledgeRecord{
		SourceID:     sourceID,
		Content:      content,
		SentenceType: kind,
		Confidence:   0.5,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := st.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
}

func TestEnhancer_AggregatesKnowledge(t *testing.T) {
	st := store.NewMemory()
	appendRecord(t, st, "v1", "갑목 일주는 왕성한 기운과 성격 특징이 있습니다.", model.SentencePersonality)
	appendRecord(t, st, "v2", "자 기운은 수 기운이 부족하면 문제가 됩니다.", model.SentencePrediction)

	enhancer := NewEnhancer(st)
	result := enhancer.Enhance(context.Background(), testProfile())

	if len(result.RelevantKnowledge) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(result.RelevantKnowledge))
	}
	first, second := result.RelevantKnowledge[0], result.RelevantKnowledge[1]
	if first.Record.SourceID != "v1" {
		t.Errorf("Expected most relevant match first, got %s", first.Record.SourceID)
	}
	// 갑 and 목 present (0.3 each) plus 성격 and 특징 keywords (0.1 each).
	if math.Abs(first.Relevance-0.8) > 1e-9 {
		t.Errorf("Expected relevance 0.8, got %v", first.Relevance)
	}
	if math.Abs(second.Relevance-0.3) > 1e-9 {
		t.Errorf("Expected relevance 0.3, got %v", second.Relevance)
	}

	if got := result.ElementAdjustments[model.ElementWood]; got != 0.1 {
		t.Errorf("Expected wood adjustment +0.1, got %v", got)
	}
	if got := result.ElementAdjustments[model.ElementWater]; got != -0.2 {
		t.Errorf("Expected water adjustment -0.2, got %v", got)
	}
	if _, ok := result.ElementAdjustments[model.ElementFire]; ok {
		t.Error("Expected no adjustment entry for an unmentioned element")
	}

	if result.ConfidenceBoost != 0.05 {
		t.Errorf("Expected boost 0.05, got %v", result.ConfidenceBoost)
	}

	if len(result.Recommendations) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(result.Recommendations))
	}
	if !strings.Contains(result.Recommendations[0], "성격 분석") {
		t.Errorf("Expected personality recommendation first, got %q", result.Recommendations[0])
	}
	if !strings.Contains(result.Recommendations[1], "운세 예측") {
		t.Errorf("Expected prediction recommendation second, got %q", result.Recommendations[1])
	}
}

func TestEnhancer_HighBoostTier(t *testing.T) {
	st := store.NewMemory()
	appendRecord(t, st, "v1", "갑목 사주 첫째는 성격이 뚜렷합니다.", model.SentencePersonality)
	appendRecord(t, st, "v2", "갑목 사주 둘째는 성격이 차분합니다.", model.SentencePersonality)
	appendRecord(t, st, "v3", "갑목 사주 셋째는 성격이 활달합니다.", model.SentencePersonality)

	enhancer := NewEnhancer(st)
	result := enhancer.Enhance(context.Background(), testProfile())

	if len(result.RelevantKnowledge) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(result.RelevantKnowledge))
	}
	if result.ConfidenceBoost != 0.10 {
		t.Errorf("Expected boost 0.10, got %v", result.ConfidenceBoost)
	}
}

func TestEnhancer_ClampsAccumulatedAdjustments(t *testing.T) {
	st := store.NewMemory()
	appendRecord(t, st, "v1", "목 기운이 왕성하고 강함과 성장이 좋습니다.", model.SentenceGeneral)
	appendRecord(t, st, "v2", "목 기운은 왕성하며 강함이 좋고 번영합니다.", model.SentenceGeneral)

	enhancer := NewEnhancer(st)
	result := enhancer.Enhance(context.Background(), testProfile())

	if got := result.ElementAdjustments[model.ElementWood]; got != 0.5 {
		t.Errorf("Expected wood adjustment clamped to 0.5, got %v", got)
	}
}

func TestEnhancer_MentionWithoutPolarityKeepsZeroEntry(t *testing.T) {
	st := store.NewMemory()
	appendRecord(t, st, "v1", "갑목 사주에 대한 일반 해설입니다.", model.SentenceGeneral)

	enhancer := NewEnhancer(st)
	result := enhancer.Enhance(context.Background(), testProfile())

	got, ok := result.ElementAdjustments[model.ElementWood]
	if !ok {
		t.Fatal("Expected a zero entry for the mentioned element")
	}
	if got != 0 {
		t.Errorf("Expected zero adjustment, got %v", got)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("Expected no recommendations for general sentences, got %v", result.Recommendations)
	}
}

func TestEnhancer_DedupesMatchesAcrossSeeds(t *testing.T) {
	st := store.NewMemory()
	// Matches both the 갑 and 목 seed lookups but must count once.
	appendRecord(t, st, "v1", "갑목 일주는 왕성한 기운과 성격 특징이 있습니다.", model.SentencePersonality)

	enhancer := NewEnhancer(st)
	result := enhancer.Enhance(context.Background(), testProfile())

	if len(result.RelevantKnowledge) != 1 {
		t.Errorf("Expected 1 deduplicated match, got %d", len(result.RelevantKnowledge))
	}
}

func TestEnhancer_EmptyStoreYieldsZeroValue(t *testing.T) {
	enhancer := NewEnhancer(store.NewMemory())
	result := enhancer.Enhance(context.Background(), testProfile())

	if len(result.RelevantKnowledge) != 0 || len(result.ElementAdjustments) != 0 ||
		result.ConfidenceBoost != 0 || len(result.Recommendations) != 0 {
		t.Errorf("Expected zero-value result from an empty store, got %+v", result)
	}
}

func TestEnhancer_DegradesOnStoreFailure(t *testing.T) {
	st := store.NewMemory()
	st.Close()

	enhancer := NewEnhancer(st)
	result := enhancer.Enhance(context.Background(), testProfile())

	if len(result.RelevantKnowledge) != 0 || len(result.ElementAdjustments) != 0 ||
		result.ConfidenceBoost != 0 || len(result.Recommendations) != 0 {
		t.Errorf("Expected zero-value result on store failure, got %+v", result)
	}
}

func TestEnhancer_DegradesOnLookupTimeout(t *testing.T) {
	enhancer := NewEnhancer(&slowStore{}, WithSearchTimeout(10*time.Millisecond))
	result := enhancer.Enhance(context.Background(), testProfile())

	if len(result.RelevantKnowledge) != 0 || result.ConfidenceBoost != 0 {
		t.Errorf("Expected zero-value result on timeout, got %+v", result)
	}
}

func TestEnhancer_SeedsDeduplicated(t *testing.T) {
	rec := &recordingStore{}
	// 신 is both the year stem and the year branch; only one lookup runs.
	profile := &model.ElementProfile{
		StemTags:   []string{"신"},
		BranchTags: []string{"신", "유"},
	}

	enhancer := NewEnhancer(rec)
	enhancer.Enhance(context.Background(), profile)

	want := []string{"신", "금"}
	if len(rec.queries) != len(want) {
		t.Fatalf("Expected %d lookups, got %d: %v", len(want), len(rec.queries), rec.queries)
	}
	for i, q := range want {
		if rec.queries[i] != q {
			t.Errorf("Expected lookup %d to be %q, got %q", i, q, rec.queries[i])
		}
	}
}

func TestEnhancer_EmptyProfileAndNilProfile(t *testing.T) {
	enhancer := NewEnhancer(store.NewMemory())

	result := enhancer.Enhance(context.Background(), &model.ElementProfile{})
	if len(result.RelevantKnowledge) != 0 {
		t.Errorf("Expected zero result for empty profile, got %+v", result)
	}

	result = enhancer.Enhance(context.Background(), nil)
	if len(result.RelevantKnowledge) != 0 {
		t.Errorf("Expected zero result for nil profile, got %+v", result)
	}
}

// slowStore blocks every lookup until its context expires.
type slowStore struct {
	store.Store
}

func (s *slowStore) Search(ctx context.Context, query string, limit int) ([]model.KnowledgeRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// recordingStore captures lookup queries and returns no matches.
type recordingStore struct {
	store.Store
	queries []string
}

func (r *recordingStore) Search(ctx context.Context, query string, limit int) ([]model.KnowledgeRecord, error) {
	r.queries = append(r.queries, query)
	return nil, nil
}
