// Package enhance aggregates stored knowledge into bounded, strictly
// additive inputs for the scoring engine. A failing or empty store
// degrades to a zero-value result, never an error.
package enhance

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sajulotto/service/internal/model"
	"github.com/sajulotto/service/internal/saju"
	"github.com/sajulotto/service/internal/store"
)

// seedSearchLimit is the default cap on records per seed lookup.
const seedSearchLimit = 5

// DefaultSearchTimeout bounds each store lookup.
const DefaultSearchTimeout = 2 * time.Second

// highValueKeywords raise relevance when present in matched content.
var highValueKeywords = []string{
	"성격", "특징", "운세", "예측", "궁합", "재물", "직업",
	"personality", "traits", "fortune", "prediction", "compatibility", "wealth", "career",
}

// positiveWords and negativeWords drive element adjustment polarity.
// Scanned against lowercased content, so only lowercase entries.
var (
	positiveWords = []string{"왕성", "강함", "좋", "발달", "성장", "번영", "strong", "growing", "thriving"}
	negativeWords = []string{"부족", "약함", "나쁨", "억제", "문제", "결핍", "weak", "lacking", "blocked"}
)

// recommendationLines are fixed, keyed by which sentence types
// contributed matches, emitted in this order.
var recommendationLines = []struct {
	kind model.SentenceType
	line string
}{
	{model.SentencePersonality, "성격 분석 결과를 바탕으로 번호 선택 방식을 개인화했습니다."},
	{model.SentencePrediction, "운세 예측 지식을 활용하여 시기적 요소를 고려했습니다."},
	{model.SentenceRelationship, "인간관계 궁합을 고려하여 조화로운 번호 조합을 선택했습니다."},
}

// Enhancer derives prediction adjustments from stored knowledge.
type Enhancer struct {
	store         store.Store
	searchTimeout time.Duration
	searchLimit   int
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithSearchTimeout overrides the per-lookup timeout.
func WithSearchTimeout(d time.Duration) Option {
	return func(e *Enhancer) {
		if d > 0 {
			e.searchTimeout = d
		}
	}
}

// WithSearchLimit overrides how many records one seed lookup may return.
func WithSearchLimit(n int) Option {
	return func(e *Enhancer) {
		if n > 0 {
			e.searchLimit = n
		}
	}
}

// NewEnhancer returns an Enhancer reading from st.
func NewEnhancer(st store.Store, opts ...Option) *Enhancer {
	e := &Enhancer{store: st, searchTimeout: DefaultSearchTimeout, searchLimit: seedSearchLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance looks up knowledge relevant to the profile and folds it into
// element adjustments, a confidence boost and recommendations. The zero
// value of the result means "no knowledge available" and is always safe
// to apply.
func (e *Enhancer) Enhance(ctx context.Context, profile *model.ElementProfile) model.EnhancementResult {
	var result model.EnhancementResult
	if e.store == nil || profile == nil {
		return result
	}

	seeds := querySeeds(profile)
	matches := e.collect(ctx, seeds)
	if len(matches) == 0 {
		return result
	}

	result.RelevantKnowledge = matches
	result.ElementAdjustments = elementAdjustments(matches)
	result.ConfidenceBoost = confidenceBoost(matches)
	result.Recommendations = recommendations(matches)
	return result
}

// querySeeds builds up to three search seeds from the profile: the year
// stem symbol, the year branch symbol and the month branch's element
// label. Duplicates and empties are dropped.
func querySeeds(profile *model.ElementProfile) []string {
	var seeds []string
	if len(profile.StemTags) > 0 {
		seeds = append(seeds, profile.StemTags[0])
	}
	if len(profile.BranchTags) > 0 {
		seeds = append(seeds, profile.BranchTags[0])
	}
	if len(profile.BranchTags) > 1 {
		if element, ok := saju.BranchElement(profile.BranchTags[1]); ok {
			seeds = append(seeds, element.Hangul())
		}
	}

	seen := make(map[string]bool, len(seeds))
	out := seeds[:0]
	for _, seed := range seeds {
		if seed == "" || seen[seed] {
			continue
		}
		seen[seed] = true
		out = append(out, seed)
	}
	return out
}

// collect runs the seed lookups and returns matches deduplicated by
// record id, ordered by relevance descending then id ascending. Lookup
// failures degrade to zero matches for their seed.
func (e *Enhancer) collect(ctx context.Context, seeds []string) []model.RelevantKnowledge {
	var matches []model.RelevantKnowledge
	seen := make(map[int64]bool)

	var lookupErr error
	failed := 0
	for _, seed := range seeds {
		records, err := e.search(ctx, seed)
		if err != nil {
			failed++
			if lookupErr == nil {
				lookupErr = err
			}
			continue
		}
		for _, rec := range records {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			matches = append(matches, model.RelevantKnowledge{
				Record:    rec,
				Relevance: relevance(rec.Content, seeds),
			})
		}
	}
	if lookupErr != nil {
		logrus.WithError(lookupErr).WithField("seeds_failed", failed).
			Warn("knowledge lookups degraded, predicting without them")
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		return matches[i].Record.ID < matches[j].Record.ID
	})
	return matches
}

func (e *Enhancer) search(ctx context.Context, seed string) ([]model.KnowledgeRecord, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()
	return e.store.Search(lookupCtx, seed, e.searchLimit)
}

// relevance scores how directly a sentence speaks to the profile: 0.3
// per seed symbol literally present plus 0.1 per high-value keyword,
// capped at 1.0.
func relevance(content string, seeds []string) float64 {
	score := 0.0
	for _, seed := range seeds {
		if strings.Contains(content, seed) {
			score += 0.3
		}
	}
	for _, keyword := range highValueKeywords {
		if strings.Contains(content, keyword) {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// elementAdjustments accumulates a polarity delta for every element a
// match mentions, then clamps each element to [-0.5, 0.5]. An element
// mentioned without polarity words keeps a zero entry; elements never
// mentioned get no entry.
func elementAdjustments(matches []model.RelevantKnowledge) map[model.Element]float64 {
	adjustments := make(map[model.Element]float64)
	for _, match := range matches {
		text := strings.ToLower(match.Record.Content)

		delta := 0.0
		for _, word := range positiveWords {
			if strings.Contains(text, word) {
				delta += 0.1
			}
		}
		for _, word := range negativeWords {
			if strings.Contains(text, word) {
				delta -= 0.1
			}
		}

		for _, element := range model.Elements() {
			if strings.Contains(text, element.Hangul()) || strings.Contains(text, string(element)) {
				adjustments[element] += delta
			}
		}
	}

	for element, delta := range adjustments {
		if delta > 0.5 {
			adjustments[element] = 0.5
		} else if delta < -0.5 {
			adjustments[element] = -0.5
		}
	}
	return adjustments
}

// confidenceBoost grants 0.10 for three or more matches averaging
// relevance 0.5, 0.05 for at least one match averaging 0.3, else 0.
func confidenceBoost(matches []model.RelevantKnowledge) float64 {
	if len(matches) == 0 {
		return 0
	}
	total := 0.0
	for _, match := range matches {
		total += match.Relevance
	}
	avg := total / float64(len(matches))

	switch {
	case len(matches) >= 3 && avg >= 0.5:
		return 0.10
	case avg >= 0.3:
		return 0.05
	default:
		return 0
	}
}

func recommendations(matches []model.RelevantKnowledge) []string {
	present := make(map[model.SentenceType]bool, len(matches))
	for _, match := range matches {
		present[match.Record.SentenceType] = true
	}

	var lines []string
	for _, r := range recommendationLines {
		if present[r.kind] {
			lines = append(lines, r.line)
		}
	}
	return lines
}
