// Package score turns draw history and an element profile into a ranked,
// fully explained number selection. Scoring is pure arithmetic: no
// randomness, no clock, no store access.
package score

import (
	"fmt"
	"sort"

	"github.com/sajulotto/service/internal/model"
)

// scoreBreakdownLimit caps how many ScoredNumbers a result carries.
const scoreBreakdownLimit = 15

// Engine ranks the draw universe by element-weighted historical frequency.
// It is stateless; identical inputs always produce identical results.
type Engine struct{}

// NewEngine creates a new scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Predict scores every number in the universe as its historical frequency
// times the weight of its element range, then selects the n highest. Element
// weights derive from the profile histogram, up to 1.5x for the strongest
// element; enhancement adjustments are added to the weights as-is and the
// confidence boost is applied last, capped at 1.0.
//
// Numbers come back ascending; Scores keep rank order. An empty or all-zero
// table returns ErrInsufficientHistory, out-of-range n is rejected.
func (e *Engine) Predict(table model.FrequencyTable, profile *model.ElementProfile,
	enh *model.EnhancementResult, n int) (*model.PredictionResult, error) {
	if n < MinNumber || n > MaxNumber {
		return nil, fmt.Errorf("prediction size %d outside [%d, %d]", n, MinNumber, MaxNumber)
	}
	if table.Total() <= 0 {
		return nil, fmt.Errorf("frequency table is empty or all zero: %w", model.ErrInsufficientHistory)
	}

	weights := elementWeights(profile, enh)
	scored := rankNumbers(table, weights)

	maxScore := scored[0].Score
	for i := range scored {
		scored[i].Compatibility = compatibility(scored[i].Score, maxScore)
		scored[i].Explanation = explanation(scored[i].Element, histogramCount(profile, scored[i].Element))
	}

	confidence := 0.0
	if maxScore > 0 {
		total := 0.0
		for _, s := range scored[:n] {
			total += s.Score
		}
		confidence = total / float64(n) / maxScore
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	if enh != nil {
		confidence += enh.ConfidenceBoost
		if confidence > 1 {
			confidence = 1
		}
	}

	breakdown := len(scored)
	if breakdown > scoreBreakdownLimit {
		breakdown = scoreBreakdownLimit
	}

	return &model.PredictionResult{
		Numbers:    selectNumbers(scored, n),
		Scores:     scored[:breakdown],
		Confidence: confidence,
		Method:     model.MethodSajuWeighted,
		Enhanced:   enh != nil,
	}, nil
}

// elementWeights computes the weight of each element range. A histogram
// count of zero leaves the base weight at 1.0; the strongest element
// reaches 1.5. Enhancement adjustments shift the base without re-clamping.
func elementWeights(profile *model.ElementProfile, enh *model.EnhancementResult) map[model.Element]float64 {
	maxHist := 0
	if profile != nil {
		for _, element := range model.Elements() {
			if c := profile.Histogram[element]; c > maxHist {
				maxHist = c
			}
		}
	}

	weights := make(map[model.Element]float64, len(elementRanges))
	for _, element := range model.Elements() {
		weight := 1.0
		if maxHist > 0 {
			if c := profile.Histogram[element]; c > 0 {
				weight = 1.0 + float64(c)/float64(maxHist)*0.5
			}
		}
		if enh != nil {
			weight += enh.ElementAdjustments[element]
		}
		weights[element] = weight
	}
	return weights
}

// rankNumbers scores the full universe and sorts it score descending,
// number ascending on ties. The total order makes selection deterministic.
func rankNumbers(table model.FrequencyTable, weights map[model.Element]float64) []model.ScoredNumber {
	scored := make([]model.ScoredNumber, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		element := ElementOf(n)
		frequency := table[n]
		weight := weights[element]
		scored = append(scored, model.ScoredNumber{
			Number:    n,
			Score:     float64(frequency) * weight,
			Element:   element,
			Frequency: frequency,
			Weight:    weight,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Number < scored[j].Number
	})
	return scored
}

// selectNumbers takes the first n unique numbers in rank order and returns
// them ascending. A short ranking fills the remaining slots with the lowest
// unused numbers, never randomly.
func selectNumbers(scored []model.ScoredNumber, n int) []int {
	numbers := make([]int, 0, n)
	used := make(map[int]bool, n)
	for _, s := range scored {
		if len(numbers) == n {
			break
		}
		if used[s.Number] {
			continue
		}
		numbers = append(numbers, s.Number)
		used[s.Number] = true
	}
	for number := MinNumber; len(numbers) < n && number <= MaxNumber; number++ {
		if !used[number] {
			numbers = append(numbers, number)
			used[number] = true
		}
	}
	sort.Ints(numbers)
	return numbers
}

func compatibility(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return 100 * score / maxScore
}

// explanation names the number's element and how strongly the profile
// histogram supports it.
func explanation(element model.Element, count int) string {
	switch {
	case count >= 2:
		return fmt.Sprintf("%s 기운이 강한 사주와 잘 맞는 번호입니다", element.Hangul())
	case count >= 1:
		return fmt.Sprintf("%s 기운이 있는 사주와 맞는 번호입니다", element.Hangul())
	default:
		return fmt.Sprintf("%s 기운 보완이 필요한 사주를 위한 번호입니다", element.Hangul())
	}
}

func histogramCount(profile *model.ElementProfile, element model.Element) int {
	if profile == nil {
		return 0
	}
	return profile.Histogram[element]
}
