package model

import "time"

// MethodSajuWeighted labels results produced by the element-weighted frequency algorithm.
const MethodSajuWeighted = "saju_weighted_frequency"

// FrequencyTable maps each number in 1..45 to its historical occurrence count.
// Read-only external input to the scoring engine.
type FrequencyTable map[int]int

// UniformTable returns a table with every number counted once. Substituting
// it for missing history is the caller's explicit, documented choice.
func UniformTable() FrequencyTable {
	t := make(FrequencyTable, 45)
	for n := 1; n <= 45; n++ {
		t[n] = 1
	}
	return t
}

// Total returns the sum of all occurrence counts.
func (t FrequencyTable) Total() int {
	total := 0
	for _, c := range t {
		total += c
	}
	return total
}

// ScoredNumber is one number's transparent scoring breakdown
type ScoredNumber struct {
	Number        int     `json:"number"`
	Score         float64 `json:"score"`         // frequency x element weight
	Element       Element `json:"element"`       // Fixed range assignment of the number
	Frequency     int     `json:"frequency"`     // Raw historical count
	Weight        float64 `json:"weight"`        // Applied element weight
	Compatibility float64 `json:"compatibility"` // 100 x score / max score
	Explanation   string  `json:"explanation"`   // Element strength template
}

// PredictionResult is the ranked selection returned by the scoring engine
type PredictionResult struct {
	Numbers    []int          `json:"numbers"`    // N unique numbers in [1,45], ascending
	Scores     []ScoredNumber `json:"scores"`     // Top-ranked breakdown, score descending
	Confidence float64        `json:"confidence"` // In [0,1], includes any enhancement boost
	Method     string         `json:"method"`
	Enhanced   bool           `json:"enhanced"` // Whether aggregator output was applied
}

// RelevantKnowledge pairs a stored record with its computed relevance to a profile
type RelevantKnowledge struct {
	Record    KnowledgeRecord `json:"record"`
	Relevance float64         `json:"relevance"`
}

// EnhancementResult is the aggregator's bounded, strictly additive output.
// A zero value is a valid "no knowledge available" result.
type EnhancementResult struct {
	RelevantKnowledge  []RelevantKnowledge `json:"relevant_knowledge,omitempty"`
	ElementAdjustments map[Element]float64 `json:"element_adjustments,omitempty"` // Each delta in [-0.5,0.5]
	ConfidenceBoost    float64             `json:"confidence_boost"`              // 0, 0.05 or 0.10
	Recommendations    []string            `json:"recommendations,omitempty"`
}

// SavedPrediction is a prediction a caller explicitly persisted
type SavedPrediction struct {
	ID         int64     `json:"id,omitempty"`
	BirthDate  string    `json:"birth_date"` // YYYY-MM-DD
	BirthHour  int       `json:"birth_hour"` // -1 when unknown
	Numbers    []int     `json:"numbers"`
	Confidence float64   `json:"confidence"`
	Method     string    `json:"method"`
	Enhanced   bool      `json:"enhanced"`
	CreatedAt  time.Time `json:"created_at"`
}
