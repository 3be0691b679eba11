package model

import (
	"fmt"
	"strings"
	"time"
)

// KnowledgeRecord represents one classified sentence extracted from ingested text
type KnowledgeRecord struct {
	ID           int64               `json:"id,omitempty"`            // Assigned by the store on append
	SourceID     string              `json:"source_id"`               // Opaque identifier of the ingested source
	SourceTitle  string              `json:"source_title,omitempty"`  // Human-readable source title
	Content      string              `json:"content"`                 // The sentence text itself
	MatchedTerms map[string][]string `json:"matched_terms,omitempty"` // category -> every literal occurrence
	SentenceType SentenceType        `json:"sentence_type"`           // Classified category
	Confidence   float64             `json:"confidence"`              // Term density score, always in [0,1]
	SourceTag    string              `json:"source_tag,omitempty"`    // Origin kind (transcript, file, url)
	CreatedAt    time.Time           `json:"created_at"`              // Set once at classification time
}

// SentenceType categorizes what kind of statement a sentence makes
type SentenceType string

const (
	SentencePersonality    SentenceType = "personality"    // Character traits and dispositions
	SentenceInterpretation SentenceType = "interpretation" // Explains what a symbol means
	SentencePrediction     SentenceType = "prediction"     // Forward-looking fortune statements
	SentenceRelationship   SentenceType = "relationship"   // Compatibility and relations
	SentenceHealth         SentenceType = "health"         // Constitution and illness
	SentenceWealth         SentenceType = "wealth"         // Money and assets
	SentenceGeneral        SentenceType = "general"        // No dominant category
)

// Validate checks the record invariants before it crosses a component boundary.
func (r *KnowledgeRecord) Validate() error {
	if r.SourceID == "" {
		return fmt.Errorf("knowledge record: empty source id")
	}
	if r.Content == "" {
		return fmt.Errorf("knowledge record: empty content")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("knowledge record: confidence %v outside [0,1]", r.Confidence)
	}
	for category, terms := range r.MatchedTerms {
		for _, term := range terms {
			if !strings.Contains(r.Content, term) {
				return fmt.Errorf("knowledge record: matched term %q (%s) not a substring of content", term, category)
			}
		}
	}
	return nil
}

// TotalMatches returns the number of term occurrences across all categories.
func (r *KnowledgeRecord) TotalMatches() int {
	total := 0
	for _, terms := range r.MatchedTerms {
		total += len(terms)
	}
	return total
}

// KnowledgeSummary is an aggregate view over the store, computed fresh on every read
type KnowledgeSummary struct {
	TotalCount        int64                  `json:"total_count"`
	PerSource         map[string]int64       `json:"per_source,omitempty"`
	TypeDistribution  map[SentenceType]int64 `json:"type_distribution,omitempty"`
	AverageConfidence float64                `json:"average_confidence"`
	TopTerms          []TermCount            `json:"top_terms,omitempty"`
}

// TermCount is one entry of the per-term frequency ranking
type TermCount struct {
	Term      string `json:"term"`
	Category  string `json:"category"`
	Frequency int64  `json:"frequency"`
}
