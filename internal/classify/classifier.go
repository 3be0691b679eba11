package classify

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sajulotto/service/internal/model"
)

// Fragments below this rune count carry too little signal to classify.
const minSentenceRunes = 20

// sentenceKeywords drives sentence-type classification. Order matters: on a
// tied score the earlier group wins, so output stays reproducible.
var sentenceKeywords = []struct {
	Type     model.SentenceType
	Keywords []string
}{
	{model.SentenceInterpretation, []string{"해석", "의미", "뜻", "표현", "나타낸", "보여준", "말해준", "meaning", "interpret", "represents", "indicates"}},
	{model.SentencePrediction, []string{"예측", "운세", "미래", "앞으로", "될것", "가능성", "경향", "흐름", "predict", "forecast", "future", "trend"}},
	{model.SentencePersonality, []string{"성격", "기질", "성향", "특성", "타입", "스타일", "면모", "모습", "personality", "character", "temperament", "leadership"}},
	{model.SentenceRelationship, []string{"관계", "궁합", "만남", "상대", "파트너", "연인", "배우자", "가족", "relationship", "partner", "compatibility", "marriage"}},
	{model.SentenceHealth, []string{"건강", "질병", "체질", "체력", "몸", "health", "illness", "stamina"}},
	{model.SentenceWealth, []string{"재물", "금전", "돈", "재산", "투자", "수입", "wealth", "money", "income"}},
}

// Classifier turns raw text into candidate knowledge records
type Classifier struct {
	dict       *Dictionary
	defaultTag string
}

// NewClassifier creates a classifier over the given dictionary. The tag is
// stamped on produced records; callers may override it per source.
func NewClassifier(dict *Dictionary, defaultTag string) *Classifier {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Classifier{
		dict:       dict,
		defaultTag: defaultTag,
	}
}

// Dictionary returns the lexicon the classifier matches against.
func (c *Classifier) Dictionary() *Dictionary {
	return c.dict
}

// Classify splits text into sentences and produces one candidate record per
// qualifying sentence. A sentence with no term matches is not an error; it
// yields a confidence-zero general record the caller will usually filter.
// Empty or too-short input yields an empty slice.
func (c *Classifier) Classify(sourceID, sourceTitle, text string) []model.KnowledgeRecord {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	now := time.Now().UTC()
	records := make([]model.KnowledgeRecord, 0, len(sentences))
	for _, sentence := range sentences {
		matches, total := c.dict.MatchAll(sentence)
		records = append(records, model.KnowledgeRecord{
			SourceID:     sourceID,
			SourceTitle:  sourceTitle,
			Content:      sentence,
			MatchedTerms: matches,
			SentenceType: classifySentenceType(sentence),
			Confidence:   matchConfidence(total, utf8.RuneCountInString(sentence)),
			SourceTag:    c.defaultTag,
			CreatedAt:    now,
		})
	}
	return records
}

// splitSentences splits on sentence-ending punctuation and drops fragments
// shorter than minSentenceRunes. Lengths are rune counts so Korean text is
// not triple-counted through its UTF-8 encoding.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if utf8.RuneCountInString(sentence) >= minSentenceRunes {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '.', '!', '?', '。', '！', '？':
			flush()
		}
	}
	flush()

	return sentences
}

// classifySentenceType scores each keyword group by the number of keywords
// present and picks the strict argmax. An all-zero score means general.
func classifySentenceType(sentence string) model.SentenceType {
	best := model.SentenceGeneral
	bestScore := 0
	for _, group := range sentenceKeywords {
		score := 0
		for _, keyword := range group.Keywords {
			if strings.Contains(sentence, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = group.Type
			bestScore = score
		}
	}
	return best
}

// matchConfidence is term density per 100 characters, capped at 1.0.
func matchConfidence(occurrences, runeLen int) float64 {
	if occurrences <= 0 {
		return 0
	}
	denom := float64(runeLen) / 100.0
	if denom < 1 {
		denom = 1
	}
	confidence := float64(occurrences) / denom
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
