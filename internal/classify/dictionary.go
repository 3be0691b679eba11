// Package classify segments raw text into sentences and tags each one with
// dictionary term matches, a sentence category and a confidence score.
package classify

import "strings"

// Dictionary is an immutable multi-category term lexicon. Categories keep a
// fixed iteration order so classification output is reproducible.
type Dictionary struct {
	categories []string
	terms      map[string][]string
}

// Category identifiers in canonical order.
const (
	CategoryStems         = "stems"
	CategoryBranches      = "branches"
	CategoryElements      = "elements"
	CategoryTenGods       = "ten_gods"
	CategoryRelations     = "relations"
	CategoryFortune       = "fortune"
	CategoryCompatibility = "compatibility"
	CategoryPersonality   = "personality"
	CategoryCareer        = "career"
	CategoryHealth        = "health"
	CategoryWealth        = "wealth"
	CategoryLove          = "love"
)

// defaultTerms is the built-in lexicon. Korean terms carry the source
// material; English equivalents cover transcripts that arrive translated.
// A term may legitimately appear under more than one category (신 is both
// a stem and a branch) and both categories match.
var defaultTerms = map[string][]string{
	CategoryStems:         {"갑", "을", "병", "정", "무", "기", "경", "신", "임", "계"},
	CategoryBranches:      {"자", "축", "인", "묘", "진", "사", "오", "미", "신", "유", "술", "해"},
	CategoryElements:      {"목", "화", "토", "금", "수", "나무", "불", "흙", "쇠", "물", "wood", "fire", "earth", "metal", "water"},
	CategoryTenGods:       {"비견", "겁재", "식신", "상관", "편재", "정재", "편관", "정관", "편인", "정인"},
	CategoryRelations:     {"부모", "형제", "부부", "자녀", "친구", "직장"},
	CategoryFortune:       {"대운", "세운", "월운", "일운", "시운", "길운", "흉운", "화", "복", "fortune", "luck"},
	CategoryCompatibility: {"상생", "상극", "조화", "충돌", "합", "형", "해", "파", "compatibility", "harmony"},
	CategoryPersonality:   {"성격", "기질", "성향", "특성", "장점", "단점", "재능", "능력", "personality", "character", "temperament", "leadership"},
	CategoryCareer:        {"직업", "진로", "적성", "사업", "취업", "창업", "발전", "성공", "career", "business", "success"},
	CategoryHealth:        {"건강", "체질", "질병", "장수", "수명", "병", "약", "치료", "health", "illness"},
	CategoryWealth:        {"돈", "재물", "재운", "부", "투자", "사업", "수입", "지출", "저축", "wealth", "money", "investment"},
	CategoryLove:          {"사랑", "연애", "결혼", "이혼", "배우자", "만남", "이별", "화합", "love", "romance", "marriage"},
}

var defaultCategoryOrder = []string{
	CategoryStems,
	CategoryBranches,
	CategoryElements,
	CategoryTenGods,
	CategoryRelations,
	CategoryFortune,
	CategoryCompatibility,
	CategoryPersonality,
	CategoryCareer,
	CategoryHealth,
	CategoryWealth,
	CategoryLove,
}

// DefaultDictionary returns the built-in lexicon.
func DefaultDictionary() *Dictionary {
	return NewDictionary(defaultCategoryOrder, defaultTerms)
}

// NewDictionary builds a dictionary from a category order and term lists.
// Both inputs are copied; the dictionary never changes afterwards.
func NewDictionary(categories []string, terms map[string][]string) *Dictionary {
	d := &Dictionary{
		categories: make([]string, 0, len(categories)),
		terms:      make(map[string][]string, len(categories)),
	}
	for _, category := range categories {
		list, ok := terms[category]
		if !ok {
			continue
		}
		d.categories = append(d.categories, category)
		d.terms[category] = append([]string(nil), list...)
	}
	return d
}

// Categories returns the category identifiers in iteration order.
func (d *Dictionary) Categories() []string {
	return append([]string(nil), d.categories...)
}

// Terms returns the term list for a category.
func (d *Dictionary) Terms(category string) []string {
	return append([]string(nil), d.terms[category]...)
}

// Size returns the total number of terms across all categories.
func (d *Dictionary) Size() int {
	total := 0
	for _, category := range d.categories {
		total += len(d.terms[category])
	}
	return total
}

// MatchAll collects every literal occurrence of every term in the text,
// keyed by category, with the term repeated once per occurrence. Matching
// is exact substring comparison, case-sensitive, no normalization.
func (d *Dictionary) MatchAll(text string) (map[string][]string, int) {
	var matches map[string][]string
	total := 0
	for _, category := range d.categories {
		for _, term := range d.terms[category] {
			n := strings.Count(text, term)
			if n == 0 {
				continue
			}
			if matches == nil {
				matches = make(map[string][]string)
			}
			for i := 0; i < n; i++ {
				matches[category] = append(matches[category], term)
			}
			total += n
		}
	}
	return matches, total
}
