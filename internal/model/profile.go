package model

// Element is one of the five-element cycle every stem and branch maps onto
type Element string

const (
	ElementWood  Element = "wood"
	ElementFire  Element = "fire"
	ElementEarth Element = "earth"
	ElementMetal Element = "metal"
	ElementWater Element = "water"
)

// Elements returns the five elements in canonical cycle order.
func Elements() []Element {
	return []Element{ElementWood, ElementFire, ElementEarth, ElementMetal, ElementWater}
}

// Hangul returns the Korean single-character label used in source texts.
func (e Element) Hangul() string {
	switch e {
	case ElementWood:
		return "목"
	case ElementFire:
		return "화"
	case ElementEarth:
		return "토"
	case ElementMetal:
		return "금"
	case ElementWater:
		return "수"
	default:
		return ""
	}
}

// ElementProfile is the symbolic element histogram derived from a birth date.
// Produced once by the resolver and never mutated afterwards.
type ElementProfile struct {
	StemTags   []string        `json:"stem_tags"`   // Stem symbol per pillar: year, month, day[, hour]
	BranchTags []string        `json:"branch_tags"` // Branch symbol per pillar, same order
	Histogram  map[Element]int `json:"histogram"`   // Symbol count per element (8 with hour, 6 without)
	HourKnown  bool            `json:"hour_known"`  // False means the hour pillar is omitted, not approximated
}

// Dominant returns the element with the highest histogram count.
// Ties resolve in canonical cycle order.
func (p *ElementProfile) Dominant() Element {
	best := ElementWood
	bestCount := -1
	for _, e := range Elements() {
		if c := p.Histogram[e]; c > bestCount {
			best = e
			bestCount = c
		}
	}
	return best
}

// SymbolCount returns the number of symbols accumulated into the histogram.
func (p *ElementProfile) SymbolCount() int {
	total := 0
	for _, c := range p.Histogram {
		total += c
	}
	return total
}
