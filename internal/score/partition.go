package score

import (
	"sort"

	"github.com/sajulotto/service/internal/model"
)

// The draw universe and its fixed element partition. Every number belongs
// to exactly one element range and the assignment never changes.
const (
	MinNumber = 1
	MaxNumber = 45
)

type numberRange struct {
	low  int
	high int
}

var elementRanges = []struct {
	element model.Element
	bounds  numberRange
}{
	{model.ElementWood, numberRange{1, 9}},
	{model.ElementFire, numberRange{10, 19}},
	{model.ElementEarth, numberRange{20, 29}},
	{model.ElementMetal, numberRange{30, 39}},
	{model.ElementWater, numberRange{40, 45}},
}

// ElementOf returns the element whose range contains n. Numbers outside
// [MinNumber, MaxNumber] return the zero Element.
func ElementOf(n int) model.Element {
	for _, er := range elementRanges {
		if n >= er.bounds.low && n <= er.bounds.high {
			return er.element
		}
	}
	return ""
}

// RangeOf returns the inclusive number range assigned to element,
// or (0, 0) for an unknown element.
func RangeOf(element model.Element) (low, high int) {
	for _, er := range elementRanges {
		if er.element == element {
			return er.bounds.low, er.bounds.high
		}
	}
	return 0, 0
}

// LuckyNumbers derives candidate numbers from the histogram alone: the
// strongest elements contribute twice their symbol count in numbers,
// taken from the start of their range, strongest element first. The
// result is truncated to k. No randomness and no draw history involved.
func LuckyNumbers(profile *model.ElementProfile, k int) []int {
	if profile == nil || k <= 0 {
		return nil
	}

	type elementCount struct {
		element model.Element
		count   int
	}
	ranked := make([]elementCount, 0, len(elementRanges))
	for _, element := range model.Elements() {
		ranked = append(ranked, elementCount{element, profile.Histogram[element]})
	}
	// Count descending; stable sort keeps canonical cycle order on ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count > ranked[j].count
	})

	var numbers []int
	for _, ec := range ranked {
		if ec.count <= 0 {
			continue
		}
		low, high := RangeOf(ec.element)
		take := ec.count * 2
		if size := high - low + 1; take > size {
			take = size
		}
		for n := low; n < low+take; n++ {
			numbers = append(numbers, n)
		}
	}

	if len(numbers) > k {
		numbers = numbers[:k]
	}
	return numbers
}
