package score

import (
	"reflect"
	"testing"

	"github.com/sajulotto/service/internal/model"
)

func TestElementOf_CoversPartition(t *testing.T) {
	cases := []struct {
		number int
		want   model.Element
	}{
		{1, model.ElementWood},
		{9, model.ElementWood},
		{10, model.ElementFire},
		{19, model.ElementFire},
		{20, model.ElementEarth},
		{29, model.ElementEarth},
		{30, model.ElementMetal},
		{39, model.ElementMetal},
		{40, model.ElementWater},
		{45, model.ElementWater},
	}
	for _, tc := range cases {
		if got := ElementOf(tc.number); got != tc.want {
			t.Errorf("Expected element %s for %d, got %s", tc.want, tc.number, got)
		}
	}

	if got := ElementOf(0); got != "" {
		t.Errorf("Expected zero element for 0, got %s", got)
	}
	if got := ElementOf(46); got != "" {
		t.Errorf("Expected zero element for 46, got %s", got)
	}
}

func TestRangeOf_ReturnsBounds(t *testing.T) {
	low, high := RangeOf(model.ElementWood)
	if low != 1 || high != 9 {
		t.Errorf("Expected wood range 1-9, got %d-%d", low, high)
	}
	low, high = RangeOf(model.ElementWater)
	if low != 40 || high != 45 {
		t.Errorf("Expected water range 40-45, got %d-%d", low, high)
	}
	low, high = RangeOf(model.Element("unknown"))
	if low != 0 || high != 0 {
		t.Errorf("Expected 0-0 for an unknown element, got %d-%d", low, high)
	}
}

func TestLuckyNumbers_StrongestElementsFirst(t *testing.T) {
	profile := &model.ElementProfile{
		Histogram: map[model.Element]int{
			model.ElementWood:  4,
			model.ElementWater: 3,
			model.ElementEarth: 1,
		},
	}

	// Wood contributes 8 numbers (2x4), water all 6 of its range (2x3
	// capped at the range size), earth 2. Truncation keeps the order.
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 40, 41, 42, 43, 44, 45, 20, 21}
	got := LuckyNumbers(profile, 20)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	short := LuckyNumbers(profile, 10)
	if !reflect.DeepEqual(short, want[:10]) {
		t.Errorf("Expected %v, got %v", want[:10], short)
	}
}

func TestLuckyNumbers_TiesKeepCycleOrder(t *testing.T) {
	profile := &model.ElementProfile{
		Histogram: map[model.Element]int{
			model.ElementWood: 2,
			model.ElementFire: 2,
		},
	}

	want := []int{1, 2, 3, 4, 10, 11, 12, 13}
	got := LuckyNumbers(profile, 8)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestLuckyNumbers_EmptyInputs(t *testing.T) {
	if got := LuckyNumbers(nil, 10); got != nil {
		t.Errorf("Expected nil for nil profile, got %v", got)
	}
	profile := &model.ElementProfile{Histogram: map[model.Element]int{model.ElementWood: 2}}
	if got := LuckyNumbers(profile, 0); got != nil {
		t.Errorf("Expected nil for zero budget, got %v", got)
	}
	if got := LuckyNumbers(&model.ElementProfile{}, 10); len(got) != 0 {
		t.Errorf("Expected no numbers for an empty histogram, got %v", got)
	}
}
