// Package saju derives a five-element profile from a birth date using
// fixed-epoch stem/branch cycle arithmetic.
package saju

import "github.com/sajulotto/service/internal/model"

// The ten heavenly stems and twelve earthly branches in cycle order.
// All index arithmetic in the resolver depends on this exact ordering.
var stems = []string{"갑", "을", "병", "정", "무", "기", "경", "신", "임", "계"}

var branches = []string{"자", "축", "인", "묘", "진", "사", "오", "미", "신", "유", "술", "해"}

// stemElements assigns each stem its element: 갑을 wood, 병정 fire,
// 무기 earth, 경신 metal, 임계 water.
var stemElements = []model.Element{
	model.ElementWood,
	model.ElementWood,
	model.ElementFire,
	model.ElementFire,
	model.ElementEarth,
	model.ElementEarth,
	model.ElementMetal,
	model.ElementMetal,
	model.ElementWater,
	model.ElementWater,
}

// branchElements assigns each branch its element: 인묘 wood, 사오 fire,
// 축진미술 earth, 신유 metal, 자해 water.
var branchElements = []model.Element{
	model.ElementWater,
	model.ElementEarth,
	model.ElementWood,
	model.ElementWood,
	model.ElementEarth,
	model.ElementFire,
	model.ElementFire,
	model.ElementEarth,
	model.ElementMetal,
	model.ElementMetal,
	model.ElementEarth,
	model.ElementWater,
}

// hourStemStart maps the day-stem index to the stem index of that day's
// first double-hour (자시): 갑기 days start at 갑, 을경 at 병, 병신 at 무,
// 정임 at 경, 무계 at 임.
var hourStemStart = []int{0, 2, 4, 6, 8, 0, 2, 4, 6, 8}

// StemElement returns the element a stem symbol maps onto.
func StemElement(symbol string) (model.Element, bool) {
	for i, s := range stems {
		if s == symbol {
			return stemElements[i], true
		}
	}
	return "", false
}

// BranchElement returns the element a branch symbol maps onto.
func BranchElement(symbol string) (model.Element, bool) {
	for i, b := range branches {
		if b == symbol {
			return branchElements[i], true
		}
	}
	return "", false
}
