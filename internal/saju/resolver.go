package saju

import (
	"fmt"
	"time"

	"github.com/sajulotto/service/internal/model"
)

// Cycle anchors: 1984 is a 갑자 year and 1984-02-02 a 갑자 day, so both
// cycles index from zero there.
const epochYear = 1984

var dayEpoch = time.Date(1984, time.February, 2, 0, 0, 0, 0, time.UTC)

// Resolve derives the element profile for a birth date with an unknown
// birth hour. The hour pillar is omitted and the histogram covers the six
// remaining symbols; the profile reports this explicitly via HourKnown.
func Resolve(year, month, day int) (*model.ElementProfile, error) {
	return resolve(year, month, day, -1)
}

// ResolveWithHour derives the full four-pillar element profile.
// Identical input always yields an identical profile.
func ResolveWithHour(year, month, day, hour int) (*model.ElementProfile, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%w: hour %d outside 0..23", model.ErrInvalidBirthDate, hour)
	}
	return resolve(year, month, day, hour)
}

func resolve(year, month, day, hour int) (*model.ElementProfile, error) {
	if err := validateDate(year, month, day); err != nil {
		return nil, err
	}

	yearStem := mod(year-epochYear, 10)
	yearBranch := mod(year-epochYear, 12)

	monthStem := mod((year-epochYear)*12+month-1, 10)
	monthBranch := mod(month-1, 12)

	days := daysSinceEpoch(year, month, day)
	dayStem := mod(days, 10)
	dayBranch := mod(days, 12)

	stemIdx := []int{yearStem, monthStem, dayStem}
	branchIdx := []int{yearBranch, monthBranch, dayBranch}

	if hour >= 0 {
		// Each branch spans a two-hour window starting at 23:00 the
		// previous evening, so 23:00-00:59 is 자시.
		hourBranch := mod((hour+1)/2, 12)
		hourStem := mod(hourStemStart[dayStem]+hourBranch, 10)
		stemIdx = append(stemIdx, hourStem)
		branchIdx = append(branchIdx, hourBranch)
	}

	profile := &model.ElementProfile{
		StemTags:   make([]string, 0, len(stemIdx)),
		BranchTags: make([]string, 0, len(branchIdx)),
		Histogram:  make(map[model.Element]int, 5),
		HourKnown:  hour >= 0,
	}
	for _, e := range model.Elements() {
		profile.Histogram[e] = 0
	}
	for _, i := range stemIdx {
		profile.StemTags = append(profile.StemTags, stems[i])
		profile.Histogram[stemElements[i]]++
	}
	for _, i := range branchIdx {
		profile.BranchTags = append(profile.BranchTags, branches[i])
		profile.Histogram[branchElements[i]]++
	}
	return profile, nil
}

func validateDate(year, month, day int) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d outside 1..9999", model.ErrInvalidBirthDate, year)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d outside 1..12", model.ErrInvalidBirthDate, month)
	}
	if day < 1 {
		return fmt.Errorf("%w: day %d outside the month", model.ErrInvalidBirthDate, day)
	}
	// time.Date normalizes overflow (Feb 30 becomes Mar 1/2), so a
	// round-trip mismatch means the date does not exist.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", model.ErrInvalidBirthDate, year, month, day)
	}
	return nil
}

// daysSinceEpoch counts whole days via Unix seconds; a Duration would
// saturate a few hundred years from the epoch while 1..9999 must work.
func daysSinceEpoch(year, month, day int) int {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int((t.Unix() - dayEpoch.Unix()) / 86400)
}

// mod is a non-negative modulo so pre-epoch dates index correctly.
func mod(a, m int) int {
	return ((a % m) + m) % m
}
