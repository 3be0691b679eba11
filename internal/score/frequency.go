package score

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sajulotto/service/internal/model"
)

// DrawRecord is one historical draw: the draw number, its date as written
// in the file, the six main numbers and an optional bonus number.
type DrawRecord struct {
	DrawNo  int    `json:"draw_no"`
	Date    string `json:"date"`
	Numbers [6]int `json:"numbers"`
	Bonus   int    `json:"bonus,omitempty"` // 0 when the file has no bonus column
}

// NumberFrequency pairs a number with its historical count.
type NumberFrequency struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// ElementShare describes how one element range is represented in history.
type ElementShare struct {
	Element model.Element `json:"element"`
	Low     int           `json:"low"`
	High    int           `json:"high"`
	Count   int           `json:"count"`
	Percent float64       `json:"percent"`
}

// DrawAnalysis summarizes the draw history: the most drawn numbers and
// each element range's share of everything drawn.
type DrawAnalysis struct {
	TotalDraws   int               `json:"total_draws"`
	TotalNumbers int               `json:"total_numbers"`
	TopNumbers   []NumberFrequency `json:"top_numbers"`
	Elements     []ElementShare    `json:"elements"`
}

// LoadDrawsCSV reads draw history from a CSV file with rows of the form
// draw_no,date,n1..n6[,bonus]. A header row is skipped when present and
// lines starting with # are ignored. One out-of-range number rejects the
// whole file.
func LoadDrawsCSV(path string) ([]DrawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draws file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse draws file: %w", err)
	}

	draws := make([]DrawRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		draw, err := parseDrawRow(row)
		if err != nil {
			return nil, fmt.Errorf("draws file row %d: %w", i+1, err)
		}
		draws = append(draws, draw)
	}
	return draws, nil
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(row[0]))
	return err != nil
}

func parseDrawRow(row []string) (DrawRecord, error) {
	if len(row) != 8 && len(row) != 9 {
		return DrawRecord{}, fmt.Errorf("expected 8 or 9 fields, got %d", len(row))
	}

	var draw DrawRecord
	drawNo, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return DrawRecord{}, fmt.Errorf("invalid draw number %q", row[0])
	}
	draw.DrawNo = drawNo
	draw.Date = strings.TrimSpace(row[1])

	for i := 0; i < 6; i++ {
		n, err := parseDrawNumber(row[2+i])
		if err != nil {
			return DrawRecord{}, err
		}
		draw.Numbers[i] = n
	}
	if len(row) == 9 {
		bonus, err := parseDrawNumber(row[8])
		if err != nil {
			return DrawRecord{}, err
		}
		draw.Bonus = bonus
	}
	return draw, nil
}

func parseDrawNumber(field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", field)
	}
	if n < MinNumber || n > MaxNumber {
		return 0, fmt.Errorf("number %d outside [%d, %d]", n, MinNumber, MaxNumber)
	}
	return n, nil
}

// BuildFrequencyTable counts how often each main number was drawn.
// Bonus numbers are not counted.
func BuildFrequencyTable(draws []DrawRecord) model.FrequencyTable {
	table := make(model.FrequencyTable, MaxNumber)
	for _, draw := range draws {
		for _, n := range draw.Numbers {
			table[n]++
		}
	}
	return table
}

// AnalyzeDraws ranks the most drawn numbers and computes each element
// range's share of the drawn total. Useful for showing why a weighted
// prediction prefers certain ranges.
func AnalyzeDraws(draws []DrawRecord) *DrawAnalysis {
	table := BuildFrequencyTable(draws)

	ranked := make([]NumberFrequency, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		ranked = append(ranked, NumberFrequency{Number: n, Count: table[n]})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Number < ranked[j].Number
	})
	if len(ranked) > scoreBreakdownLimit {
		ranked = ranked[:scoreBreakdownLimit]
	}

	totalNumbers := 6 * len(draws)
	shares := make([]ElementShare, 0, len(elementRanges))
	for _, er := range elementRanges {
		count := 0
		for n := er.bounds.low; n <= er.bounds.high; n++ {
			count += table[n]
		}
		share := ElementShare{
			Element: er.element,
			Low:     er.bounds.low,
			High:    er.bounds.high,
			Count:   count,
		}
		if totalNumbers > 0 {
			share.Percent = float64(count) / float64(totalNumbers) * 100
		}
		shares = append(shares, share)
	}

	return &DrawAnalysis{
		TotalDraws:   len(draws),
		TotalNumbers: totalNumbers,
		TopNumbers:   ranked,
		Elements:     shares,
	}
}
