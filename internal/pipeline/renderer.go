package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sajulotto/service/internal/model"
	"github.com/sajulotto/service/internal/score"
)

// pillarNames label the four pillars in rendering order.
var pillarNames = []string{"연주", "월주", "일주", "시주"}

// Renderer formats pipeline results for the terminal and for JSON export.
type Renderer struct {
	scoreRows int
}

// NewRenderer creates a renderer. scoreRows bounds the score breakdown
// table; non-positive falls back to 10.
func NewRenderer(scoreRows int) *Renderer {
	if scoreRows <= 0 {
		scoreRows = 10
	}
	return &Renderer{scoreRows: scoreRows}
}

// RenderJSON writes v as indented JSON to path.
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// RenderProfile prints the four pillars and the element histogram.
func (r *Renderer) RenderProfile(w io.Writer, profile *model.ElementProfile) {
	banner(w, "사주 분석 결과")

	var pillars []string
	for i := range profile.StemTags {
		name := ""
		if i < len(pillarNames) {
			name = pillarNames[i] + " "
		}
		pillars = append(pillars, name+profile.StemTags[i]+profile.BranchTags[i])
	}
	fmt.Fprintf(w, "  사주팔자:    %s", strings.Join(pillars, "  "))
	if !profile.HourKnown {
		fmt.Fprintf(w, "  (시주 없음)")
	}
	fmt.Fprintln(w)

	var counts []string
	for _, element := range model.Elements() {
		counts = append(counts, fmt.Sprintf("%s %d", element.Hangul(), profile.Histogram[element]))
	}
	fmt.Fprintf(w, "  오행 분포:   %s\n", strings.Join(counts, "  "))
	fmt.Fprintf(w, "  지배 오행:   %s\n", profile.Dominant().Hangul())
	fmt.Fprintln(w)
}

// RenderLuckyNumbers prints the histogram-derived number ranges.
func (r *Renderer) RenderLuckyNumbers(w io.Writer, numbers []int) {
	if len(numbers) == 0 {
		return
	}
	fmt.Fprintf(w, "  행운 번호:   %s\n\n", joinInts(numbers))
}

// RenderForecast prints the complete prediction output.
func (r *Renderer) RenderForecast(w io.Writer, res *ForecastResult) {
	r.RenderProfile(w, res.Profile)

	if res.Analysis != nil {
		r.RenderAnalysis(w, res.Analysis)
	}

	banner(w, "예측 결과")
	fmt.Fprintf(w, "  예측 번호:   %s\n", joinInts(res.Prediction.Numbers))
	fmt.Fprintf(w, "  신뢰도:      %.2f%%\n", res.Prediction.Confidence*100)
	fmt.Fprintf(w, "  방식:        %s\n", res.Prediction.Method)
	if res.Prediction.Enhanced {
		fmt.Fprintf(w, "  지식 보강:   적용됨\n")
	}
	fmt.Fprintln(w)

	r.renderScores(w, res.Prediction.Scores)

	if res.Enhancement != nil {
		r.RenderEnhancement(w, res.Enhancement)
	}

	if res.SavedID > 0 {
		fmt.Fprintf(w, "✓ 예측 저장됨 (#%d)\n\n", res.SavedID)
	}
}

func (r *Renderer) renderScores(w io.Writer, scores []model.ScoredNumber) {
	if len(scores) == 0 {
		return
	}
	rows := scores
	if len(rows) > r.scoreRows {
		rows = rows[:r.scoreRows]
	}

	fmt.Fprintf(w, "  순위  번호  오행  빈도  가중치  점수     적합도\n")
	for i, s := range rows {
		fmt.Fprintf(w, "  %4d  %4d  %s    %4d  %6.2f  %7.2f  %5.1f%%\n",
			i+1, s.Number, s.Element.Hangul(), s.Frequency, s.Weight, s.Score, s.Compatibility)
	}
	fmt.Fprintf(w, "\n  %s\n\n", rows[0].Explanation)
}

// RenderEnhancement prints what the knowledge aggregation contributed.
func (r *Renderer) RenderEnhancement(w io.Writer, enh *model.EnhancementResult) {
	if len(enh.RelevantKnowledge) == 0 {
		fmt.Fprintf(w, "  활용 지식:   없음\n\n")
		return
	}

	fmt.Fprintf(w, "  활용 지식:   %d건 (신뢰도 보정 +%.2f)\n", len(enh.RelevantKnowledge), enh.ConfidenceBoost)

	if len(enh.ElementAdjustments) > 0 {
		var parts []string
		for _, element := range model.Elements() {
			delta, ok := enh.ElementAdjustments[element]
			if !ok {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %+.2f", element.Hangul(), delta))
		}
		fmt.Fprintf(w, "  오행 조정:   %s\n", strings.Join(parts, "  "))
	}

	for _, line := range enh.Recommendations {
		fmt.Fprintf(w, "  - %s\n", line)
	}
	fmt.Fprintln(w)
}

// RenderAnalysis prints draw history statistics.
func (r *Renderer) RenderAnalysis(w io.Writer, analysis *score.DrawAnalysis) {
	banner(w, "당첨 이력 분석")
	fmt.Fprintf(w, "  당첨 회차:   %d회 (번호 %d개)\n", analysis.TotalDraws, analysis.TotalNumbers)

	if len(analysis.TopNumbers) > 0 {
		top := analysis.TopNumbers
		if len(top) > 10 {
			top = top[:10]
		}
		var parts []string
		for _, nf := range top {
			parts = append(parts, fmt.Sprintf("%d(%d)", nf.Number, nf.Count))
		}
		fmt.Fprintf(w, "  최다 번호:   %s\n", strings.Join(parts, " "))
	}

	var shares []string
	for _, share := range analysis.Elements {
		shares = append(shares, fmt.Sprintf("%s %.1f%%", share.Element.Hangul(), share.Percent))
	}
	fmt.Fprintf(w, "  오행 비중:   %s\n\n", strings.Join(shares, "  "))
}

// RenderSummary prints the aggregate store view.
func (r *Renderer) RenderSummary(w io.Writer, summary *model.KnowledgeSummary) {
	banner(w, "지식 저장소 현황")
	fmt.Fprintf(w, "  총 지식:     %d건\n", summary.TotalCount)
	fmt.Fprintf(w, "  평균 신뢰도: %.2f\n", summary.AverageConfidence)

	if len(summary.TypeDistribution) > 0 {
		var parts []string
		for _, kind := range []model.SentenceType{
			model.SentencePersonality, model.SentenceInterpretation, model.SentencePrediction,
			model.SentenceRelationship, model.SentenceHealth, model.SentenceWealth, model.SentenceGeneral,
		} {
			if count, ok := summary.TypeDistribution[kind]; ok {
				parts = append(parts, fmt.Sprintf("%s %d", kind, count))
			}
		}
		fmt.Fprintf(w, "  유형 분포:   %s\n", strings.Join(parts, "  "))
	}

	if len(summary.TopTerms) > 0 {
		var parts []string
		for _, tc := range summary.TopTerms {
			parts = append(parts, fmt.Sprintf("%s(%d)", tc.Term, tc.Frequency))
		}
		fmt.Fprintf(w, "  상위 용어:   %s\n", strings.Join(parts, " "))
	}

	if len(summary.PerSource) > 0 {
		fmt.Fprintf(w, "  출처 수:     %d\n", len(summary.PerSource))
	}
	fmt.Fprintln(w)
}

// RenderRecords prints search results or recent records.
func (r *Renderer) RenderRecords(w io.Writer, records []model.KnowledgeRecord) {
	if len(records) == 0 {
		fmt.Fprintf(w, "검색 결과가 없습니다.\n")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "  [%.2f] (%s) %s\n", rec.Confidence, rec.SentenceType, rec.Content)
		if rec.SourceTitle != "" {
			fmt.Fprintf(w, "         출처: %s\n", rec.SourceTitle)
		}
	}
	fmt.Fprintln(w)
}

// RenderPredictions prints saved prediction history, newest first.
func (r *Renderer) RenderPredictions(w io.Writer, predictions []model.SavedPrediction) {
	if len(predictions) == 0 {
		fmt.Fprintf(w, "저장된 예측이 없습니다.\n")
		return
	}
	for _, p := range predictions {
		hour := "--"
		if p.BirthHour >= 0 {
			hour = fmt.Sprintf("%02d", p.BirthHour)
		}
		marker := ""
		if p.Enhanced {
			marker = "  보강"
		}
		fmt.Fprintf(w, "  #%-4d %s  %s %s시  [%s]  신뢰도 %.2f%%%s\n",
			p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.BirthDate, hour,
			joinInts(p.Numbers), p.Confidence*100, marker)
	}
	fmt.Fprintln(w)
}

// RenderOutcomes prints per-source ingestion results.
func (r *Renderer) RenderOutcomes(w io.Writer, outcomes []SourceOutcome) {
	kept, failed := 0, 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", outcome.SourceID, outcome.Err)
			continue
		}
		kept += outcome.Kept
		fmt.Fprintf(w, "✓ %s: %d건 저장, %d건 제외\n", outcome.SourceID, outcome.Kept, outcome.Discarded)
	}
	fmt.Fprintf(w, "\n  출처 %d개 중 %d개 실패, 지식 %d건 저장\n\n", len(outcomes), failed, kept)
}

func banner(w io.Writer, title string) {
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
}

func joinInts(numbers []int) string {
	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, " ")
}
