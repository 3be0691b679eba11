// Package pipeline wires source loading, classification, persistence,
// knowledge aggregation and scoring into the operations the CLI runs.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sajulotto/service/internal/cache"
	"github.com/sajulotto/service/internal/classify"
	"github.com/sajulotto/service/internal/enhance"
	"github.com/sajulotto/service/internal/model"
	"github.com/sajulotto/service/internal/saju"
	"github.com/sajulotto/service/internal/score"
	"github.com/sajulotto/service/internal/store"
	"github.com/sajulotto/service/internal/util"
	"github.com/sajulotto/service/internal/worker"
)

// Pipeline orchestrates ingestion and the prediction read path.
type Pipeline struct {
	classifier *classify.Classifier
	store      store.Store
	enhancer   *enhance.Enhancer
	engine     *score.Engine
	loader     *SourceLoader
	config     *model.Config
	progress   func(SourceOutcome)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress registers a hook invoked after each batch source
// finishes. The hook runs on worker goroutines.
func WithProgress(fn func(SourceOutcome)) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// NewPipeline creates a pipeline over the given store.
func NewPipeline(cfg *model.Config, st store.Store, opts ...Option) *Pipeline {
	var pages cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			// Pages and store reads get separate disk namespaces so
			// clearing one never evicts the other.
			pages = cache.NewLayeredCache(cfg.Cache.MemoryTTL, filepath.Join(cfg.Cache.Dir, "pages"), cfg.Cache.DiskTTL)
		} else {
			pages = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		}
	}

	robots := util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	limiter := worker.NewHostLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)

	p := &Pipeline{
		classifier: classify.NewClassifier(classify.DefaultDictionary(), cfg.Ingest.DefaultTag),
		store:      st,
		enhancer: enhance.NewEnhancer(st,
			enhance.WithSearchTimeout(cfg.Enhance.SearchTimeout),
			enhance.WithSearchLimit(cfg.Enhance.SearchLimit)),
		engine: score.NewEngine(),
		loader: NewSourceLoader(NewFetcher(cfg.HTTP, robots, limiter), pages),
		config: cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Loader returns the source loader for resolving ingestion arguments.
func (p *Pipeline) Loader() *SourceLoader {
	return p.loader
}

// SourceOutcome is the per-source result of ingestion.
type SourceOutcome struct {
	SourceID  string `json:"source_id"`
	Kept      int    `json:"kept"`      // Records persisted
	Discarded int    `json:"discarded"` // Records below the confidence floor
	Err       error  `json:"-"`
}

// GetError implements worker.Result.
func (o SourceOutcome) GetError() error {
	return o.Err
}

// IngestSource classifies one source and persists every record scoring
// above the configured confidence floor. Cancellation is honored between
// record writes; each write is one transaction, so a cancelled ingest
// never leaves a partial record.
func (p *Pipeline) IngestSource(ctx context.Context, src Source) (SourceOutcome, error) {
	outcome := SourceOutcome{SourceID: src.ID}
	if err := src.Validate(); err != nil {
		outcome.Err = err
		return outcome, err
	}

	records := p.classifier.Classify(src.ID, src.Title, src.Text)
	for i := range records {
		if src.Tag != "" {
			records[i].SourceTag = src.Tag
		}
		if records[i].Confidence <= p.config.Ingest.MinConfidence {
			outcome.Discarded++
			continue
		}
		if err := ctx.Err(); err != nil {
			outcome.Err = err
			return outcome, err
		}
		if _, err := p.store.Append(ctx, &records[i]); err != nil {
			outcome.Err = fmt.Errorf("append record: %w", err)
			return outcome, outcome.Err
		}
		outcome.Kept++
	}
	return outcome, nil
}

// ingestJob runs one source through IngestSource on the worker pool.
type ingestJob struct {
	pipeline *Pipeline
	source   Source
}

// Execute implements worker.Job.
func (j ingestJob) Execute(ctx context.Context) worker.Result {
	outcome, _ := j.pipeline.IngestSource(ctx, j.source)
	if j.pipeline.progress != nil {
		j.pipeline.progress(outcome)
	}
	return outcome
}

// IngestBatch ingests sources concurrently on the worker pool. A failing
// source yields an outcome carrying its error and the batch continues;
// outcomes arrive in completion order.
func (p *Pipeline) IngestBatch(ctx context.Context, sources []Source) []SourceOutcome {
	jobs := make([]worker.Job, 0, len(sources))
	for _, src := range sources {
		jobs = append(jobs, ingestJob{pipeline: p, source: src})
	}

	runner := worker.NewBatchRunner(p.config.Concurrency.Workers)
	results := runner.Run(ctx, jobs)

	outcomes := make([]SourceOutcome, 0, len(results))
	for _, result := range results {
		outcome, ok := result.(SourceOutcome)
		if !ok {
			continue
		}
		if outcome.Err != nil {
			logrus.WithError(outcome.Err).WithField("source", outcome.SourceID).
				Warn("source ingestion failed, skipping")
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Enhance resolves the birth profile and aggregates stored knowledge for
// it. Pass hour -1 when the birth hour is unknown.
func (p *Pipeline) Enhance(ctx context.Context, year, month, day, hour int) (*model.ElementProfile, model.EnhancementResult, error) {
	profile, err := resolveProfile(year, month, day, hour)
	if err != nil {
		return nil, model.EnhancementResult{}, err
	}
	return profile, p.enhancer.Enhance(ctx, profile), nil
}

// ForecastRequest describes one end-to-end prediction.
type ForecastRequest struct {
	Year  int
	Month int
	Day   int
	Hour  int // -1 when unknown

	DrawsPath string // CSV draw history; empty means no history
	Count     int    // Numbers to select; non-positive uses the config default
	NoEnhance bool   // Skip knowledge aggregation
	Uniform   bool   // Substitute a uniform table when no history is given
	Save      bool   // Persist the prediction
}

// ForecastResult is the complete read-path output.
type ForecastResult struct {
	Profile     *model.ElementProfile    `json:"profile"`
	Prediction  *model.PredictionResult  `json:"prediction"`
	Enhancement *model.EnhancementResult `json:"enhancement,omitempty"`
	Analysis    *score.DrawAnalysis      `json:"analysis,omitempty"`
	SavedID     int64                    `json:"saved_id,omitempty"`
}

/// Forecast runs the full read path: resolve the profile, build the
// frequency table, aggregate knowledge and score. With neither a draws
// file nor the uniform substitution the engine reports insufficient
// history.
func (p *Pipeline) Forecast(ctx context.Context, req ForecastRequest) (*ForecastResult, error) {
	if req.Hour < 0 {
		req.Hour = -1
	}
	profile, err := resolveProfile(req.Year, req.Month, req.Day, req.Hour)
	if err != nil {
		return nil, err
	}

	table := model.FrequencyTable{}
	var analysis *score.DrawAnalysis
	switch {
	case req.DrawsPath != "":
		draws, err := score.LoadDrawsCSV(req.DrawsPath)
		if err != nil {
			return nil, fmt.Errorf("load draw history: %w", err)
		}
		table = score.BuildFrequencyTable(draws)
		analysis = score.AnalyzeDraws(draws)
	case req.Uniform:
		table = model.UniformTable()
	}

	var enh *model.EnhancementResult
	if !req.NoEnhance && p.config.Enhance.Enabled {
		result := p.enhancer.Enhance(ctx, profile)
		enh = &result
	}

	count := req.Count
	if count <= 0 {
		count = p.config.Predict.Count
	}

	prediction, err := p.engine.Predict(table, profile, enh, count)
	if err != nil {
		return nil, err
	}

	res := &ForecastResult{
		Profile:     profile,
		Prediction:  prediction,
		Enhancement: enh,
		Analysis:    analysis,
	}

	if req.Save {
		saved := &model.SavedPrediction{
			BirthDate:  fmt.Sprintf("%04d-%02d-%02d", req.Year, req.Month, req.Day),
			BirthHour:  req.Hour,
			Numbers:    prediction.Numbers,
			Confidence: prediction.Confidence,
			Method:     prediction.Method,
			Enhanced:   prediction.Enhanced,
			CreatedAt:  time.Now().UTC(),
		}
		id, err := p.store.SavePrediction(ctx, saved)
		if err != nil {
			return nil, fmt.Errorf("save prediction: %w", err)
		}
		res.SavedID = id
	}

	return res, nil
}

func resolveProfile(year, month, day, hour int) (*model.ElementProfile, error) {
	if hour < 0 {
		return saju.Resolve(year, month, day)
	}
	return saju.ResolveWithHour(year, month, day, hour)
}
