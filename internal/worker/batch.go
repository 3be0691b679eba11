package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchRunner executes job batches on a fresh pool per run and logs the
// run boundary with a unique run id. Jobs carry their own domain types;
// the runner only cares that they fail or succeed.
type BatchRunner struct {
	concurrency int
}

// NewBatchRunner creates a runner using the given worker count per run.
func NewBatchRunner(concurrency int) *BatchRunner {
	return &BatchRunner{concurrency: concurrency}
}

// Run executes all jobs and returns their results in completion order.
// Cancelling ctx stops the run before the next job begins.
func (b *BatchRunner) Run(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	run := uuid.NewString()
	start := time.Now()
	logrus.WithFields(logrus.Fields{
		"run":   run,
		"count": len(jobs),
	}).Info("batch started")

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for _, job := range jobs {
		pool.Submit(job)
	}
	results := pool.Wait()

	failed := 0
	for _, result := range results {
		if result.GetError() != nil {
			failed++
		}
	}
	logrus.WithFields(logrus.Fields{
		"run":      run,
		"count":    len(results),
		"failed":   failed,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("batch finished")

	return results
}
