package worker

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestBatchRunner_RunsAllJobs(t *testing.T) {
	runner := NewBatchRunner(4)

	var executed int32
	jobs := make([]Job, 12)
	for i := range jobs {
		jobs[i] = &mockJob{executed: &executed, shouldErr: i%3 == 0}
	}

	results := runner.Run(context.Background(), jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	if atomic.LoadInt32(&executed) != int32(len(jobs)) {
		t.Errorf("expected %d executed jobs, got %d", len(jobs), executed)
	}

	failed := 0
	for _, result := range results {
		if result.GetError() != nil {
			failed++
		}
	}
	if failed != 4 {
		t.Errorf("expected 4 failed jobs, got %d", failed)
	}
}

func TestBatchRunner_EmptyBatch(t *testing.T) {
	runner := NewBatchRunner(2)

	if results := runner.Run(context.Background(), nil); results != nil {
		t.Errorf("expected no results for an empty batch, got %v", results)
	}
}
