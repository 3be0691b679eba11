// Package store persists classified knowledge records and saved
// predictions. The SQLite implementation is the durable backend; Memory
// mirrors its semantics for tests and ephemeral runs, and Cached wraps
// either one with a read-through TTL cache.
package store

import (
	"context"
	"strings"

	"github.com/sajulotto/service/internal/model"
)

// Store is the persistence boundary for knowledge records and predictions.
// All read methods are safe for concurrent use with Append.
type Store interface {
	// Append validates and inserts one record atomically, updating the
	// per-term frequency counters in the same transaction. Returns the
	// assigned id.
	Append(ctx context.Context, rec *model.KnowledgeRecord) (int64, error)

	// Search returns records whose content or serialized matched terms
	// contain query as a case-sensitive substring, ordered by confidence
	// descending, then recency descending, then id descending. A limit
	// of zero or less means no limit.
	Search(ctx context.Context, query string, limit int) ([]model.KnowledgeRecord, error)

	// Recent returns the newest records, recency descending then id
	// descending. A limit of zero or less means no limit.
	Recent(ctx context.Context, limit int) ([]model.KnowledgeRecord, error)

	// Summary computes the aggregate view fresh from the current contents.
	Summary(ctx context.Context) (*model.KnowledgeSummary, error)

	// PurgeBelow deletes every record with confidence strictly below the
	// threshold and returns the number removed.
	PurgeBelow(ctx context.Context, threshold float64) (int64, error)

	// SavePrediction persists a prediction and returns its assigned id.
	SavePrediction(ctx context.Context, p *model.SavedPrediction) (int64, error)

	// Predictions returns saved predictions, newest first. A limit of
	// zero or less means no limit.
	Predictions(ctx context.Context, limit int) ([]model.SavedPrediction, error)

	Close() error
}

// topTermCount bounds the term ranking included in a summary.
const topTermCount = 10

// escapeLike escapes LIKE metacharacters so a query string only ever
// matches literally.
func escapeLike(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(query)
}
