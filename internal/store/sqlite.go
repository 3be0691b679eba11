package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sajulotto/service/internal/model"
)

// timeLayout keeps a fixed-width fraction so the TEXT timestamp column
// sorts chronologically under plain string comparison.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// recordColumns is the scan order shared by every knowledge query.
const recordColumns = `id, source_id, source_title, content, matched_terms, sentence_type, confidence, source_tag, created_at`

// SQLite is the durable Store backed by a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates the
// schema. The parent directory is created if missing.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w: %v", model.ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+
		"?_pragma=journal_mode(WAL)"+
		"&_pragma=busy_timeout(5000)"+
		"&_pragma=synchronous(NORMAL)"+
		"&_pragma=case_sensitive_like(ON)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w: %v", model.ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w: %v", model.ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w: %v", model.ErrStoreUnavailable, err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append inserts the record and bumps its term counters in one transaction.
func (s *SQLite) Append(ctx context.Context, rec *model.KnowledgeRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	terms, err := json.Marshal(rec.MatchedTerms)
	if err != nil {
		return 0, fmt.Errorf("marshal matched terms: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w: %v", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO knowledge (source_id, source_title, content, matched_terms, sentence_type, confidence, source_tag, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SourceID, rec.SourceTitle, rec.Content, string(terms),
		string(rec.SentenceType), rec.Confidence, rec.SourceTag,
		createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert knowledge: %w: %v", model.ErrStoreUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("knowledge id: %w: %v", model.ErrStoreUnavailable, err)
	}

	for category, occurrences := range rec.MatchedTerms {
		counts := make(map[string]int, len(occurrences))
		for _, term := range occurrences {
			counts[term]++
		}
		for term, n := range counts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO term_stats (term, category, frequency) VALUES (?, ?, ?)
				 ON CONFLICT(term, category) DO UPDATE SET frequency = frequency + excluded.frequency`,
				term, category, n,
			); err != nil {
				return 0, fmt.Errorf("update term stats: %w: %v", model.ErrStoreUnavailable, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w: %v", model.ErrStoreUnavailable, err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return id, nil
}

// Search matches the query literally against content and the serialized
// matched-terms JSON.
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]model.KnowledgeRecord, error) {
	pattern := "%" + escapeLike(query) + "%"
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM knowledge
		 WHERE content LIKE ? ESCAPE '\' OR matched_terms LIKE ? ESCAPE '\'
		 ORDER BY confidence DESC, created_at DESC, id DESC
		 LIMIT ?`,
		pattern, pattern, noLimit(limit))
}

// Recent returns the newest records first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]model.KnowledgeRecord, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM knowledge
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		noLimit(limit))
}

// Summary recomputes the aggregate view from the live tables.
func (s *SQLite) Summary(ctx context.Context) (*model.KnowledgeSummary, error) {
	summary := &model.KnowledgeSummary{
		PerSource:        make(map[string]int64),
		TypeDistribution: make(map[model.SentenceType]int64),
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM knowledge`)
	if err := row.Scan(&summary.TotalCount, &summary.AverageConfidence); err != nil {
		return nil, fmt.Errorf("summary totals: %w: %v", model.ErrStoreUnavailable, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT source_id, COUNT(*) FROM knowledge GROUP BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("summary sources: %w: %v", model.ErrStoreUnavailable, err)
	}
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan source count: %w: %v", model.ErrStoreUnavailable, err)
		}
		summary.PerSource[source] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate source counts: %w: %v", model.ErrStoreUnavailable, err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT sentence_type, COUNT(*) FROM knowledge GROUP BY sentence_type`)
	if err != nil {
		return nil, fmt.Errorf("summary types: %w: %v", model.ErrStoreUnavailable, err)
	}
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan type count: %w: %v", model.ErrStoreUnavailable, err)
		}
		summary.TypeDistribution[model.SentenceType(kind)] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate type counts: %w: %v", model.ErrStoreUnavailable, err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT term, category, frequency FROM term_stats
		 ORDER BY frequency DESC, term ASC, category ASC
		 LIMIT ?`, topTermCount)
	if err != nil {
		return nil, fmt.Errorf("summary terms: %w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc model.TermCount
		if err := rows.Scan(&tc.Term, &tc.Category, &tc.Frequency); err != nil {
			return nil, fmt.Errorf("scan term count: %w: %v", model.ErrStoreUnavailable, err)
		}
		summary.TopTerms = append(summary.TopTerms, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate term counts: %w: %v", model.ErrStoreUnavailable, err)
	}

	return summary, nil
}

// PurgeBelow deletes records with confidence strictly below threshold.
func (s *SQLite) PurgeBelow(ctx context.Context, threshold float64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge WHERE confidence < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("purge knowledge: %w: %v", model.ErrStoreUnavailable, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge count: %w: %v", model.ErrStoreUnavailable, err)
	}
	return removed, nil
}

// SavePrediction persists the prediction and assigns its id.
func (s *SQLite) SavePrediction(ctx context.Context, p *model.SavedPrediction) (int64, error) {
	numbers, err := json.Marshal(p.Numbers)
	if err != nil {
		return 0, fmt.Errorf("marshal numbers: %w", err)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (birth_date, birth_hour, numbers, confidence, method, enhanced, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BirthDate, p.BirthHour, string(numbers), p.Confidence, p.Method, p.Enhanced,
		createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert prediction: %w: %v", model.ErrStoreUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("prediction id: %w: %v", model.ErrStoreUnavailable, err)
	}
	p.ID = id
	p.CreatedAt = createdAt
	return id, nil
}

// Predictions returns saved predictions, newest first.
func (s *SQLite) Predictions(ctx context.Context, limit int) ([]model.SavedPrediction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, birth_date, birth_hour, numbers, confidence, method, enhanced, created_at
		 FROM predictions
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, noLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var preds []model.SavedPrediction
	for rows.Next() {
		var (
			p         model.SavedPrediction
			numbers   string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.BirthDate, &p.BirthHour, &numbers,
			&p.Confidence, &p.Method, &p.Enhanced, &createdAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w: %v", model.ErrStoreUnavailable, err)
		}
		if err := json.Unmarshal([]byte(numbers), &p.Numbers); err != nil {
			return nil, fmt.Errorf("unmarshal numbers for prediction %d: %w", p.ID, err)
		}
		ts, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for prediction %d: %w", p.ID, err)
		}
		p.CreatedAt = ts
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w: %v", model.ErrStoreUnavailable, err)
	}
	return preds, nil
}

// noLimit maps "no limit" onto SQLite's negative LIMIT convention.
func noLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (s *SQLite) queryRecords(ctx context.Context, query string, args ...any) ([]model.KnowledgeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query knowledge: %w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []model.KnowledgeRecord
	for rows.Next() {
		var (
			rec       model.KnowledgeRecord
			terms     string
			kind      string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SourceID, &rec.SourceTitle, &rec.Content,
			&terms, &kind, &rec.Confidence, &rec.SourceTag, &createdAt); err != nil {
			return nil, fmt.Errorf("scan knowledge: %w: %v", model.ErrStoreUnavailable, err)
		}
		if err := json.Unmarshal([]byte(terms), &rec.MatchedTerms); err != nil {
			return nil, fmt.Errorf("unmarshal matched terms for record %d: %w", rec.ID, err)
		}
		rec.SentenceType = model.SentenceType(kind)
		ts, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for record %d: %w", rec.ID, err)
		}
		rec.CreatedAt = ts
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge: %w: %v", model.ErrStoreUnavailable, err)
	}
	return records, nil
}
