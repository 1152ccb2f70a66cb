package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/eduassist/campusrag/internal/model"
)

// ExportEntries returns all non-deleted entries, optionally restricted to
// one dataset, ordered for stable export output.
func (s *SQLiteStore) ExportEntries(ctx context.Context, datasetID string) ([]model.KnowledgeEntry, error) {
	where := "e.deleted_at IS NULL"
	var args []any
	if datasetID != "" {
		where += " AND e.dataset_id = ?"
		args = append(args, datasetID)
	}
	return s.queryEntries(ctx, where+" ORDER BY e.category, e.question", args...)
}

// ImportEntries stores entries into a dataset, skipping questions the
// dataset already holds. A bad record does not abort the batch: the rest
// still imports, and the returned error reports every record that failed.
func (s *SQLiteStore) ImportEntries(ctx context.Context, datasetID string, entries []EntryParams) (int, error) {
	imported := 0
	var errs []error
	for _, p := range entries {
		exists, err := s.EntryExistsForTopic(ctx, datasetID, p.Question)
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", p.Question, err))
			continue
		}
		if exists {
			continue
		}
		p.DatasetID = datasetID
		if _, err := s.CreateEntry(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", p.Question, err))
			continue
		}
		imported++
	}
	return imported, errors.Join(errs...)
}
