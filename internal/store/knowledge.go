// Package store persists the knowledge base and conversational memory in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eduassist/campusrag/internal/model"
)

// DatasetParams holds parameters for creating a dataset.
type DatasetParams struct {
	Name        string
	Type        string
	Version     string
	Description string
	Status      model.DatasetStatus
}

// CreateDataset creates a new dataset.
func (s *SQLiteStore) CreateDataset(ctx context.Context, p DatasetParams) (*model.Dataset, error) {
	now := time.Now().UTC()
	d := &model.Dataset{
		ID:          s.newID(),
		Name:        p.Name,
		Type:        p.Type,
		Version:     p.Version,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if d.Type == "" {
		d.Type = "general"
	}
	if d.Version == "" {
		d.Version = "1.0"
	}
	if d.Status == "" {
		d.Status = model.DatasetActive
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, type, version, description, status, usage_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		d.ID, d.Name, d.Type, d.Version, d.Description, string(d.Status), fmtTime(now), fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert dataset: %w", err)
	}
	return d, nil
}

// GetOrCreateDataset returns the dataset with the given name and type,
// creating it when missing.
func (s *SQLiteStore) GetOrCreateDataset(ctx context.Context, name, dtype, description string) (*model.Dataset, error) {
	d, err := s.getDatasetWhere(ctx, "name = ? AND type = ?", name, dtype)
	if err == nil {
		return d, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	return s.CreateDataset(ctx, DatasetParams{Name: name, Type: dtype, Description: description})
}

// GetDataset returns a dataset by id.
func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	d, err := s.getDatasetWhere(ctx, "id = ?", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dataset not found: %s", id)
	}
	return d, err
}

func (s *SQLiteStore) getDatasetWhere(ctx context.Context, where string, args ...any) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, version, description, status, usage_count, last_used, created_at, updated_at
		 FROM datasets WHERE `+where+` ORDER BY created_at DESC LIMIT 1`, args...)

	var d model.Dataset
	var status, createdAt, updatedAt string
	var lastUsed sql.NullString
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Version, &d.Description, &status,
		&d.UsageCount, &lastUsed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = model.DatasetStatus(status)
	d.LastUsed = parseTimePtr(lastUsed)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// TouchDataset increments usage count and stamps last-used time.
func (s *SQLiteStore) TouchDataset(ctx context.Context, id string) error {
	now := fmtTime(time.Now())
	_, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET usage_count = usage_count + 1, last_used = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	return err
}

// SetDatasetStatus moves a dataset through its active/inactive/archived
// lifecycle.
func (s *SQLiteStore) SetDatasetStatus(ctx context.Context, id string, status model.DatasetStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), fmtTime(time.Now()), id)
	return err
}

// EntryParams holds parameters for creating a knowledge entry.
type EntryParams struct {
	DatasetID       string
	Question        string
	Answer          string
	Category        string
	EntryType       model.EntryType
	Keywords        []string
	Metadata        map[string]any
	ConfidenceScore float64
	IsValidated     bool
}

// CreateEntry inserts a knowledge entry into a dataset.
func (s *SQLiteStore) CreateEntry(ctx context.Context, p EntryParams) (*model.KnowledgeEntry, error) {
	if p.EntryType == "" {
		p.EntryType = model.EntryGeneral
	}
	if !model.ValidEntryTypes[p.EntryType] {
		return nil, fmt.Errorf("invalid entry type: %s", p.EntryType)
	}

	now := time.Now().UTC()
	e := &model.KnowledgeEntry{
		ID:              s.newID(),
		DatasetID:       p.DatasetID,
		Question:        p.Question,
		Answer:          p.Answer,
		Category:        p.Category,
		EntryType:       p.EntryType,
		Keywords:        p.Keywords,
		Metadata:        p.Metadata,
		ConfidenceScore: p.ConfidenceScore,
		IsValidated:     p.IsValidated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_entries
		 (id, dataset_id, question, answer, category, entry_type, keywords, metadata,
		  confidence_score, is_validated, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DatasetID, e.Question, e.Answer, e.Category, string(e.EntryType),
		marshalJSON(e.Keywords), marshalJSON(e.Metadata),
		e.ConfidenceScore, boolInt(e.IsValidated), fmtTime(now), fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// GetEntry returns a non-deleted entry by id.
func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*model.KnowledgeEntry, error) {
	rows, err := s.queryEntries(ctx, "e.id = ? AND e.deleted_at IS NULL", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("entry not found: %s", id)
	}
	return &rows[0], nil
}

// activeEntryWhere limits queries to searchable entries: not soft-deleted
// and belonging to an active dataset.
const activeEntryWhere = `e.deleted_at IS NULL AND d.status = 'active'`

// ActiveEntries returns all searchable entries.
func (s *SQLiteStore) ActiveEntries(ctx context.Context) ([]model.KnowledgeEntry, error) {
	return s.queryEntries(ctx, activeEntryWhere)
}

// ValidatedEntries returns searchable entries with the validation flag set.
// The vector index is built from these.
func (s *SQLiteStore) ValidatedEntries(ctx context.Context) ([]model.KnowledgeEntry, error) {
	return s.queryEntries(ctx, activeEntryWhere+" AND e.is_validated = 1")
}

// SearchEntriesText returns searchable entries whose question or answer
// contains the needle (case-insensitive).
func (s *SQLiteStore) SearchEntriesText(ctx context.Context, needle string) ([]model.KnowledgeEntry, error) {
	like := "%" + strings.ToLower(needle) + "%"
	return s.queryEntries(ctx,
		activeEntryWhere+" AND (LOWER(e.question) LIKE ? OR LOWER(e.answer) LIKE ?)",
		like, like)
}

// SearchEntriesAny returns searchable entries matching any keyword in
// question, answer, or stored keyword list.
func (s *SQLiteStore) SearchEntriesAny(ctx context.Context, keywords []string) ([]model.KnowledgeEntry, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	var conds []string
	var args []any
	for _, kw := range keywords {
		like := "%" + strings.ToLower(kw) + "%"
		conds = append(conds, "(LOWER(e.question) LIKE ? OR LOWER(e.answer) LIKE ? OR LOWER(e.keywords) LIKE ?)")
		args = append(args, like, like, like)
	}
	where := activeEntryWhere + " AND (" + strings.Join(conds, " OR ") + ")"
	return s.queryEntries(ctx, where, args...)
}

// SearchEntriesKeywords returns searchable entries whose stored keyword
// list matches any of the given keywords, optionally restricted to
// categories.
func (s *SQLiteStore) SearchEntriesKeywords(ctx context.Context, keywords, categories []string) ([]model.KnowledgeEntry, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	var kwConds []string
	var args []any
	for _, kw := range keywords {
		kwConds = append(kwConds, "LOWER(e.keywords) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	where := activeEntryWhere + " AND (" + strings.Join(kwConds, " OR ") + ")"

	if len(categories) > 0 {
		var catConds []string
		for _, c := range categories {
			catConds = append(catConds, "LOWER(e.category) LIKE ?")
			args = append(args, "%"+strings.ToLower(c)+"%")
		}
		where += " AND (" + strings.Join(catConds, " OR ") + ")"
	}
	return s.queryEntries(ctx, where, args...)
}

// EntriesByCategory returns searchable entries in a category
// (substring match, case-insensitive).
func (s *SQLiteStore) EntriesByCategory(ctx context.Context, category string) ([]model.KnowledgeEntry, error) {
	return s.queryEntries(ctx,
		activeEntryWhere+" AND LOWER(e.category) LIKE ?",
		"%"+strings.ToLower(category)+"%")
}

// EntryExistsForTopic reports whether a dataset already holds an entry
// mentioning the topic in its question.
func (s *SQLiteStore) EntryExistsForTopic(ctx context.Context, datasetID, topic string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM knowledge_entries
		 WHERE dataset_id = ? AND deleted_at IS NULL AND LOWER(question) LIKE ?`,
		datasetID, "%"+strings.ToLower(topic)+"%").Scan(&n)
	return n > 0, err
}

// SoftDeleteEntry marks an entry deleted without removing it.
func (s *SQLiteStore) SoftDeleteEntry(ctx context.Context, id string) error {
	now := fmtTime(time.Now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_entries SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry not found: %s", id)
	}
	return nil
}

// RestoreEntry clears an entry's deletion marker.
func (s *SQLiteStore) RestoreEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_entries SET deleted_at = NULL, updated_at = ? WHERE id = ?`,
		fmtTime(time.Now()), id)
	return err
}

// ListEntriesParams filters the admin/debug listing path.
type ListEntriesParams struct {
	DatasetID      string
	Category       string
	IncludeDeleted bool
	Limit          int
}

// ListEntries lists entries for admin and export use. Unlike the search
// paths it can include soft-deleted entries and inactive datasets.
func (s *SQLiteStore) ListEntries(ctx context.Context, p ListEntriesParams) ([]model.KnowledgeEntry, error) {
	where := []string{"1=1"}
	var args []any
	if !p.IncludeDeleted {
		where = append(where, "e.deleted_at IS NULL")
	}
	if p.DatasetID != "" {
		where = append(where, "e.dataset_id = ?")
		args = append(args, p.DatasetID)
	}
	if p.Category != "" {
		where = append(where, "LOWER(e.category) LIKE ?")
		args = append(args, "%"+strings.ToLower(p.Category)+"%")
	}
	q := strings.Join(where, " AND ")
	if p.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", p.Limit)
	}
	return s.queryEntries(ctx, q, args...)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, where string, args ...any) ([]model.KnowledgeEntry, error) {
	query := `
		SELECT e.id, e.dataset_id, e.question, e.answer, e.category, e.entry_type,
		       e.keywords, e.metadata, e.confidence_score, e.is_validated,
		       e.created_at, e.updated_at, e.deleted_at
		FROM knowledge_entries e
		INNER JOIN datasets d ON d.id = e.dataset_id
		WHERE ` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.KnowledgeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (model.KnowledgeEntry, error) {
	var e model.KnowledgeEntry
	var entryType, createdAt, updatedAt string
	var keywords, metadata, deletedAt sql.NullString
	var validated int

	err := row.Scan(&e.ID, &e.DatasetID, &e.Question, &e.Answer, &e.Category, &entryType,
		&keywords, &metadata, &e.ConfidenceScore, &validated, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return e, err
	}

	e.EntryType = model.EntryType(entryType)
	e.IsValidated = validated != 0
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	e.DeletedAt = parseTimePtr(deletedAt)
	if keywords.Valid {
		json.Unmarshal([]byte(keywords.String), &e.Keywords)
	}
	if metadata.Valid {
		json.Unmarshal([]byte(metadata.String), &e.Metadata)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
