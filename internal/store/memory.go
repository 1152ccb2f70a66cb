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

// MemoryParams holds parameters for persisting a memory record. Strategy
// admission rules live in the memory manager; the store only rejects
// values outside the closed enums.
type MemoryParams struct {
	ConversationID string
	UserID         string
	Strategy       model.MemoryStrategy
	Type           model.MemoryType
	Content        string
	Context        map[string]any
	Priority       model.Priority
	Confidence     float64
	Relevance      float64
	RAGWeight      float64
	ExpiresAt      *time.Time
}

// CreateMemory persists a memory record.
func (s *SQLiteStore) CreateMemory(ctx context.Context, p MemoryParams) (*model.MemoryRecord, error) {
	if !model.ValidStrategies[p.Strategy] {
		return nil, fmt.Errorf("invalid memory strategy: %s", p.Strategy)
	}
	if !model.ValidMemoryTypes[p.Type] {
		return nil, fmt.Errorf("invalid memory type: %s", p.Type)
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}
	if p.RAGWeight == 0 {
		p.RAGWeight = 1.0
	}

	now := time.Now().UTC()
	m := &model.MemoryRecord{
		ID:             s.newID(),
		ConversationID: p.ConversationID,
		UserID:         p.UserID,
		Strategy:       p.Strategy,
		Type:           p.Type,
		Content:        p.Content,
		Context:        p.Context,
		Priority:       p.Priority,
		Confidence:     p.Confidence,
		Relevance:      p.Relevance,
		RAGWeight:      p.RAGWeight,
		IsActive:       true,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories
		 (id, conversation_id, user_id, memory_strategy, memory_type, content, context,
		  priority, confidence_score, relevance_score, rag_weight, is_active, expires_at,
		  access_count, has_influenced_kb, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, 0, 0, ?, ?)`,
		m.ID, m.ConversationID, m.UserID, string(m.Strategy), string(m.Type), m.Content,
		marshalJSON(m.Context), string(m.Priority), m.Confidence, m.Relevance, m.RAGWeight,
		fmtTimePtr(m.ExpiresAt), fmtTime(now), fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	return m, nil
}

// MemoryFilter narrows active-memory queries.
type MemoryFilter struct {
	ConversationID string
	UserID         string
	Type           model.MemoryType
	Types          []model.MemoryType
	Strategy       model.MemoryStrategy
	Priorities     []model.Priority
	Limit          int
}

// activeMemoryWhere limits queries to live records: active and not past
// their expiry timestamp.
const activeMemoryWhere = `is_active = 1 AND (expires_at IS NULL OR expires_at > ?)`

// ActiveMemories returns active, non-expired memories ordered by
// priority, relevance, then recency.
func (s *SQLiteStore) ActiveMemories(ctx context.Context, f MemoryFilter) ([]model.MemoryRecord, error) {
	where := []string{activeMemoryWhere}
	args := []any{fmtTime(time.Now())}

	if f.ConversationID != "" {
		where = append(where, "conversation_id = ?")
		args = append(args, f.ConversationID)
	}
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Type != "" {
		where = append(where, "memory_type = ?")
		args = append(args, string(f.Type))
	}
	if len(f.Types) > 0 {
		ph := make([]string, len(f.Types))
		for i, t := range f.Types {
			ph[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "memory_type IN ("+strings.Join(ph, ", ")+")")
	}
	if f.Strategy != "" {
		where = append(where, "memory_strategy = ?")
		args = append(args, string(f.Strategy))
	}
	if len(f.Priorities) > 0 {
		ph := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			ph[i] = "?"
			args = append(args, string(p))
		}
		where = append(where, "priority IN ("+strings.Join(ph, ", ")+")")
	}

	query := memorySelect + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY " + priorityRankSQL + " DESC, relevance_score DESC, created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return s.queryMemories(ctx, query, args...)
}

// RAGContextMemories returns active intent/preference/topic/context
// memories for retrieval enrichment, weighted by rag_weight then
// relevance, capped at 15.
func (s *SQLiteStore) RAGContextMemories(ctx context.Context, conversationID, userID string) ([]model.MemoryRecord, error) {
	where := []string{activeMemoryWhere, "memory_type IN ('intent', 'preference', 'topic', 'context')"}
	args := []any{fmtTime(time.Now())}
	if conversationID != "" {
		where = append(where, "conversation_id = ?")
		args = append(args, conversationID)
	}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	query := memorySelect + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY rag_weight DESC, relevance_score DESC, created_at DESC LIMIT 15"
	return s.queryMemories(ctx, query, args...)
}

// CrossLearningMemories returns active correction/feedback/insight
// memories that have not been processed yet, newest first, within the
// lookback window. userID is optional.
func (s *SQLiteStore) CrossLearningMemories(ctx context.Context, userID string, since time.Time) ([]model.MemoryRecord, error) {
	where := []string{
		activeMemoryWhere,
		"memory_type IN ('correction', 'feedback', 'insight')",
		"has_influenced_kb = 0",
		"created_at >= ?",
	}
	args := []any{fmtTime(time.Now()), fmtTime(since)}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	query := memorySelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"
	return s.queryMemories(ctx, query, args...)
}

// TopicMemories returns active topic memories created since the given
// time, for pattern aggregation.
func (s *SQLiteStore) TopicMemories(ctx context.Context, since time.Time) ([]model.MemoryRecord, error) {
	query := memorySelect + " WHERE " + activeMemoryWhere +
		" AND memory_type = 'topic' AND created_at >= ? ORDER BY created_at DESC"
	return s.queryMemories(ctx, query, fmtTime(time.Now()), fmtTime(since))
}

// MarkInfluencedKB flags a memory as processed by cross-learning,
// optionally linking the knowledge entry it produced. The flag never
// reverts.
func (s *SQLiteStore) MarkInfluencedKB(ctx context.Context, memoryID, kbEntryID string) error {
	var kb *string
	if kbEntryID != "" {
		kb = &kbEntryID
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET has_influenced_kb = 1,
		        kb_entry_id = COALESCE(?, kb_entry_id), updated_at = ?
		 WHERE id = ?`,
		kb, fmtTime(time.Now()), memoryID)
	return err
}

// TouchMemory records an access: bumps the counter and stamps the time.
func (s *SQLiteStore) TouchMemory(ctx context.Context, id string) error {
	now := fmtTime(time.Now())
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	return err
}

// ExtendMemoryExpiry pushes a memory's expiry forward by d from now or
// from its current expiry, whichever is later.
func (s *SQLiteStore) ExtendMemoryExpiry(ctx context.Context, id string, d time.Duration) error {
	row := s.db.QueryRowContext(ctx, `SELECT expires_at FROM memories WHERE id = ?`, id)
	var expires sql.NullString
	if err := row.Scan(&expires); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("memory not found: %s", id)
		}
		return err
	}

	base := time.Now().UTC()
	if cur := parseTimePtr(expires); cur != nil && cur.After(base) {
		base = *cur
	}
	next := base.Add(d)
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET expires_at = ?, updated_at = ? WHERE id = ?`,
		fmtTime(next), fmtTime(time.Now()), id)
	return err
}

// CleanupExpiredMemories deactivates active memories past their expiry and
// returns how many were deactivated. Safe to call repeatedly.
func (s *SQLiteStore) CleanupExpiredMemories(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET is_active = 0, updated_at = ?
		 WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at < ?`,
		fmtTime(time.Now()), fmtTime(time.Now()))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

const memorySelect = `
	SELECT id, conversation_id, user_id, memory_strategy, memory_type, content, context,
	       priority, confidence_score, relevance_score, rag_weight, is_active, expires_at,
	       access_count, last_accessed, has_influenced_kb, kb_entry_id, created_at, updated_at
	FROM memories`

func (s *SQLiteStore) queryMemories(ctx context.Context, query string, args ...any) ([]model.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.MemoryRecord
	for rows.Next() {
		m, err := scanMemoryRecord(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func scanMemoryRecord(row scanner) (model.MemoryRecord, error) {
	var m model.MemoryRecord
	var strategy, mtype, priority, createdAt, updatedAt string
	var contextJSON, expiresAt, lastAccessed, kbEntryID sql.NullString
	var active, influenced int

	err := row.Scan(&m.ID, &m.ConversationID, &m.UserID, &strategy, &mtype, &m.Content,
		&contextJSON, &priority, &m.Confidence, &m.Relevance, &m.RAGWeight, &active,
		&expiresAt, &m.AccessCount, &lastAccessed, &influenced, &kbEntryID, &createdAt, &updatedAt)
	if err != nil {
		return m, err
	}

	m.Strategy = model.MemoryStrategy(strategy)
	m.Type = model.MemoryType(mtype)
	m.Priority = model.Priority(priority)
	m.IsActive = active != 0
	m.InfluencedKB = influenced != 0
	m.ExpiresAt = parseTimePtr(expiresAt)
	m.LastAccessed = parseTimePtr(lastAccessed)
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	if kbEntryID.Valid {
		m.KBEntryID = kbEntryID.String
	}
	if contextJSON.Valid {
		json.Unmarshal([]byte(contextJSON.String), &m.Context)
	}
	return m, nil
}
