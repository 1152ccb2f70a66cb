package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath            string          `json:"db_path"`
	DBSizeBytes       int64           `json:"db_size_bytes"`
	Datasets          int             `json:"datasets"`
	ActiveDatasets    int             `json:"active_datasets"`
	TotalEntries      int             `json:"total_entries"`
	ActiveEntries     int             `json:"active_entries"`
	ValidatedEntries  int             `json:"validated_entries"`
	Conversations     int             `json:"conversations"`
	Messages          int             `json:"messages"`
	TotalMemories     int             `json:"total_memories"`
	ActiveMemories    int             `json:"active_memories"`
	InfluencedKB      int             `json:"memories_influenced_kb"`
	Categories        []CategoryStats `json:"categories"`
	MemoryTypes       []TypeStats     `json:"memory_types"`
}

// CategoryStats holds per-category entry counts.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TypeStats holds per-memory-type counts.
type TypeStats struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&st.Datasets)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE status = 'active'`).Scan(&st.ActiveDatasets)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entries`).Scan(&st.TotalEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entries WHERE deleted_at IS NULL`).Scan(&st.ActiveEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entries WHERE deleted_at IS NULL AND is_validated = 1`).Scan(&st.ValidatedEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE deleted_at IS NULL`).Scan(&st.Conversations)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE deleted_at IS NULL`).Scan(&st.Messages)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE is_active = 1`).Scan(&st.ActiveMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE has_influenced_kb = 1`).Scan(&st.InfluencedKB)

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) as cnt
		FROM knowledge_entries WHERE deleted_at IS NULL
		GROUP BY category ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var c CategoryStats
		rows.Scan(&c.Category, &c.Count)
		st.Categories = append(st.Categories, c)
	}

	trows, err := s.db.QueryContext(ctx, `
		SELECT memory_type, COUNT(*) as cnt
		FROM memories WHERE is_active = 1
		GROUP BY memory_type ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer trows.Close()

	for trows.Next() {
		var t TypeStats
		trows.Scan(&t.Type, &t.Count)
		st.MemoryTypes = append(st.MemoryTypes, t)
	}

	return st, nil
}
