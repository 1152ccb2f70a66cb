package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists datasets, knowledge entries, conversations, and
// memory records in SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT 'general',
		version     TEXT NOT NULL DEFAULT '1.0',
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'active',
		usage_count INTEGER NOT NULL DEFAULT 0,
		last_used   TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets(name);
	CREATE INDEX IF NOT EXISTS idx_datasets_status ON datasets(status);

	CREATE TABLE IF NOT EXISTS knowledge_entries (
		id               TEXT PRIMARY KEY,
		dataset_id       TEXT NOT NULL REFERENCES datasets(id),
		question         TEXT NOT NULL,
		answer           TEXT NOT NULL,
		category         TEXT NOT NULL,
		entry_type       TEXT NOT NULL DEFAULT 'general',
		keywords         TEXT,
		metadata         TEXT,
		confidence_score REAL NOT NULL DEFAULT 0.8,
		is_validated     INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		deleted_at       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entries_dataset ON knowledge_entries(dataset_id);
	CREATE INDEX IF NOT EXISTS idx_entries_category ON knowledge_entries(category);
	CREATE INDEX IF NOT EXISTS idx_entries_type ON knowledge_entries(entry_type);
	CREATE INDEX IF NOT EXISTS idx_entries_validated ON knowledge_entries(is_validated);
	CREATE INDEX IF NOT EXISTS idx_entries_deleted ON knowledge_entries(deleted_at);

	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT 'New Conversation',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		sender          TEXT NOT NULL,
		content         TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		deleted_at      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS memories (
		id               TEXT PRIMARY KEY,
		conversation_id  TEXT NOT NULL REFERENCES conversations(id),
		user_id          TEXT NOT NULL,
		memory_strategy  TEXT NOT NULL DEFAULT 'hybrid',
		memory_type      TEXT NOT NULL,
		content          TEXT NOT NULL,
		context          TEXT,
		priority         TEXT NOT NULL DEFAULT 'medium',
		confidence_score REAL NOT NULL DEFAULT 0.7,
		relevance_score  REAL NOT NULL DEFAULT 0.5,
		rag_weight       REAL NOT NULL DEFAULT 1.0,
		is_active        INTEGER NOT NULL DEFAULT 1,
		expires_at       TEXT,
		access_count     INTEGER NOT NULL DEFAULT 0,
		last_accessed    TEXT,
		has_influenced_kb INTEGER NOT NULL DEFAULT 0,
		kb_entry_id      TEXT REFERENCES knowledge_entries(id),
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_conversation ON memories(conversation_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_user_type ON memories(user_id, memory_type, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_strategy ON memories(memory_strategy, is_active, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_active ON memories(is_active, priority, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_expires ON memories(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// priorityRankSQL orders priority strings for SQL sorting, highest first.
const priorityRankSQL = `CASE priority
	WHEN 'critical' THEN 4
	WHEN 'high' THEN 3
	WHEN 'medium' THEN 2
	ELSE 1
END`

// timeFormat is fixed-width so the TEXT comparisons in queries
// (expires_at > ?, created_at >= ?, ORDER BY created_at) order
// lexicographically the same as chronologically. RFC3339Nano would strip
// trailing zeros and break that.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func marshalJSON(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := string(b)
	return &out
}
