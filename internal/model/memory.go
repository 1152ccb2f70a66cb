package model

import "time"

// MemoryStrategy decides how a memory is captured, retained, and read back.
type MemoryStrategy string

const (
	StrategyShortTerm     MemoryStrategy = "short_term"
	StrategyCrossLearning MemoryStrategy = "cross_learning"
	StrategyRAGContext    MemoryStrategy = "rag_context"
	StrategyHybrid        MemoryStrategy = "hybrid"
)

// ValidStrategies are the allowed memory strategies.
var ValidStrategies = map[MemoryStrategy]bool{
	StrategyShortTerm:     true,
	StrategyCrossLearning: true,
	StrategyRAGContext:    true,
	StrategyHybrid:        true,
}

// MemoryType classifies what a memory record captures.
type MemoryType string

const (
	MemoryContext    MemoryType = "context"
	MemoryIntent     MemoryType = "intent"
	MemoryPreference MemoryType = "preference"
	MemoryTopic      MemoryType = "topic"
	MemoryFeedback   MemoryType = "feedback"
	MemoryCorrection MemoryType = "correction"
	MemoryInsight    MemoryType = "insight"
)

// ValidMemoryTypes are the allowed memory types.
var ValidMemoryTypes = map[MemoryType]bool{
	MemoryContext:    true,
	MemoryIntent:     true,
	MemoryPreference: true,
	MemoryTopic:      true,
	MemoryFeedback:   true,
	MemoryCorrection: true,
	MemoryInsight:    true,
}

// Priority levels for memory records.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PriorityRank orders priorities for sorting, highest first.
var PriorityRank = map[Priority]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// MemoryRecord is a durable note extracted from conversation, tagged by
// type and strategy. Records expire by timestamp or are deactivated by a
// cleanup sweep; physical deletion is not required.
type MemoryRecord struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Strategy       MemoryStrategy `json:"memory_strategy"`
	Type           MemoryType     `json:"memory_type"`
	Content        string         `json:"content"`
	Context        map[string]any `json:"context,omitempty"`
	Priority       Priority       `json:"priority"`
	Confidence     float64        `json:"confidence_score"`
	Relevance      float64        `json:"relevance_score"`
	RAGWeight      float64        `json:"rag_weight"`
	IsActive       bool           `json:"is_active"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	AccessCount    int            `json:"access_count"`
	LastAccessed   *time.Time     `json:"last_accessed,omitempty"`
	InfluencedKB   bool           `json:"has_influenced_kb"`
	KBEntryID      string         `json:"kb_entry_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsExpired reports whether the record has passed its expiry timestamp.
func (m *MemoryRecord) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// Sentiment returns the signed feedback sentiment stored in the context
// map, or 0 when absent.
func (m *MemoryRecord) Sentiment() float64 {
	if m.Context == nil {
		return 0
	}
	switch v := m.Context["sentiment"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Topics returns the topic list stored in the context map of a topic memory.
func (m *MemoryRecord) Topics() []string {
	if m.Context == nil {
		return nil
	}
	switch v := m.Context["topics"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
