package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
)

// Service extracts memories from messages and assembles conversation and
// user context for retrieval enrichment.
type Service struct {
	store    *store.SQLiteStore
	logger   *zap.Logger
	strategy model.MemoryStrategy
}

// NewService builds a memory service. An empty strategy defaults to
// hybrid.
func NewService(st *store.SQLiteStore, logger *zap.Logger, strategy model.MemoryStrategy) *Service {
	if strategy == "" {
		strategy = model.StrategyHybrid
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger, strategy: strategy}
}

// Strategy returns the service's active strategy.
func (s *Service) Strategy() model.MemoryStrategy { return s.strategy }

// WithStrategy returns a service operating under a different strategy,
// sharing the store and logger. Extraction and context assembly on the
// returned service follow the override; the receiver is unchanged.
// Invalid strategies return the receiver.
func (s *Service) WithStrategy(strategy model.MemoryStrategy) *Service {
	if strategy == s.strategy || !model.ValidStrategies[strategy] {
		return s
	}
	override := *s
	override.strategy = strategy
	return &override
}

// ExtractFromMessage extracts typed memories from a user message and
// persists those the active strategy admits. At most one memory per type
// is produced per message. Extraction never fails the message flow; on
// store errors it logs and returns what it has.
func (s *Service) ExtractFromMessage(ctx context.Context, msg *model.Message, conv *model.Conversation) []model.MemoryRecord {
	return s.extractWithStrategy(ctx, msg, conv, s.strategy)
}

func (s *Service) extractWithStrategy(ctx context.Context, msg *model.Message, conv *model.Conversation, strategy model.MemoryStrategy) []model.MemoryRecord {
	cfg := ConfigFor(strategy)
	var candidates []*extracted

	// Each extractor runs only for the strategies that consume its type.
	if strategy == model.StrategyShortTerm || strategy == model.StrategyHybrid {
		candidates = append(candidates, extractContext(msg))
	}
	if strategy == model.StrategyRAGContext || strategy == model.StrategyHybrid {
		candidates = append(candidates, extractIntent(msg), extractPreference(msg))
	}
	if strategy == model.StrategyCrossLearning || strategy == model.StrategyHybrid {
		candidates = append(candidates, extractFeedback(msg), extractCorrection(msg))
	}
	if strategy == model.StrategyRAGContext || strategy == model.StrategyHybrid {
		candidates = append(candidates, extractTopics(msg))
	}

	var memories []model.MemoryRecord
	for _, c := range candidates {
		if c == nil {
			continue
		}
		// Strategy admission: unsupported types are silently skipped.
		if !cfg.Supports(c.Type) {
			s.logger.Debug("memory type not supported by strategy",
				zap.String("type", string(c.Type)),
				zap.String("strategy", string(strategy)))
			continue
		}
		m, err := s.store.CreateMemory(ctx, store.MemoryParams{
			ConversationID: conv.ID,
			UserID:         conv.UserID,
			Strategy:       strategy,
			Type:           c.Type,
			Content:        c.Content,
			Context:        c.Context,
			Priority:       c.Priority,
			Confidence:     c.Confidence,
			Relevance:      c.Relevance,
			RAGWeight:      cfg.RAGWeight,
			ExpiresAt:      cfg.ExpiresAt(time.Now().UTC()),
		})
		if err != nil {
			s.logger.Error("create memory failed",
				zap.String("type", string(c.Type)), zap.Error(err))
			continue
		}
		s.logger.Info("created memory",
			zap.String("type", string(c.Type)),
			zap.String("strategy", string(strategy)),
			zap.String("content", truncate(c.Content, 50)))
		memories = append(memories, *m)
	}
	return memories
}

// ConversationContext assembles a prompt-ready context block for a
// conversation: recent messages, RAG-weighted memories, and high-priority
// notes. Errors degrade to an empty string.
func (s *Service) ConversationContext(ctx context.Context, conv *model.Conversation, maxMessages int) string {
	if maxMessages <= 0 {
		maxMessages = 10
	}
	var parts []string

	if s.strategy == model.StrategyShortTerm || s.strategy == model.StrategyRAGContext || s.strategy == model.StrategyHybrid {
		msgs, err := s.store.RecentMessages(ctx, conv.ID, maxMessages)
		if err != nil {
			s.logger.Error("recent messages failed", zap.Error(err))
		} else if len(msgs) > 0 {
			parts = append(parts, "Recent conversation context:")
			for _, m := range msgs {
				parts = append(parts, fmt.Sprintf("%s: %s", m.Sender, m.Content))
			}
		}
	}

	if s.strategy == model.StrategyRAGContext || s.strategy == model.StrategyHybrid {
		if rag := s.RAGContext(ctx, conv.ID, conv.UserID); rag != "" {
			parts = append(parts, "\n"+rag)
		}
	}

	// High-priority memories apply under every strategy.
	filter := store.MemoryFilter{
		ConversationID: conv.ID,
		Priorities:     []model.Priority{model.PriorityHigh, model.PriorityCritical},
		Limit:          5,
	}
	if s.strategy != model.StrategyHybrid {
		filter.Strategy = s.strategy
	}
	important, err := s.store.ActiveMemories(ctx, filter)
	if err != nil {
		s.logger.Error("active memories failed", zap.Error(err))
	} else if len(important) > 0 {
		parts = append(parts, "\nImportant context from this conversation:")
		for _, m := range important {
			parts = append(parts, "- "+m.Content)
		}
		s.touchAccessed(ctx, important)
	}

	return strings.Join(parts, "\n")
}

// RAGContext formats intent, preference, topic, and context memories for
// retrieval enrichment, grouped by type with weight indicators.
func (s *Service) RAGContext(ctx context.Context, conversationID, userID string) string {
	memories, err := s.store.RAGContextMemories(ctx, conversationID, userID)
	if err != nil {
		s.logger.Error("rag context memories failed", zap.Error(err))
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	s.touchAccessed(ctx, memories)

	parts := []string{"Enhanced conversation context for RAG:"}
	for _, group := range groupByType(memories) {
		parts = append(parts, fmt.Sprintf("\n%s Context:", titleCase(string(group.Type))))
		for i, m := range group.Memories {
			if i >= 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%s %s", weightIndicator(m.RAGWeight), m.Content))
		}
	}
	return strings.Join(parts, "\n")
}

// UserContext formats a user's high-priority memories across all their
// conversations, grouped by the types the active strategy consumes.
func (s *Service) UserContext(ctx context.Context, userID string, maxMemories int) string {
	if maxMemories <= 0 {
		maxMemories = 20
	}
	filter := store.MemoryFilter{
		UserID:     userID,
		Priorities: []model.Priority{model.PriorityHigh, model.PriorityCritical},
		Limit:      maxMemories,
	}
	if s.strategy != model.StrategyHybrid {
		filter.Strategy = s.strategy
	}
	memories, err := s.store.ActiveMemories(ctx, filter)
	if err != nil {
		s.logger.Error("user memories failed", zap.Error(err))
		return ""
	}
	if len(memories) == 0 {
		return ""
	}
	s.touchAccessed(ctx, memories)

	cfg := ConfigFor(s.strategy)
	parts := []string{fmt.Sprintf("User context from previous conversations (%s strategy):", s.strategy)}
	for _, group := range groupByType(memories) {
		if !cfg.Supports(group.Type) {
			continue
		}
		parts = append(parts, fmt.Sprintf("\n%ss:", titleCase(string(group.Type))))
		for i, m := range group.Memories {
			if i >= 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%s %s", weightIndicator(m.RAGWeight), m.Content))
		}
	}
	return strings.Join(parts, "\n")
}

// CleanupExpiredMemories deactivates expired memories and returns the
// count.
func (s *Service) CleanupExpiredMemories(ctx context.Context) (int, error) {
	n, err := s.store.CleanupExpiredMemories(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired memories: %w", err)
	}
	if n > 0 {
		s.logger.Info("deactivated expired memories", zap.Int("count", n))
	}
	return n, nil
}

// touchAccessed records memory use and keeps critical memories alive by
// extending their expiry for another retention window.
func (s *Service) touchAccessed(ctx context.Context, memories []model.MemoryRecord) {
	for _, m := range memories {
		if err := s.store.TouchMemory(ctx, m.ID); err != nil {
			s.logger.Debug("touch memory failed", zap.String("memory_id", m.ID), zap.Error(err))
			continue
		}
		if m.Priority == model.PriorityCritical && m.ExpiresAt != nil {
			cfg := ConfigFor(m.Strategy)
			if err := s.store.ExtendMemoryExpiry(ctx, m.ID, cfg.Retention); err != nil {
				s.logger.Debug("extend memory expiry failed", zap.String("memory_id", m.ID), zap.Error(err))
			}
		}
	}
}

type typeGroup struct {
	Type     model.MemoryType
	Memories []model.MemoryRecord
}

// groupByType groups memories by type, preserving first-seen type order.
func groupByType(memories []model.MemoryRecord) []typeGroup {
	index := map[model.MemoryType]int{}
	var groups []typeGroup
	for _, m := range memories {
		i, ok := index[m.Type]
		if !ok {
			i = len(groups)
			index[m.Type] = i
			groups = append(groups, typeGroup{Type: m.Type})
		}
		groups[i].Memories = append(groups[i].Memories, m)
	}
	return groups
}

// weightIndicator marks how strongly a memory should steer retrieval.
func weightIndicator(w float64) string {
	switch {
	case w > 0.8:
		return "🔥"
	case w > 0.6:
		return "⭐"
	default:
		return "•"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
