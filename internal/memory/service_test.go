package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
)

func newTestService(t *testing.T, strategy model.MemoryStrategy) (*Service, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s, zap.NewNop(), strategy), s
}

func newTestConversation(t *testing.T, s *store.SQLiteStore, userID string) *model.Conversation {
	t.Helper()
	conv, err := s.CreateConversation(context.Background(), userID, "")
	require.NoError(t, err)
	return conv
}

func TestExtractFromMessageHybrid(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyHybrid)
	conv := newTestConversation(t, s, "u1")

	msg, err := s.AddMessage(ctx, conv.ID, model.SenderUser, "Actually, the fee is RM45,000, not RM40,000")
	require.NoError(t, err)

	memories := svc.ExtractFromMessage(ctx, msg, conv)

	// Hybrid captures context, correction, and the fee topic.
	types := map[model.MemoryType]model.MemoryRecord{}
	for _, m := range memories {
		types[m.Type] = m
	}
	require.Contains(t, types, model.MemoryContext)
	require.Contains(t, types, model.MemoryCorrection)
	require.Contains(t, types, model.MemoryTopic)

	correction := types[model.MemoryCorrection]
	assert.Equal(t, model.PriorityCritical, correction.Priority)
	assert.False(t, correction.InfluencedKB)
	assert.Equal(t, 0.9, correction.RAGWeight)
	require.NotNil(t, correction.ExpiresAt)
}

func TestExtractFromMessageStrategyGating(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyShortTerm)
	conv := newTestConversation(t, s, "u1")

	msg, err := s.AddMessage(ctx, conv.ID, model.SenderUser, "Actually, I want the engineering program")
	require.NoError(t, err)

	memories := svc.ExtractFromMessage(ctx, msg, conv)

	// Short-term only stores context, never corrections or intents.
	require.Len(t, memories, 1)
	assert.Equal(t, model.MemoryContext, memories[0].Type)
	assert.Equal(t, msg.Content, memories[0].Content)
	assert.Equal(t, 0.5, memories[0].RAGWeight)
}

func TestExtractAtMostOnePerType(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyCrossLearning)
	conv := newTestConversation(t, s, "u1")

	// Message hits multiple correction indicators.
	msg, err := s.AddMessage(ctx, conv.ID, model.SenderUser, "No, that is wrong, I meant the diploma")
	require.NoError(t, err)

	memories := svc.ExtractFromMessage(ctx, msg, conv)

	corrections := 0
	for _, m := range memories {
		if m.Type == model.MemoryCorrection {
			corrections++
		}
	}
	assert.Equal(t, 1, corrections)
}

func TestCrossLearningMemoriesNeverExpire(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyCrossLearning)
	conv := newTestConversation(t, s, "u1")

	msg, err := s.AddMessage(ctx, conv.ID, model.SenderUser, "Actually the campus shuttle stops at 10pm")
	require.NoError(t, err)

	memories := svc.ExtractFromMessage(ctx, msg, conv)
	require.NotEmpty(t, memories)
	for _, m := range memories {
		assert.Nil(t, m.ExpiresAt, "cross-learning memories must not auto-expire")
	}
}

func TestConversationContext(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyHybrid)
	conv := newTestConversation(t, s, "u1")

	s.AddMessage(ctx, conv.ID, model.SenderUser, "What are the fees?")
	s.AddMessage(ctx, conv.ID, model.SenderAssistant, "RM40,000 per year.")
	msg, _ := s.AddMessage(ctx, conv.ID, model.SenderUser, "Actually, I was told RM45,000")
	svc.ExtractFromMessage(ctx, msg, conv)

	got := svc.ConversationContext(ctx, conv, 10)

	assert.Contains(t, got, "Recent conversation context:")
	assert.Contains(t, got, "user: What are the fees?")
	assert.Contains(t, got, "assistant: RM40,000 per year.")
	assert.Contains(t, got, "Important context from this conversation:")
	assert.Contains(t, got, "User correction:")
}

func TestRAGContextGroupsByType(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyRAGContext)
	conv := newTestConversation(t, s, "u1")

	msg, _ := s.AddMessage(ctx, conv.ID, model.SenderUser, "I'm looking for accommodation near campus")
	svc.ExtractFromMessage(ctx, msg, conv)

	got := svc.RAGContext(ctx, conv.ID, "u1")

	assert.Contains(t, got, "Enhanced conversation context for RAG:")
	assert.Contains(t, got, "Intent Context:")
	// rag_context memories carry full weight and the strongest marker.
	assert.Contains(t, got, "🔥")
}

func TestRAGContextEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, model.StrategyRAGContext)

	assert.Empty(t, svc.RAGContext(ctx, "missing", ""))
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyRAGContext)
	conv := newTestConversation(t, s, "u1")

	msg, _ := s.AddMessage(ctx, conv.ID, model.SenderUser, "I need the postgraduate computing program")
	svc.ExtractFromMessage(ctx, msg, conv)

	got := svc.UserContext(ctx, "u1", 20)

	assert.Contains(t, got, "User context from previous conversations (rag_context strategy):")
	assert.Contains(t, got, "Intents:")
}

func TestWithStrategyOverride(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyHybrid)
	conv := newTestConversation(t, s, "u1")

	msg, err := s.AddMessage(ctx, conv.ID, model.SenderUser, "Actually, I want the engineering program")
	require.NoError(t, err)

	// The override behaves as a short-term service for this call.
	memories := svc.WithStrategy(model.StrategyShortTerm).ExtractFromMessage(ctx, msg, conv)
	require.Len(t, memories, 1)
	assert.Equal(t, model.MemoryContext, memories[0].Type)
	assert.Equal(t, model.StrategyShortTerm, memories[0].Strategy)

	// The receiver keeps its own strategy.
	assert.Equal(t, model.StrategyHybrid, svc.Strategy())
	assert.Same(t, svc, svc.WithStrategy("bogus"))
}

func TestCleanupExpiredMemories(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t, model.StrategyHybrid)
	conv := newTestConversation(t, s, "u1")

	past := time.Now().Add(-time.Hour)
	_, err := s.CreateMemory(ctx, store.MemoryParams{
		ConversationID: conv.ID, UserID: "u1",
		Strategy: model.StrategyShortTerm, Type: model.MemoryContext,
		Content: "stale", ExpiresAt: &past,
	})
	require.NoError(t, err)

	n, err := svc.CleanupExpiredMemories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
