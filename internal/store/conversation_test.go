package store

import (
	"context"
	"testing"
	"time"

	"github.com/eduassist/campusrag/internal/model"
)

func TestConversationAndMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.CreateConversation(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.Title != "New Conversation" {
		t.Errorf("expected default title, got %q", conv.Title)
	}

	s.AddMessage(ctx, conv.ID, model.SenderUser, "first")
	s.AddMessage(ctx, conv.ID, model.SenderAssistant, "second")
	s.AddMessage(ctx, conv.ID, model.SenderUser, "third")

	msgs, err := s.RecentMessages(ctx, conv.ID, 10)
	if err != nil {
		t.Fatalf("recent messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	// Chronological order, oldest first.
	if msgs[0].Content != "first" || msgs[2].Content != "third" {
		t.Errorf("expected chronological order, got %q .. %q", msgs[0].Content, msgs[2].Content)
	}

	limited, _ := s.RecentMessages(ctx, conv.ID, 2)
	if len(limited) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(limited))
	}
	if limited[0].Content != "second" {
		t.Errorf("expected newest 2 in order, got %q first", limited[0].Content)
	}
}

func TestAssistantMessageBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, _ := s.CreateConversation(ctx, "user-1", "")
	s.AddMessage(ctx, conv.ID, model.SenderUser, "question")
	assistant, _ := s.AddMessage(ctx, conv.ID, model.SenderAssistant, "answer")

	got, err := s.AssistantMessageBefore(ctx, conv.ID, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("assistant before: %v", err)
	}
	if got.ID != assistant.ID {
		t.Errorf("expected assistant message %s, got %s", assistant.ID, got.ID)
	}

	_, err = s.AssistantMessageBefore(ctx, conv.ID, conv.CreatedAt.Add(-time.Hour))
	if err == nil {
		t.Error("expected error when no assistant message precedes the time")
	}
}

func TestSoftDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, _ := s.CreateConversation(ctx, "user-1", "")
	s.AddMessage(ctx, conv.ID, model.SenderUser, "hello")

	if err := s.SoftDeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("soft delete conversation: %v", err)
	}

	if _, err := s.GetConversation(ctx, conv.ID); err == nil {
		t.Error("expected error after soft delete")
	}
	msgs, _ := s.RecentMessages(ctx, conv.ID, 10)
	if len(msgs) != 0 {
		t.Errorf("expected messages hidden after cascade, got %d", len(msgs))
	}
}
