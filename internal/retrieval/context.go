package retrieval

import (
	"context"
	"fmt"
	"strings"
)

const contextIntro = "Here is relevant information from the university's knowledge base:"

const contextOutro = "\nPlease use this information along with the conversation context to provide accurate, detailed, and contextually relevant responses. Consider the conversation history when formulating your response."

// ContextForPrompt retrieves relevant entries and formats them as a
// prompt context block whose length never exceeds maxLength. Sections are
// dropped whole at their boundary: the outro and the conversation block
// are skipped when they would not fit, and entries stop at the last one
// that does. Returns "" when nothing relevant is found.
func (e *Engine) ContextForPrompt(ctx context.Context, query string, opts Options, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 2000
	}

	results := e.Retrieve(ctx, query, opts)
	if len(results) == 0 {
		return ""
	}

	// Sections are joined with "\n", so each one after the intro costs
	// its length plus the separator. The outro is reserved first.
	remaining := maxLength - len(contextIntro)
	if remaining < 0 {
		return ""
	}
	parts := []string{contextIntro}

	withOutro := remaining >= len(contextOutro)+1
	if withOutro {
		remaining -= len(contextOutro) + 1
	}

	if e.memory != nil && opts.Conversation != nil {
		if conv := e.memory.ConversationContext(ctx, opts.Conversation, 5); conv != "" {
			block := "\nConversation context:\n" + conv
			if len(block)+1 <= remaining {
				parts = append(parts, block)
				remaining -= len(block) + 1
			}
		}
	}

	for i, r := range results {
		entryText := fmt.Sprintf("\n%d. Q: %s\n   A: %s\n   Category: %s (Relevance: %.2f, Strategy: %s)",
			i+1, r.Entry.Question, r.Entry.Answer, r.Entry.Category, r.Relevance, r.Strategy)
		if len(entryText)+1 > remaining {
			break
		}
		parts = append(parts, entryText)
		remaining -= len(entryText) + 1
	}

	if withOutro {
		parts = append(parts, contextOutro)
	}
	return strings.Join(parts, "\n")
}
