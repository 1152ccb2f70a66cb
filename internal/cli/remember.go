package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eduassist/campusrag/internal/memory"
	"github.com/eduassist/campusrag/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [message]",
		Short: "Record a user message and extract memories from it",
		Long:  "Append a user message to a conversation (creating one if needed) and extract typed memories under the active strategy.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRemember,
	}

	cmd.Flags().String("conversation", "", "Conversation ID (a new conversation is created when omitted)")
	cmd.Flags().StringP("user", "u", "operator", "User ID owning the conversation")
	cmd.Flags().StringP("strategy", "s", "hybrid", "Memory strategy: short_term, cross_learning, rag_context, or hybrid")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	conversationID, _ := cmd.Flags().GetString("conversation")
	userID, _ := cmd.Flags().GetString("user")
	strategy, _ := cmd.Flags().GetString("strategy")
	text := strings.Join(args, " ")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	s := openStore(cfg)
	defer s.Close()

	ctx := cmd.Context()

	var conv *model.Conversation
	var err error
	if conversationID != "" {
		conv, err = s.GetConversation(ctx, conversationID)
	} else {
		conv, err = s.CreateConversation(ctx, userID, "")
	}
	if err != nil {
		exitErr("conversation", err)
	}

	msg, err := s.AddMessage(ctx, conv.ID, model.SenderUser, text)
	if err != nil {
		exitErr("add message", err)
	}

	svc := memory.NewService(s, logger, model.MemoryStrategy(strategy))
	memories := svc.ExtractFromMessage(ctx, msg, conv)

	out := struct {
		ConversationID string               `json:"conversation_id"`
		MessageID      string               `json:"message_id"`
		Memories       []model.MemoryRecord `json:"memories"`
	}{conv.ID, msg.ID, memories}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
