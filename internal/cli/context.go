package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eduassist/campusrag/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Assemble a prompt context block for a query",
		Long:  "Retrieve relevant knowledge and format it as a prompt-ready context block, packed into a character budget.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().StringSliceP("category", "c", nil, "Restrict to categories (repeatable)")
	cmd.Flags().String("conversation", "", "Conversation ID for context-aware retrieval")
	cmd.Flags().String("user", "", "User ID for personalized retrieval")
	cmd.Flags().IntP("max-length", "l", 0, "Max context length in characters (default from config)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	categories, _ := cmd.Flags().GetStringSlice("category")
	conversationID, _ := cmd.Flags().GetString("conversation")
	userID, _ := cmd.Flags().GetString("user")
	maxLength, _ := cmd.Flags().GetInt("max-length")
	query := strings.Join(args, " ")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	s := openStore(cfg)
	defer s.Close()

	engine := buildEngine(cmd.Context(), cfg, s, logger)

	opts := retrieval.Options{Categories: categories, UserID: userID}
	if conversationID != "" {
		conv, err := s.GetConversation(cmd.Context(), conversationID)
		if err != nil {
			exitErr("load conversation", err)
		}
		opts.Conversation = conv
	}

	if maxLength <= 0 {
		maxLength = cfg.MaxContextLength
	}

	context := engine.ContextForPrompt(cmd.Context(), query, opts, maxLength)
	if context == "" {
		fmt.Println("(no relevant knowledge found)")
		return
	}
	fmt.Println(context)
}
