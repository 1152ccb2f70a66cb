package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Retrieve ranked knowledge entries for a query",
		Long:  "Run multi-strategy retrieval over the knowledge base and print the ranked results with scores and strategies.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringSliceP("category", "c", nil, "Restrict to categories (repeatable)")
	cmd.Flags().String("conversation", "", "Conversation ID for context-aware retrieval")
	cmd.Flags().String("user", "", "User ID for personalized retrieval")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	categories, _ := cmd.Flags().GetStringSlice("category")
	conversationID, _ := cmd.Flags().GetString("conversation")
	userID, _ := cmd.Flags().GetString("user")
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

	results := engine.Retrieve(cmd.Context(), query, opts)
	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	// Typed entries carry their structured fields alongside the result.
	type searchResult struct {
		retrieval.Result
		StructuredData map[string]any `json:"structured_data,omitempty"`
	}
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		sr := searchResult{Result: r}
		if r.Entry.EntryType != model.EntryGeneral {
			sr.StructuredData = r.Entry.StructuredData()
		}
		out = append(out, sr)
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
