package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eduassist/campusrag/internal/learning"
)

func init() {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Process cross-conversation learning",
		Long:  "Review unprocessed corrections, feedback, and insights, and promote frequently asked topics into knowledge entries for review.",
		Args:  cobra.NoArgs,
		Run:   runLearn,
	}

	cmd.Flags().Int("days", 7, "Lookback window in days")
	cmd.Flags().String("user", "", "Restrict to one user")
	cmd.Flags().Bool("dry-run", false, "Report what would be processed without changing anything")
	cmd.Flags().Bool("cleanup", false, "Also deactivate expired memories")

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")
	userID, _ := cmd.Flags().GetString("user")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	cleanup, _ := cmd.Flags().GetBool("cleanup")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	s := openStore(cfg)
	defer s.Close()

	ctx := cmd.Context()
	idx := buildIndex(ctx, cfg, s, logger)

	processor := learning.NewProcessor(s, idx, logger)
	results, err := processor.Process(ctx, learning.Options{
		UserID:   userID,
		Lookback: time.Duration(days) * 24 * time.Hour,
		DryRun:   dryRun,
	})
	if err != nil {
		exitErr("process learning", err)
	}

	out := map[string]any{"learning": results}
	if cleanup && !dryRun {
		expired, err := s.CleanupExpiredMemories(ctx)
		if err != nil {
			exitErr("cleanup memories", err)
		}
		out["expired_memories_deactivated"] = expired
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
