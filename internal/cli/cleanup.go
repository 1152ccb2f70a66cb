package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deactivate expired memories",
		Args:  cobra.NoArgs,
		Run:   runCleanup,
	}

	RootCmd.AddCommand(cmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	s := openStore(cfg)
	defer s.Close()

	n, err := s.CleanupExpiredMemories(cmd.Context())
	if err != nil {
		exitErr("cleanup memories", err)
	}
	fmt.Printf("deactivated %d expired memories\n", n)
}
