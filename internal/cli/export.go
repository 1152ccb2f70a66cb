package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export knowledge entries as JSON",
		Long:  "Dump active knowledge entries to stdout, optionally restricted to one dataset.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	cmd.Flags().String("dataset", "", "Restrict to one dataset ID")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	datasetID, _ := cmd.Flags().GetString("dataset")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	entries, err := s.ExportEntries(cmd.Context(), datasetID)
	if err != nil {
		exitErr("export", err)
	}

	if len(entries) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
