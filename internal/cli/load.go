package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
)

// datasetFile is the JSON layout the load command ingests.
type datasetFile struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Entries     []struct {
		Question  string         `json:"question"`
		Answer    string         `json:"answer"`
		Category  string         `json:"category"`
		EntryType string         `json:"entry_type"`
		Keywords  []string       `json:"keywords"`
		Metadata  map[string]any `json:"metadata"`
	} `json:"entries"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "load [file.json]",
		Short: "Load a knowledge dataset from a JSON file",
		Long:  "Create a dataset and its knowledge entries from a JSON file. Loaded entries are marked validated with full confidence. Entries whose question the dataset already holds are skipped.",
		Args:  cobra.ExactArgs(1),
		Run:   runLoad,
	}

	RootCmd.AddCommand(cmd)
}

func runLoad(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read file", err)
	}

	var file datasetFile
	if err := json.Unmarshal(data, &file); err != nil {
		exitErr("parse json", err)
	}
	if file.Name == "" {
		exitErr("parse json", fmt.Errorf("dataset name is required"))
	}

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	s := openStore(cfg)
	defer s.Close()

	ctx := cmd.Context()
	dataset, err := s.CreateDataset(ctx, store.DatasetParams{
		Name:        file.Name,
		Type:        file.Type,
		Version:     file.Version,
		Description: file.Description,
		Status:      model.DatasetActive,
	})
	if err != nil {
		exitErr("create dataset", err)
	}

	params := make([]store.EntryParams, 0, len(file.Entries))
	for _, e := range file.Entries {
		params = append(params, store.EntryParams{
			Question:        e.Question,
			Answer:          e.Answer,
			Category:        e.Category,
			EntryType:       model.EntryType(e.EntryType),
			Keywords:        e.Keywords,
			Metadata:        e.Metadata,
			ConfidenceScore: 1.0,
			IsValidated:     true,
		})
	}

	imported, err := s.ImportEntries(ctx, dataset.ID, params)
	if err != nil {
		logger.Warn("some entries were not imported", zap.Error(err))
	}

	fmt.Printf(`{"ok":true,"dataset_id":%q,"imported":%d}`+"\n", dataset.ID, imported)
}
