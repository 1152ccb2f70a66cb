// Package cli implements the campusrag CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eduassist/campusrag/internal/chunker"
	"github.com/eduassist/campusrag/internal/config"
	"github.com/eduassist/campusrag/internal/embedding"
	"github.com/eduassist/campusrag/internal/memory"
	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/retrieval"
	"github.com/eduassist/campusrag/internal/store"
	"github.com/eduassist/campusrag/internal/vectorindex"
)

var (
	dbPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "campusrag",
	Short: "Retrieval-ranking and conversational memory for a campus chatbot",
	Long:  "Multi-strategy knowledge retrieval with conversation-aware ranking and strategic memory management. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $CAMPUSRAG_DB or ~/.campusrag/campusrag.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zcfg.Build()
	if err != nil {
		exitErr("build logger", err)
	}
	return logger
}

func openStore(cfg *config.Config) *store.SQLiteStore {
	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

// buildIndex constructs the vector index from validated entries. Returns
// nil when no embedding provider is configured; the engine then runs
// keyword strategies only.
func buildIndex(ctx context.Context, cfg *config.Config, s *store.SQLiteStore, logger *zap.Logger) *vectorindex.Index {
	embedder := embedding.New(embedding.Config{
		Provider: cfg.EmbeddingProvider,
		Model:    cfg.EmbeddingModel,
		BaseURL:  cfg.EmbeddingBaseURL,
		APIKey:   cfg.EmbeddingAPIKey,
		Dims:     cfg.EmbeddingDims,
	})
	if embedder == nil {
		logger.Warn("no embedding provider configured, vector search disabled")
		return nil
	}

	idx := vectorindex.New(embedder, chunker.Options{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	})

	entries, err := s.ValidatedEntries(ctx)
	if err != nil {
		logger.Error("loading entries for index failed", zap.Error(err))
		return nil
	}
	if err := idx.Build(ctx, entries); err != nil {
		logger.Error("building vector index failed", zap.Error(err))
		return nil
	}
	n, chunks := idx.Size()
	logger.Info("vector index built", zap.Int("entries", n), zap.Int("chunks", chunks))
	return idx
}

func buildEngine(ctx context.Context, cfg *config.Config, s *store.SQLiteStore, logger *zap.Logger) *retrieval.Engine {
	idx := buildIndex(ctx, cfg, s, logger)
	mem := memory.NewService(s, logger, model.StrategyRAGContext)
	return retrieval.NewEngine(s, idx, mem, logger, retrieval.Config{
		MaxResults:    cfg.MaxResults,
		MinConfidence: cfg.MinConfidence,
	})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
