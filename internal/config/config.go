// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	DBPath   string
	LogLevel string

	// Embedding provider. Empty provider disables vector search and the
	// engine falls back to keyword strategies.
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	EmbeddingDims     int

	// Retrieval tuning.
	MaxResults       int
	MinConfidence    float64
	MaxContextLength int

	// Chunking.
	ChunkSize    int
	ChunkOverlap int
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in if present; real environment variables
// win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBPath:   getEnv("CAMPUSRAG_DB", defaultDBPath()),
		LogLevel: getEnv("CAMPUSRAG_LOG_LEVEL", "info"),

		EmbeddingProvider: getEnv("CAMPUSRAG_EMBEDDING_PROVIDER", ""),
		EmbeddingModel:    getEnv("CAMPUSRAG_EMBEDDING_MODEL", ""),
		EmbeddingBaseURL:  getEnv("CAMPUSRAG_EMBEDDING_URL", ""),
		EmbeddingAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingDims:     getEnvInt("CAMPUSRAG_EMBEDDING_DIMS", 0),

		MaxResults:       getEnvInt("CAMPUSRAG_MAX_RESULTS", 8),
		MinConfidence:    getEnvFloat("CAMPUSRAG_MIN_CONFIDENCE", 0.3),
		MaxContextLength: getEnvInt("CAMPUSRAG_MAX_CONTEXT_LENGTH", 4000),

		ChunkSize:    getEnvInt("CAMPUSRAG_CHUNK_SIZE", 512),
		ChunkOverlap: getEnvInt("CAMPUSRAG_CHUNK_OVERLAP", 128),
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "campusrag.db"
	}
	return home + "/.campusrag/campusrag.db"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
