// Package cmd wires the CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docsense/internal/engine"
	"docsense/internal/relevance"
)

// envConfig holds defaults sourced from the environment (and .env).
// Flags override these.
type envConfig struct {
	DBPath     string `env:"DOCSENSE_DB"`
	OllamaURL  string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	EmbedModel string `env:"DOCSENSE_EMBED_MODEL" envDefault:"nomic-embed-text"`
	ChatModel  string `env:"DOCSENSE_CHAT_MODEL" envDefault:"qwen3:8b"`
}

var (
	flagDB         string
	flagOllama     string
	flagEmbedModel string
	flagChatModel  string
)

var rootCmd = &cobra.Command{
	Use:   "docsense",
	Short: "Ask questions about your documentation, answered with RAG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// .env is optional; unset keys fall back to envDefault tags.
	_ = godotenv.Load()
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: parse environment: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", cfg.DBPath, "database path (default <cwd>/.docsense/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", cfg.OllamaURL, "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagEmbedModel, "embed-model", cfg.EmbedModel, "embedding model")
	rootCmd.PersistentFlags().StringVar(&flagChatModel, "chat-model", cfg.ChatModel, "generative model for answers")
}

// resolveDBPath applies the default database location.
func resolveDBPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, ".docsense", "index.db"), nil
}

// openEngine builds an engine from the global flags. requireIndex
// rejects an empty index with a hint to build one first.
func openEngine(force, requireIndex bool) (*engine.Engine, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}

	if requireIndex {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("index not found at %s\nRun 'docsense build <path>' first to build the index", dbPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	return engine.New(engine.Config{
		DBPath:        dbPath,
		OllamaURL:     flagOllama,
		EmbedModel:    flagEmbedModel,
		ChatModel:     flagChatModel,
		MinSimilarity: relevance.DefaultMinSimilarity,
		HeadingBoost:  relevance.DefaultBoostFactor,
		Force:         force,
	})
}
