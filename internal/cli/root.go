// Package cli wires the recall commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/config"
	"github.com/lazypower/recall/internal/engine"
	"github.com/lazypower/recall/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "A personal memory base with hybrid relevance ranking",
	Long:  "Recall stores short factual memories and retrieves the most relevant ones for a query, fusing vector similarity with keyword scoring and decaying stale facts over time.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(decayCmd)
}

// loadConfig resolves the config file (default path unless overridden via
// RECALL_CONFIG) and the database path.
func loadConfig() (config.Config, string, error) {
	cfgPath := os.Getenv("RECALL_CONFIG")
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, "", err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, "", err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return cfg, "", fmt.Errorf("resolve db path: %w", err)
		}
	}
	return cfg, dbPath, nil
}

// openService opens the store and builds the engine service with the best
// available embedder: Ollama when reachable, TF-IDF over existing memories
// otherwise.
func openService(cfg config.Config, dbPath string) (*store.DB, *engine.Service, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	var embedder engine.Embedder
	if engine.ProbeOllama(cfg.Embedding.OllamaURL, cfg.Embedding.Model) {
		emb, err := engine.NewOllamaEmbedder(cfg.Embedding.OllamaURL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		embedder = emb
		fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", cfg.Embedding.Model)
	} else {
		emb, err := engine.FallbackEmbedder(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		embedder = emb
		fmt.Fprintln(os.Stderr, "  embedder: tfidf (fallback)")
	}

	return db, engine.NewService(db, embedder), nil
}
