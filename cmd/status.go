package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and service availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(false, true)
		if err != nil {
			return err
		}
		defer eng.Close()

		stats, err := eng.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Chunks:          %d\n", stats.TotalChunks)
		fmt.Printf("Source files:    %d\n", stats.DistinctSources)
		if stats.EmbeddingModel != "" {
			fmt.Printf("Embedding model: %s\n", stats.EmbeddingModel)
		}

		if eng.IsAvailable(cmd.Context()) {
			fmt.Printf("Ollama:          reachable at %s\n", flagOllama)
		} else {
			fmt.Printf("Ollama:          NOT reachable at %s\n", flagOllama)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
