package cmd

import (
	"os"

	"docsense/internal/tui"
)

var flagDocs string

func runTUI() error {
	dbPath, err := resolveDBPath()
	if err != nil {
		return err
	}

	docsDir := flagDocs
	if docsDir == "" {
		docsDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	return tui.Run(tui.Config{
		DBPath:     dbPath,
		DocsDir:    docsDir,
		OllamaURL:  flagOllama,
		EmbedModel: flagEmbedModel,
		ChatModel:  flagChatModel,
	})
}

func init() {
	rootCmd.Flags().StringVar(&flagDocs, "docs", "", "documentation directory to index (default current directory)")
}
