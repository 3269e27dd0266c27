package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsense/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question about your documentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(false, true)
		if err != nil {
			return err
		}
		defer eng.Close()

		ans, err := eng.Query(cmd.Context(), args[0], flagK, nil)
		if err != nil {
			return err
		}

		if ans.Response == "" {
			fmt.Println(ans.Suggestion)
			return nil
		}

		fmt.Println(ans.Response)
		fmt.Println()
		fmt.Print(rag.FormatSources(ans.Sources))
		return nil
	},
}

func init() {
	askCmd.Flags().IntVar(&flagK, "k", 10, "number of chunks to retrieve")
	rootCmd.AddCommand(askCmd)
}
