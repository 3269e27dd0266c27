package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index and show matching chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(false, true)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.Search(cmd.Context(), args[0], flagK)
		if err != nil {
			return err
		}

		if len(res.Relevant) == 0 {
			fmt.Println(res.Suggestion)
			return nil
		}

		fmt.Printf("%d results (quality %.2f)\n\n", len(res.Relevant), res.QualityScore)
		for i, c := range res.Relevant {
			fmt.Printf("%d. %s", i+1, c.Record.Chunk.SourceFile)
			if c.Record.Chunk.HeadingContext != "" {
				fmt.Printf(" › %s", c.Record.Chunk.HeadingContext)
			}
			fmt.Printf("  (similarity %.3f)\n", c.Similarity)
			fmt.Printf("   %s\n\n", excerpt(c.Record.Chunk.Text, 200))
		}
		if len(res.FilteredOut) > 0 {
			fmt.Printf("(%d low-similarity chunks filtered out)\n", len(res.FilteredOut))
		}
		return nil
	},
}

// excerpt truncates text to at most n bytes on a rune boundary.
func excerpt(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && text[n]&0xC0 == 0x80 {
		n--
	}
	return text[:n] + "..."
}

func init() {
	searchCmd.Flags().IntVar(&flagK, "k", 10, "number of chunks to retrieve")
	rootCmd.AddCommand(searchCmd)
}
