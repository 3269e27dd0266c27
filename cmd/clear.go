package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all indexed chunks",
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
		if err := eng.Clear(); err != nil {
			return err
		}

		fmt.Printf("Cleared %d chunks from the index.\n", stats.TotalChunks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
