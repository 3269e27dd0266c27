package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docsense/internal/llm"
	"docsense/internal/rag"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about your documentation interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(false, true)
		if err != nil {
			return err
		}
		defer eng.Close()

		var history []llm.Message
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("docsense chat (type /help for commands, /exit to quit)")
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/clear":
				history = nil
				fmt.Println("Conversation cleared.")
				continue
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /clear  - clear conversation history")
				fmt.Println("  /exit   - quit chat")
				fmt.Println("  /help   - show this help")
				continue
			}

			fmt.Println("[Searching...]")

			ans, err := eng.Query(cmd.Context(), question, flagK, history)
			if err != nil {
				fmt.Fprintf(os.Stderr, "query error: %v\n", err)
				continue
			}

			if ans.Response == "" {
				fmt.Println(ans.Suggestion)
				continue
			}

			fmt.Println()
			fmt.Println(ans.Response)
			fmt.Println()
			fmt.Print(rag.FormatSources(ans.Sources))
			fmt.Println()

			// Keep last 10 turns of history.
			history = append(history, llm.Message{Role: "user", Content: question})
			history = append(history, llm.Message{Role: "assistant", Content: ans.Response})
			if len(history) > 20 {
				history = history[len(history)-20:]
			}
		}

		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().IntVar(&flagK, "k", 10, "number of chunks to retrieve per question")
	rootCmd.AddCommand(chatCmd)
}
