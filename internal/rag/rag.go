// Package rag assembles LLM prompts from retrieved documentation chunks.
package rag

import (
	"fmt"
	"strings"

	"docsense/internal/llm"
	"docsense/internal/store"
)

const systemPrompt = `You are a documentation assistant. You answer questions using only the retrieved documentation excerpts provided below.

Ground every claim in the excerpts and cite the source file (and section, when given) you drew it from. If the excerpts don't contain enough information to answer, say so instead of guessing.

Keep answers concise and direct.`

// BuildMessages constructs the message list for the LLM from retrieved
// chunks, conversation history, and the current question.
func BuildMessages(chunks []store.Candidate, history []llm.Message, question string) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: systemPrompt}}

	if len(chunks) > 0 {
		var ctx strings.Builder
		ctx.WriteString("Here are the relevant documentation excerpts:\n\n")
		for i, c := range chunks {
			fmt.Fprintf(&ctx, "--- Excerpt %d: %s", i+1, c.Record.Chunk.SourceFile)
			if c.Record.Chunk.HeadingContext != "" {
				fmt.Fprintf(&ctx, " (%s)", c.Record.Chunk.HeadingContext)
			}
			fmt.Fprintf(&ctx, " [similarity %.2f] ---\n", c.Similarity)
			ctx.WriteString(c.Record.Chunk.Text)
			ctx.WriteString("\n\n")
		}
		msgs = append(msgs, llm.Message{Role: "user", Content: ctx.String()})
		msgs = append(msgs, llm.Message{Role: "assistant", Content: "I've reviewed the documentation excerpts. What would you like to know?"})
	}

	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: "user", Content: question})

	return msgs
}

// FormatSources renders a short source-attribution list for display
// after an answer.
func FormatSources(chunks []store.Candidate) string {
	if len(chunks) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	var b strings.Builder
	b.WriteString("Sources:\n")
	for _, c := range chunks {
		line := c.Record.Chunk.SourceFile
		if c.Record.Chunk.HeadingContext != "" {
			line += " › " + c.Record.Chunk.HeadingContext
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		fmt.Fprintf(&b, "  - %s (%.2f)\n", line, c.Similarity)
	}
	return b.String()
}
