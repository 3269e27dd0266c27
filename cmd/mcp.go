package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"docsense/internal/engine"
	"docsense/internal/rag"
	"docsense/internal/relevance"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing documentation search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(false, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	s := mcpserver.NewMCPServer("docsense", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchDocumentsTool(), makeSearchHandler(eng))
	s.AddTool(askDocumentsTool(), makeAskHandler(eng))
	s.AddTool(getIndexStatsTool(), makeStatsHandler(eng))
	s.AddTool(getBuildProgressTool(), makeProgressHandler(eng))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantically search the indexed documentation. Returns relevant excerpts with source files, section headings, and similarity scores."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query to search the documentation"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of excerpts to return (default 10)"),
		),
	)
}

func askDocumentsTool() mcp.Tool {
	return mcp.NewTool("ask_documents",
		mcp.WithDescription("Ask a question about the indexed documentation and get an LLM answer grounded in the retrieved excerpts, with source attributions."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer from the documentation"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of excerpts to retrieve (default 10)"),
		),
	)
}

func getIndexStatsTool() mcp.Tool {
	return mcp.NewTool("get_index_stats",
		mcp.WithDescription("Get index statistics: total chunks, distinct source files, and the embedding model the index was built with."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func getBuildProgressTool() mcp.Tool {
	return mcp.NewTool("get_build_progress",
		mcp.WithDescription("Get the progress of the current (or most recent) index build: phase, percent, counts, and time estimates."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(eng *engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", 10)
		if k <= 0 {
			k = 10
		}

		res, err := eng.Search(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, res)), nil
	}
}

func makeAskHandler(eng *engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		k := req.GetInt("k", 10)
		if k <= 0 {
			k = 10
		}

		ans, err := eng.Query(ctx, question, k, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if ans.Response == "" {
			return mcp.NewToolResultText(ans.Suggestion), nil
		}

		text := ans.Response
		if src := rag.FormatSources(ans.Sources); src != "" {
			text += "\n\n" + src
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeStatsHandler(eng *engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := eng.Stats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read stats failed: %v", err)), nil
		}
		model := stats.EmbeddingModel
		if model == "" {
			model = "(not set)"
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Chunks: %d\nSource files: %d\nEmbedding model: %s",
			stats.TotalChunks, stats.DistinctSources, model)), nil
	}
}

func makeProgressHandler(eng *engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := eng.Tracker().CurrentSnapshot()
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode progress failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, res *relevance.Result) string {
	if len(res.Relevant) == 0 {
		return fmt.Sprintf("No results found for query: %q\n%s", query, res.Suggestion)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d excerpts, quality %.2f)\n\n", query, len(res.Relevant), res.QualityScore)

	for i, c := range res.Relevant {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, c.Record.Chunk.SourceFile)
		if c.Record.Chunk.HeadingContext != "" {
			fmt.Fprintf(&sb, "**Section:** %s  \n", c.Record.Chunk.HeadingContext)
		}
		fmt.Fprintf(&sb, "**Similarity:** %.3f\n\n", c.Similarity)
		fmt.Fprintf(&sb, "%s\n\n", c.Record.Chunk.Text)
	}

	if len(res.FilteredOut) > 0 {
		fmt.Fprintf(&sb, "(%d low-similarity excerpts filtered out)\n", len(res.FilteredOut))
	}
	return sb.String()
}
