package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"citeseek/internal/rag"
	"citeseek/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the library over stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath(cfg)); os.IsNotExist(err) {
		return fmt.Errorf("index not found at %s\nRun 'citeseek index' first to build it", dbPath(cfg))
	}

	m, err := store.OpenManager(dbPath(cfg), cfg.VectorDim)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer m.Close()

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, m, emb)
	if err != nil {
		return err
	}

	s := mcpserver.NewMCPServer("citeseek", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(askTool(), makeAskHandler(engine))
	s.AddTool(searchTool(), makeSearchHandler(engine, cfg.TopK))
	s.AddTool(listDocumentsTool(), makeListDocumentsHandler(m))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(false),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func askTool() mcp.Tool {
	return mcp.NewTool("ask_library",
		mcp.WithDescription("Answer a question from the indexed PDF library. The answer is grounded in retrieved excerpts and ends with a numbered APA reference list."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer from the library"),
		),
	)
}

func searchTool() mcp.Tool {
	return mcp.NewTool("search_library",
		mcp.WithDescription("Semantically search the indexed PDF library. Returns the most relevant text excerpts with their source documents and similarity scores."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query to search the library"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of excerpts to return"),
		),
	)
}

func listDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents in the library with author, title, year, and page count."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeAskHandler(engine *rag.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		resp, err := engine.Answer(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
		}
		return mcp.NewToolResultText(resp.Answer), nil
	}
}

func makeSearchHandler(engine *rag.Engine, defaultK int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", defaultK)
		if k <= 0 {
			k = defaultK
		}

		results, err := engine.Retrieve(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeListDocumentsHandler(m *store.Manager) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := m.ListDocuments()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list documents failed: %v", err)), nil
		}
		if len(docs) == 0 {
			return mcp.NewToolResultText("The library is empty. Run 'citeseek index' to build it."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Library documents (%d)\n\n", len(docs))
		for _, d := range docs {
			fmt.Fprintf(&sb, "- **%s** by %s (%s), %d pages [%s]\n", d.Title, d.Author, d.Year, d.Pages, d.DocID)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []store.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d excerpts)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: %s\n\n", i+1, r.Document.Title)
		fmt.Fprintf(&sb, "**Author:** %s  \n**Year:** %s  \n**Pages:** %d-%d  \n**Score:** %.3f\n\n",
			r.Document.Author, r.Document.Year, r.Chunk.PageStart, r.Chunk.PageEnd, r.Score)
		fmt.Fprintf(&sb, "> %s\n\n", r.Chunk.Text)
	}

	return sb.String()
}
