package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/iosifache/booksearch/internal/logger"
	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/version"
)

func searchToolHandler(env *Env, searcher search.Searcher) mcp.ToolHandlerFor[SearchParams, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params SearchParams) (*mcp.CallToolResult, any, error) {
		l := logger.GetLogger()

		l.Info("Search command called",
			zap.String("searchTerm", params.SearchTerm),
			zap.Int("page", params.Page),
			zap.Int("pageSize", params.PageSize),
		)

		outcome, err := runSearch(ctx, env, searcher, params.SearchTerm, params.Page, params.PageSize)
		if err != nil {
			return nil, nil, err
		}

		text := formatOutcome(outcome)
		l.Info("Search command completed successfully",
			zap.String("searchTerm", params.SearchTerm),
			zap.String("location", outcome.Location),
		)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, outcome, nil
	}
}

// formatOutcome renders an outcome as the plain text used by the CLI and
// the MCP tool.
func formatOutcome(outcome SearchOutcome) string {
	var b strings.Builder

	for _, n := range outcome.Notifications {
		fmt.Fprintf(&b, "[%s] %s\n\n", n.Level, n.Message)
	}

	if outcome.Result == nil || len(outcome.Result.Items) == 0 {
		b.WriteString("No books found.\n")
		return b.String()
	}

	p := outcome.Params
	fmt.Fprintf(&b, "Found %d books, page %d of %d\n\n",
		outcome.Result.TotalFound, p.Page, outcome.Result.TotalPages(p.PageSize))

	offset := (p.Page - 1) * p.PageSize
	for i, book := range outcome.Result.Items {
		fmt.Fprintf(&b, "Book %d:\n%s\n", offset+i+1, book.String())
		if i < len(outcome.Result.Items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// createMCPServer creates and configures an MCP server instance
func createMCPServer(env *Env, searcher search.Searcher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "booksearch",
		Version: version.GetVersion(),
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search books on OpenLibrary, one page at a time",
	}, searchToolHandler(env, searcher))

	return server
}

func StartMCPServer(ctx context.Context, env *Env) error {
	l := logger.GetLogger()
	defer l.Sync()

	l.Info("Starting MCP server (stdio)",
		zap.String("name", "booksearch"),
		zap.String("version", version.GetVersion()),
	)

	server := createMCPServer(env, env.Searcher())

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		l.Error("MCP server failed", zap.Error(err))
		return err
	}
	return nil
}
