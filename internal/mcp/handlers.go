package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkarrett/codescope/internal/retrieve"
)

// handleSearchCode performs semantic search over the code index.
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	answer, err := s.pipeline.Query(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(answer.Matches) == 0 {
		return mcp.NewToolResultText("No results found. The repository may not be indexed yet. Run `codescope sync` to index it."), nil
	}

	matches := answer.Matches
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return mcp.NewToolResultText(formatMatches(matches)), nil
}

// handleGetContext runs the full retrieval pipeline and returns the
// assembled context bundle.
func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	answer, err := s.pipeline.Query(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	if answer.Bundle == "" {
		return mcp.NewToolResultText("No matching files found. Run `codescope sync` to index the repository."), nil
	}

	var b strings.Builder
	b.WriteString(answer.Bundle)
	for _, w := range answer.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s", w)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleIndexStatus reports the pending diff between the working tree and
// the index.
func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.syncer.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	if result.UpToDate {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Index is up to date: %d segments across %d files.",
			result.Segments, result.Files)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Index is stale: %d to add, %d to update, %d to delete (%d segments across %d files). Run `codescope sync`.",
		result.Added, result.Updated, result.Deleted, result.Segments, result.Files)), nil
}

// formatMatches renders search matches as readable text.
func formatMatches(matches []retrieve.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s %s (%s", i+1, m.Kind, m.Name, m.FilePath)
		if m.StartLine > 0 {
			fmt.Fprintf(&b, ":%d", m.StartLine)
		}
		fmt.Fprintf(&b, ") score=%.3f\n", m.Similarity)
		if m.Snippet != "" {
			for _, line := range strings.Split(m.Snippet, "\n") {
				fmt.Fprintf(&b, "   %s\n", line)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
