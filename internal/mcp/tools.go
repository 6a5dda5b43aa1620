package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchCodeTool defines the search_code MCP tool.
var searchCodeTool = mcp.NewTool("search_code",
	mcp.WithDescription("Search the indexed codebase semantically. Returns matching functions, classes, and files with similarity scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
)

// getContextTool defines the get_context MCP tool.
var getContextTool = mcp.NewTool("get_context",
	mcp.WithDescription("Search the indexed codebase and return a ready-to-use context bundle with the full current contents of the matched files."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
)

// indexStatusTool defines the index_status MCP tool.
var indexStatusTool = mcp.NewTool("index_status",
	mcp.WithDescription("Report how far the index lags the working tree: pending adds, updates, and deletes since the last sync."),
)
