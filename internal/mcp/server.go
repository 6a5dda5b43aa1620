// Package mcp exposes the code index over the Model Context Protocol so
// agents can search a repository semantically from their own runtime.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/mkarrett/codescope/internal/retrieve"
	"github.com/mkarrett/codescope/internal/syncer"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes code search tools.
type Server struct {
	pipeline *retrieve.Pipeline
	syncer   *syncer.Syncer
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies. The
// syncer is only used for read-only status reporting.
func NewServer(pipeline *retrieve.Pipeline, sync *syncer.Syncer) *Server {
	s := &Server{
		pipeline: pipeline,
		syncer:   sync,
	}

	s.mcp = server.NewMCPServer(
		"codescope",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchCodeTool, s.handleSearchCode)
	s.mcp.AddTool(getContextTool, s.handleGetContext)
	s.mcp.AddTool(indexStatusTool, s.handleIndexStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
