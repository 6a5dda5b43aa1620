package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarrett/codescope/internal/mcp"
	"github.com/mkarrett/codescope/internal/progress"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the code index over the Model Context Protocol on stdio",
	Long: `Starts an MCP server on stdio exposing search_code, get_context, and
index_status tools. Stdout carries the protocol; all diagnostics go to
stderr.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, err := repoRoot()
	if err != nil {
		return err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	store, err := openStore(cfg, root, embedder)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer store.Close()

	pipeline := newPipeline(cfg, root, embedder, store)
	s := newSyncer(cfg, root, embedder, store, progress.Silent())

	return mcp.NewServer(pipeline, s).Serve()
}
