package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	profile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "codescope",
	Short: "Incremental semantic code index for repositories",
	Long: `Codescope slices a repository into semantic segments, embeds only
what changed since the last run, and answers natural language queries
over the resulting vector index. It integrates with AI agents via MCP
and exposes a read-only HTTP API.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".codescope.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "index profile (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
