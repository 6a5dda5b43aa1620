package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarrett/codescope/internal/progress"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Bring the semantic index in line with the working tree",
	Long: `Scans the repository, diffs the segments against the last persisted
manifest, embeds only what changed, and updates the vector store. The
manifest is persisted only after every store write succeeds, so an
interrupted run is simply redone on the next invocation.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "show what would change without mutating anything")
	syncCmd.Flags().Bool("force", false, "re-embed everything, ignoring the manifest")
	syncCmd.Flags().Int("concurrency", 0, "override max_concurrency from config")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.MaxConcurrency = concurrency
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

	s := newSyncer(cfg, root, embedder, store, progress.NewReporter())
	s.SetForce(force)
	s.SetDryRun(dryRun)

	result, err := s.Run(ctx)
	if result != nil {
		result.SortWarnings()
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
	}
	if err != nil {
		return err
	}

	switch {
	case result.UpToDate:
		fmt.Printf("Index already up to date (%d segments across %d files).\n", result.Segments, result.Files)
	case dryRun:
		fmt.Printf("Dry run: %d to add, %d to update, %d to delete (%d unchanged).\n",
			result.Added, result.Updated, result.Deleted, result.Unchanged)
	default:
		fmt.Printf("Synced: %d added, %d updated, %d deleted, %d unchanged.\n",
			result.Added, result.Updated, result.Deleted, result.Unchanged)
		if result.Failed > 0 {
			fmt.Printf("%d segments failed to embed and will be retried on the next sync:\n", result.Failed)
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %v\n", e)
			}
		}
	}

	if verbose {
		fmt.Printf("Run %s finished in phase %s.\n", result.RunID, result.Phase)
	}
	return nil
}
