package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarrett/codescope/internal/manifest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how far the index lags the working tree",
	Long:  `Computes the pending diff between the repository's current segments and the last persisted manifest, without mutating anything.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, err := repoRoot()
	if err != nil {
		return err
	}

	// Status only diffs, so no embedder or store is needed.
	s := newSyncer(cfg, root, nil, nil, nil)
	result, err := s.Status(ctx)
	if err != nil {
		return err
	}

	result.SortWarnings()
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	m, loadErr := manifest.Load(manifest.Path(cfg.IndexDir(root)))
	if loadErr == nil && m.Generation > 0 {
		fmt.Printf("Profile %q, generation %d, last synced %s.\n",
			cfg.Profile, m.Generation, m.SyncedAt.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Profile %q has never been synced.\n", cfg.Profile)
	}

	if result.UpToDate {
		fmt.Printf("Index is up to date: %d segments across %d files.\n", result.Segments, result.Files)
		return nil
	}

	fmt.Printf("Pending changes: %d to add, %d to update, %d to delete (%d unchanged).\n",
		result.Added, result.Updated, result.Deleted, result.Unchanged)
	fmt.Println("Run `codescope sync` to apply them.")
	return nil
}
