package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mkarrett/codescope/internal/manifest"
	"github.com/mkarrett/codescope/internal/vectordb"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index as a portable JSON snapshot",
	Long: `Writes every indexed segment as a JSON array of id, vector, and
metadata records. The snapshot can be queried on another machine with
` + "`codescope query --from snapshot.json`" + ` without access to this
repository's store.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "codescope-export.json", "output file path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	output, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, err := repoRoot()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, root, nil)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer store.Close()

	m, err := manifest.Load(manifest.Path(cfg.IndexDir(root)))
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if len(m.Entries) == 0 {
		return fmt.Errorf("nothing to export; run `codescope sync` first")
	}

	ids := make([]string, 0, len(m.Entries))
	for id := range m.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	n, err := vectordb.Export(ctx, store, ids, output)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d segments to %s.\n", n, output)
	return nil
}
