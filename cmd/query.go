package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarrett/codescope/internal/retrieve"
	"github.com/mkarrett/codescope/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Semantically search the indexed codebase",
	Long: `Embeds a natural language query, fetches the nearest segments from
the vector index, and assembles a context bundle from the current
contents of the matched files. With --from, the query runs against an
exported snapshot instead of the local index.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntP("top-k", "k", 0, "number of results (overrides config top_k)")
	queryCmd.Flags().Bool("json", false, "output the full answer as JSON")
	queryCmd.Flags().Bool("no-bundle", false, "skip context bundle assembly, print matches only")
	queryCmd.Flags().String("from", "", "query an exported snapshot file instead of the local index")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := args[0]

	k, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noBundle, _ := cmd.Flags().GetBool("no-bundle")
	snapshot, _ := cmd.Flags().GetString("from")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if k > 0 {
		cfg.Query.TopK = k
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

	var store vectordb.Store
	if snapshot != "" {
		store, err = vectordb.Import(ctx, snapshot)
		if err != nil {
			return fmt.Errorf("importing snapshot: %w", err)
		}
	} else {
		store, err = openStore(cfg, root, embedder)
		if err != nil {
			return fmt.Errorf("opening vector store: %w", err)
		}
	}
	defer store.Close()

	if store.Count() == 0 {
		fmt.Println("Index is empty. Run `codescope sync` first.")
		return nil
	}

	if noBundle {
		root = ""
	}
	pipeline := newPipeline(cfg, root, embedder, store)

	answer, err := pipeline.Query(ctx, queryText)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	printAnswer(answer)
	return nil
}

func printAnswer(answer *retrieve.Answer) {
	if len(answer.Matches) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("Found %d results:\n\n", len(answer.Matches))
	for i, m := range answer.Matches {
		location := m.FilePath
		if m.StartLine > 0 {
			location = fmt.Sprintf("%s:%d", location, m.StartLine)
		}
		fmt.Printf("  %d. [%.1f%%] %s %s (%s)\n", i+1, m.Similarity*100, m.Kind, m.Name, location)
		if m.Snippet != "" {
			fmt.Printf("     %s\n", firstLine(m.Snippet))
		}
	}

	for _, w := range answer.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if answer.Bundle != "" {
		fmt.Printf("\n%s", answer.Bundle)
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
