package cmd

import (
	"fmt"
	"os"
	"time"

	"citeseek/internal/store"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index from the PDF source directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		m, err := store.OpenManager(dbPath(cfg), cfg.VectorDim)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer m.Close()

		emb, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		ix, err := newIndexer(cfg, m, emb)
		if err != nil {
			return err
		}

		fmt.Printf("Indexing %s...\n", cfg.SourcesDir)

		stats, err := ix.Reindex(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("\nDone in %s\n", stats.Duration.Round(time.Millisecond))
		fmt.Printf("  Documents: %d indexed, %d skipped\n", stats.DocumentsIndexed, stats.DocumentsSkipped)
		fmt.Printf("  Chunks:    %d\n", stats.ChunksIndexed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
