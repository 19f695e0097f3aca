package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"citeseek/internal/server"
	"citeseek/internal/store"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
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
		engine, err := newEngine(cfg, m, emb)
		if err != nil {
			return err
		}
		ix, err := newIndexer(cfg, m, emb)
		if err != nil {
			return err
		}

		srv := server.New(engine, ix, m, server.Info{
			DatabasePath: dbPath(cfg),
			SourcesDir:   cfg.SourcesDir,
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
