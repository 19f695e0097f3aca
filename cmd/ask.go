package cmd

import (
	"fmt"
	"os"
	"strings"

	"citeseek/internal/store"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the cited answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath(cfg)); os.IsNotExist(err) {
			return fmt.Errorf("index not found at %s\nRun 'citeseek index' first to build it", dbPath(cfg))
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

		resp, err := engine.Answer(cmd.Context(), question)
		if err != nil {
			return err
		}

		fmt.Println(resp.Answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
