package cmd

import (
	"fmt"
	"os"

	"citeseek/internal/store"
	"citeseek/internal/tui"
)

func runTUI() error {
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

	docCount, err := m.TotalDocuments()
	if err != nil {
		return err
	}
	return tui.Run(engine, docCount)
}
