package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagSources string
	flagData    string
)

var rootCmd = &cobra.Command{
	Use:   "citeseek",
	Short: "Question answering over a PDF library with APA citations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSources, "sources", "", "PDF source directory (default $CITESEEK_SOURCES_DIR or ./pdf_sources)")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "data directory for the index (default $CITESEEK_DATA_DIR or ./data)")
}
