package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"citeseek/internal/citation"
	"citeseek/internal/store"

	"github.com/spf13/cobra"
)

var flagReferences bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indexed documents",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		docs, err := m.ListDocuments()
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("The library is empty.")
			return nil
		}

		if flagReferences {
			for i, d := range docs {
				fmt.Printf("%d. %s\n", i+1, citation.FormatReference(d))
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOCUMENT\tAUTHOR\tYEAR\tPAGES")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", d.Title, d.Author, d.Year, d.Pages)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagReferences, "references", false, "print full APA references instead of a table")
	rootCmd.AddCommand(listCmd)
}
