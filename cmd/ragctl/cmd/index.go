package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/postgres"
)

// newIndexCmd creates the index command group.
func newIndexCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build, inspect and publish snippet indexes",
	}
	cmd.AddCommand(newIndexBuildCmd())
	cmd.AddCommand(newIndexInspectCmd())
	cmd.AddCommand(newIndexPushCmd(opts))
	return cmd
}

func newIndexBuildCmd() *cobra.Command {
	var (
		corpusDir string
		out       string
		maxLen    int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Split a directory of .txt files into a JSON snippet index",
		Example: `  ragctl index build --corpus data/corpus --out data/index.json
  ragctl index build --corpus docs --out /tmp/index.json --max-len 500`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snippets, err := corpus.BuildFromDir(cmd.Context(), corpusDir, maxLen)
			if err != nil {
				return err
			}
			if err := corpus.Validate(snippets); err != nil {
				return fmt.Errorf("corpus %s: %w", corpusDir, err)
			}
			if err := corpus.WriteFile(out, snippets); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d snippets to %s\n", len(snippets), out)
			return err
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", "data/corpus", "Directory of .txt files")
	cmd.Flags().StringVar(&out, "out", "data/index.json", "Output index file")
	cmd.Flags().IntVar(&maxLen, "max-len", corpus.DefaultMaxSnippetLen, "Maximum snippet length in characters")

	return cmd
}

func newIndexInspectCmd() *cobra.Command {
	var terms []string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Load an index file and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snippets, err := corpus.LoadFile(args[0])
			if err != nil {
				return err
			}
			idx, err := index.Build(snippets)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Snippets:       %d\n", idx.Len())
			fmt.Fprintf(w, "Vocabulary:     %d terms\n", idx.Vocabulary())
			fmt.Fprintf(w, "Avg doc length: %.1f tokens\n", idx.AvgDocLength())

			longest := idx.DocStats(0)
			for i := 1; i < idx.Len(); i++ {
				if st := idx.DocStats(i); st.DocLen > longest.DocLen {
					longest = st
				}
			}
			fmt.Fprintf(w, "Longest:        %s (%d tokens)\n", longest.DocID, longest.DocLen)

			for _, term := range terms {
				term = strings.ToLower(term)
				postings := idx.Postings(term)
				fmt.Fprintf(w, "\n%s: %d snippet(s)\n", term, len(postings))
				for _, p := range postings {
					fmt.Fprintf(w, "  %s tf=%d\n", idx.DocStats(p.Doc).DocID, p.Frequency)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&terms, "term", nil, "Print the postings of these terms")

	return cmd
}

func newIndexPushCmd(opts *rootOptions) *cobra.Command {
	var (
		in    string
		table string
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Replace a Postgres snippet table with the contents of an index file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if table == "" {
				table = cfg.Index.Table
			}

			snippets, err := corpus.LoadFile(in)
			if err != nil {
				return err
			}

			db, err := postgres.New(cfg.Postgres)
			if err != nil {
				return fmt.Errorf("connecting to postgres: %w", err)
			}
			defer db.Close()

			if err := corpus.StorePostgres(cmd.Context(), db, table, snippets); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored %d snippets in %s\n", len(snippets), table)
			return err
		},
	}

	cmd.Flags().StringVar(&in, "in", "data/index.json", "Index file to publish")
	cmd.Flags().StringVar(&table, "table", "", "Target table (defaults to index.table)")

	return cmd
}
