package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/eval"
)

// newEvalCmd creates the eval command group.
func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score a running server against gold answers",
	}
	cmd.AddCommand(newEvalRunCmd())
	cmd.AddCommand(newEvalTemplateCmd())
	return cmd
}

func newEvalRunCmd() *cobra.Command {
	var (
		goldPath    string
		apiURL      string
		apiKey      string
		k           int
		concurrency int
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ask every gold question and report F1, substring and recall rates",
		Example: `  ragctl eval run --gold data/gold.jsonl --api http://localhost:8000 --k 5
  RAG_API_KEY=secret ragctl eval run --gold data/gold.jsonl --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gold, err := eval.LoadGold(goldPath)
			if err != nil {
				return err
			}
			if apiKey == "" {
				apiKey = os.Getenv("RAG_API_KEY")
			}

			c := client.New(apiURL, client.WithAPIKey(apiKey))
			report, err := eval.NewRunner(c, k, concurrency).Run(cmd.Context(), gold)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&goldPath, "gold", "data/gold.jsonl", "Gold JSONL file")
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8000", "Base URL of the QA server")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (defaults to $RAG_API_KEY)")
	cmd.Flags().IntVar(&k, "k", 5, "Snippets requested per question")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Concurrent requests")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}

func printReport(w io.Writer, r *eval.Report) error {
	fmt.Fprintf(w, "Questions:      %d (%d answered, %d errors)\n", r.Total, r.Used, r.Errors)
	fmt.Fprintf(w, "Answer F1:      %.3f\n", r.MeanF1)
	fmt.Fprintf(w, "Exact match:    %.3f\n", r.ExactMatch)
	fmt.Fprintf(w, "Substring hit:  %.3f\n", r.SubstringRate)
	_, err := fmt.Fprintf(w, "Recall@%d:       %.3f\n", r.K, r.RecallAtK)
	if r.IDRecallAtK > 0 || r.MRRAtK > 0 {
		fmt.Fprintf(w, "Id recall@%d:    %.3f\n", r.K, r.IDRecallAtK)
		_, err = fmt.Fprintf(w, "MRR@%d:          %.3f\n", r.K, r.MRRAtK)
	}
	return err
}

func newEvalTemplateCmd() *cobra.Command {
	var (
		out  string
		n    int
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a gold JSONL template with blank answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n < 1 {
				return fmt.Errorf("--n must be positive, got %d", n)
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := eval.WriteTemplate(f, n, rand.New(rand.NewSource(seed))); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote template with %d rows to %s\n", n, out)
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "data/gold.jsonl", "Output JSONL file")
	cmd.Flags().IntVar(&n, "n", 50, "Number of rows")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")

	return cmd
}
