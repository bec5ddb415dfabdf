package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/kafka"
)

// newEventsCmd creates the events command group.
func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect ask events published by the server",
	}
	cmd.AddCommand(newEventsTailCmd(opts))
	return cmd
}

func newEventsTailCmd(opts *rootOptions) *cobra.Command {
	var (
		topic  string
		top    int
		window int
		quiet  bool
		group  string
		oldest bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print ask events as they arrive and a summary on exit",
		Long: `tail consumes the ask-events topic until interrupted. Each event is
printed as one JSON line; on Ctrl+C a summary of the consumed events is
printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if topic == "" {
				topic = cfg.Kafka.Topics.AskEvents
			}

			out := cmd.OutOrStdout()
			agg := analytics.NewAggregator(window)
			var copts []kafka.ConsumerOption
			if cmd.Flags().Changed("group") {
				copts = append(copts, kafka.WithGroup(group))
			}
			if oldest {
				copts = append(copts, kafka.FromBeginning())
			}
			consumer := kafka.NewConsumer(cfg.Kafka, topic, analytics.HandleEvent(agg, eventPrinter(out, quiet)), copts...)

			fmt.Fprintf(cmd.ErrOrStderr(), "Tailing %s on %v (Ctrl+C to stop)\n", topic, cfg.Kafka.Brokers)
			if err := consumer.Start(cmd.Context()); err != nil {
				return fmt.Errorf("consuming %s: %w", topic, err)
			}
			return printSummary(out, agg.Summary(top))
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Topic to consume (defaults to kafka.topics.askEvents)")
	cmd.Flags().IntVar(&top, "top", 10, "Most frequent questions to show in the summary")
	cmd.Flags().IntVar(&window, "window", analytics.DefaultWindow, "Latency samples kept for percentiles")
	cmd.Flags().StringVar(&group, "group", "", "Consumer group (defaults to kafka.consumerGroup; empty reads without committing)")
	cmd.Flags().BoolVar(&oldest, "from-beginning", false, "Start from the oldest retained event")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")

	return cmd
}

// eventPrinter writes each event as a JSON line. The consumer may call it
// from its own goroutine, so writes are serialised.
func eventPrinter(w io.Writer, quiet bool) func(analytics.AskEvent) {
	if quiet {
		return nil
	}
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(e analytics.AskEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(e)
	}
}

func printSummary(w io.Writer, s analytics.Summary) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Events:         %d\n", s.Events)
	fmt.Fprintf(w, "Canonical rate: %.3f\n", s.CanonicalRate)
	fmt.Fprintf(w, "Cache hit rate: %.3f\n", s.CacheHitRate)
	fmt.Fprintf(w, "No answer:      %d\n", s.NoAnswerCount)
	fmt.Fprintf(w, "Latency p50:    %.3f ms\n", s.P50LatencyMs)
	_, err := fmt.Fprintf(w, "Latency p95:    %.3f ms\n", s.P95LatencyMs)
	if len(s.TopQuestions) > 0 {
		fmt.Fprintln(w, "Top questions:")
		for _, q := range s.TopQuestions {
			_, err = fmt.Fprintf(w, "  %4d  %s\n", q.Count, q.Question)
		}
	}
	return err
}
