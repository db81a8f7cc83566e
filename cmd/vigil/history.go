package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
	"corvid-labs/vigil/pkg/history"
	"corvid-labs/vigil/pkg/history/export"
)

var historyFlags struct {
	limit       int
	since       string
	exportLimit int
	exportSince string
	format      string
	output      string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect archived runs",
	Long: `Inspect the run history store.

Every completed run is archived with a hash chained to its predecessor,
so the history doubles as a tamper-evident audit trail. The verify
subcommand recomputes the whole chain.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  listHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  showHistory,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived runs as JSON or CSV",
	RunE:  exportHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the configured retention policy now",
	RunE:  pruneHistory,
}

var historyVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the history hash chain",
	RunE:  verifyHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyPruneCmd, historyVerifyCmd)

	historyListCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum runs to list")
	historyListCmd.Flags().StringVar(&historyFlags.since, "since", "", "only runs started within this duration (e.g. 72h)")

	historyExportCmd.Flags().IntVarP(&historyFlags.exportLimit, "limit", "n", 0, "maximum runs to export, 0 for all")
	historyExportCmd.Flags().StringVar(&historyFlags.exportSince, "since", "", "only runs started within this duration (e.g. 72h)")
	historyExportCmd.Flags().StringVarP(&historyFlags.format, "format", "f", "json", "export format: json, csv")
	historyExportCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "", "output file, stdout when empty")
}

// withStore builds the app and hands its history store to fn, erroring
// out when history is disabled in the configuration.
func withStore(cmd *cobra.Command, fn func(a *app, store history.Store) error) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := shutdownContext()
		defer cancel()
		a.Close(shutdownCtx)
	}()

	if a.store == nil {
		return cli.NewConfigError("history.enabled", "run history is disabled")
	}
	return fn(a, a.store)
}

func historyQuery(limit int, since string) (*history.Query, error) {
	query := &history.Query{Limit: limit}
	if since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value %q: %w", since, err)
		}
		cutoff := time.Now().Add(-d)
		query.Since = &cutoff
	}
	return query, nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(a *app, store history.Store) error {
		query, err := historyQuery(historyFlags.limit, historyFlags.since)
		if err != nil {
			return err
		}
		records, err := store.List(cmd.Context(), query)
		if err != nil {
			return cli.NewCommandError("history list", err)
		}
		if len(records) == 0 {
			fmt.Println("no archived runs")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tSTARTED\tDURATION\tRULES\tFAILED\tERRORS\tVIOLATIONS")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				rec.ID,
				rec.StartedAt.Format(time.RFC3339),
				rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond),
				rec.Summary.TotalRules,
				rec.Summary.FailedRules,
				rec.Summary.ErroredRules,
				rec.Summary.Violations,
			)
		}
		return w.Flush()
	})
}

func showHistory(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(a *app, store history.Store) error {
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return cli.NewCommandError("history show", err)
		}

		fmt.Printf("Run:        %s\n", rec.ID)
		fmt.Printf("Started:    %s\n", rec.StartedAt.Format(time.RFC3339))
		fmt.Printf("Finished:   %s\n", rec.FinishedAt.Format(time.RFC3339))
		fmt.Printf("Recorded:   %s\n", rec.RecordedAt.Format(time.RFC3339))
		if rec.Cancelled {
			fmt.Println("Cancelled:  yes")
		}
		fmt.Printf("Rules:      %d total, %d passed, %d failed, %d errored, %d skipped\n",
			rec.Summary.TotalRules, rec.Summary.PassedRules, rec.Summary.FailedRules,
			rec.Summary.ErroredRules, rec.Summary.SkippedRules)
		fmt.Printf("Violations: %d\n", rec.Summary.Violations)
		fmt.Printf("Hash:       %s\n", rec.Hash)

		results, err := rec.RuleResults()
		if err != nil {
			return cli.NewCommandError("history show", err)
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tSEVERITY\tSTATUS\tCONSIDERED\tVIOLATIONS")
		for _, res := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
				res.RuleID, res.Severity, res.Status, res.Considered, res.ViolationCount)
		}
		return w.Flush()
	})
}

func exportHistory(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(a *app, store history.Store) error {
		query, err := historyQuery(historyFlags.exportLimit, historyFlags.exportSince)
		if err != nil {
			return err
		}
		records, err := store.List(cmd.Context(), query)
		if err != nil {
			return cli.NewCommandError("history export", err)
		}

		out := os.Stdout
		if historyFlags.output != "" {
			f, err := os.Create(historyFlags.output)
			if err != nil {
				return cli.NewCommandError("history export", err)
			}
			defer f.Close()
			out = f
		}

		switch historyFlags.format {
		case "json":
			err = export.NewJSONExporter(true).Export(records, out)
		case "csv":
			err = export.NewCSVExporter(true).Export(records, out)
		default:
			return fmt.Errorf("unsupported export format %q (expected json or csv)", historyFlags.format)
		}
		if err != nil {
			return cli.NewCommandError("history export", err)
		}

		if historyFlags.output != "" {
			fmt.Printf("exported %d run(s) to %s\n", len(records), historyFlags.output)
		}
		return nil
	})
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(a *app, store history.Store) error {
		p := a.pruner()
		if p == nil {
			fmt.Println("no retention policy configured, nothing to prune")
			return nil
		}
		removed, err := p.Prune(cmd.Context())
		if err != nil {
			return cli.NewCommandError("history prune", err)
		}
		fmt.Printf("pruned %d run(s)\n", removed)
		return nil
	})
}

func verifyHistory(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(a *app, store history.Store) error {
		if err := store.Verify(cmd.Context()); err != nil {
			return cli.NewCommandError("history verify", err)
		}
		count, err := store.Count(cmd.Context())
		if err != nil {
			return cli.NewCommandError("history verify", err)
		}
		fmt.Printf("chain intact, %d record(s) verified\n", count)
		return nil
	})
}
