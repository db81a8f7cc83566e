package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"corvid-labs/vigil/pkg/cli"
)

var rulesFlags struct {
	format string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect configured rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules the current configuration would evaluate",
	RunE:  listRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)

	rulesListCmd.Flags().StringVarP(&rulesFlags.format, "format", "f", "text", "output format: text, json")
}

// ruleListing is the JSON shape of one listed rule.
type ruleListing struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Severity   string   `json:"severity"`
	DataSource string   `json:"data_source"`
	Enabled    bool     `json:"enabled"`
	Tags       []string `json:"tags,omitempty"`
	SourceFile string   `json:"source_file,omitempty"`
}

func listRules(cmd *cobra.Command, args []string) error {
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

	set, err := a.loadRuleSet(ctx, nil)
	if err != nil {
		return cli.NewCommandError("rules list", err)
	}
	if rulesFlags.format == "json" {
		listings := make([]ruleListing, 0, len(set.Rules))
		for _, rule := range set.Rules {
			listings = append(listings, ruleListing{
				ID:         rule.ID,
				Name:       rule.Name,
				Severity:   string(rule.Severity),
				DataSource: rule.DataSource,
				Enabled:    rule.Enabled,
				Tags:       rule.Tags,
				SourceFile: rule.SourceFile,
			})
		}
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, listings)
	}

	if len(set.Rules) == 0 {
		fmt.Println("no rules configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSEVERITY\tSOURCE\tENABLED")
	for _, rule := range set.Rules {
		enabled := "yes"
		if !rule.Enabled {
			enabled = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rule.ID, rule.Name, rule.Severity, rule.DataSource, enabled)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d rule(s), %d inline test(s)\n", len(set.Rules), len(set.Tests))
	return nil
}
