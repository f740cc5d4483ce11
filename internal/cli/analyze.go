package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	lensio "github.com/matzehuels/productlens/pkg/io"
	"github.com/matzehuels/productlens/pkg/lineage"
)

type analyzeOpts struct {
	analysisFlags
	output       string
	json         bool
	unattributed bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <manifest.json>",
		Short: "Summarize the data products of a dbt manifest",
		Long: `Analyze classifies every data node of a dbt manifest into a product and
prints one summary row per product along with diagnostics.

With --output, the node, edge and product tables and the product graph are
written to a directory as JSON and CSV.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, args[0], &opts)
		},
	}

	opts.analysisFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory to export tables to")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print summaries as JSON")
	cmd.Flags().BoolVar(&opts.unattributed, "list-unattributed", false, "list unattributed node ids")

	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, path string, opts *analyzeOpts) error {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, true, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	a, err := c.analyze(ctx, runner, path, opts.options(cmd, cfg))
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a.Products); err != nil {
			return fmt.Errorf("encode summaries: %w", err)
		}
	} else {
		title, _ := a.DataGraph.Meta()[lineage.MetaProject].(string)
		if title == "" {
			title = filepath.Base(path)
		}
		fmt.Fprintln(out, StyleTitle.Render(title))
		fmt.Fprintln(out, summaryTable(a.Products))
		printDiagnostics(a.Diagnostics)
		if opts.unattributed {
			for _, id := range a.Diagnostics.Unattributed {
				printDetail("%s", id)
			}
		}
	}

	if opts.output == "" {
		return nil
	}
	paths, err := lensio.ExportAnalysis(a, opts.output)
	if err != nil {
		return err
	}
	printSuccess("Exported %d files", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
