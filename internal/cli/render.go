package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/productlens/pkg/errors"
	lensio "github.com/matzehuels/productlens/pkg/io"
	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/render"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	analysisFlags
	product  string
	nodes    bool
	formats  string
	exclude  []string
	detailed bool
	noCache  bool
	refresh  bool
	graph    bool
	output   string
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <manifest.json>",
		Short: "Render the product graph or a product drill-down",
		Long: `Render draws the weighted product graph of a dbt manifest.

With --product, only the product and its direct neighbours are drawn, the
product highlighted. Adding --nodes draws the product's own nodes instead.

With --graph, the input is a product_graph.json written by "analyze -o"
rather than a manifest. The node-level view is not available then.`,
		Example: `  productlens render target/manifest.json
  productlens render target/manifest.json -p retail.orders -f svg,dot
  productlens render target/manifest.json -p retail.orders --nodes -o orders.png
  productlens render export/product_graph.json --graph -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.nodes && opts.product == "" {
				return fmt.Errorf("--nodes requires --product")
			}
			if opts.graph {
				if opts.nodes {
					return fmt.Errorf("--nodes cannot be used with --graph")
				}
				return c.runRenderGraph(cmd, args[0], &opts)
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	opts.analysisFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.product, "product", "p", "", "render the drill-down of one product")
	cmd.Flags().BoolVar(&opts.nodes, "nodes", false, "draw the product's nodes instead of its neighbours")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "node ids to leave out of the diagram")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show summary attributes in node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render and overwrite cached artifacts")
	cmd.Flags().BoolVar(&opts.graph, "graph", false, "read an exported product_graph.json instead of a manifest")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	a, err := c.analyze(ctx, runner, path, opts.options(cmd, cfg))
	if err != nil {
		return err
	}
	if a.Diagnostics.UnattributedNodes > 0 {
		printWarning("%d nodes were unattributable and excluded from product analysis", a.Diagnostics.UnattributedNodes)
	}

	view := pipeline.ViewProducts
	switch {
	case opts.nodes:
		view = pipeline.ViewNodes
	case opts.product != "":
		view = pipeline.ViewProduct
	}
	ro := cfg.RenderOptions(view, opts.product)
	if formats := parseFormats(opts.formats); len(formats) > 0 {
		ro.Formats = formats
	}
	ro.Exclude = append(ro.Exclude, opts.exclude...)
	if cmd.Flags().Changed("detailed") {
		ro.Detailed = opts.detailed
	}
	ro.Refresh = opts.refresh

	return c.renderAndWrite(ctx, runner, a, ro, opts.output)
}

// runRenderGraph re-renders a product graph exported by analyze.
func (c *CLI) runRenderGraph(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return err
	}
	g, err := lensio.ImportGraph(path)
	if err != nil {
		return fmt.Errorf("could not load graph: %s", errors.UserMessage(err))
	}
	c.Logger.Debug("imported graph", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	view := pipeline.ViewProducts
	if opts.product != "" {
		view = pipeline.ViewProduct
	}
	ro := cfg.RenderOptions(view, opts.product)
	if formats := parseFormats(opts.formats); len(formats) > 0 {
		ro.Formats = formats
	}
	ro.Exclude = append(ro.Exclude, opts.exclude...)
	if cmd.Flags().Changed("detailed") {
		ro.Detailed = opts.detailed
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering "+viewName(ro)+"...")
	spinner.Start()
	res, err := runner.RenderGraph(ctx, g, ro)
	spinner.Stop()
	if err != nil {
		return err
	}
	return reportArtifacts(res, ro, opts.output)
}

// renderAndWrite renders one view and writes every format next to output.
func (c *CLI) renderAndWrite(ctx context.Context, runner *pipeline.Runner, a *pipeline.Analysis, ro pipeline.RenderOptions, output string) error {
	spinner := newSpinnerWithContext(ctx, "Rendering "+viewName(ro)+"...")
	spinner.Start()
	res, err := runner.Render(ctx, a, ro)
	spinner.Stop()
	if err != nil {
		return err
	}
	return reportArtifacts(res, ro, output)
}

// reportArtifacts writes rendered artifacts and prints where they went.
func reportArtifacts(res *pipeline.Result, ro pipeline.RenderOptions, output string) error {
	paths, err := writeArtifacts(res, ro.Formats, output, defaultBase(ro))
	if err != nil {
		return err
	}
	printSuccess("Rendered %s in %s", viewName(ro), elapsed(res.Stats.RenderTime))
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheHit)
	return nil
}

func viewName(ro pipeline.RenderOptions) string {
	switch ro.View {
	case pipeline.ViewProduct:
		return ro.Product
	case pipeline.ViewNodes:
		return ro.Product + " nodes"
	}
	return "product graph"
}

// defaultBase names output files after the view.
func defaultBase(ro pipeline.RenderOptions) string {
	name := "products"
	switch ro.View {
	case pipeline.ViewProduct:
		name = ro.Product
	case pipeline.ViewNodes:
		name = ro.Product + "_nodes"
	}
	return strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(name)
}

// basePath strips a known format extension from output, or returns fallback
// when output is empty.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each format to base.<format>. A single format with
// an explicit output path is written to that path unchanged.
func writeArtifacts(res *pipeline.Result, formats []string, output, fallback string) ([]string, error) {
	base := basePath(output, fallback)
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
