// Package cli implements the productlens command-line interface.
//
// # Commands
//
//   - analyze: print product summaries and diagnostics, optionally export tables
//   - render: draw the product graph or a drill-down to SVG, DOT, PNG or PDF
//   - explore: pick a product interactively and render its drill-down
//   - serve: run the HTTP API
//   - cache: inspect or clear the render cache
//
// All commands accept --verbose (-v) for debug logging and --config (-c) for
// a TOML settings file. Flags override values from the file.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/productlens/pkg/buildinfo"
	"github.com/matzehuels/productlens/pkg/cache"
	"github.com/matzehuels/productlens/pkg/config"
	"github.com/matzehuels/productlens/pkg/observability"
	"github.com/matzehuels/productlens/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "productlens"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Productlens groups dbt lineage into data products",
		Long:         `Productlens reads a dbt manifest, attributes every model, seed and source to a data product by its fully-qualified name, and shows how products depend on each other.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hooks := observability.NewLogHooks(c.Logger)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetServerHooks(hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/productlens/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the settings file once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath)
	c.cfg = cfg
	return cfg, nil
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool, keyer cache.Keyer) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := c.openCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	if ttl := cfg.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

// openCache opens the configured backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), appName)
	}
	cc := cfg.CacheConfig(dir)
	ch, err := cache.Open(ctx, cc)
	if err != nil {
		if cc.Backend == cache.BackendRedis {
			return nil, err
		}
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return ch, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/productlens/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats splits a comma-separated format list. Empty input yields nil
// so that configured formats apply.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// analysisFlags are the classification flags shared by analyze, render
// and explore.
type analysisFlags struct {
	excludeCategories []string
	allowedCategories []string
	strict            bool
	extendedKinds     bool
	includeInternal   bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.excludeCategories, "exclude-category", nil, "categories never attributed to a product")
	cmd.Flags().StringSliceVar(&f.allowedCategories, "allowed-category", nil, "only these categories form products")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "warn about nodes outside --allowed-category")
	cmd.Flags().BoolVar(&f.extendedKinds, "extended-kinds", false, "include analyses and snapshots in the data graph")
	cmd.Flags().BoolVar(&f.includeInternal, "include-internal", false, "keep self-loop edges in the product graph")
}

// options overlays the flags the user set on the configured defaults.
func (f *analysisFlags) options(cmd *cobra.Command, cfg *config.Config) pipeline.Options {
	opts := cfg.AnalysisOptions()
	flags := cmd.Flags()
	if flags.Changed("exclude-category") {
		opts.ExcludeCategories = f.excludeCategories
	}
	if flags.Changed("allowed-category") {
		opts.AllowedCategories = f.allowedCategories
	}
	if flags.Changed("strict") {
		opts.Strict = f.strict
	}
	if flags.Changed("extended-kinds") {
		opts.ExtendedKinds = f.extendedKinds
	}
	if flags.Changed("include-internal") {
		opts.IncludeInternal = f.includeInternal
	}
	return opts
}

// analyze loads and analyzes a manifest, reporting load failures as
// "could not load manifest".
func (c *CLI) analyze(ctx context.Context, r *pipeline.Runner, path string, opts pipeline.Options) (*pipeline.Analysis, error) {
	prog := newProgress(c.Logger)
	a, err := r.AnalyzeFile(ctx, path, opts)
	if err != nil {
		return nil, loadError(err)
	}
	prog.done("Analyzed " + filepath.Base(path))
	return a, nil
}

// elapsed formats a duration for status lines.
func elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
