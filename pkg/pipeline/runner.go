package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/productlens/pkg/cache"
	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/manifest"
	"github.com/matzehuels/productlens/pkg/observability"
	"github.com/matzehuels/productlens/pkg/product"
	"github.com/matzehuels/productlens/pkg/render"
	"github.com/matzehuels/productlens/pkg/render/nodelink"
)

// Runner encapsulates analysis and rendering with caching.
// Both CLI and API use it so that rendering behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// Result holds the rendered artifacts of one view.
type Result struct {
	// DOT is the Graphviz source of the view.
	DOT string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// CacheHit reports whether every cached format came from the cache.
	// DOT is never cached, so a DOT-only render is never a hit.
	CacheHit bool

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains rendering statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	RenderTime time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    TTLRender,
	}
}

// Analyze runs [Analyze] with the runner's logger as the default.
func (r *Runner) Analyze(ctx context.Context, m *manifest.Manifest, opts Options) (*Analysis, error) {
	r.applyLogger(&opts)
	a, err := Analyze(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("analyzed manifest",
		"nodes", a.Diagnostics.DataNodes,
		"edges", a.Diagnostics.Edges,
		"products", a.Diagnostics.Products,
		"duration", a.Diagnostics.Duration)
	return a, nil
}

// AnalyzeFile reads the manifest at path and analyzes it.
func (r *Runner) AnalyzeFile(ctx context.Context, path string, opts Options) (*Analysis, error) {
	m, err := manifest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Analyze(ctx, m, opts)
}

// ViewGraph returns the graph shown by a view, with excluded nodes and
// their edges removed.
func ViewGraph(a *Analysis, opts RenderOptions) (*digraph.Graph, error) {
	var (
		g   *digraph.Graph
		err error
	)
	switch opts.View {
	case ViewProduct:
		g, err = a.ProductSubgraph(opts.Product)
	case ViewNodes:
		g, err = a.NodeSubgraph(opts.Product)
	default:
		g = a.ProductGraph
	}
	if err != nil {
		return nil, err
	}
	return product.ApplyExclusions(g, opts.Exclude), nil
}

// DOT returns the Graphviz source of a view.
func DOT(a *Analysis, opts RenderOptions) (string, *digraph.Graph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", nil, err
	}
	g, err := ViewGraph(a, opts)
	if err != nil {
		return "", nil, err
	}
	return nodelink.ToDOT(g, nodelinkOptions(opts)), g, nil
}

func nodelinkOptions(opts RenderOptions) nodelink.Options {
	nl := nodelink.Options{
		Styles:   opts.Styles,
		Detailed: opts.Detailed,
	}
	switch opts.View {
	case ViewProduct:
		nl.Selected = opts.Product
		nl.Title = opts.Product
	case ViewNodes:
		nl.Title = opts.Product
		nl.Category = layerOf
	}
	return nl
}

func layerOf(n *digraph.Node) string {
	if layer, ok := n.Meta[product.MetaLayer].(string); ok {
		return layer
	}
	return ""
}

// Render renders a view of a in every requested format, serving cached
// artifacts when all of them are present.
func (r *Runner) Render(ctx context.Context, a *Analysis, opts RenderOptions) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.View, opts.Formats)

	res, err := r.render(ctx, a, opts)
	elapsed := time.Since(start)
	hooks.OnRenderComplete(ctx, opts.View, opts.Formats, elapsed, err)
	if err != nil {
		return nil, err
	}
	res.Stats.RenderTime = elapsed

	r.Logger.Info("rendered outputs",
		"view", opts.View,
		"product", opts.Product,
		"formats", opts.Formats,
		"cached", res.CacheHit,
		"duration", elapsed)
	return res, nil
}

// RenderGraph renders a product graph read back from an export, such as
// the product_graph.json written by the analyze command. The node-level
// view needs the data graph and is rejected. Artifacts are not cached.
func (r *Runner) RenderGraph(ctx context.Context, g *digraph.Graph, opts RenderOptions) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.View == ViewNodes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "the nodes view needs a manifest, not an exported graph")
	}
	start := time.Now()
	if opts.View == ViewProduct {
		sub, err := product.Subgraph(g, opts.Product)
		if err != nil {
			return nil, err
		}
		g = sub
	}
	g = product.ApplyExclusions(g, opts.Exclude)
	dot := nodelink.ToDOT(g, nodelinkOptions(opts))

	res := &Result{
		DOT:       dot,
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		Stats:     Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()},
	}
	for _, format := range opts.Formats {
		if format == render.FormatDOT {
			res.Artifacts[format] = []byte(dot)
			continue
		}
		data, err := r.renderFormat(ctx, dot, format, opts.Scale)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		res.Artifacts[format] = data
	}
	res.Stats.RenderTime = time.Since(start)
	r.Logger.Info("rendered exported graph",
		"view", opts.View,
		"product", opts.Product,
		"formats", opts.Formats,
		"duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) render(ctx context.Context, a *Analysis, opts RenderOptions) (*Result, error) {
	dot, g, err := DOT(a, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{
		DOT:       dot,
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		Stats:     Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()},
	}

	cacheHooks := observability.Cache()

	cacheable, hits := 0, 0
	for _, format := range opts.Formats {
		if format == render.FormatDOT {
			res.Artifacts[format] = []byte(dot)
			continue
		}
		cacheable++
		key := r.renderKey(a, opts, dot, format)

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				cacheHooks.OnCacheHit(ctx, "render")
				res.Artifacts[format] = data
				hits++
				continue
			}
			cacheHooks.OnCacheMiss(ctx, "render")
		}

		data, err := r.renderFormat(ctx, dot, format, opts.Scale)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		res.Artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "render", len(data))
		}
	}
	res.CacheHit = cacheable > 0 && hits == cacheable
	return res, nil
}

// RenderKey returns the cache key of one rendered format of a view.
func (r *Runner) RenderKey(a *Analysis, opts RenderOptions, format string) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	dot, _, err := DOT(a, opts)
	if err != nil {
		return "", err
	}
	return r.renderKey(a, opts, dot, format), nil
}

func (r *Runner) renderKey(a *Analysis, opts RenderOptions, dot, format string) string {
	keyOpts := cache.RenderKeyOpts{
		View:            opts.View,
		Product:         opts.Product,
		Format:          format,
		Exclude:         opts.Exclude,
		IncludeInternal: a.Options.IncludeInternal,
		Detailed:        opts.Detailed,
		StylesHash:      stylesHash(opts.Styles),
		SourceHash:      cache.Hash([]byte(dot)),
	}
	if format == render.FormatPNG {
		keyOpts.Scale = opts.Scale
	}
	return r.Keyer.RenderKey(a.Fingerprint(), keyOpts)
}

func (r *Runner) renderFormat(ctx context.Context, dot, format string, scale float64) ([]byte, error) {
	if format == render.FormatPNG {
		return nodelink.RenderPNG(ctx, dot, scale)
	}
	return nodelink.Render(ctx, dot, format)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func stylesHash(styles map[string]nodelink.Style) string {
	if len(styles) == 0 {
		return ""
	}
	data, _ := json.Marshal(styles)
	return cache.Hash(data)
}
