// Package pipeline runs the productlens analysis and renders its views.
//
// This package implements the complete manifest → tables → product graph →
// diagram flow shared by the CLI and the HTTP API, so both entry points
// produce identical results for the same manifest and options.
//
// # Stages
//
//  1. Analyze: load the data graph, build node and edge tables, summarize
//     products and build the product graph ([Analyze])
//  2. Render: pick a view of the analysis, convert it to DOT and render the
//     requested formats ([Runner.Render])
//
// Analysis is pure and returns an immutable [Analysis]. Rendering goes
// through a [Runner], which caches artifacts keyed by the analysis
// fingerprint.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	a, err := runner.AnalyzeFile(ctx, "target/manifest.json", pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Render(ctx, a, pipeline.RenderOptions{
//	    View:    pipeline.ViewProduct,
//	    Product: "retail.orders",
//	    Formats: []string{"svg"},
//	})
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/productlens/pkg/classify"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/manifest"
	"github.com/matzehuels/productlens/pkg/render"
	"github.com/matzehuels/productlens/pkg/render/nodelink"
)

// Views of an analysis that can be rendered.
const (
	ViewProducts = "products" // full product graph
	ViewProduct  = "product"  // product drill-down
	ViewNodes    = "nodes"    // node-level drill-down of one product
)

// ValidViews is the set of supported views.
var ValidViews = map[string]bool{
	ViewProducts: true,
	ViewProduct:  true,
	ViewNodes:    true,
}

const (
	// DefaultFormat is the output format when none is requested.
	DefaultFormat = render.FormatSVG

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// TTLRender is how long rendered artifacts stay cached.
	TTLRender = 7 * 24 * time.Hour
)

// Options configures an analysis run.
type Options struct {
	// ExcludeCategories are never attributed to a product.
	ExcludeCategories []string `json:"exclude_categories,omitempty"`

	// AllowedCategories, when set, are the only categories forming products.
	AllowedCategories []string `json:"allowed_categories,omitempty"`

	// Strict logs nodes outside AllowedCategories as unclassifiable instead
	// of silently leaving them unattributed.
	Strict bool `json:"strict,omitempty"`

	// ExtendedKinds adds analyses and snapshots to the data kinds.
	ExtendedKinds bool `json:"extended_kinds,omitempty"`

	// IncludeInternal keeps self-loop edges in the product graph.
	IncludeInternal bool `json:"include_internal,omitempty"`

	// Logger receives progress and skip messages. Defaults to a discard logger.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks category names and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateIdentifiers(o.ExcludeCategories); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "exclude_categories")
	}
	if err := errors.ValidateIdentifiers(o.AllowedCategories); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "allowed_categories")
	}
	if o.Strict && len(o.AllowedCategories) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "strict mode requires allowed_categories")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Kinds returns the resource kinds kept in the data graph.
func (o Options) Kinds() []string {
	if o.ExtendedKinds {
		return manifest.ExtendedDataKinds
	}
	return manifest.DataKinds
}

// Classifier returns the identifier classifier for these options.
func (o Options) Classifier() classify.Classifier {
	return classify.Classifier{
		Excluded: slices.Clone(o.ExcludeCategories),
		Allowed:  slices.Clone(o.AllowedCategories),
		Strict:   o.Strict,
	}
}

// RenderOptions configures rendering of one view.
type RenderOptions struct {
	View     string                    `json:"view"`
	Product  string                    `json:"product,omitempty"`
	Formats  []string                  `json:"formats,omitempty"`
	Exclude  []string                  `json:"exclude,omitempty"`
	Styles   map[string]nodelink.Style `json:"styles,omitempty"`
	Detailed bool                      `json:"detailed,omitempty"`
	Scale    float64                   `json:"scale,omitempty"`

	// Refresh bypasses cached artifacts and overwrites them.
	Refresh bool `json:"-"`
}

// ValidateAndSetDefaults checks the view and formats and applies defaults.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if o.View == "" {
		o.View = ViewProducts
	}
	if !ValidViews[o.View] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid view %q (must be one of: products, product, nodes)", o.View)
	}
	if o.View != ViewProducts && o.Product == "" {
		return errors.New(errors.ErrCodeInvalidInput, "view %q requires a product", o.View)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for _, f := range o.Formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	return nil
}
