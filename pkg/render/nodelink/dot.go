package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/productlens/pkg/classify"
	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/render"
)

// SelectedFill is the fill colour of the highlighted node.
const SelectedFill = "green"

// Style is the Graphviz appearance of one node category.
type Style struct {
	Shape     string `toml:"shape" json:"shape"`
	Color     string `toml:"color" json:"color"`
	FillColor string `toml:"fillcolor" json:"fillcolor"`
	FontColor string `toml:"fontcolor" json:"fontcolor"`
	Style     string `toml:"style" json:"style"`
}

func outlined(shape, color string) Style {
	return Style{Shape: shape, Color: color, FillColor: "white", FontColor: "black", Style: "filled"}
}

// Palette is the default sequence of category styles. Categories beyond its
// length reuse it from the start.
var Palette = []Style{
	outlined("box", "green"),
	outlined("ellipse", "black"),
	outlined("cds", "blue"),
	outlined("cds", "yellow"),
	outlined("component", "red"),
	outlined("note", "teal"),
	outlined("diamond", "orange"),
	outlined("diamond", "purple"),
}

// Options configures node-link diagram rendering.
type Options struct {
	// Exclude lists node IDs omitted together with their edges.
	Exclude []string

	// Styles pins the style of specific categories. Other categories are
	// assigned from Palette.
	Styles map[string]Style

	// Palette overrides the default [Palette].
	Palette []Style

	// Selected is the ID of a node drawn with [SelectedFill].
	Selected string

	// Detailed appends scalar node metadata to labels.
	// When false, only the node ID is shown.
	Detailed bool

	// Title is drawn above the graph when set.
	Title string

	// Category maps a node to its style category. The default is the node
	// ID up to its first ".".
	Category func(*digraph.Node) string
}

func (o Options) category(n *digraph.Node) string {
	if o.Category != nil {
		return o.Category(n)
	}
	return classify.CategoryOf(n.ID)
}

// ToDOT converts a graph to Graphviz DOT format for node-link visualization.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Output depends only on g and opts: nodes and edges keep graph order and
// categories are matched to palette entries in sorted order.
func ToDOT(g *digraph.Graph, opts Options) string {
	if len(opts.Exclude) > 0 {
		g = g.Without(opts.Exclude...)
	}

	var cats []string
	for _, n := range g.Nodes() {
		cats = append(cats, opts.category(n))
	}
	slices.Sort(cats)
	styles := AssignStyles(slices.Compact(cats), opts.Palette, opts.Styles)

	var buf bytes.Buffer
	buf.WriteString("digraph models {\n")
	buf.WriteString("  rankdir=\"LR\";\n")
	buf.WriteString("  nodesep=0.1;\n")
	buf.WriteString("  graph [margin=0 ratio=auto size=10];\n")
	buf.WriteString("  node [fontsize=10 height=0.25];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		style := styles[opts.category(n)]
		if n.ID == opts.Selected {
			style.FillColor = SelectedFill
		}
		attrs := fmtStyle(style)
		attrs = append(attrs, fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, " "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if w, ok := e.Weight(); ok {
			fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", e.From, e.To, w)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// AssignStyles maps each category to a style. Pinned styles win; the rest
// take palette entries in the order given, cycling when the palette runs
// out. A nil palette uses [Palette].
func AssignStyles(categories []string, palette []Style, pinned map[string]Style) map[string]Style {
	if len(palette) == 0 {
		palette = Palette
	}
	out := make(map[string]Style, len(categories))
	i := 0
	for _, c := range categories {
		if s, ok := pinned[c]; ok {
			out[c] = s
			continue
		}
		out[c] = palette[i%len(palette)]
		i++
	}
	return out
}

func fmtStyle(s Style) []string {
	var attrs []string
	for _, kv := range [][2]string{
		{"shape", s.Shape},
		{"fillcolor", s.FillColor},
		{"fontcolor", s.FontColor},
		{"color", s.Color},
		{"style", s.Style},
	} {
		if kv[1] != "" {
			attrs = append(attrs, fmt.Sprintf("%s=%q", kv[0], kv[1]))
		}
	}
	return attrs
}

func fmtLabel(n *digraph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if strings.HasPrefix(k, "_") {
			continue
		}
		switch v := n.Meta[k].(type) {
		case string, bool, int, int64, float64:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	if len(parts) == 0 {
		return n.ID
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// Render produces dot in the requested format. PNG output uses 2x scale.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	if err := render.ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatPNG:
		return RenderPNG(ctx, dot, 2.0)
	case render.FormatPDF:
		return RenderPDF(ctx, dot)
	default:
		return RenderSVG(ctx, dot)
	}
}
