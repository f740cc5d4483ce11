// Package nodelink renders product and node-level graphs as Graphviz
// node-link diagrams.
//
// [ToDOT] lays the graph out left to right. Each node is styled by its
// category (by default the prefix of its ID before the first "."), with
// categories drawn from an eight-entry [Palette] in sorted order. Weighted
// edges carry their weight as a label, and a single node can be highlighted
// with [Options].Selected.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Selected: "retail.orders"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// SVG rendering runs Graphviz in-process through go-graphviz. PNG and PDF go
// through [github.com/matzehuels/productlens/pkg/render] and need rsvg-convert.
package nodelink
