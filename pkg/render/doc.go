// Package render provides format conversion shared by the productlens
// renderers.
//
// Graph layout and styling live in the [nodelink] subpackage, which turns a
// product or node-level graph into Graphviz DOT and SVG. This package
// converts that SVG to PNG or PDF with the external rsvg-convert tool:
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// Conversion fails with an UNSUPPORTED error when rsvg-convert is not on the
// PATH; SVG and DOT output never need it.
//
// [nodelink]: github.com/matzehuels/productlens/pkg/render/nodelink
package render
