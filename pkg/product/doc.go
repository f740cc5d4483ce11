// Package product aggregates node and edge tables into per-product
// statistics and a condensed product dependency graph.
//
// A product is the set of nodes sharing a product name (see
// [github.com/matzehuels/productlens/pkg/classify]). [Summarize] computes
// one [Summary] per product; [BuildGraph] collapses node-level edges into
// weighted product-to-product edges; [Subgraph] and [NodeSubgraph] extract
// the drill-down views for a single product.
//
// Unattributed nodes never form products. Their edges still count as cross
// edges for the attributed endpoint, so a product's InternalEdges plus
// OutputEdges always equals the number of edges leaving its nodes.
package product
