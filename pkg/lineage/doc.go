// Package lineage turns a decoded manifest into the node-level data graph
// and its tabular views.
//
// # Stages
//
// [Load] builds the data graph: every declared node becomes a vertex, every
// adjacency pair an edge, and the result is restricted to data-carrying
// resource kinds. [BuildNodeTable] classifies each vertex into a product via
// [github.com/matzehuels/productlens/pkg/classify], and [BuildEdgeTable]
// joins every edge with the records of both endpoints.
//
// # Ordering
//
// Collections load in the order nodes, sources, exposures with ids sorted
// within each. Edges follow child_map (sorted keys) then parent_map. Tables
// keep graph order, so identical manifests produce identical tables.
package lineage
