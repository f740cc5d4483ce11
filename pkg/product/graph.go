package product

import (
	"cmp"
	"slices"

	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/lineage"
)

// Node metadata keys set on product and node-level graphs.
const (
	MetaSummary  = "summary"
	MetaCategory = "category"
	MetaLayer    = "layer"
	MetaUniqueID = "unique_id"
	MetaKind     = "resource_type"
	MetaProduct  = "product"
)

// GraphOptions controls BuildGraph.
type GraphOptions struct {
	// IncludeInternal keeps self-loop edges carrying each product's internal
	// edge count. They are dropped by default.
	IncludeInternal bool
}

type pair struct{ from, to string }

// BuildGraph condenses edge records into a weighted product graph.
//
// Records with an unattributed endpoint are skipped. Each distinct
// (source product, target product) pair becomes one edge weighted by its
// record count, emitted in sorted pair order. When summaries are given every
// summarized product becomes a node, including isolated ones, carrying its
// Summary under [MetaSummary]; otherwise nodes are the edge endpoints.
func BuildGraph(edges *lineage.EdgeTable, opts GraphOptions, summaries []Summary) *digraph.Graph {
	weights := make(map[pair]int)
	for _, e := range edges.Records() {
		src, srcOK := e.SourceProduct()
		dst, dstOK := e.TargetProduct()
		if !srcOK || !dstOK {
			continue
		}
		if src == dst && !opts.IncludeInternal {
			continue
		}
		weights[pair{src, dst}]++
	}

	pairs := make([]pair, 0, len(weights))
	for p := range weights {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(a.from, b.from); c != 0 {
			return c
		}
		return cmp.Compare(a.to, b.to)
	})

	g := digraph.New(digraph.Metadata{"include_internal": opts.IncludeInternal})
	if len(summaries) > 0 {
		for _, s := range summaries {
			_ = g.AddNode(digraph.Node{ID: s.Name, Meta: summaryMeta(s)})
		}
	} else {
		var names []string
		for _, p := range pairs {
			names = append(names, p.from, p.to)
		}
		slices.Sort(names)
		for _, name := range slices.Compact(names) {
			_ = g.AddNode(digraph.Node{ID: name})
		}
	}
	for _, p := range pairs {
		if _, err := g.EnsureNode(p.from); err != nil {
			continue
		}
		if _, err := g.EnsureNode(p.to); err != nil {
			continue
		}
		_ = g.AddEdge(digraph.Edge{From: p.from, To: p.to, Meta: digraph.Metadata{digraph.WeightKey: weights[p]}})
	}
	return g
}

// ApplyExclusions returns a copy of g without the given nodes and their edges.
func ApplyExclusions(g *digraph.Graph, ids []string) *digraph.Graph {
	return g.Without(ids...)
}

// Subgraph returns the drill-down view of product: every edge of g whose
// source or target is product, their endpoints, and product itself even when
// it has no edges. Node and edge metadata are preserved.
//
// Returns a PRODUCT_NOT_FOUND error when product is not a node of g.
func Subgraph(g *digraph.Graph, product string) (*digraph.Graph, error) {
	if !g.HasNode(product) {
		return nil, errors.New(errors.ErrCodeProductNotFound, "product %q not found", product)
	}
	keep := map[string]bool{product: true}
	for _, id := range g.Children(product) {
		keep[id] = true
	}
	for _, id := range g.Parents(product) {
		keep[id] = true
	}

	sub := digraph.New(cloneMeta(g.Meta()))
	sub.Meta()[MetaProduct] = product
	for _, n := range g.Nodes() {
		if keep[n.ID] {
			_ = sub.AddNode(digraph.Node{ID: n.ID, Meta: cloneMeta(n.Meta)})
		}
	}
	for _, e := range g.Edges() {
		if e.From == product || e.To == product {
			_ = sub.AddEdge(digraph.Edge{From: e.From, To: e.To, Meta: cloneMeta(e.Meta)})
		}
	}
	return sub, nil
}

// NodeSubgraph returns the node-level drill-down of product: the data graph
// induced on the product's nodes, relabelled with their display names.
// Display names that collide fall back to the node's unique id.
//
// Returns a PRODUCT_NOT_FOUND error when no node belongs to product.
func NodeSubgraph(data *digraph.Graph, nodes *lineage.NodeTable, product string) (*digraph.Graph, error) {
	records := nodes.ForProduct(product)
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeProductNotFound, "product %q not found", product)
	}

	labels := make(map[string]string, len(records))
	used := make(map[string]bool, len(records))
	for _, r := range records {
		label := r.DisplayName
		if used[label] {
			label = r.ID
		}
		used[label] = true
		labels[r.ID] = label
	}

	sub := digraph.New(digraph.Metadata{MetaProduct: product})
	for _, r := range records {
		_ = sub.AddNode(digraph.Node{ID: labels[r.ID], Meta: digraph.Metadata{
			MetaUniqueID: r.ID,
			MetaKind:     r.Node.ResourceType,
			MetaCategory: r.Product.Category,
			MetaLayer:    r.Product.Layer,
		}})
	}
	for _, e := range data.Edges() {
		from, okFrom := labels[e.From]
		to, okTo := labels[e.To]
		if okFrom && okTo {
			_ = sub.AddEdge(digraph.Edge{From: from, To: to})
		}
	}
	return sub, nil
}

// SummaryOf returns the Summary stored on a product graph node.
func SummaryOf(n *digraph.Node) (Summary, bool) {
	s, ok := n.Meta[MetaSummary].(Summary)
	return s, ok
}

func summaryMeta(s Summary) digraph.Metadata {
	return digraph.Metadata{
		MetaSummary:             s,
		MetaCategory:            s.Category,
		"node_count":            s.NodeCount,
		"product_layers":        s.Layers,
		"count_internal_edges":  s.InternalEdges,
		"count_output_edges":    s.OutputEdges,
		"count_output_products": s.OutputProducts,
		"count_input_edges":     s.InputEdges,
		"count_input_products":  s.InputProducts,
	}
}

func cloneMeta(m digraph.Metadata) digraph.Metadata {
	out := make(digraph.Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
