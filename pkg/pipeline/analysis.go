package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/matzehuels/productlens/pkg/cache"
	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/lineage"
	"github.com/matzehuels/productlens/pkg/manifest"
	"github.com/matzehuels/productlens/pkg/observability"
	"github.com/matzehuels/productlens/pkg/product"
)

// Diagnostics describes how much of a manifest took part in product
// analysis.
type Diagnostics struct {
	ManifestNodes     int      `json:"manifest_nodes"`
	DataNodes         int      `json:"data_nodes"`
	Edges             int      `json:"edges"`
	DroppedEdges      int      `json:"dropped_edges"`
	Products          int      `json:"products"`
	UnattributedNodes int      `json:"unattributed_nodes"`
	UnattributedEdges int      `json:"unattributed_edges"`
	Unattributed      []string `json:"unattributed"`
	HasCycles         bool     `json:"has_cycles"`
	Duration          string   `json:"duration"`
}

// Analysis is the immutable result of analyzing one manifest.
type Analysis struct {
	DataGraph    *digraph.Graph
	Nodes        *lineage.NodeTable
	Edges        *lineage.EdgeTable
	Products     []product.Summary
	ProductGraph *digraph.Graph
	Diagnostics  Diagnostics
	Options      Options

	fingerprint string
}

// Analyze runs the full analysis of m.
//
// Structural problems (a nil manifest, an empty fully-qualified name, an
// edge without node records) abort with an error. Nodes that cannot be
// attributed to a product are kept and reported in Diagnostics.
func Analyze(ctx context.Context, m *manifest.Manifest, opts Options) (*Analysis, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "manifest is nil")
	}
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, m.NodeCount())

	a, err := analyze(m, opts)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnAnalyzeComplete(ctx, 0, 0, elapsed, err)
		return nil, err
	}
	a.Diagnostics.Duration = elapsed.Round(time.Microsecond).String()
	hooks.OnAnalyzeComplete(ctx, a.Diagnostics.DataNodes, a.Diagnostics.Products, elapsed, nil)
	return a, nil
}

func analyze(m *manifest.Manifest, opts Options) (*Analysis, error) {
	logger := opts.Logger

	data, err := lineage.Load(m, opts.Kinds())
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded data graph", "nodes", data.NodeCount(), "edges", data.EdgeCount())

	nodes, err := lineage.BuildNodeTable(data, opts.Classifier(), logger)
	if err != nil {
		return nil, err
	}
	edges, err := lineage.BuildEdgeTable(data, nodes)
	if err != nil {
		return nil, err
	}

	summaries := product.Summarize(nodes, edges)
	pg := product.BuildGraph(edges, product.GraphOptions{IncludeInternal: opts.IncludeInternal}, summaries)

	unattributed := nodes.Unattributed()
	ids := make([]string, len(unattributed))
	for i, r := range unattributed {
		ids[i] = r.ID
	}
	slices.Sort(ids)

	dropped, _ := data.Meta()[lineage.MetaDropped].(int)
	a := &Analysis{
		DataGraph:    data,
		Nodes:        nodes,
		Edges:        edges,
		Products:     summaries,
		ProductGraph: pg,
		Options:      opts,
		Diagnostics: Diagnostics{
			ManifestNodes:     m.NodeCount(),
			DataNodes:         data.NodeCount(),
			Edges:             data.EdgeCount(),
			DroppedEdges:      dropped,
			Products:          len(summaries),
			UnattributedNodes: len(ids),
			UnattributedEdges: len(edges.Unattributed()),
			Unattributed:      ids,
			HasCycles:         data.Acyclic() != nil,
		},
	}
	a.fingerprint = fingerprint(a)

	if len(ids) > 0 {
		logger.Warn("unattributed nodes excluded from product analysis", "count", len(ids))
	}
	return a, nil
}

// Fingerprint returns a SHA-256 digest of the summaries, the product graph
// and the options affecting them. Identical inputs give identical
// fingerprints.
func (a *Analysis) Fingerprint() string { return a.fingerprint }

// Product returns the summary of one product.
func (a *Analysis) Product(name string) (product.Summary, bool) {
	return product.Find(a.Products, name)
}

// ProductNames returns the product names in sorted order.
func (a *Analysis) ProductNames() []string {
	return product.Names(a.Products)
}

// ProductSubgraph returns the product-level drill-down of name.
func (a *Analysis) ProductSubgraph(name string) (*digraph.Graph, error) {
	return product.Subgraph(a.ProductGraph, name)
}

// NodeSubgraph returns the node-level drill-down of name.
func (a *Analysis) NodeSubgraph(name string) (*digraph.Graph, error) {
	return product.NodeSubgraph(a.DataGraph, a.Nodes, name)
}

type fingerprintEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight,omitempty"`
}

type fingerprintNode struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Layer       string `json:"layer,omitempty"`
}

// fingerprint hashes everything a rendered view can show: the product
// tables and graph as well as the data nodes and edges behind the
// node-level drill-down.
func fingerprint(a *Analysis) string {
	var edges, dataEdges []fingerprintEdge
	for _, e := range a.ProductGraph.Edges() {
		w, _ := e.Weight()
		edges = append(edges, fingerprintEdge{From: e.From, To: e.To, Weight: w})
	}
	for _, e := range a.DataGraph.Edges() {
		dataEdges = append(dataEdges, fingerprintEdge{From: e.From, To: e.To})
	}
	nodes := make([]fingerprintNode, 0, a.Nodes.Len())
	for _, r := range a.Nodes.Records() {
		nodes = append(nodes, fingerprintNode{
			ID:          r.ID,
			Kind:        r.Node.ResourceType,
			DisplayName: r.DisplayName,
			Layer:       r.Product.Layer,
		})
	}
	data, _ := json.Marshal(struct {
		Products     []product.Summary `json:"products"`
		Edges        []fingerprintEdge `json:"edges"`
		DataNodes    []fingerprintNode `json:"data_nodes"`
		DataEdges    []fingerprintEdge `json:"data_edges"`
		Unattributed []string          `json:"unattributed"`
		Options      Options           `json:"options"`
	}{a.Products, edges, nodes, dataEdges, a.Diagnostics.Unattributed, a.Options})
	return cache.Hash(data)
}
