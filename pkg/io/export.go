package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/lineage"
	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/product"
)

// File names written by ExportAnalysis.
const (
	FileNodes        = "nodes.json"
	FileEdges        = "edges.json"
	FileProducts     = "products.json"
	FileProductsCSV  = "products.csv"
	FileProductGraph = "product_graph.json"
)

// CSVHeader is the column order of products.csv.
var CSVHeader = []string{
	"product_name",
	"node_count",
	"product_layers",
	"product_category",
	"package_name",
	"count_internal_edges",
	"count_output_edges",
	"count_output_products",
	"count_input_edges",
	"count_input_products",
}

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID   string           `json:"id"`
	Meta digraph.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight *int   `json:"weight,omitempty"`
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraph encodes a graph as JSON. Node metadata is reduced to scalar
// values; keys starting with "_" are skipped.
func WriteGraph(g *digraph.Graph, w io.Writer) error {
	out := graph{
		Nodes: make([]node, 0, g.NodeCount()),
		Edges: make([]edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, node{ID: n.ID, Meta: scalarMeta(n.Meta)})
	}
	for _, e := range g.Edges() {
		ed := edge{From: e.From, To: e.To}
		if w, ok := e.Weight(); ok {
			ed.Weight = &w
		}
		out.Edges = append(out.Edges, ed)
	}
	return writeIndented(w, out)
}

func scalarMeta(m digraph.Metadata) digraph.Metadata {
	var out digraph.Metadata
	for k, v := range m {
		if strings.HasPrefix(k, "_") {
			continue
		}
		switch v.(type) {
		case string, bool, int, int64, float64:
		default:
			continue
		}
		if out == nil {
			out = make(digraph.Metadata)
		}
		out[k] = v
	}
	return out
}

// WriteNodes encodes node records as a JSON array.
func WriteNodes(records []lineage.NodeRecord, w io.Writer) error {
	if records == nil {
		records = []lineage.NodeRecord{}
	}
	return writeIndented(w, records)
}

// WriteEdges encodes edge records as a JSON array.
func WriteEdges(records []lineage.EdgeRecord, w io.Writer) error {
	if records == nil {
		records = []lineage.EdgeRecord{}
	}
	return writeIndented(w, records)
}

// WriteProducts encodes product summaries as a JSON array.
func WriteProducts(summaries []product.Summary, w io.Writer) error {
	if summaries == nil {
		summaries = []product.Summary{}
	}
	return writeIndented(w, summaries)
}

// WriteProductsCSV writes product summaries as CSV with a [CSVHeader] row.
func WriteProductsCSV(summaries []product.Summary, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		row := []string{
			s.Name,
			strconv.Itoa(s.NodeCount),
			strconv.Itoa(s.Layers),
			s.Category,
			s.Package,
			strconv.Itoa(s.InternalEdges),
			strconv.Itoa(s.OutputEdges),
			strconv.Itoa(s.OutputProducts),
			strconv.Itoa(s.InputEdges),
			strconv.Itoa(s.InputProducts),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportAnalysis writes every table of a into dir, creating it if needed.
// It returns the paths written in a fixed order.
func ExportAnalysis(a *pipeline.Analysis, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{FileNodes, func(w io.Writer) error { return WriteNodes(a.Nodes.Records(), w) }},
		{FileEdges, func(w io.Writer) error { return WriteEdges(a.Edges.Records(), w) }},
		{FileProducts, func(w io.Writer) error { return WriteProducts(a.Products, w) }},
		{FileProductsCSV, func(w io.Writer) error { return WriteProductsCSV(a.Products, w) }},
		{FileProductGraph, func(w io.Writer) error { return WriteGraph(a.ProductGraph, w) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportGraph writes a graph to a JSON file at path.
func ExportGraph(g *digraph.Graph, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteGraph(g, w) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
