package product

import (
	"cmp"
	"slices"

	"github.com/matzehuels/productlens/pkg/lineage"
)

// Summary holds the statistics of one product. Aggregates with no matching
// rows are zero.
type Summary struct {
	Name           string `json:"product_name"`
	NodeCount      int    `json:"node_count"`
	Layers         int    `json:"product_layers"`
	Category       string `json:"product_category"`
	Package        string `json:"package_name"`
	InternalEdges  int    `json:"count_internal_edges"`
	OutputEdges    int    `json:"count_output_edges"`
	OutputProducts int    `json:"count_output_products"`
	InputEdges     int    `json:"count_input_edges"`
	InputProducts  int    `json:"count_input_products"`
}

type accumulator struct {
	Summary
	layers  map[string]bool
	targets map[string]bool
	sources map[string]bool
}

// Summarize computes one Summary per product, sorted by product name.
// Category and package are taken from the first node of each product in
// table order.
func Summarize(nodes *lineage.NodeTable, edges *lineage.EdgeTable) []Summary {
	acc := make(map[string]*accumulator)
	for _, r := range nodes.Records() {
		if !r.Product.Valid {
			continue
		}
		a, ok := acc[r.Product.Name]
		if !ok {
			a = &accumulator{
				Summary: Summary{
					Name:     r.Product.Name,
					Category: r.Product.Category,
					Package:  r.Node.PackageName,
				},
				layers:  make(map[string]bool),
				targets: make(map[string]bool),
				sources: make(map[string]bool),
			}
			acc[r.Product.Name] = a
		}
		a.NodeCount++
		a.layers[r.Product.Layer] = true
	}

	for _, e := range edges.Records() {
		src, srcOK := e.SourceProduct()
		dst, dstOK := e.TargetProduct()
		if e.IsInternal {
			if a, ok := acc[src]; ok {
				a.InternalEdges++
			}
			continue
		}
		if a, ok := acc[src]; srcOK && ok {
			a.OutputEdges++
			if dstOK {
				a.targets[dst] = true
			}
		}
		if a, ok := acc[dst]; dstOK && ok {
			a.InputEdges++
			if srcOK {
				a.sources[src] = true
			}
		}
	}

	out := make([]Summary, 0, len(acc))
	for _, a := range acc {
		a.Layers = len(a.layers)
		a.OutputProducts = len(a.targets)
		a.InputProducts = len(a.sources)
		out = append(out, a.Summary)
	}
	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Find returns the summary named product.
func Find(summaries []Summary, product string) (Summary, bool) {
	i, ok := slices.BinarySearchFunc(summaries, product, func(s Summary, name string) int {
		return cmp.Compare(s.Name, name)
	})
	if !ok {
		return Summary{}, false
	}
	return summaries[i], true
}

// Names returns the product names of summaries in order.
func Names(summaries []Summary) []string {
	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.Name
	}
	return names
}
