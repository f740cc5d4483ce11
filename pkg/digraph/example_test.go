package digraph_test

import (
	"fmt"

	"github.com/matzehuels/productlens/pkg/digraph"
)

func ExampleGraph_basic() {
	// Two products with a weighted dependency between them
	g := digraph.New(nil)
	_ = g.AddNode(digraph.Node{ID: "retail.orders"})
	_ = g.AddNode(digraph.Node{ID: "finance.ledger"})
	_ = g.AddEdge(digraph.Edge{
		From: "retail.orders",
		To:   "finance.ledger",
		Meta: digraph.Metadata{digraph.WeightKey: 3},
	})

	e, _ := g.Edge("retail.orders", "finance.ledger")
	w, _ := e.Weight()
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Weight:", w)
	// Output:
	// Nodes: 2
	// Weight: 3
}

func ExampleGraph_Without() {
	g := digraph.New(nil)
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(digraph.Node{ID: id})
	}
	_ = g.AddEdge(digraph.Edge{From: "a", To: "b"})
	_ = g.AddEdge(digraph.Edge{From: "b", To: "c"})

	// Drop "b" and both edges touching it
	sub := g.Without("b")
	fmt.Println(sub.NodeIDs(), sub.EdgeCount())
	// Output:
	// [a c] 0
}
