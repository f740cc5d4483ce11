package digraph

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		wantErr error
	}{
		{name: "Single", nodes: []Node{{ID: "a"}}},
		{name: "EmptyID", nodes: []Node{{ID: ""}}, wantErr: ErrInvalidNodeID},
		{name: "Duplicate", nodes: []Node{{ID: "a"}, {ID: "a"}}, wantErr: ErrDuplicateNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(nil)
			var err error
			for _, n := range tt.nodes {
				if err = g.AddNode(n); err != nil {
					break
				}
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddNode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddNodeInitializesMeta(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Fatal("Meta is nil after AddNode")
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	if err := g.AddEdge(Edge{From: "x", To: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("unknown source: got %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("unknown target: got %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "b"}); err != nil {
		t.Fatalf("AddEdge() = %v", err)
	}
	if _, ok := g.Edge("a", "b"); !ok {
		t.Error("Edge(a, b) not found")
	}
	if _, ok := g.Edge("b", "a"); ok {
		t.Error("Edge(b, a) found for a one-way edge")
	}
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b", Meta: Metadata{WeightKey: 2}})
	_ = g.AddEdge(Edge{From: "a", To: "b", Meta: Metadata{WeightKey: 9}})

	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if got := g.Children("a"); len(got) != 1 {
		t.Errorf("Children(a) = %v, want one entry", got)
	}
	e, _ := g.Edge("a", "b")
	if w, _ := e.Weight(); w != 2 {
		t.Errorf("weight = %d, want first edge's 2", w)
	}
}

func TestEdgeWeight(t *testing.T) {
	tests := []struct {
		name   string
		meta   Metadata
		want   int
		wantOK bool
	}{
		{"Int", Metadata{WeightKey: 3}, 3, true},
		{"Float", Metadata{WeightKey: 4.0}, 4, true},
		{"String", Metadata{WeightKey: "5"}, 5, true},
		{"BadString", Metadata{WeightKey: "five"}, 0, false},
		{"Missing", Metadata{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Edge{Meta: tt.meta}.Weight()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Weight() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"c", "a", "b"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "b", To: "a"})
	_ = g.AddEdge(Edge{From: "c", To: "a"})

	if got := g.NodeIDs(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("NodeIDs() = %v", got)
	}
	edges := g.Edges()
	if edges[0].From != "b" || edges[1].From != "c" {
		t.Errorf("Edges() order = %v", edges)
	}
}

func TestSubgraph(t *testing.T) {
	g := diamond(t)
	sub := g.Subgraph(func(n *Node) bool { return n.ID != "b" })

	if got := sub.NodeIDs(); !slices.Equal(got, []string{"a", "c", "d"}) {
		t.Errorf("NodeIDs() = %v", got)
	}
	if _, ok := sub.Edge("a", "b"); ok || sub.EdgeCount() != 2 {
		t.Errorf("edges = %v", sub.Edges())
	}
	if g.NodeCount() != 4 {
		t.Error("Subgraph mutated the original graph")
	}
}

func TestWithout(t *testing.T) {
	g := diamond(t)
	sub := g.Without("a", "d")
	if sub.NodeCount() != 2 || sub.EdgeCount() != 0 {
		t.Errorf("Without(a, d) = %d nodes, %d edges", sub.NodeCount(), sub.EdgeCount())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := diamond(t)
	c := g.Clone()
	n, _ := c.Node("a")
	n.Meta["touched"] = true

	orig, _ := g.Node("a")
	if _, ok := orig.Meta["touched"]; ok {
		t.Error("Clone shares node metadata with the original")
	}
}

func TestAcyclic(t *testing.T) {
	g := diamond(t)
	if err := g.Acyclic(); err != nil {
		t.Fatalf("diamond: Acyclic() = %v", err)
	}
	_ = g.AddEdge(Edge{From: "d", To: "a"})
	if err := g.Acyclic(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("cycle: Acyclic() = %v, want ErrGraphHasCycle", err)
	}

	self := New(nil)
	_ = self.AddNode(Node{ID: "x"})
	_ = self.AddEdge(Edge{From: "x", To: "x"})
	if err := self.Acyclic(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("self-loop: Acyclic() = %v, want ErrGraphHasCycle", err)
	}
}

func TestEnsureNode(t *testing.T) {
	g := New(nil)
	a, err := g.EnsureNode("a")
	if err != nil {
		t.Fatal(err)
	}
	a.Meta["k"] = "v"
	again, _ := g.EnsureNode("a")
	if again.Meta["k"] != "v" || g.NodeCount() != 1 {
		t.Error("EnsureNode replaced an existing node")
	}
	if _, err := g.EnsureNode(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("EnsureNode(\"\") = %v", err)
	}
}

func diamond(t *testing.T) *Graph {
	t.Helper()
	g := New(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}
