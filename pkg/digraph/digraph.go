package digraph

import (
	"errors"
	"slices"
	"strconv"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [Graph.Acyclic] when a directed cycle
	// is detected using depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// WeightKey is the edge metadata key holding an integer edge weight.
const WeightKey = "weight"

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil once attached to a graph.
type Metadata map[string]any

// Node is a vertex identified by a unique ID.
type Node struct {
	ID   string   // Unique identifier (also used as display label)
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From string   // Source node ID
	To   string   // Target node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// Weight returns the integer weight stored under [WeightKey] and whether one
// was set.
func (e Edge) Weight() (int, bool) {
	switch w := e.Meta[WeightKey].(type) {
	case int:
		return w, true
	case int64:
		return int(w), true
	case float64:
		return int(w), true
	case string:
		n, err := strconv.Atoi(w)
		return n, err == nil
	}
	return 0, false
}

type edgeKey struct{ from, to string }

// Graph is a simple directed graph with deterministic iteration order.
// Nodes and edges are returned in insertion order, and at most one edge
// exists per ordered (From, To) pair, so re-adding an edge is a no-op.
//
// The zero value is not usable - use New to create a valid Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	edgeIdx  map[edgeKey]int
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	meta     Metadata
}

// New creates an empty Graph with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		edgeIdx:  make(map[edgeKey]int),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// EnsureNode adds a node with the given ID if it does not exist yet and
// returns the stored node either way.
func (g *Graph) EnsureNode(id string) (*Node, error) {
	if n, ok := g.nodes[id]; ok {
		return n, nil
	}
	if err := g.AddNode(Node{ID: id}); err != nil {
		return nil, err
	}
	return g.nodes[id], nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist.
//
// Adding an edge that already exists is a no-op; the first edge's metadata
// is kept.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	key := edgeKey{e.From, e.To}
	if _, exists := g.edgeIdx[key]; exists {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	g.edgeIdx[key] = len(g.edges)
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Edge returns the edge from→to and true, or a zero Edge and false.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	i, ok := g.edgeIdx[edgeKey{from, to}]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of nodes that this node has edges to.
// The returned slice should not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node.
// The returned slice should not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Node returns the node with the given ID and true, or nil and false if not found.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Subgraph returns the subgraph induced by the nodes for which keep returns
// true. Edges are kept when both endpoints survive. Node and edge order is
// preserved; metadata maps are shallow-copied.
func (g *Graph) Subgraph(keep func(*Node) bool) *Graph {
	sub := New(cloneMeta(g.meta))
	for _, id := range g.order {
		n := g.nodes[id]
		if keep(n) {
			_ = sub.AddNode(Node{ID: n.ID, Meta: cloneMeta(n.Meta)})
		}
	}
	for _, e := range g.edges {
		if sub.HasNode(e.From) && sub.HasNode(e.To) {
			_ = sub.AddEdge(Edge{From: e.From, To: e.To, Meta: cloneMeta(e.Meta)})
		}
	}
	return sub
}

// Without returns a copy of the graph with the given nodes and every edge
// touching them removed.
func (g *Graph) Without(ids ...string) *Graph {
	if len(ids) == 0 {
		return g.Clone()
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return g.Subgraph(func(n *Node) bool { return !drop[n.ID] })
}

// Clone returns a deep copy of the graph structure with shallow-copied metadata.
func (g *Graph) Clone() *Graph {
	return g.Subgraph(func(*Node) bool { return true })
}

// Acyclic returns ErrGraphHasCycle if the graph contains a directed cycle.
// Self-loops count as cycles. Runs in O(N+E).
func (g *Graph) Acyclic() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

func cloneMeta(m Metadata) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
