// Package digraph provides the directed graph shared by every stage of the
// productlens pipeline.
//
// # Overview
//
// Two graphs flow through productlens: the node-level data graph loaded from
// a manifest, and the condensed product graph derived from it. Both are plain
// directed graphs that may contain cycles (two products can depend on each
// other), so this package makes no acyclicity assumption. [Graph.Acyclic]
// is available for callers that want to check.
//
// # Determinism
//
// Nodes and edges iterate in insertion order. Callers that insert in a
// sorted order therefore get reproducible output, which is what makes the
// pipeline idempotent byte-for-byte.
//
// # Basic Usage
//
//	g := digraph.New(nil)
//	g.AddNode(digraph.Node{ID: "retail.orders"})
//	g.AddNode(digraph.Node{ID: "finance.ledger"})
//	g.AddEdge(digraph.Edge{From: "retail.orders", To: "finance.ledger",
//	    Meta: digraph.Metadata{digraph.WeightKey: 3}})
//
// At most one edge exists per ordered node pair. Adding the same edge twice is
// a no-op, which lets loaders merge redundant adjacency views without
// de-duplicating first.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Read-only use from
// several goroutines is safe once construction has finished.
package digraph
