package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/errors"
)

// ReadGraph decodes a JSON graph written by [WriteGraph].
//
// Edge weights are stored under [digraph.WeightKey]. Numeric metadata
// decodes as float64.
//
// ReadGraph returns an error if the JSON is malformed, a node id is empty or
// duplicated, or an edge names an unknown node. Cycles are allowed. Errors
// wrap the digraph sentinel errors, so errors.Is works on them.
func ReadGraph(r io.Reader) (*digraph.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := digraph.New(nil)
	for _, n := range data.Nodes {
		if err := g.AddNode(digraph.Node{ID: n.ID, Meta: n.Meta}); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		var meta digraph.Metadata
		if e.Weight != nil {
			meta = digraph.Metadata{digraph.WeightKey: *e.Weight}
		}
		if err := g.AddEdge(digraph.Edge{From: e.From, To: e.To, Meta: meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// ImportGraph reads a JSON graph file at path. A missing file is a
// FILE_NOT_FOUND error.
func ImportGraph(path string) (*digraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}
