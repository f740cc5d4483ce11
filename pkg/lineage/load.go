package lineage

import (
	"errors"
	"slices"

	"github.com/matzehuels/productlens/pkg/digraph"
	perrors "github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/manifest"
)

// RecordKey is the node metadata key holding the typed [manifest.Node].
// All other metadata keys are the node's raw manifest fields.
const RecordKey = "_record"

// Graph metadata keys set by Load.
const (
	MetaProject = "project"
	MetaKinds   = "kinds"
	MetaDropped = "dropped_edges"
)

// Load builds the data graph of m restricted to the given resource kinds.
// A nil or empty kinds uses [manifest.DataKinds].
//
// Adjacency pairs naming an id that no collection declares are dropped and
// counted under [MetaDropped] in the graph metadata.
func Load(m *manifest.Manifest, kinds []string) (*digraph.Graph, error) {
	if m == nil {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "manifest is nil")
	}
	if len(kinds) == 0 {
		kinds = manifest.DataKinds
	}

	full := digraph.New(nil)
	for _, c := range manifest.Collections {
		coll := m.Collection(c)
		for _, id := range m.IDs(c) {
			err := full.AddNode(digraph.Node{ID: id, Meta: nodeMeta(coll[id])})
			switch {
			case err == nil, errors.Is(err, digraph.ErrDuplicateNodeID):
			default:
				return nil, perrors.Wrap(perrors.ErrCodeMalformedManifest, err, "%s: invalid node id %q", c, id)
			}
		}
	}

	dropped := 0
	link := func(parent, child string) {
		if err := full.AddEdge(digraph.Edge{From: parent, To: child}); err != nil {
			dropped++
		}
	}
	for _, parent := range sortedKeys(m.ChildMap) {
		for _, child := range m.ChildMap[parent] {
			link(parent, child)
		}
	}
	for _, child := range sortedKeys(m.ParentMap) {
		for _, parent := range m.ParentMap[child] {
			link(parent, child)
		}
	}

	g := full.Subgraph(func(n *digraph.Node) bool {
		rec, _ := Record(n)
		return rec.HasKind(kinds)
	})
	g.Meta()[MetaProject] = m.ProjectName()
	g.Meta()[MetaKinds] = slices.Clone(kinds)
	g.Meta()[MetaDropped] = dropped
	return g, nil
}

// Record returns the typed manifest record attached to a data graph node.
func Record(n *digraph.Node) (manifest.Node, bool) {
	rec, ok := n.Meta[RecordKey].(manifest.Node)
	return rec, ok
}

func nodeMeta(n manifest.Node) digraph.Metadata {
	meta := make(digraph.Metadata, len(n.Attrs)+1)
	for k, v := range n.Attrs {
		meta[k] = v
	}
	meta[RecordKey] = n
	return meta
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
