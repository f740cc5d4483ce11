package manifest

import (
	"slices"
)

// Resource kinds found in a manifest's resource_type field.
const (
	KindModel    = "model"
	KindSource   = "source"
	KindSeed     = "seed"
	KindAnalysis = "analysis"
	KindSnapshot = "snapshot"
	KindExposure = "exposure"
	KindTest     = "test"
)

// DataKinds is the default set of resource kinds that carry data.
var DataKinds = []string{KindSeed, KindSource, KindModel}

// ExtendedDataKinds adds analyses and snapshots to [DataKinds].
var ExtendedDataKinds = []string{KindSeed, KindSource, KindModel, KindAnalysis, KindSnapshot}

// Collection names a node collection of the manifest.
type Collection string

// Node collections, in the order they are loaded.
const (
	CollectionNodes     Collection = "nodes"
	CollectionSources   Collection = "sources"
	CollectionExposures Collection = "exposures"
)

// Collections lists every node collection in load order.
var Collections = []Collection{CollectionNodes, CollectionSources, CollectionExposures}

// Manifest is a decoded dependency manifest. It is immutable after [Read].
type Manifest struct {
	Nodes     map[string]Node
	Sources   map[string]Node
	Exposures map[string]Node
	ChildMap  map[string][]string
	ParentMap map[string][]string

	// Metadata is the optional top-level "metadata" object (project name,
	// generator version). Nil when absent.
	Metadata map[string]any
}

// Node is a single node declaration.
type Node struct {
	UniqueID     string   `json:"unique_id"`
	Name         string   `json:"name"`
	ResourceType string   `json:"resource_type"`
	FQN          []string `json:"fqn"`
	PackageName  string   `json:"package_name"`
	Path         string   `json:"path,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	// Attrs holds the raw record, including fields not modelled above.
	Attrs map[string]any `json:"-"`
}

// Collection returns the nodes of the named collection.
func (m *Manifest) Collection(c Collection) map[string]Node {
	switch c {
	case CollectionNodes:
		return m.Nodes
	case CollectionSources:
		return m.Sources
	case CollectionExposures:
		return m.Exposures
	}
	return nil
}

// IDs returns the node ids of a collection in sorted order.
func (m *Manifest) IDs(c Collection) []string {
	coll := m.Collection(c)
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Lookup finds a node in any collection. Earlier collections win when an id
// is declared twice.
func (m *Manifest) Lookup(id string) (Node, bool) {
	for _, c := range Collections {
		if n, ok := m.Collection(c)[id]; ok {
			return n, true
		}
	}
	return Node{}, false
}

// NodeCount returns the number of declared nodes across all collections.
func (m *Manifest) NodeCount() int {
	return len(m.Nodes) + len(m.Sources) + len(m.Exposures)
}

// ProjectName returns metadata.project_name when present.
func (m *Manifest) ProjectName() string {
	if s, ok := m.Metadata["project_name"].(string); ok {
		return s
	}
	return ""
}

// HasKind reports whether the node's resource kind is one of kinds.
func (n Node) HasKind(kinds []string) bool {
	return slices.Contains(kinds, n.ResourceType)
}
