package lineage

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/productlens/pkg/classify"
	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/errors"
	"github.com/matzehuels/productlens/pkg/manifest"
)

// NodeRecord is one data graph node joined with its product classification.
type NodeRecord struct {
	ID          string
	Node        manifest.Node
	Product     classify.Attributes
	DisplayName string
}

// Attributed reports whether the node belongs to a product.
func (r NodeRecord) Attributed() bool { return r.Product.Valid }

// MarshalJSON flattens the raw manifest fields, the product attributes and
// the display name into one object. Product fields are null for
// unattributed nodes.
func (r NodeRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Node.Attrs)+5)
	for k, v := range r.Node.Attrs {
		out[k] = v
	}
	out["unique_id"] = r.ID
	out["display_name"] = r.DisplayName
	if r.Product.Valid {
		out["product_category"] = r.Product.Category
		out["product_name"] = r.Product.Name
		out["product_layer"] = r.Product.Layer
	} else {
		out["product_category"] = nil
		out["product_name"] = nil
		out["product_layer"] = nil
	}
	return json.Marshal(out)
}

// NodeTable holds one record per data graph node in graph order.
type NodeTable struct {
	records []NodeRecord
	index   map[string]int
}

// BuildNodeTable classifies every node of g. No node is dropped.
//
// An INVALID_INPUT classification error aborts the build. An
// UNCLASSIFIABLE_IDENTIFIER error from a strict classifier is logged and the
// node is recorded as unattributed. A nil logger discards those messages.
func BuildNodeTable(g *digraph.Graph, c classify.Classifier, logger *log.Logger) (*NodeTable, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	t := &NodeTable{
		records: make([]NodeRecord, 0, g.NodeCount()),
		index:   make(map[string]int, g.NodeCount()),
	}
	for _, n := range g.Nodes() {
		rec, ok := Record(n)
		if !ok {
			rec = manifest.Node{UniqueID: n.ID, Name: n.ID, Attrs: map[string]any{}}
		}
		attrs, err := c.Classify(rec.FQN)
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrCodeUnclassifiable):
			logger.Warn("unclassifiable node", "id", n.ID, "reason", errors.UserMessage(err))
			attrs = classify.Unattributed
		default:
			return nil, errors.Wrap(errors.GetCode(err), err, "classify %s", n.ID)
		}
		t.index[n.ID] = len(t.records)
		t.records = append(t.records, NodeRecord{
			ID:          n.ID,
			Node:        rec,
			Product:     attrs,
			DisplayName: attrs.DisplayName(rec.Name),
		})
	}
	return t, nil
}

// Len returns the number of records.
func (t *NodeTable) Len() int { return len(t.records) }

// Records returns all records in graph order. The slice must not be modified.
func (t *NodeTable) Records() []NodeRecord { return t.records }

// Get returns the record for id.
func (t *NodeTable) Get(id string) (NodeRecord, bool) {
	i, ok := t.index[id]
	if !ok {
		return NodeRecord{}, false
	}
	return t.records[i], true
}

// ForProduct returns the records of one product in table order.
func (t *NodeTable) ForProduct(product string) []NodeRecord {
	var out []NodeRecord
	for _, r := range t.records {
		if r.Product.Valid && r.Product.Name == product {
			out = append(out, r)
		}
	}
	return out
}

// Unattributed returns the records without a product.
func (t *NodeTable) Unattributed() []NodeRecord {
	var out []NodeRecord
	for _, r := range t.records {
		if !r.Product.Valid {
			out = append(out, r)
		}
	}
	return out
}

// Products returns the distinct product names in sorted order.
func (t *NodeTable) Products() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.records {
		if r.Product.Valid && !seen[r.Product.Name] {
			seen[r.Product.Name] = true
			names = append(names, r.Product.Name)
		}
	}
	slices.Sort(names)
	return names
}
