package lineage

import (
	"encoding/json"

	"github.com/matzehuels/productlens/pkg/digraph"
	"github.com/matzehuels/productlens/pkg/errors"
)

// EdgeRecord is one data graph edge joined with both endpoint records.
type EdgeRecord struct {
	Source     string
	Target     string
	SourceNode NodeRecord
	TargetNode NodeRecord
	IsInternal bool
}

// SourceProduct returns the source's product name and whether it has one.
func (e EdgeRecord) SourceProduct() (string, bool) {
	return e.SourceNode.Product.Name, e.SourceNode.Product.Valid
}

// TargetProduct returns the target's product name and whether it has one.
func (e EdgeRecord) TargetProduct() (string, bool) {
	return e.TargetNode.Product.Name, e.TargetNode.Product.Valid
}

// MarshalJSON writes the endpoint records with source_ and target_ prefixes.
func (e EdgeRecord) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"source":           e.Source,
		"target":           e.Target,
		"is_internal_edge": e.IsInternal,
	}
	for prefix, rec := range map[string]NodeRecord{"source_": e.SourceNode, "target_": e.TargetNode} {
		out[prefix+"display_name"] = rec.DisplayName
		out[prefix+"resource_type"] = rec.Node.ResourceType
		out[prefix+"package_name"] = rec.Node.PackageName
		if rec.Product.Valid {
			out[prefix+"product_category"] = rec.Product.Category
			out[prefix+"product_name"] = rec.Product.Name
			out[prefix+"product_layer"] = rec.Product.Layer
		} else {
			out[prefix+"product_category"] = nil
			out[prefix+"product_name"] = nil
			out[prefix+"product_layer"] = nil
		}
	}
	return json.Marshal(out)
}

// EdgeTable holds one record per data graph edge in graph order.
type EdgeTable struct {
	records []EdgeRecord
}

// BuildEdgeTable joins every edge of g with the node records of its
// endpoints. An endpoint missing from nodes is a REFERENTIAL_INTEGRITY error.
func BuildEdgeTable(g *digraph.Graph, nodes *NodeTable) (*EdgeTable, error) {
	t := &EdgeTable{records: make([]EdgeRecord, 0, g.EdgeCount())}
	for _, e := range g.Edges() {
		src, ok := nodes.Get(e.From)
		if !ok {
			return nil, errors.New(errors.ErrCodeReferentialIntegrity, "edge %s -> %s: source has no node record", e.From, e.To)
		}
		dst, ok := nodes.Get(e.To)
		if !ok {
			return nil, errors.New(errors.ErrCodeReferentialIntegrity, "edge %s -> %s: target has no node record", e.From, e.To)
		}
		t.records = append(t.records, EdgeRecord{
			Source:     e.From,
			Target:     e.To,
			SourceNode: src,
			TargetNode: dst,
			IsInternal: src.Product.Valid && dst.Product.Valid && src.Product.Name == dst.Product.Name,
		})
	}
	return t, nil
}

// Len returns the number of records.
func (t *EdgeTable) Len() int { return len(t.records) }

// Records returns all records in graph order. The slice must not be modified.
func (t *EdgeTable) Records() []EdgeRecord { return t.records }

// ForNode returns the edges entering or leaving id.
func (t *EdgeTable) ForNode(id string) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range t.records {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// ForProduct returns the edges with either endpoint in product.
func (t *EdgeTable) ForProduct(product string) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range t.records {
		s, sok := e.SourceProduct()
		d, dok := e.TargetProduct()
		if (sok && s == product) || (dok && d == product) {
			out = append(out, e)
		}
	}
	return out
}

// Unattributed returns the edges with at least one unattributed endpoint.
func (t *EdgeTable) Unattributed() []EdgeRecord {
	var out []EdgeRecord
	for _, e := range t.records {
		if !e.SourceNode.Product.Valid || !e.TargetNode.Product.Valid {
			out = append(out, e)
		}
	}
	return out
}
