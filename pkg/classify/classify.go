// Package classify maps a node's fully-qualified path to the data product it
// belongs to.
//
// A path of the form
//
//	[project, category, product, layer, ..., leaf]
//
// yields category "category", product name "category.product" and layer
// "layer". Four-segment paths have no layer segment and get [RootLayer].
// Shorter paths, and paths whose category is excluded, are unattributed: all
// fields are null and the node takes no part in product analysis.
package classify

import (
	"slices"

	"github.com/matzehuels/productlens/pkg/errors"
)

// RootLayer is the layer assigned to nodes that sit directly under their
// product with no layer segment.
const RootLayer = "_root_"

// minSegments is the shortest path that can name a product.
const minSegments = 4

// Attributes is the product classification of a single node. When Valid is
// false every other field is null and must be ignored.
type Attributes struct {
	Valid    bool   `json:"-"`
	Category string `json:"product_category"`
	Name     string `json:"product_name"`
	Layer    string `json:"product_layer"`
}

// Unattributed is the all-null classification.
var Unattributed = Attributes{}

// Classify derives product attributes from a fully-qualified path.
//
// An empty path is an INVALID_INPUT error. Paths with fewer than four
// segments, or whose category (the second segment) appears in excluded,
// return [Unattributed] with a nil error.
func Classify(fqn []string, excluded []string) (Attributes, error) {
	if len(fqn) == 0 {
		return Unattributed, errors.New(errors.ErrCodeInvalidInput, "fully-qualified name is empty")
	}
	if len(fqn) < minSegments || slices.Contains(excluded, fqn[1]) {
		return Unattributed, nil
	}
	layer := RootLayer
	if len(fqn) > minSegments {
		layer = fqn[3]
	}
	return Attributes{
		Valid:    true,
		Category: fqn[1],
		Name:     fqn[1] + "." + fqn[2],
		Layer:    layer,
	}, nil
}

// Classifier applies a fixed exclusion list and, optionally, an allow-list of
// categories.
type Classifier struct {
	// Excluded categories are always unattributed.
	Excluded []string

	// Allowed, when non-empty, lists the only categories that may form
	// products. Categories outside it are unattributed, or rejected in
	// Strict mode.
	Allowed []string

	// Strict turns an Allowed miss into an UNCLASSIFIABLE_IDENTIFIER error.
	Strict bool
}

// Classify runs [Classify] with the classifier's exclusions and then applies
// the allow-list.
func (c Classifier) Classify(fqn []string) (Attributes, error) {
	attrs, err := Classify(fqn, c.Excluded)
	if err != nil || !attrs.Valid || len(c.Allowed) == 0 {
		return attrs, err
	}
	if slices.Contains(c.Allowed, attrs.Category) {
		return attrs, nil
	}
	if c.Strict {
		return Unattributed, errors.New(errors.ErrCodeUnclassifiable,
			"category %q is not in the allowed list", attrs.Category)
	}
	return Unattributed, nil
}

// DisplayName joins the product name and a node name. Unattributed nodes
// keep their plain name.
func (a Attributes) DisplayName(name string) string {
	if !a.Valid {
		return name
	}
	return a.Name + "." + name
}

// CategoryOf returns the prefix of a product name before its first ".",
// or the whole name when it has no dot.
func CategoryOf(product string) string {
	for i := 0; i < len(product); i++ {
		if product[i] == '.' {
			return product[:i]
		}
	}
	return product
}
