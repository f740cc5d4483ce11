// Package manifest decodes dbt-style dependency manifests.
//
// A manifest declares nodes in three collections (nodes, sources, exposures)
// and their adjacency in two redundant maps (child_map, parent_map). [Read]
// checks that all five keys are present before decoding anything, so a
// structurally broken document fails fast with a MALFORMED_MANIFEST error
// from [github.com/matzehuels/productlens/pkg/errors].
//
// Each [Node] keeps its full raw record in Attrs so that fields this package
// does not model can still be passed through to exports and tooltips.
package manifest
