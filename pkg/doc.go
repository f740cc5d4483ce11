// Package pkg provides the core libraries for productlens data product
// analysis.
//
// # Overview
//
// Productlens reads a dbt manifest, attributes every model, seed and source
// to a data product derived from its fully-qualified name, and aggregates
// node-level lineage into a weighted product dependency graph.
//
// # Architecture
//
//	manifest.json
//	     ↓
//	[manifest]   decode and validate the manifest
//	     ↓
//	[lineage]    build the node graph, attribute nodes with [classify]
//	     ↓
//	[product]    summarize products, aggregate the product graph
//	     ↓
//	[render]     DOT, SVG, PNG and PDF diagrams via [nodelink]
//
// [pipeline] runs these stages end to end and caches rendered artifacts
// through [cache]. [io] exports analysis tables as JSON and CSV.
//
// # Quick Start
//
//	m, err := manifest.ReadFile("target/manifest.json")
//	if err != nil {
//	    return err
//	}
//	a, err := pipeline.Analyze(m, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, s := range a.Products {
//	    fmt.Println(s.Name, s.NodeCount)
//	}
//
// # Supporting Packages
//
//   - [digraph]: directed graph with node and edge metadata
//   - [errors]: coded errors shared by every package
//   - [config]: TOML configuration file
//   - [session]: in-memory analysis sessions for the HTTP API
//   - [observability]: hooks for pipeline, cache and server events
//   - [buildinfo]: version information set at link time
//
// [manifest]: github.com/matzehuels/productlens/pkg/manifest
// [lineage]: github.com/matzehuels/productlens/pkg/lineage
// [classify]: github.com/matzehuels/productlens/pkg/classify
// [product]: github.com/matzehuels/productlens/pkg/product
// [render]: github.com/matzehuels/productlens/pkg/render
// [nodelink]: github.com/matzehuels/productlens/pkg/render/nodelink
// [pipeline]: github.com/matzehuels/productlens/pkg/pipeline
// [cache]: github.com/matzehuels/productlens/pkg/cache
// [io]: github.com/matzehuels/productlens/pkg/io
// [digraph]: github.com/matzehuels/productlens/pkg/digraph
// [errors]: github.com/matzehuels/productlens/pkg/errors
// [config]: github.com/matzehuels/productlens/pkg/config
// [session]: github.com/matzehuels/productlens/pkg/session
// [observability]: github.com/matzehuels/productlens/pkg/observability
// [buildinfo]: github.com/matzehuels/productlens/pkg/buildinfo
package pkg
