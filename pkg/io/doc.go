// Package io exports analysis results as JSON and CSV files and reads
// exported product graphs back.
//
// # Files
//
// [ExportAnalysis] writes one file per table into a directory:
//
//   - nodes.json: node records with product attributes and display names
//   - edges.json: edge records with source_ and target_ prefixed fields
//   - products.json: product summaries
//   - products.csv: product summaries, one row per product
//   - product_graph.json: the weighted product graph
//
// # Graph Format
//
// Product graphs use two top-level arrays:
//
//	{
//	  "nodes": [
//	    {"id": "retail.orders", "meta": {"node_count": 4}},
//	    {"id": "finance.ledger"}
//	  ],
//	  "edges": [
//	    {"from": "retail.orders", "to": "finance.ledger", "weight": 2}
//	  ]
//	}
//
// The meta object holds the scalar summary fields of a product. Edges without
// a weight are written without the field. [ReadGraph] accepts the same
// format, so an exported graph can be re-imported and rendered again.
//
// # Concurrency
//
// Writers only read the analysis. They are safe to call concurrently with
// other readers of the same [pipeline.Analysis].
//
// [pipeline.Analysis]: github.com/matzehuels/productlens/pkg/pipeline.Analysis
package io
