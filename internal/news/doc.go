// Package news defines the core types shared across the ingestion pipeline:
// article records, extraction results, the typed outcomes returned by the
// image acquirer and the article store, and the interfaces each stage
// depends on.
package news
