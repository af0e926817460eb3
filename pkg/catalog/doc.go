// Package catalog defines the package catalog data model shared by the
// chunk cache, the in-memory store and the query engine.
//
// Catalog records come from an external service with a loosely enforced
// schema. ParseEntries reads the documented subset of fields and falls back
// to zero values on absence or type mismatch instead of failing the chunk.
package catalog
