// Package domain defines the core types of the user ingestion pipeline.
//
// Types in this package are plain values with no database or HTTP
// dependencies. They are the shared language between the ingest core, the
// storage and repository adapters, and the API layer.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Sentinel errors and failure tags belong here
package domain
