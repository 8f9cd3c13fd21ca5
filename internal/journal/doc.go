// Package journal implements the durable order append target.
//
// Orders are buffered in memory and batch-inserted into Postgres with
// append-only semantics (never update, only insert). Appends are
// best-effort: a failed batch is logged and counted but never blocks
// or fails the ingestion hot path.
package journal
