// Package server wires the HTTP surface of streamd:
//
//   - POST /api/v1/orders: order ingestion
//   - GET  /ws: streaming subscription endpoint
//   - GET  /api/v1/stats: runtime statistics
//   - GET  /health: health check
//   - GET  /metrics: Prometheus scrape endpoint
package server
