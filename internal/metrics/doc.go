// Package metrics provides Prometheus instrumentation for streamd.
//
// Key metrics:
//   - WebSocket connections by state
//   - Orders processed by symbol/side/type
//   - Events published and messages streamed by type
//   - Sessions shed due to queue overflow
//   - Processing latency histograms (microseconds, by operation)
//
// The Recorder is constructed against an injected Registerer; nothing
// registers into the package-level default registry.
package metrics
