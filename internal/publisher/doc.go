// Package publisher implements the order ingestion path.
//
// The publisher validates inbound order requests, assigns a unique
// strictly-increasing order ID and receipt timestamp, appends the
// order to the durable journal (best-effort), and hands the resulting
// event to the hub for broadcast.
package publisher
