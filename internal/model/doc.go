// Package model defines shared data types used across marketstream.
//
// Conventions:
//   - Quantities and prices: float64, matching the JSON wire format
//   - Timestamps: time.Time in structs, RFC 3339 on the wire
//   - Order IDs: uint64, strictly increasing per process lifetime
package model
