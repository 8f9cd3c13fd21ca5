// Package hub implements the streaming fan-out hub.
//
// The hub:
//   - Maintains the registry of live subscriber sessions
//   - Broadcasts events to sessions subscribed to the event's symbol
//   - Sheds sessions whose outbound queue is full instead of blocking
//   - Runs one reader and one writer goroutine per session
//
// Registry membership is the only state touched from multiple
// goroutines; it is guarded by a narrowly-scoped mutex. Broadcast
// snapshots the matching sessions under a read lock and enqueues
// after releasing it. Each session's subscription set is mutated only
// by that session's own reader loop.
package hub
