// Package feed bridges external market-data producers into the hub.
//
// Trades and order-book updates published by the matching engine
// arrive on NATS subjects ("<prefix>.trades.<symbol>" and
// "<prefix>.books.<symbol>") and are re-broadcast to streaming
// subscribers. The feed is a consumer only; it never publishes.
package feed
