package model

import "time"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// IsValid reports whether s is a known side.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// OrderType identifies how an order executes.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// IsValid reports whether t is a known order type.
func (t OrderType) IsValid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// RequiresPrice reports whether orders of this type must carry a price.
func (t OrderType) RequiresPrice() bool {
	return t == OrderTypeLimit
}

// Order is an accepted order. Immutable once created.
type Order struct {
	ID        uint64    `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	OrderType OrderType `json:"order_type"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price,omitempty"` // zero for market orders
	UserID    uint32    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"` // receipt time
}

// Trade is a match between two orders, as reported by an external
// matching engine.
type Trade struct {
	ID          uint64    `json:"id"`
	Symbol      string    `json:"symbol"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	Price       float64   `json:"price"`
	Quantity    float64   `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

// BookUpdate is a point-in-time view of an order book.
type BookUpdate struct {
	Symbol      string      `json:"symbol"`
	Bids        [][]float64 `json:"bids"` // [price, quantity] best first
	Asks        [][]float64 `json:"asks"`
	LastPrice   float64     `json:"last_price"`
	Spread      float64     `json:"spread"`
	TotalVolume uint64      `json:"total_volume"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Event kinds pushed to streaming subscribers.
const (
	EventKindOrder      = "order"
	EventKindTrade      = "trade"
	EventKindBookUpdate = "book-update"
)

// MarketEvent is one published event. Ownership passes to the hub for
// the duration of a broadcast; it is never mutated after creation.
// An empty Symbol marks a global event delivered to every session.
type MarketEvent struct {
	Kind      string    `json:"type"`
	Symbol    string    `json:"symbol,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
