package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rickgao/marketstream/internal/hub"
	"github.com/rickgao/marketstream/internal/journal"
	"github.com/rickgao/marketstream/internal/metrics"
	"github.com/rickgao/marketstream/internal/model"
)

// OrderRequest is an inbound order placement request.
type OrderRequest struct {
	Symbol    string          `json:"symbol"`
	Side      model.Side      `json:"side"`
	OrderType model.OrderType `json:"order_type"`
	Quantity  float64         `json:"quantity"`
	Price     float64         `json:"price,omitempty"`
	UserID    uint32          `json:"user_id"`
}

// OrderAck is returned to the caller for an accepted order.
type OrderAck struct {
	OrderID      uint64  `json:"order_id"`
	Status       string  `json:"status"`
	LatencyMicro float64 `json:"latency_microseconds"`
}

// ValidationError describes a rejected order request. No order ID is
// assigned and nothing is broadcast or journaled on validation failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order request: %s %s", e.Field, e.Reason)
}

// Publisher turns validated order requests into broadcast events.
type Publisher interface {
	// Submit validates req, assigns identity, journals the order and
	// broadcasts it. Returns a *ValidationError for bad input.
	Submit(ctx context.Context, req OrderRequest) (*OrderAck, error)
}

// publisher implements the Publisher interface.
type publisher struct {
	logger *slog.Logger
	rec    *metrics.Recorder

	hub     hub.Broadcaster
	journal journal.Appender

	lastID atomic.Uint64
}

// New creates a Publisher broadcasting through b and journaling to a.
func New(b hub.Broadcaster, a journal.Appender, rec *metrics.Recorder, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &publisher{
		logger:  logger,
		rec:     rec,
		hub:     b,
		journal: a,
	}
}

// Submit processes one order request.
func (p *publisher) Submit(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	start := time.Now()

	if err := req.validate(); err != nil {
		return nil, err
	}

	order := model.Order{
		ID:        p.lastID.Add(1),
		Symbol:    req.Symbol,
		Side:      req.Side,
		OrderType: req.OrderType,
		Quantity:  req.Quantity,
		Price:     req.Price,
		UserID:    req.UserID,
		Timestamp: start,
	}

	// Durable append is best-effort: failures are logged and counted,
	// the broadcast still proceeds.
	if err := p.journal.Append(ctx, order); err != nil {
		p.logger.Error("order journal append failed",
			"order_id", order.ID,
			"symbol", order.Symbol,
			"error", err,
		)
		p.rec.JournalError()
	}

	p.hub.Broadcast(model.MarketEvent{
		Kind:      model.EventKindOrder,
		Symbol:    order.Symbol,
		Data:      order,
		Timestamp: time.Now(),
	})

	latency := time.Since(start)
	p.rec.OrderProcessed(order.Symbol, string(order.Side), string(order.OrderType))
	p.rec.ObserveLatency(metrics.OpIngest, latency)

	return &OrderAck{
		OrderID:      order.ID,
		Status:       "accepted",
		LatencyMicro: float64(latency.Nanoseconds()) / 1000,
	}, nil
}

// validate checks the request against the input contract.
func (r *OrderRequest) validate() error {
	if r.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if !r.Side.IsValid() {
		return &ValidationError{Field: "side", Reason: `must be "buy" or "sell"`}
	}
	if !r.OrderType.IsValid() {
		return &ValidationError{Field: "order_type", Reason: `must be "market" or "limit"`}
	}
	if r.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if r.OrderType.RequiresPrice() && r.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "required for limit orders"}
	}
	if !r.OrderType.RequiresPrice() && r.Price != 0 {
		return &ValidationError{Field: "price", Reason: "not allowed for market orders"}
	}
	return nil
}
