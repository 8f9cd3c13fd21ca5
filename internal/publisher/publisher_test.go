package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/rickgao/marketstream/internal/journal"
	"github.com/rickgao/marketstream/internal/model"
)

// captureBroadcaster records every event handed to Broadcast.
type captureBroadcaster struct {
	events []model.MarketEvent
}

func (c *captureBroadcaster) Broadcast(event model.MarketEvent) {
	c.events = append(c.events, event)
}

// failingAppender always fails its durable append.
type failingAppender struct {
	calls int
}

func (f *failingAppender) Append(context.Context, model.Order) error {
	f.calls++
	return errors.New("database unreachable")
}

func validRequest() OrderRequest {
	return OrderRequest{
		Symbol:    "BTCUSD",
		Side:      model.SideBuy,
		OrderType: model.OrderTypeLimit,
		Quantity:  1.5,
		Price:     64000,
		UserID:    7,
	}
}

func TestSubmit_AcceptsValidOrder(t *testing.T) {
	cast := &captureBroadcaster{}
	p := New(cast, journal.NewNop(), nil, nil)

	ack, err := p.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if ack.OrderID == 0 {
		t.Error("OrderID = 0, want positive")
	}
	if ack.Status != "accepted" {
		t.Errorf("Status = %q, want accepted", ack.Status)
	}
	if ack.LatencyMicro < 0 {
		t.Errorf("LatencyMicro = %v, want >= 0", ack.LatencyMicro)
	}

	if len(cast.events) != 1 {
		t.Fatalf("broadcast %d events, want 1", len(cast.events))
	}
	ev := cast.events[0]
	if ev.Kind != model.EventKindOrder {
		t.Errorf("event kind = %q, want order", ev.Kind)
	}
	if ev.Symbol != "BTCUSD" {
		t.Errorf("event symbol = %q, want BTCUSD", ev.Symbol)
	}
	order, ok := ev.Data.(model.Order)
	if !ok {
		t.Fatalf("event data is %T, want model.Order", ev.Data)
	}
	if order.ID != ack.OrderID {
		t.Errorf("broadcast order ID = %d, ack = %d", order.ID, ack.OrderID)
	}
}

func TestSubmit_MonotonicIDs(t *testing.T) {
	p := New(&captureBroadcaster{}, journal.NewNop(), nil, nil)

	var last uint64
	for i := 0; i < 100; i++ {
		ack, err := p.Submit(context.Background(), validRequest())
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		if ack.OrderID <= last {
			t.Fatalf("order %d: ID %d not greater than previous %d", i, ack.OrderID, last)
		}
		last = ack.OrderID
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*OrderRequest)
		wantField string
	}{
		{
			name:      "empty symbol",
			mutate:    func(r *OrderRequest) { r.Symbol = "" },
			wantField: "symbol",
		},
		{
			name:      "bad side",
			mutate:    func(r *OrderRequest) { r.Side = "hold" },
			wantField: "side",
		},
		{
			name:      "bad order type",
			mutate:    func(r *OrderRequest) { r.OrderType = "stop" },
			wantField: "order_type",
		},
		{
			name:      "zero quantity",
			mutate:    func(r *OrderRequest) { r.Quantity = 0 },
			wantField: "quantity",
		},
		{
			name:      "negative quantity",
			mutate:    func(r *OrderRequest) { r.Quantity = -1 },
			wantField: "quantity",
		},
		{
			name:      "limit without price",
			mutate:    func(r *OrderRequest) { r.Price = 0 },
			wantField: "price",
		},
		{
			name:      "limit with negative price",
			mutate:    func(r *OrderRequest) { r.Price = -5 },
			wantField: "price",
		},
		{
			name: "market with price",
			mutate: func(r *OrderRequest) {
				r.OrderType = model.OrderTypeMarket
				r.Price = 100
			},
			wantField: "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cast := &captureBroadcaster{}
			app := &failingAppender{}
			p := New(cast, app, nil, nil)

			req := validRequest()
			tt.mutate(&req)

			ack, err := p.Submit(context.Background(), req)
			if ack != nil {
				t.Errorf("ack = %+v, want nil", ack)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}

			// A rejected request must not touch the hub or the journal.
			if len(cast.events) != 0 {
				t.Errorf("broadcast %d events for rejected order", len(cast.events))
			}
			if app.calls != 0 {
				t.Errorf("journal called %d times for rejected order", app.calls)
			}
		})
	}
}

func TestSubmit_JournalFailureStillBroadcasts(t *testing.T) {
	cast := &captureBroadcaster{}
	app := &failingAppender{}
	p := New(cast, app, nil, nil)

	ack, err := p.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if ack.Status != "accepted" {
		t.Errorf("Status = %q, want accepted", ack.Status)
	}
	if app.calls != 1 {
		t.Errorf("journal called %d times, want 1", app.calls)
	}
	if len(cast.events) != 1 {
		t.Errorf("broadcast %d events, want 1", len(cast.events))
	}
}

func TestSubmit_MarketOrderCarriesNoPrice(t *testing.T) {
	cast := &captureBroadcaster{}
	p := New(cast, journal.NewNop(), nil, nil)

	req := validRequest()
	req.OrderType = model.OrderTypeMarket
	req.Price = 0

	if _, err := p.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	order := cast.events[0].Data.(model.Order)
	if order.Price != 0 {
		t.Errorf("market order price = %v, want 0", order.Price)
	}
}
