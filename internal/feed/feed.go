package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rickgao/marketstream/internal/hub"
	"github.com/rickgao/marketstream/internal/model"
)

// Config holds feed settings.
type Config struct {
	URL           string        // NATS server URL
	SubjectPrefix string        // Subject prefix, e.g. "market"
	ConnectWait   time.Duration // Max wait for the initial connect
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "market",
		ConnectWait:   5 * time.Second,
	}
}

// Stats provides statistics about the feed.
type Stats struct {
	Connected   bool
	Received    int64
	ParseErrors int64
}

// Feed consumes external market events and rebroadcasts them.
type Feed interface {
	// Start connects to NATS and subscribes to trade and book subjects.
	Start(ctx context.Context) error

	// Stop drains subscriptions and closes the connection.
	Stop(ctx context.Context) error

	// Stats returns current feed statistics.
	Stats() Stats
}

// feed implements the Feed interface.
type feed struct {
	cfg    Config
	logger *slog.Logger
	hub    hub.Broadcaster

	nc   *nats.Conn
	subs []*nats.Subscription

	mu          sync.Mutex
	received    int64
	parseErrors int64
}

// New creates a Feed broadcasting through b.
func New(cfg Config, b hub.Broadcaster, logger *slog.Logger) Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &feed{
		cfg:    cfg,
		logger: logger,
		hub:    b,
	}
}

// Start connects and subscribes.
func (f *feed) Start(ctx context.Context) error {
	nc, err := nats.Connect(f.cfg.URL,
		nats.Name("marketstream-feed"),
		nats.Timeout(f.cfg.ConnectWait),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			f.logger.Warn("feed disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			f.logger.Info("feed reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	f.nc = nc

	tradeSub, err := nc.Subscribe(f.cfg.SubjectPrefix+".trades.*", f.handleTrade)
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe trades: %w", err)
	}
	f.subs = append(f.subs, tradeSub)

	bookSub, err := nc.Subscribe(f.cfg.SubjectPrefix+".books.*", f.handleBook)
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe books: %w", err)
	}
	f.subs = append(f.subs, bookSub)

	f.logger.Info("market feed started",
		"url", f.cfg.URL,
		"prefix", f.cfg.SubjectPrefix,
	)
	return nil
}

// Stop unsubscribes and closes the connection.
func (f *feed) Stop(ctx context.Context) error {
	for _, sub := range f.subs {
		if err := sub.Unsubscribe(); err != nil {
			f.logger.Warn("feed unsubscribe failed", "error", err)
		}
	}
	if f.nc != nil {
		f.nc.Close()
	}
	f.logger.Info("market feed stopped")
	return nil
}

// Stats returns current statistics.
func (f *feed) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Connected:   f.nc != nil && f.nc.IsConnected(),
		Received:    f.received,
		ParseErrors: f.parseErrors,
	}
}

// handleTrade rebroadcasts one trade message.
func (f *feed) handleTrade(msg *nats.Msg) {
	var trade model.Trade
	if !f.decode(msg.Data, &trade) {
		return
	}
	if trade.Symbol == "" {
		trade.Symbol = subjectSymbol(msg.Subject)
	}
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	f.hub.Broadcast(model.MarketEvent{
		Kind:      model.EventKindTrade,
		Symbol:    trade.Symbol,
		Data:      trade,
		Timestamp: time.Now(),
	})
}

// handleBook rebroadcasts one order-book update.
func (f *feed) handleBook(msg *nats.Msg) {
	var book model.BookUpdate
	if !f.decode(msg.Data, &book) {
		return
	}
	if book.Symbol == "" {
		book.Symbol = subjectSymbol(msg.Subject)
	}
	if book.Timestamp.IsZero() {
		book.Timestamp = time.Now()
	}

	f.hub.Broadcast(model.MarketEvent{
		Kind:      model.EventKindBookUpdate,
		Symbol:    book.Symbol,
		Data:      book,
		Timestamp: time.Now(),
	})
}

// decode unmarshals a message payload, counting the outcome.
func (f *feed) decode(data []byte, v any) bool {
	err := json.Unmarshal(data, v)

	f.mu.Lock()
	f.received++
	if err != nil {
		f.parseErrors++
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("malformed feed message", "error", err)
		return false
	}
	return true
}

// subjectSymbol extracts the symbol from the subject's last token.
func subjectSymbol(subject string) string {
	idx := strings.LastIndexByte(subject, '.')
	if idx < 0 || idx == len(subject)-1 {
		return ""
	}
	return subject[idx+1:]
}
