package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/marketstream/internal/metrics"
	"github.com/rickgao/marketstream/internal/model"
)

// ErrClosed is returned by Append after the journal has shut down.
var ErrClosed = errors.New("journal closed")

// Appender is the durable append target consumed by the order
// ingestion path.
type Appender interface {
	// Append records an order keyed by symbol. Best-effort: the write
	// is buffered and flushed asynchronously.
	Append(ctx context.Context, order model.Order) error
}

// Config holds journal batching settings.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     1000,
		FlushInterval: time.Second,
		BufferSize:    10000,
	}
}

// Stats contains journal runtime statistics.
type Stats struct {
	Appended  int64
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Buffered  int
}

// orderRow is the database representation of an order.
type orderRow struct {
	OrderID    int64
	Symbol     string
	Side       string
	OrderType  string
	Quantity   float64
	Price      *float64
	UserID     int64
	ReceivedAt int64 // µs since epoch
}

// OrderJournal buffers orders and batch-inserts them into the orders
// table.
type OrderJournal struct {
	cfg    Config
	logger *slog.Logger
	rec    *metrics.Recorder

	buf *growableBuffer[orderRow]
	db  *pgxpool.Pool

	batch       []orderRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats Stats
}

// New creates an OrderJournal writing to db.
func New(cfg Config, db *pgxpool.Pool, rec *metrics.Recorder, logger *slog.Logger) *OrderJournal {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &OrderJournal{
		cfg:    cfg,
		logger: logger,
		rec:    rec,
		db:     db,
		buf:    newGrowableBuffer[orderRow](cfg.BufferSize),
		batch:  make([]orderRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming buffered orders and flushing batches.
func (j *OrderJournal) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.flushTicker = time.NewTicker(j.cfg.FlushInterval)

	j.wg.Add(1)
	go j.consumeLoop()

	j.wg.Add(1)
	go j.flushLoop()

	j.logger.Info("order journal started",
		"batch_size", j.cfg.BatchSize,
		"flush_interval", j.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the journal, flushing whatever remains.
func (j *OrderJournal) Stop(ctx context.Context) error {
	j.logger.Info("stopping order journal")

	j.buf.Close()
	if j.cancel != nil {
		j.cancel()
	}
	if j.flushTicker != nil {
		j.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		j.logger.Warn("order journal stop timed out")
	}

	// Drain anything still buffered, then flush.
	if rows := j.buf.DrainTo(0); len(rows) > 0 {
		j.batchMu.Lock()
		j.batch = append(j.batch, rows...)
		j.batchMu.Unlock()
	}
	j.flush(context.Background())

	j.logger.Info("order journal stopped")
	return nil
}

// Append buffers one order for asynchronous insertion.
func (j *OrderJournal) Append(ctx context.Context, order model.Order) error {
	row := orderRow{
		OrderID:    int64(order.ID),
		Symbol:     order.Symbol,
		Side:       string(order.Side),
		OrderType:  string(order.OrderType),
		Quantity:   order.Quantity,
		UserID:     int64(order.UserID),
		ReceivedAt: order.Timestamp.UnixMicro(),
	}
	if order.OrderType.RequiresPrice() {
		price := order.Price
		row.Price = &price
	}

	if !j.buf.Send(row) {
		return ErrClosed
	}

	j.batchMu.Lock()
	j.stats.Appended++
	j.batchMu.Unlock()
	return nil
}

// Stats returns current journal statistics.
func (j *OrderJournal) Stats() Stats {
	j.batchMu.Lock()
	defer j.batchMu.Unlock()
	s := j.stats
	s.Buffered = j.buf.Len()
	return s
}

// consumeLoop moves buffered rows into the current batch.
func (j *OrderJournal) consumeLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		default:
			rows := j.buf.DrainTo(j.cfg.BatchSize)
			if len(rows) == 0 {
				select {
				case <-j.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			j.batchMu.Lock()
			j.batch = append(j.batch, rows...)
			shouldFlush := len(j.batch) >= j.cfg.BatchSize
			j.batchMu.Unlock()

			if shouldFlush {
				j.flush(j.ctx)
			}
		}
	}
}

// flushLoop periodically flushes the batch.
func (j *OrderJournal) flushLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-j.flushTicker.C:
			j.flush(j.ctx)
		}
	}
}

// flush writes the current batch to the database.
func (j *OrderJournal) flush(ctx context.Context) {
	j.batchMu.Lock()
	if len(j.batch) == 0 {
		j.batchMu.Unlock()
		return
	}
	batch := j.batch
	j.batch = make([]orderRow, 0, j.cfg.BatchSize)
	j.batchMu.Unlock()

	start := time.Now()

	conflicts, err := j.batchInsert(ctx, batch)
	if err != nil {
		j.logger.Error("order batch insert failed", "error", err, "count", len(batch))
		j.rec.JournalError()
		j.batchMu.Lock()
		j.stats.Errors++
		j.batchMu.Unlock()
		return
	}

	j.batchMu.Lock()
	j.stats.Inserts += int64(len(batch) - conflicts)
	j.stats.Conflicts += int64(conflicts)
	j.stats.Flushes++
	j.batchMu.Unlock()

	j.logger.Debug("flushed orders",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (j *OrderJournal) batchInsert(ctx context.Context, rows []orderRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO orders (order_id, symbol, side, order_type, quantity, price, user_id, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (order_id) DO NOTHING
		`, r.OrderID, r.Symbol, r.Side, r.OrderType, r.Quantity, r.Price, r.UserID, r.ReceivedAt)
	}

	results := j.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}

// Nop is an Appender that discards everything. Used when no journal
// database is configured.
type Nop struct{}

// NewNop returns a no-op Appender.
func NewNop() Nop { return Nop{} }

// Append implements Appender.
func (Nop) Append(context.Context, model.Order) error { return nil }
