package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels for the latency histogram.
const (
	OpIngest    = "ingest"
	OpBroadcast = "broadcast_enqueue"
)

// Recorder records counters and latency histograms for the streaming
// hot path. It is observability only; nothing reads it for control
// decisions.
type Recorder struct {
	connections      *prometheus.GaugeVec
	ordersProcessed  *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	messagesStreamed *prometheus.CounterVec
	sessionsShed     prometheus.Counter
	journalErrors    prometheus.Counter
	latency          *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trading_websocket_connections",
				Help: "Current number of WebSocket connections by state.",
			},
			[]string{"state"},
		),
		ordersProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trading_orders_processed_total",
				Help: "Total number of orders processed.",
			},
			[]string{"symbol", "side", "type"},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trading_events_published_total",
				Help: "Total number of events handed to the hub for broadcast.",
			},
			[]string{"type"},
		),
		messagesStreamed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trading_messages_streamed_total",
				Help: "Total number of messages enqueued to subscriber sessions.",
			},
			[]string{"type"},
		),
		sessionsShed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trading_sessions_shed_total",
				Help: "Total number of sessions disconnected due to queue overflow.",
			},
		),
		journalErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trading_journal_errors_total",
				Help: "Total number of failed order journal writes.",
			},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trading_processing_latency_microseconds",
				Help:    "Processing latency in microseconds.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 20),
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		r.connections,
		r.ordersProcessed,
		r.eventsPublished,
		r.messagesStreamed,
		r.sessionsShed,
		r.journalErrors,
		r.latency,
	)

	return r
}

// ConnInc increments the connection gauge for the given state.
func (r *Recorder) ConnInc(state string) {
	r.connections.WithLabelValues(state).Inc()
}

// ConnDec decrements the connection gauge for the given state.
func (r *Recorder) ConnDec(state string) {
	r.connections.WithLabelValues(state).Dec()
}

// OrderProcessed counts one accepted order.
func (r *Recorder) OrderProcessed(symbol, side, orderType string) {
	r.ordersProcessed.WithLabelValues(symbol, side, orderType).Inc()
}

// EventPublished counts one event handed to the hub.
func (r *Recorder) EventPublished(kind string) {
	r.eventsPublished.WithLabelValues(kind).Inc()
}

// MessagesStreamed counts n messages enqueued to sessions.
func (r *Recorder) MessagesStreamed(kind string, n int) {
	r.messagesStreamed.WithLabelValues(kind).Add(float64(n))
}

// SessionShed counts one session disconnected for overflow.
func (r *Recorder) SessionShed() {
	r.sessionsShed.Inc()
}

// JournalError counts one failed journal write.
func (r *Recorder) JournalError() {
	r.journalErrors.Inc()
}

// ObserveLatency records an operation latency.
func (r *Recorder) ObserveLatency(operation string, d time.Duration) {
	r.latency.WithLabelValues(operation).Observe(float64(d.Nanoseconds()) / 1000)
}

// Nop returns a Recorder backed by a throwaway registry, for callers
// that do not care about metrics (mostly tests).
func Nop() *Recorder {
	return NewRecorder(prometheus.NewRegistry())
}
